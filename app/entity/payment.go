package entity

import "time"

// Payment is one row of the billing log. A row is appended per payment
// attempt (including replaced attempts) and is never deleted; only its
// status and reference move as the attempt progresses.
type Payment struct {
	ID uint64

	Username         string
	Amount           int64
	SubscriptionType string

	CheckoutID     string
	RealCheckoutID *string

	Status    string
	Reference string

	CreatedAt time.Time
}
