package entity

import "time"

// Transaction is the authoritative payment state-machine record, keyed by
// the client-generated checkout id. RealCheckoutID holds the alias the
// provider may assign; lookups must match either id.
type Transaction struct {
	CheckoutID     string
	RealCheckoutID *string

	Username         string
	Amount           int64
	SubscriptionType string

	Status    string
	Reference *string
	Error     *string

	CallbackURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}
