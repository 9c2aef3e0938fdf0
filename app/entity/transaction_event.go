package entity

import "time"

type TransactionEvent struct {
	ID uint64

	CheckoutID string

	EventType string

	OldStatus *string
	NewStatus string

	CreatedAt time.Time
}
