package entity

import "time"

const (
	CallbackLogProcessed int32 = 10
	CallbackLogRejected  int32 = 20
)

type CallbackLog struct {
	ID uint64

	CheckoutID  string
	PayloadJSON string
	Status      int32
	Error       *string

	CreatedAt time.Time
}
