package entity

import "time"

type User struct {
	ID uint64

	Username     string
	PasswordHash string
	PhoneNumber  string

	WordsRemaining int64

	CreatedAt time.Time
	LastLogin time.Time
}
