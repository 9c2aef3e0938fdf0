package service

import "errors"

var (
	ErrValidation          = errors.New("invalid request")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInsufficientWords   = errors.New("not enough words remaining")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUnauthorized        = errors.New("unauthorized access to transaction")
	ErrAlreadyTerminal     = errors.New("transaction is already in a terminal state")
)
