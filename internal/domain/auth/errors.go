package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrWeakPassword       = errors.New("password must be at least 8 characters with upper, lower and digit")
	ErrInactiveUser       = errors.New("account is deactivated")
)
