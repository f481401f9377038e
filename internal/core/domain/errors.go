package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Lending errors
var (
	ErrReaderNotFound    = errors.New("reader not found")
	ErrBookNotFound      = errors.New("book not found")
	ErrBookUnavailable   = errors.New("book not available")
	ErrLoanNotFound      = errors.New("loan not found")
	ErrAlreadyReturned   = errors.New("book already returned")
	ErrNegativeCopyCount = errors.New("copy count would go negative")
)
