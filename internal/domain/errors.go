package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrInvalidOTPOrEmail  = errors.New("invalid email or otp")
	ErrNotVerified        = errors.New("account not verified")
	ErrAlreadyVerified    = errors.New("account already verified")
)

// NotVerifiedError is returned by login when the credentials match an
// unverified account. It carries the user id so the client can route to OTP entry.
type NotVerifiedError struct {
	UserID string
}

func (e *NotVerifiedError) Error() string { return ErrNotVerified.Error() }

func (e *NotVerifiedError) Unwrap() error { return ErrNotVerified }
