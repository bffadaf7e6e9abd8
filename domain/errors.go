package domain

import "errors"

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRateLimited  = errors.New("too many requests")
)

// MFA errors
var (
	ErrInvalidMFACode    = errors.New("invalid verification code")
	ErrMFAAlreadyEnabled = errors.New("two-factor authentication already enabled")
	ErrMFANotEnabled     = errors.New("two-factor authentication not enabled")
)

// Store errors
var (
	ErrConflict           = errors.New("resource already exists")
	ErrNotFound           = errors.New("resource not found")
	ErrTransactionFailure = errors.New("transaction failed")
)

// Validation errors
var ErrInvalidInput = errors.New("invalid input")

// Authorization errors
var (
	ErrForbidden         = errors.New("insufficient permissions")
	ErrIllegalTransition = errors.New("illegal account status transition")
)
