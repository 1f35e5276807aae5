package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied email/password pair is
	// invalid. Unknown email and wrong password are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountInactive signals valid credentials on an account that has not
	// completed activation.
	ErrAccountInactive = errors.New("auth: account not activated")
	// ErrInvalidToken covers every token rejection: unknown, expired, tampered,
	// or already consumed. Internal distinctions are logged, never returned.
	ErrInvalidToken = errors.New("auth: invalid or expired token")
	// ErrAccountAlreadyActive is returned when activation is issued for an
	// account that has already completed it.
	ErrAccountAlreadyActive = errors.New("auth: account already active")
	// ErrUserNotFound is returned by id-based lookups only, never by the
	// email/token lookups used in authentication flows.
	ErrUserNotFound = errors.New("auth: user not found")
)
