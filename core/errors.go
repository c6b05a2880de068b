package core

import "errors"

// Identity and credential errors
var (
	ErrDuplicateIdentity  = errors.New("an account with that identity already exists") // 409 Conflict
	ErrAccountNotFound    = errors.New("account not found")                            // 404 Not Found
	ErrInvalidCredentials = errors.New("invalid identifier or password")               // 401 Unauthorized
)

// Token errors. One class for session and reset tokens alike - the
// caller never learns whether a bad token was unknown, revoked,
// expired or already used.
var (
	ErrInvalidToken = errors.New("invalid or expired token") // 401
)

// Validation errors (client input). Callers match the whole class with
// IsInvalidInput.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNameRequired     = errors.New("invalid input: name is required")
	ErrEmailRequired    = errors.New("invalid input: email is required")
	ErrPhoneRequired    = errors.New("invalid input: phone is required")
	ErrVehicleRequired  = errors.New("invalid input: vehicle number is required")
	ErrLicenseRequired  = errors.New("invalid input: license number is required")
	ErrPasswordRequired = errors.New("invalid input: password is required")
	ErrPasswordTooShort = errors.New("invalid input: password must be at least 6 characters")
)

// Backup and storage errors
var (
	ErrInvalidBackup  = errors.New("invalid backup document")
	ErrStorageFailure = errors.New("storage failure")
)

// Config errors (wiring-time, not request-time)
var (
	ErrStorageRequired = errors.New("storage adapter is required")
)

// IsInvalidInput reports whether err belongs to the validation class.
func IsInvalidInput(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrPhoneRequired),
		errors.Is(err, ErrVehicleRequired),
		errors.Is(err, ErrLicenseRequired),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrPasswordTooShort):
		return true
	}
	return false
}
