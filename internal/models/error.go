package models

import "errors"

// Sentinel errors for infrastructure-level failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
)

// Machine-readable codes for authentication failures
const (
	CodeInvalidCredentials   = "invalid_credentials"
	CodeAccountDisabled      = "account_disabled"
	CodeAccountLocked        = "account_locked"
	CodeInvalidToken         = "invalid_token"
	CodeTokenExpired         = "token_expired"
	CodeMFAAlreadyConfigured = "mfa_already_configured"
	CodeMFANotConfigured     = "mfa_not_configured"
)

// AuthError is a typed authentication failure carrying a machine-readable
// code and an optional context map. It never wraps a raw internal error;
// infrastructure failures surface as ErrInternalServer instead.
type AuthError struct {
	Code    string
	Context map[string]any
}

func (e *AuthError) Error() string {
	return e.Code
}

// Is matches AuthErrors by code, so errors.Is(err, ErrAccountLocked) holds
// for any locked error regardless of its context payload.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

// Authentication failure values. Use these with errors.Is; build
// context-carrying variants with the constructors below.
var (
	ErrInvalidCredentials   = &AuthError{Code: CodeInvalidCredentials}
	ErrAccountDisabled      = &AuthError{Code: CodeAccountDisabled}
	ErrAccountLocked        = &AuthError{Code: CodeAccountLocked}
	ErrInvalidToken         = &AuthError{Code: CodeInvalidToken}
	ErrTokenExpired         = &AuthError{Code: CodeTokenExpired}
	ErrMFAAlreadyConfigured = &AuthError{Code: CodeMFAAlreadyConfigured}
	ErrMFANotConfigured     = &AuthError{Code: CodeMFANotConfigured}
)

// NewAccountLockedError reports how long the caller has to wait.
func NewAccountLockedError(remainingMinutes int) *AuthError {
	return &AuthError{
		Code:    CodeAccountLocked,
		Context: map[string]any{"remaining_minutes": remainingMinutes},
	}
}
