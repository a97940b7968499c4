package models

// Event is a security-relevant occurrence dispatched for audit and
// monitoring. Dispatch is fire-and-forget; orchestrators never block on it.
type Event interface {
	EventName() string
}

type LoginFailed struct {
	Reason         string
	FailedAttempts int
	IPAddress      string
}

func (LoginFailed) EventName() string { return "auth.login_failed" }

type LoginSucceeded struct {
	UserID    string
	Role      string
	TenantID  *string
	IPAddress string
	UserAgent string
}

func (LoginSucceeded) EventName() string { return "auth.login_succeeded" }

// TokenReuseDetected signals replay of an already-rotated refresh secret,
// the theft indicator that triggers chain revocation.
type TokenReuseDetected struct {
	UserID    string
	TokenID   string
	IPAddress string
}

func (TokenReuseDetected) EventName() string { return "auth.token_reuse_detected" }

type TokenRefreshed struct {
	UserID    string
	IPAddress string
}

func (TokenRefreshed) EventName() string { return "auth.token_refreshed" }

type MFAEnabled struct {
	UserID string
}

func (MFAEnabled) EventName() string { return "auth.mfa_enabled" }

type MFAVerified struct {
	UserID    string
	IPAddress string
}

func (MFAVerified) EventName() string { return "auth.mfa_verified" }

type LoggedOut struct {
	UserID string
	JTI    string
}

func (LoggedOut) EventName() string { return "auth.logged_out" }
