package models

import (
	"math"
	"time"
)

// Account statuses shared by platform and condominium users
const (
	StatusActive   = "active"
	StatusInvited  = "invited"
	StatusDisabled = "disabled"
	StatusBlocked  = "blocked"
)

// Lockout policy constants. The counter is shared between password and MFA
// failures; reaching the threshold locks the account for the full duration.
const (
	MaxFailedLoginAttempts = 10
	LockoutDuration        = 30 * time.Minute
)

// User is an authenticatable account. Platform users live in the public
// schema, condominium users in their condominium's schema; both share this
// shape.
type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	Role                string // e.g. "resident", "manager", "platform_admin"
	Status              string
	MFAEnabled          bool
	MFASecret           *string
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CanLogIn reports whether the account status permits authentication.
// Lockout is checked separately so callers can report the remaining time.
func (u *User) CanLogIn() bool {
	return u.Status == StatusActive
}

// IsLocked reports whether a temporary lockout is in effect at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// IncrementFailedAttempts bumps the failure counter and engages the lockout
// once the threshold is reached. The caller persists the user afterwards.
func (u *User) IncrementFailedAttempts(now time.Time) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= MaxFailedLoginAttempts {
		lockedUntil := now.Add(LockoutDuration)
		u.LockedUntil = &lockedUntil
	}
}

// RecordLogin resets the failure state after a successful password or MFA
// verification and stamps the login time.
func (u *User) RecordLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
}

// LockoutRemainingMinutes returns the ceiling of minutes until the lockout
// expires, clamped to zero.
func (u *User) LockoutRemainingMinutes(now time.Time) int {
	if u.LockedUntil == nil {
		return 0
	}
	remaining := u.LockedUntil.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Minutes()))
}
