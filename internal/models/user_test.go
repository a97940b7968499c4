package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_IncrementFailedAttempts_LocksAtThreshold(t *testing.T) {
	now := time.Now()

	user := &User{Status: StatusActive, FailedLoginAttempts: 9}
	user.IncrementFailedAttempts(now)

	assert.Equal(t, 10, user.FailedLoginAttempts)
	assert.True(t, user.IsLocked(now), "10th failure must lock immediately")
	assert.Equal(t, now.Add(LockoutDuration), *user.LockedUntil)
}

func TestUser_IncrementFailedAttempts_BelowThresholdDoesNotLock(t *testing.T) {
	now := time.Now()

	user := &User{Status: StatusActive, FailedLoginAttempts: 8}
	user.IncrementFailedAttempts(now)

	assert.Equal(t, 9, user.FailedLoginAttempts)
	assert.False(t, user.IsLocked(now))
	assert.Nil(t, user.LockedUntil)
}

func TestUser_IsLocked_ExpiredLockIsNotLocked(t *testing.T) {
	now := time.Now()
	past := now.Add(-1 * time.Minute)

	user := &User{LockedUntil: &past}

	assert.False(t, user.IsLocked(now))
}

func TestUser_RecordLogin_ResetsFailureState(t *testing.T) {
	now := time.Now()
	lockedUntil := now.Add(10 * time.Minute)

	user := &User{FailedLoginAttempts: 7, LockedUntil: &lockedUntil}
	user.RecordLogin(now)

	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.Nil(t, user.LockedUntil)
	assert.Equal(t, now, *user.LastLoginAt)
}

func TestUser_LockoutRemainingMinutes(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		lockedUntil *time.Time
		want        int
	}{
		{"no lock", nil, 0},
		{"expired lock", ptr(now.Add(-5 * time.Minute)), 0},
		{"partial minute rounds up", ptr(now.Add(90 * time.Second)), 2},
		{"full window", ptr(now.Add(30 * time.Minute)), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{LockedUntil: tt.lockedUntil}
			assert.Equal(t, tt.want, user.LockoutRemainingMinutes(now))
		})
	}
}

func TestUser_CanLogIn(t *testing.T) {
	for _, status := range []string{StatusInvited, StatusDisabled, StatusBlocked} {
		user := &User{Status: status}
		assert.False(t, user.CanLogIn(), "status %s must not log in", status)
	}

	user := &User{Status: StatusActive}
	assert.True(t, user.CanLogIn())
}

func ptr(t time.Time) *time.Time { return &t }
