package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTokenRecord_IsConsumable(t *testing.T) {
	now := time.Now()
	used := now.Add(-1 * time.Minute)

	tests := []struct {
		name   string
		record RefreshTokenRecord
		want   bool
	}{
		{"fresh record", RefreshTokenRecord{ExpiresAt: now.Add(time.Hour)}, true},
		{"already used", RefreshTokenRecord{ExpiresAt: now.Add(time.Hour), UsedAt: &used}, false},
		{"revoked", RefreshTokenRecord{ExpiresAt: now.Add(time.Hour), RevokedAt: &used}, false},
		{"expired", RefreshTokenRecord{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", RefreshTokenRecord{ExpiresAt: now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.IsConsumable(now))
		})
	}
}
