package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeUser() *models.User {
	return &models.User{
		ID:           "user_1",
		Email:        "resident@example.com",
		PasswordHash: "hashed:correct-horse",
		Role:         "resident",
		Status:       models.StatusActive,
	}
}

func storeFor(user *models.User) *MockUserStore {
	return &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if user != nil && email == user.Email {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if user != nil && id == user.ID {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	user := activeUser()
	user.FailedLoginAttempts = 3
	svc, ledger, _, dispatcher := newTestAuthService(storeFor(user))

	result, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{IPAddress: "198.51.100.7"})

	require.NoError(t, err)
	require.NotNil(t, result.Tokens)
	assert.False(t, result.MFARequired)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.Len(t, result.Tokens.RefreshToken, 64)
	assert.Equal(t, 900, result.Tokens.ExpiresIn)

	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.NotNil(t, user.LastLoginAt)
	assert.Equal(t, 1, ledger.Len())
	assert.Len(t, dispatcher.Named("auth.login_succeeded"), 1)
}

func TestAuthService_Login_EmailIsNormalized(t *testing.T) {
	user := activeUser()
	svc, _, _, _ := newTestAuthService(storeFor(user))

	result, err := svc.Login(context.Background(), "  Resident@Example.COM ", "correct-horse", nil, RequestMeta{})

	require.NoError(t, err)
	require.NotNil(t, result.Tokens)
}

func TestAuthService_Login_FailureUniformity(t *testing.T) {
	user := activeUser()
	svc, _, _, _ := newTestAuthService(storeFor(user))

	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "whatever", nil, RequestMeta{})
	_, wrongPwErr := svc.Login(context.Background(), "resident@example.com", "wrong", nil, RequestMeta{})

	assert.ErrorIs(t, unknownErr, models.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPwErr, models.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongPwErr.Error())
}

func TestAuthService_Login_WrongPasswordIncrementsCounter(t *testing.T) {
	user := activeUser()
	var persisted *models.User
	store := storeFor(user)
	store.UpdateLoginAttemptsFunc = func(ctx context.Context, u *models.User) error {
		persisted = u
		return nil
	}
	svc, _, _, dispatcher := newTestAuthService(store)

	_, err := svc.Login(context.Background(), "resident@example.com", "wrong", nil, RequestMeta{})

	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	require.NotNil(t, persisted)
	assert.Equal(t, 1, persisted.FailedLoginAttempts)
	assert.Nil(t, persisted.LockedUntil)
	assert.Len(t, dispatcher.Named("auth.login_failed"), 1)
}

func TestAuthService_Login_TenthFailureLocksAccount(t *testing.T) {
	user := activeUser()
	user.FailedLoginAttempts = models.MaxFailedLoginAttempts - 1
	svc, _, _, _ := newTestAuthService(storeFor(user))

	_, err := svc.Login(context.Background(), "resident@example.com", "wrong", nil, RequestMeta{})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	require.NotNil(t, user.LockedUntil)

	// Even the correct password is rejected while locked.
	_, err = svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	assert.ErrorIs(t, err, models.ErrAccountLocked)

	var authErr *models.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 30, authErr.Context["remaining_minutes"])
}

func TestAuthService_Login_ExpiredLockoutAdmitsUser(t *testing.T) {
	user := activeUser()
	user.FailedLoginAttempts = models.MaxFailedLoginAttempts
	past := time.Now().UTC().Add(-time.Minute)
	user.LockedUntil = &past
	svc, _, _, _ := newTestAuthService(storeFor(user))

	result, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})

	require.NoError(t, err)
	require.NotNil(t, result.Tokens)
	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.Nil(t, user.LockedUntil)
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	user := activeUser()
	user.Status = models.StatusDisabled
	svc, _, _, _ := newTestAuthService(storeFor(user))

	_, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})

	assert.ErrorIs(t, err, models.ErrAccountDisabled)
}

func TestAuthService_Login_DisabledWinsOverLocked(t *testing.T) {
	user := activeUser()
	user.Status = models.StatusDisabled
	user.FailedLoginAttempts = models.MaxFailedLoginAttempts
	locked := time.Now().UTC().Add(15 * time.Minute)
	user.LockedUntil = &locked
	svc, _, _, _ := newTestAuthService(storeFor(user))

	_, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})

	assert.ErrorIs(t, err, models.ErrAccountDisabled)
}

func TestAuthService_Login_MFARequiredBranch(t *testing.T) {
	user := activeUser()
	secret := "JBSWY3DPEHPK3PXP"
	user.MFAEnabled = true
	user.MFASecret = &secret
	svc, ledger, _, _ := newTestAuthService(storeFor(user))

	result, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})

	require.NoError(t, err)
	assert.True(t, result.MFARequired)
	assert.NotEmpty(t, result.MFAToken)
	assert.Nil(t, result.Tokens)
	// No session exists until the challenge is answered.
	assert.Equal(t, 0, ledger.Len())

	claims, err := svc.tm.Validate(result.MFAToken)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeMFARequired, claims.Type)
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	user := activeUser()
	svc, ledger, _, dispatcher := newTestAuthService(storeFor(user))

	result, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), result.Tokens.RefreshToken, nil, RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, result.Tokens.RefreshToken, pair.RefreshToken)

	assert.Equal(t, 2, ledger.Len())
	assert.Len(t, dispatcher.Named("auth.token_refreshed"), 1)
}

func TestAuthService_Refresh_ReplayRevokesChain(t *testing.T) {
	user := activeUser()
	svc, ledger, _, dispatcher := newTestAuthService(storeFor(user))

	login, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)
	first := login.Tokens.RefreshToken

	second, err := svc.Refresh(context.Background(), first, nil, RequestMeta{})
	require.NoError(t, err)
	third, err := svc.Refresh(context.Background(), second.RefreshToken, nil, RequestMeta{})
	require.NoError(t, err)

	// Replaying the first secret revokes every descendant.
	_, err = svc.Refresh(context.Background(), first, nil, RequestMeta{IPAddress: "203.0.113.66"})
	assert.ErrorIs(t, err, models.ErrInvalidToken)
	assert.Len(t, dispatcher.Named("auth.token_reuse_detected"), 1)

	_, err = svc.Refresh(context.Background(), third.RefreshToken, nil, RequestMeta{})
	assert.ErrorIs(t, err, models.ErrInvalidToken)
	assert.Equal(t, 3, ledger.Len())
}

func TestAuthService_Refresh_EveryReplayIsAudited(t *testing.T) {
	user := activeUser()
	svc, _, _, dispatcher := newTestAuthService(storeFor(user))

	login, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)
	first := login.Tokens.RefreshToken

	_, err = svc.Refresh(context.Background(), first, nil, RequestMeta{})
	require.NoError(t, err)

	// The first replay revokes the chain; the second presents a secret that
	// is both used and revoked. Each presentation is its own theft signal.
	_, err = svc.Refresh(context.Background(), first, nil, RequestMeta{IPAddress: "203.0.113.66"})
	assert.ErrorIs(t, err, models.ErrInvalidToken)
	_, err = svc.Refresh(context.Background(), first, nil, RequestMeta{IPAddress: "203.0.113.67"})
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	assert.Len(t, dispatcher.Named("auth.token_reuse_detected"), 2)
}

func TestAuthService_Refresh_UnknownSecret(t *testing.T) {
	svc, _, _, _ := newTestAuthService(storeFor(nil))

	_, err := svc.Refresh(context.Background(), "deadbeef", nil, RequestMeta{})

	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestAuthService_Refresh_ExpiredToken(t *testing.T) {
	user := activeUser()
	store := storeFor(user)
	svc, ledger, _, _ := newTestAuthService(store)
	svc.refreshTTL = -time.Minute

	login, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), login.Tokens.RefreshToken, nil, RequestMeta{})
	assert.ErrorIs(t, err, models.ErrTokenExpired)

	// Expiry is not consumption.
	record, ok := ledger.Get(firstRecordID(ledger))
	require.True(t, ok)
	assert.Nil(t, record.UsedAt)
}

func TestAuthService_Refresh_DisabledAccountCutsAllSessions(t *testing.T) {
	user := activeUser()
	svc, _, _, _ := newTestAuthService(storeFor(user))

	a, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)
	b, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)

	user.Status = models.StatusDisabled
	_, err = svc.Refresh(context.Background(), a.Tokens.RefreshToken, nil, RequestMeta{})
	assert.ErrorIs(t, err, models.ErrAccountDisabled)

	// The disable cascade revoked the other session too.
	user.Status = models.StatusActive
	_, err = svc.Refresh(context.Background(), b.Tokens.RefreshToken, nil, RequestMeta{})
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestAuthService_Refresh_ConcurrentSingleConsumption(t *testing.T) {
	user := activeUser()
	svc, _, _, dispatcher := newTestAuthService(storeFor(user))

	login, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)
	secret := login.Tokens.RefreshToken

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(context.Background(), secret, nil, RequestMeta{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, models.ErrInvalidToken)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.NotEmpty(t, dispatcher.Named("auth.token_reuse_detected"))
}

func TestAuthService_Logout_RevokesAccessTokenAndSessions(t *testing.T) {
	user := activeUser()
	svc, _, revocations, dispatcher := newTestAuthService(storeFor(user))

	login, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)

	claims, err := svc.tm.Validate(login.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))

	revoked, err := revocations.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = svc.Refresh(context.Background(), login.Tokens.RefreshToken, nil, RequestMeta{})
	assert.ErrorIs(t, err, models.ErrInvalidToken)
	assert.Len(t, dispatcher.Named("auth.logged_out"), 1)
}

func TestAuthService_Logout_EndsEverySession(t *testing.T) {
	user := activeUser()
	svc, _, _, _ := newTestAuthService(storeFor(user))

	a, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)
	b, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)

	claims, err := svc.tm.Validate(a.Tokens.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), claims))

	// Both sessions die, not just the one whose token was presented.
	_, err = svc.Refresh(context.Background(), a.Tokens.RefreshToken, nil, RequestMeta{})
	assert.ErrorIs(t, err, models.ErrInvalidToken)
	_, err = svc.Refresh(context.Background(), b.Tokens.RefreshToken, nil, RequestMeta{})
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestAuthService_Logout_IsIdempotent(t *testing.T) {
	user := activeUser()
	svc, _, _, _ := newTestAuthService(storeFor(user))

	login, err := svc.Login(context.Background(), "resident@example.com", "correct-horse", nil, RequestMeta{})
	require.NoError(t, err)

	claims, err := svc.tm.Validate(login.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))
	require.NoError(t, svc.Logout(context.Background(), claims))
}

func firstRecordID(ledger *MemoryLedger) string {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	for id := range ledger.records {
		return id
	}
	return ""
}
