package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/auth"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	"github.com/google/uuid"
)

// UserStore defines the account operations the auth flows need. Platform
// and condominium repositories both satisfy it.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateLoginAttempts(ctx context.Context, user *models.User) error
	UpdateMFA(ctx context.Context, user *models.User) error
}

// RefreshTokenStore is the rotation ledger interface.
type RefreshTokenStore interface {
	Store(ctx context.Context, record *models.RefreshTokenRecord) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshTokenRecord, error)
	MarkAsUsed(ctx context.Context, id string, usedAt time.Time) error
	RevokeChain(ctx context.Context, id string, revokedAt time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, revokedAt time.Time) error
}

// RevocationStore is the access-token denylist interface.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// PasswordHasher verifies and hashes credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// RequestMeta carries per-request client attribution into the auth flows.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// TokenPair is a freshly issued access token plus the raw refresh secret.
// The refresh secret is not recoverable after this response.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// LoginResult is the outcome of a successful credential check: either a
// full token pair, or an MFA challenge token when step-up is required.
type LoginResult struct {
	MFARequired bool       `json:"mfa_required"`
	MFAToken    string     `json:"mfa_token,omitempty"`
	Tokens      *TokenPair `json:"tokens,omitempty"`
}

// AuthService orchestrates login, token rotation, and logout for one realm.
// The platform instance runs over the public users table with a nil tenant;
// the condominium instance runs over tenant schemas selected by context.
type AuthService struct {
	users         UserStore
	refreshTokens RefreshTokenStore
	revocations   RevocationStore
	tm            *auth.TokenManager
	hasher        PasswordHasher
	timing        *auth.TimingDelay
	dispatcher    EventDispatcher
	logger        *slog.Logger
	refreshTTL    time.Duration
}

func NewAuthService(
	users UserStore,
	refreshTokens RefreshTokenStore,
	revocations RevocationStore,
	tm *auth.TokenManager,
	hasher PasswordHasher,
	timing *auth.TimingDelay,
	dispatcher EventDispatcher,
	logger *slog.Logger,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		revocations:   revocations,
		tm:            tm,
		hasher:        hasher,
		timing:        timing,
		dispatcher:    dispatcher,
		logger:        logger,
		refreshTTL:    refreshTTL,
	}
}

// Login authenticates a credential pair. Checks run in a fixed order:
// existence, status, lockout, password, MFA. All credential failures
// surface as the same generic error behind a response-time floor.
func (s *AuthService) Login(ctx context.Context, email, password string, tenantID *string, meta RequestMeta) (*LoginResult, error) {
	start := time.Now()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.timing.WaitFrom(start, false)
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: unknown account")
			s.dispatcher.Dispatch(ctx, models.LoginFailed{Reason: "invalid_credentials", IPAddress: meta.IPAddress})
			s.timing.WaitFrom(start, false)
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now().UTC()

	if !user.CanLogIn() {
		s.logger.Info("login blocked: account not active",
			slog.String("user_id", user.ID),
			slog.String("status", user.Status))
		s.dispatcher.Dispatch(ctx, models.LoginFailed{Reason: "account_disabled", IPAddress: meta.IPAddress})
		s.timing.WaitFrom(start, false)
		return nil, models.ErrAccountDisabled
	}

	if user.IsLocked(now) {
		s.logger.Info("login blocked: account locked", slog.String("user_id", user.ID))
		s.dispatcher.Dispatch(ctx, models.LoginFailed{
			Reason:         "account_locked",
			FailedAttempts: user.FailedLoginAttempts,
			IPAddress:      meta.IPAddress,
		})
		s.timing.WaitFrom(start, false)
		return nil, models.NewAccountLockedError(user.LockoutRemainingMinutes(now))
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		if err := s.recordFailedAttempt(ctx, user, now, "invalid_credentials", meta); err != nil {
			return nil, err
		}
		s.timing.WaitFrom(start, false)
		return nil, models.ErrInvalidCredentials
	}

	// The password is proven, so the failure counter resets here even when
	// MFA still stands between the user and a token pair.
	user.RecordLogin(now)
	if err := s.users.UpdateLoginAttempts(ctx, user); err != nil {
		s.logger.Error("failed to record login", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.dispatcher.Dispatch(ctx, models.LoginSucceeded{
		UserID:    user.ID,
		Role:      user.Role,
		TenantID:  tenantID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	if user.MFAEnabled {
		claims := models.NewTokenClaims(models.TokenTypeMFARequired, user.ID, tenantID, []string{user.Role}, now)
		mfaToken, err := s.tm.Issue(claims)
		if err != nil {
			s.logger.Error("failed to issue mfa token", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.logger.Info("login pending mfa", slog.String("user_id", user.ID))
		s.timing.WaitFrom(start, true)
		return &LoginResult{MFARequired: true, MFAToken: mfaToken}, nil
	}

	tokens, err := s.issueTokenPair(ctx, user, tenantID, nil, now, meta)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.timing.WaitFrom(start, true)
	return &LoginResult{Tokens: tokens}, nil
}

// Refresh rotates a refresh token. Presenting a secret that was already
// rotated is treated as theft: the whole chain is revoked and the caller
// gets the same generic error as for a bogus secret.
func (s *AuthService) Refresh(ctx context.Context, rawSecret string, tenantID *string, meta RequestMeta) (*TokenPair, error) {
	rawSecret = strings.TrimSpace(rawSecret)
	if rawSecret == "" {
		return nil, models.ErrInvalidToken
	}

	record, err := s.refreshTokens.FindByTokenHash(ctx, auth.HashRefreshSecret(rawSecret))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidToken
		}
		s.logger.Error("failed to look up refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now().UTC()

	// Replay wins over revocation: every presentation of a consumed secret
	// is a theft signal worth an audit event, even after the chain is dead.
	if record.UsedAt != nil {
		return nil, s.handleReuse(ctx, record, now, meta)
	}

	if record.RevokedAt != nil {
		return nil, models.ErrInvalidToken
	}

	if record.IsExpired(now) {
		return nil, models.ErrTokenExpired
	}

	// Exactly-once consumption: a concurrent rotation of the same secret
	// loses the race here and follows the reuse path.
	if err := s.refreshTokens.MarkAsUsed(ctx, record.ID, now); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, s.handleReuse(ctx, record, now, meta)
		}
		s.logger.Error("failed to consume refresh token", slog.String("token_id", record.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get user for refresh", slog.String("user_id", record.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// A vanished or deactivated account ends every session it still holds.
	if err != nil || !user.CanLogIn() {
		s.logger.Info("refresh blocked: account not active", slog.String("user_id", record.UserID))
		if err := s.refreshTokens.RevokeAllForUser(ctx, record.UserID, now); err != nil {
			s.logger.Error("failed to revoke sessions of inactive account", slog.String("user_id", record.UserID), slog.Any("error", err))
		}
		return nil, models.ErrAccountDisabled
	}

	tokens, err := s.issueTokenPair(ctx, user, tenantID, &record.ID, now, meta)
	if err != nil {
		return nil, err
	}

	s.logger.Info("token refreshed", slog.String("user_id", user.ID))
	s.dispatcher.Dispatch(ctx, models.TokenRefreshed{UserID: user.ID, IPAddress: meta.IPAddress})

	return tokens, nil
}

// Logout denylists the presented access token for its remaining lifetime and
// revokes every refresh token the user holds. Calling it twice is harmless:
// the denylist insert is idempotent and already-revoked ledger rows stay put.
func (s *AuthService) Logout(ctx context.Context, claims *models.TokenClaims) error {
	now := time.Now().UTC()

	expiresAt := now.Add(claims.Type.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := s.revocations.Revoke(ctx, claims.ID, expiresAt); err != nil {
		s.logger.Error("failed to revoke access token", slog.String("jti", claims.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.refreshTokens.RevokeAllForUser(ctx, claims.Subject, now); err != nil {
		s.logger.Error("failed to revoke user sessions", slog.String("user_id", claims.Subject), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("user_id", claims.Subject))
	s.dispatcher.Dispatch(ctx, models.LoggedOut{UserID: claims.Subject, JTI: claims.ID})
	return nil
}

func (s *AuthService) handleReuse(ctx context.Context, record *models.RefreshTokenRecord, now time.Time, meta RequestMeta) error {
	s.logger.Warn("refresh token reuse detected",
		slog.String("user_id", record.UserID),
		slog.String("token_id", record.ID))

	if err := s.refreshTokens.RevokeChain(ctx, record.ID, now); err != nil {
		s.logger.Error("failed to revoke chain after reuse", slog.String("token_id", record.ID), slog.Any("error", err))
	}

	s.dispatcher.Dispatch(ctx, models.TokenReuseDetected{
		UserID:    record.UserID,
		TokenID:   record.ID,
		IPAddress: meta.IPAddress,
	})

	return models.ErrInvalidToken
}

// recordFailedAttempt bumps the shared failure counter, which also covers
// MFA code failures, and persists the lockout state.
func (s *AuthService) recordFailedAttempt(ctx context.Context, user *models.User, now time.Time, reason string, meta RequestMeta) error {
	user.IncrementFailedAttempts(now)
	if err := s.users.UpdateLoginAttempts(ctx, user); err != nil {
		s.logger.Error("failed to persist failed attempt", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("credential check failed",
		slog.String("user_id", user.ID),
		slog.Int("failed_attempts", user.FailedLoginAttempts))
	s.dispatcher.Dispatch(ctx, models.LoginFailed{
		Reason:         reason,
		FailedAttempts: user.FailedLoginAttempts,
		IPAddress:      meta.IPAddress,
	})
	return nil
}

// issueTokenPair mints an access token and a fresh ledger-backed refresh
// token. parentID links the new record into an existing rotation chain.
func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User, tenantID, parentID *string, now time.Time, meta RequestMeta) (*TokenPair, error) {
	claims := models.NewTokenClaims(models.TokenTypeAccess, user.ID, tenantID, []string{user.Role}, now)
	accessToken, err := s.tm.Issue(claims)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	rawSecret, digest, err := auth.GenerateRefreshSecret()
	if err != nil {
		s.logger.Error("failed to generate refresh secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	record := &models.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: digest,
		ParentID:  parentID,
		ExpiresAt: now.Add(s.refreshTTL),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
	}
	if err := s.refreshTokens.Store(ctx, record); err != nil {
		s.logger.Error("failed to store refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawSecret,
		TokenType:    "Bearer",
		ExpiresIn:    int(models.TokenTypeAccess.TTL().Seconds()),
	}, nil
}
