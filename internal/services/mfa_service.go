package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/auth"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
)

// MFASetupResult is handed to the user exactly once during enrollment. The
// recovery codes are not persisted server-side.
type MFASetupResult struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"`
	QRCode          string   `json:"qr_code"`
	RecoveryCodes   []string `json:"recovery_codes"`
}

// MFAService handles TOTP enrollment and the step-up verification that
// completes an MFA-gated login.
type MFAService struct {
	users   UserStore
	authSvc *AuthService
	totp    *auth.TOTPManager
	logger  *slog.Logger
}

func NewMFAService(users UserStore, authSvc *AuthService, totp *auth.TOTPManager, logger *slog.Logger) *MFAService {
	return &MFAService{
		users:   users,
		authSvc: authSvc,
		totp:    totp,
		logger:  logger,
	}
}

// Setup offers a TOTP secret to an authenticated user. Nothing is persisted
// here: the secret only takes effect once ConfirmSetup proves the
// authenticator was enrolled with it.
func (s *MFAService) Setup(ctx context.Context, userID string) (*MFASetupResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidToken
		}
		s.logger.Error("failed to get user for mfa setup", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.MFAEnabled {
		return nil, models.ErrMFAAlreadyConfigured
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		s.logger.Error("failed to generate totp secret", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	uri := s.totp.ProvisioningURI(secret, user.Email)
	qr, err := s.totp.QRCodeDataURL(uri)
	if err != nil {
		s.logger.Error("failed to render qr code", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	recoveryCodes, err := s.totp.GenerateRecoveryCodes()
	if err != nil {
		s.logger.Error("failed to generate recovery codes", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("mfa setup started", slog.String("user_id", userID))
	return &MFASetupResult{
		Secret:          secret,
		ProvisioningURI: uri,
		QRCode:          qr,
		RecoveryCodes:   recoveryCodes,
	}, nil
}

// ConfirmSetup enables MFA once the user proves the offered secret was
// enrolled in an authenticator. The secret is persisted only here.
func (s *MFAService) ConfirmSetup(ctx context.Context, userID, secret, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidToken
		}
		s.logger.Error("failed to get user for mfa confirmation", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.MFAEnabled {
		return models.ErrMFAAlreadyConfigured
	}

	if !s.totp.Verify(secret, code) {
		s.logger.Info("mfa confirmation code rejected", slog.String("user_id", userID))
		return models.ErrInvalidToken
	}

	user.MFASecret = &secret
	user.MFAEnabled = true
	if err := s.users.UpdateMFA(ctx, user); err != nil {
		s.logger.Error("failed to enable mfa", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("mfa enabled", slog.String("user_id", userID))
	s.authSvc.dispatcher.Dispatch(ctx, models.MFAEnabled{UserID: userID})
	return nil
}

// Verify completes an MFA-gated login. It accepts only the short-lived
// challenge token issued by Login, consumes it on success, and shares the
// lockout counter with password failures.
func (s *MFAService) Verify(ctx context.Context, mfaToken, code string, tenantID *string, meta RequestMeta) (*TokenPair, error) {
	start := time.Now()

	claims, err := s.authSvc.tm.Validate(mfaToken)
	if err != nil {
		s.authSvc.timing.WaitFrom(start, false)
		return nil, models.ErrInvalidToken
	}
	if claims.Type != models.TokenTypeMFARequired {
		s.logger.Warn("mfa verify with wrong token type", slog.String("type", string(claims.Type)))
		s.authSvc.timing.WaitFrom(start, false)
		return nil, models.ErrInvalidToken
	}

	revoked, err := s.authSvc.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check mfa token revocation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if revoked {
		s.authSvc.timing.WaitFrom(start, false)
		return nil, models.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.authSvc.timing.WaitFrom(start, false)
			return nil, models.ErrInvalidToken
		}
		s.logger.Error("failed to get user for mfa verify", slog.String("user_id", claims.Subject), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now().UTC()

	if !user.CanLogIn() {
		s.authSvc.timing.WaitFrom(start, false)
		return nil, models.ErrAccountDisabled
	}
	if user.IsLocked(now) {
		s.authSvc.timing.WaitFrom(start, false)
		return nil, models.NewAccountLockedError(user.LockoutRemainingMinutes(now))
	}
	if !user.MFAEnabled || user.MFASecret == nil {
		return nil, models.ErrMFANotConfigured
	}

	if !s.totp.Verify(*user.MFASecret, code) {
		if err := s.authSvc.recordFailedAttempt(ctx, user, now, "invalid_mfa_code", meta); err != nil {
			return nil, err
		}
		s.authSvc.timing.WaitFrom(start, false)
		return nil, models.ErrInvalidCredentials
	}

	// Challenge tokens are single use.
	if err := s.authSvc.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("failed to consume mfa token", slog.String("jti", claims.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user.RecordLogin(now)
	if err := s.users.UpdateLoginAttempts(ctx, user); err != nil {
		s.logger.Error("failed to record mfa login", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	tokens, err := s.authSvc.issueTokenPair(ctx, user, tenantID, nil, now, meta)
	if err != nil {
		return nil, err
	}

	s.logger.Info("mfa verified", slog.String("user_id", user.ID))
	s.authSvc.dispatcher.Dispatch(ctx, models.MFAVerified{UserID: user.ID, IPAddress: meta.IPAddress})

	s.authSvc.timing.WaitFrom(start, true)
	return tokens, nil
}
