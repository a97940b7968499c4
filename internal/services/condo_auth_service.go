package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/database"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
)

// CondominiumStore resolves condominium directory entries.
type CondominiumStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.Condominium, error)
}

// CondoAuthService is the tenant-realm front of the auth flows. Every
// operation resolves the condominium slug, gates on its status, and routes
// the inner service to the condominium's schema.
type CondoAuthService struct {
	condos  CondominiumStore
	authSvc *AuthService
	mfaSvc  *MFAService
	logger  *slog.Logger
}

func NewCondoAuthService(condos CondominiumStore, authSvc *AuthService, mfaSvc *MFAService, logger *slog.Logger) *CondoAuthService {
	return &CondoAuthService{
		condos:  condos,
		authSvc: authSvc,
		mfaSvc:  mfaSvc,
		logger:  logger,
	}
}

// resolve maps a slug to an operational condominium and scopes the context
// to its schema. An unknown slug gets the generic credential error so slugs
// cannot be enumerated through the login endpoint.
func (s *CondoAuthService) resolve(ctx context.Context, slug string) (context.Context, *models.Condominium, error) {
	condo, err := s.condos.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login attempt for unknown condominium")
			return ctx, nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to resolve condominium", slog.Any("error", err))
		return ctx, nil, models.ErrInternalServer
	}

	if !condo.IsOperational() {
		s.logger.Info("auth blocked: condominium not operational",
			slog.String("condominium_id", condo.ID),
			slog.String("status", condo.Status))
		return ctx, nil, models.ErrAccountDisabled
	}

	return database.WithTenantSchema(ctx, condo.SchemaName), condo, nil
}

func (s *CondoAuthService) Login(ctx context.Context, slug, email, password string, meta RequestMeta) (*LoginResult, error) {
	ctx, condo, err := s.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.authSvc.Login(ctx, email, password, &condo.ID, meta)
}

func (s *CondoAuthService) Refresh(ctx context.Context, slug, rawSecret string, meta RequestMeta) (*TokenPair, error) {
	ctx, condo, err := s.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.authSvc.Refresh(ctx, rawSecret, &condo.ID, meta)
}

func (s *CondoAuthService) VerifyMFA(ctx context.Context, slug, mfaToken, code string, meta RequestMeta) (*TokenPair, error) {
	ctx, condo, err := s.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.mfaSvc.Verify(ctx, mfaToken, code, &condo.ID, meta)
}

func (s *CondoAuthService) Logout(ctx context.Context, slug string, claims *models.TokenClaims) error {
	ctx, _, err := s.resolve(ctx, slug)
	if err != nil {
		return err
	}
	return s.authSvc.Logout(ctx, claims)
}

func (s *CondoAuthService) SetupMFA(ctx context.Context, slug, userID string) (*MFASetupResult, error) {
	ctx, _, err := s.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.mfaSvc.Setup(ctx, userID)
}

func (s *CondoAuthService) ConfirmMFASetup(ctx context.Context, slug, userID, secret, code string) error {
	ctx, _, err := s.resolve(ctx, slug)
	if err != nil {
		return err
	}
	return s.mfaSvc.ConfirmSetup(ctx, userID, secret, code)
}
