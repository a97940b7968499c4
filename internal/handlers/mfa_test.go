package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/services"
	pkghttp "github.com/DaniDrummondDev/condominium-events-manager-api-sub002/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMFAService struct {
	SetupFunc        func(ctx context.Context, userID string) (*services.MFASetupResult, error)
	ConfirmSetupFunc func(ctx context.Context, userID, secret, code string) error
	VerifyFunc       func(ctx context.Context, mfaToken, code string, tenantID *string, meta services.RequestMeta) (*services.TokenPair, error)
}

func (m *mockMFAService) Setup(ctx context.Context, userID string) (*services.MFASetupResult, error) {
	if m.SetupFunc != nil {
		return m.SetupFunc(ctx, userID)
	}
	return nil, models.ErrInternalServer
}

func (m *mockMFAService) ConfirmSetup(ctx context.Context, userID, secret, code string) error {
	if m.ConfirmSetupFunc != nil {
		return m.ConfirmSetupFunc(ctx, userID, secret, code)
	}
	return nil
}

func (m *mockMFAService) Verify(ctx context.Context, mfaToken, code string, tenantID *string, meta services.RequestMeta) (*services.TokenPair, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, mfaToken, code, tenantID, meta)
	}
	return nil, models.ErrInvalidToken
}

func TestMFAHandler_Setup_Success(t *testing.T) {
	handler := NewMFAHandler(&mockMFAService{
		SetupFunc: func(ctx context.Context, userID string) (*services.MFASetupResult, error) {
			assert.Equal(t, "user_1", userID)
			return &services.MFASetupResult{
				Secret:          "JBSWY3DPEHPK3PXP",
				ProvisioningURI: "otpauth://totp/CondoEvents:resident@example.com",
				QRCode:          "data:image/png;base64,AAAA",
				RecoveryCodes:   []string{"a1b2c3d4e5"},
			}, nil
		},
	}, nil)

	claims := models.NewTokenClaims(models.TokenTypeAccess, "user_1", nil, []string{"resident"}, time.Now().UTC())
	req := withClaims(postJSON("/api/v1/auth/mfa/setup", ``), claims)

	rec := httptest.NewRecorder()
	handler.Setup(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var result services.MFASetupResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.NotEmpty(t, result.Secret)
	assert.NotEmpty(t, result.RecoveryCodes)
}

func TestMFAHandler_Setup_AlreadyConfigured(t *testing.T) {
	handler := NewMFAHandler(&mockMFAService{
		SetupFunc: func(ctx context.Context, userID string) (*services.MFASetupResult, error) {
			return nil, models.ErrMFAAlreadyConfigured
		},
	}, nil)

	claims := models.NewTokenClaims(models.TokenTypeAccess, "user_1", nil, []string{"resident"}, time.Now().UTC())
	rec := httptest.NewRecorder()
	handler.Setup(rec, withClaims(postJSON("/api/v1/auth/mfa/setup", ``), claims))

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "mfa_already_configured", resp.Error)
}

func TestMFAHandler_Setup_RequiresAuth(t *testing.T) {
	handler := NewMFAHandler(&mockMFAService{}, nil)

	rec := httptest.NewRecorder()
	handler.Setup(rec, postJSON("/api/v1/auth/mfa/setup", ``))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMFAHandler_ConfirmSetup_RejectsMalformedCode(t *testing.T) {
	handler := NewMFAHandler(&mockMFAService{}, nil)

	claims := models.NewTokenClaims(models.TokenTypeAccess, "user_1", nil, []string{"resident"}, time.Now().UTC())
	rec := httptest.NewRecorder()
	handler.ConfirmSetup(rec, withClaims(postJSON("/api/v1/auth/mfa/confirm", `{"secret":"JBSWY3DPEHPK3PXP","code":"12ab56"}`), claims))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMFAHandler_ConfirmSetup_PassesOfferedSecret(t *testing.T) {
	handler := NewMFAHandler(&mockMFAService{
		ConfirmSetupFunc: func(ctx context.Context, userID, secret, code string) error {
			assert.Equal(t, "user_1", userID)
			assert.Equal(t, "JBSWY3DPEHPK3PXP", secret)
			assert.Equal(t, "123456", code)
			return nil
		},
	}, nil)

	claims := models.NewTokenClaims(models.TokenTypeAccess, "user_1", nil, []string{"resident"}, time.Now().UTC())
	rec := httptest.NewRecorder()
	handler.ConfirmSetup(rec, withClaims(postJSON("/api/v1/auth/mfa/confirm", `{"secret":"JBSWY3DPEHPK3PXP","code":"123456"}`), claims))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMFAHandler_Verify_Success(t *testing.T) {
	handler := NewMFAHandler(&mockMFAService{
		VerifyFunc: func(ctx context.Context, mfaToken, code string, tenantID *string, meta services.RequestMeta) (*services.TokenPair, error) {
			assert.Equal(t, "challenge.jwt", mfaToken)
			assert.Equal(t, "123456", code)
			return &services.TokenPair{AccessToken: "fresh.jwt", RefreshToken: "rawsecret", TokenType: "Bearer", ExpiresIn: 900}, nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	handler.Verify(rec, postJSON("/api/v1/auth/mfa/verify", `{"mfa_token":"challenge.jwt","code":"123456"}`))

	assert.Equal(t, http.StatusOK, rec.Code)

	var pair services.TokenPair
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pair))
	assert.Equal(t, "fresh.jwt", pair.AccessToken)
}

func TestMFAHandler_Verify_InvalidChallenge(t *testing.T) {
	handler := NewMFAHandler(&mockMFAService{}, nil)

	rec := httptest.NewRecorder()
	handler.Verify(rec, postJSON("/api/v1/auth/mfa/verify", `{"mfa_token":"bogus","code":"123456"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
