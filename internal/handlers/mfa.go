package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/auth"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/services"
	pkghttp "github.com/DaniDrummondDev/condominium-events-manager-api-sub002/pkg/http"
)

// MFAServiceInterface defines the MFA flows the handler depends on
type MFAServiceInterface interface {
	Setup(ctx context.Context, userID string) (*services.MFASetupResult, error)
	ConfirmSetup(ctx context.Context, userID, secret, code string) error
	Verify(ctx context.Context, mfaToken, code string, tenantID *string, meta services.RequestMeta) (*services.TokenPair, error)
}

// MFAHandler serves the platform-realm MFA endpoints
type MFAHandler struct {
	service  MFAServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewMFAHandler creates a new MFAHandler
func NewMFAHandler(service MFAServiceInterface, ipConfig *pkghttp.IPConfig) *MFAHandler {
	return &MFAHandler{service: service, ipConfig: ipConfig}
}

// MFAConfirmRequest represents the request body for confirming enrollment.
// The secret is the one handed out by Setup; it is not stored until the
// code proves the authenticator holds it.
type MFAConfirmRequest struct {
	Secret string `json:"secret" validate:"required"`
	Code   string `json:"code" validate:"required,len=6,numeric"`
}

// MFAVerifyRequest represents the request body for the step-up verification
type MFAVerifyRequest struct {
	MFAToken string `json:"mfa_token" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

// Setup provisions a TOTP secret for the authenticated user
func (h *MFAHandler) Setup(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	result, err := h.service.Setup(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// ConfirmSetup enables MFA once the authenticator is proven
func (h *MFAHandler) ConfirmSetup(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req MFAConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ConfirmSetup(r.Context(), claims.Subject, req.Secret, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"mfa_enabled": true})
}

// Verify completes an MFA-gated login with a challenge token and TOTP code
func (h *MFAHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req MFAVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	meta := services.RequestMeta{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}

	pair, err := h.service.Verify(r.Context(), req.MFAToken, req.Code, nil, meta)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, pair)
}
