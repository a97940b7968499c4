package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/auth"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/services"
	pkghttp "github.com/DaniDrummondDev/condominium-events-manager-api-sub002/pkg/http"
	"github.com/go-chi/chi/v5"
)

// CondoAuthServiceInterface defines the tenant-realm auth flows
type CondoAuthServiceInterface interface {
	Login(ctx context.Context, slug, email, password string, meta services.RequestMeta) (*services.LoginResult, error)
	Refresh(ctx context.Context, slug, rawSecret string, meta services.RequestMeta) (*services.TokenPair, error)
	VerifyMFA(ctx context.Context, slug, mfaToken, code string, meta services.RequestMeta) (*services.TokenPair, error)
	Logout(ctx context.Context, slug string, claims *models.TokenClaims) error
	SetupMFA(ctx context.Context, slug, userID string) (*services.MFASetupResult, error)
	ConfirmMFASetup(ctx context.Context, slug, userID, secret, code string) error
}

// CondoAuthHandler serves the condominium-realm authentication endpoints.
// The condominium is addressed by slug in the URL.
type CondoAuthHandler struct {
	service  CondoAuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewCondoAuthHandler creates a new CondoAuthHandler
func NewCondoAuthHandler(service CondoAuthServiceInterface, ipConfig *pkghttp.IPConfig) *CondoAuthHandler {
	return &CondoAuthHandler{service: service, ipConfig: ipConfig}
}

func (h *CondoAuthHandler) requestMeta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}
}

func (h *CondoAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), chi.URLParam(r, "slug"), req.Email, req.Password, h.requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

func (h *CondoAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pair, err := h.service.Refresh(r.Context(), chi.URLParam(r, "slug"), req.RefreshToken, h.requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, pair)
}

func (h *CondoAuthHandler) VerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req MFAVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pair, err := h.service.VerifyMFA(r.Context(), chi.URLParam(r, "slug"), req.MFAToken, req.Code, h.requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, pair)
}

func (h *CondoAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), chi.URLParam(r, "slug"), claims); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CondoAuthHandler) SetupMFA(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	result, err := h.service.SetupMFA(r.Context(), chi.URLParam(r, "slug"), claims.Subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

func (h *CondoAuthHandler) ConfirmMFASetup(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.ConfirmMFASetup(r.Context(), chi.URLParam(r, "slug"), claims.Subject, req.Secret, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"mfa_enabled": true})
}
