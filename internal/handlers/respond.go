package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	pkghttp "github.com/DaniDrummondDev/condominium-events-manager-api-sub002/pkg/http"
)

// writeServiceError maps service-layer errors onto the API error envelope.
// Credential and token failures stay deliberately vague; only the lockout
// error carries detail, since the caller already proved the account exists.
func writeServiceError(w http.ResponseWriter, err error) {
	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Code {
		case models.CodeInvalidCredentials:
			pkghttp.WriteError(w, http.StatusUnauthorized, authErr.Code, "Authentication failed")
		case models.CodeAccountLocked:
			pkghttp.WriteError(w, http.StatusLocked, authErr.Code, lockedMessage(authErr))
		case models.CodeAccountDisabled:
			pkghttp.WriteError(w, http.StatusForbidden, authErr.Code, "Account is not active")
		case models.CodeInvalidToken, models.CodeTokenExpired:
			pkghttp.WriteError(w, http.StatusUnauthorized, authErr.Code, "Invalid or expired token")
		case models.CodeMFAAlreadyConfigured:
			pkghttp.WriteError(w, http.StatusConflict, authErr.Code, "MFA is already configured")
		case models.CodeMFANotConfigured:
			pkghttp.WriteError(w, http.StatusBadRequest, authErr.Code, "MFA is not configured")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteError(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func lockedMessage(authErr *models.AuthError) string {
	if minutes, ok := authErr.Context["remaining_minutes"].(int); ok {
		return fmt.Sprintf("Account temporarily locked. Try again in %d minutes.", minutes)
	}
	return "Account temporarily locked"
}
