package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRevocationChecker struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevocationChecker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[jti], nil
}

func issueTestToken(t *testing.T, tm *TokenManager, tokenType models.TokenType) (string, *models.TokenClaims) {
	t.Helper()
	claims := models.NewTokenClaims(tokenType, "user-1", nil, []string{"resident"}, time.Now())
	tokenString, err := tm.Issue(claims)
	require.NoError(t, err)
	return tokenString, claims
}

func runMiddleware(tm *TokenManager, checker RevocationChecker, cfg RevocationConfig, authHeader string) (*httptest.ResponseRecorder, *models.TokenClaims) {
	var captured *models.TokenClaims
	handler := Middleware(tm, checker, cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = ClaimsFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestMiddleware_ValidAccessToken(t *testing.T) {
	tm := NewTokenManager(testSecret)
	tokenString, claims := issueTestToken(t, tm, models.TokenTypeAccess)

	rec, captured := runMiddleware(tm, &stubRevocationChecker{}, RevocationConfig{}, "Bearer "+tokenString)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, claims.ID, captured.ID)
}

func TestMiddleware_RejectsMFAToken(t *testing.T) {
	tm := NewTokenManager(testSecret)
	tokenString, _ := issueTestToken(t, tm, models.TokenTypeMFARequired)

	rec, _ := runMiddleware(tm, nil, RevocationConfig{}, "Bearer "+tokenString)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_RejectsRevokedToken(t *testing.T) {
	tm := NewTokenManager(testSecret)
	tokenString, claims := issueTestToken(t, tm, models.TokenTypeAccess)

	checker := &stubRevocationChecker{revoked: map[string]bool{claims.ID: true}}
	rec, _ := runMiddleware(tm, checker, RevocationConfig{}, "Bearer "+tokenString)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	tm := NewTokenManager(testSecret)

	rec, _ := runMiddleware(tm, nil, RevocationConfig{}, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_DenylistFailureModes(t *testing.T) {
	tm := NewTokenManager(testSecret)
	tokenString, _ := issueTestToken(t, tm, models.TokenTypeAccess)
	checker := &stubRevocationChecker{err: errors.New("store unreachable")}

	rec, _ := runMiddleware(tm, checker, RevocationConfig{FailClosed: true}, "Bearer "+tokenString)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = runMiddleware(tm, checker, RevocationConfig{FailClosed: false}, "Bearer "+tokenString)
	assert.Equal(t, http.StatusOK, rec.Code)
}
