package routes

import (
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/auth"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/handlers"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the platform- and condominium-realm endpoints
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	mfaHandler *handlers.MFAHandler,
	condoHandler *handlers.CondoAuthHandler,
	tokenManager *auth.TokenManager,
	revocations auth.RevocationChecker,
	revocationCfg auth.RevocationConfig,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()
	rateLimited := middleware.RateLimitByIP(rateLimitConfig)
	authenticated := auth.Middleware(tokenManager, revocations, revocationCfg)

	// Platform realm
	router.Route("/auth", func(r chi.Router) {
		r.With(rateLimited).Post("/login", authHandler.Login)
		r.With(rateLimited).Post("/refresh", authHandler.Refresh)
		r.With(rateLimited).Post("/mfa/verify", mfaHandler.Verify)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/logout", authHandler.Logout)
			r.Post("/mfa/setup", mfaHandler.Setup)
			r.Post("/mfa/confirm", mfaHandler.ConfirmSetup)
		})
	})

	// Condominium realm, addressed by slug
	router.Route("/condominiums/{slug}/auth", func(r chi.Router) {
		r.With(rateLimited).Post("/login", condoHandler.Login)
		r.With(rateLimited).Post("/refresh", condoHandler.Refresh)
		r.With(rateLimited).Post("/mfa/verify", condoHandler.VerifyMFA)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/logout", condoHandler.Logout)
			r.Post("/mfa/setup", condoHandler.SetupMFA)
			r.Post("/mfa/confirm", condoHandler.ConfirmMFASetup)
		})
	})
}
