package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/auth"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/background"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/config"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/database"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/handlers"
	middlewareCustom "github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/middleware"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/repositories"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/routes"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/services"
	pkgauth "github.com/DaniDrummondDev/condominium-events-manager-api-sub002/pkg/auth"
	pkghttp "github.com/DaniDrummondDev/condominium-events-manager-api-sub002/pkg/http"
	pkglogger "github.com/DaniDrummondDev/condominium-events-manager-api-sub002/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	condoUserRepo := repositories.NewCondoUserRepository(db)
	condoRepo := repositories.NewCondominiumRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)
	revocationRepo := repositories.NewTokenRevocationRepository(db)

	cleanupManager := background.NewCleanupManager(revocationRepo, refreshRepo, logger, cfg.Auth.CleanupInterval)

	// Auth primitives
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	totpManager := auth.NewTOTPManager(cfg.Auth.TOTPIssuer)
	hasher := pkgauth.NewBcryptHasher()
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.BaseDelayMs,
		RandomDelayMs: cfg.Auth.RandomDelayMs,
	})

	auditLogger := pkglogger.NewAuditLogger(logger)
	dispatcher := services.NewAuditDispatcher(auditLogger)

	// Platform realm
	platformAuth := services.NewAuthService(userRepo, refreshRepo, revocationRepo,
		tokenManager, hasher, timingDelay, dispatcher, logger, cfg.Auth.RefreshTokenExpiry)
	platformMFA := services.NewMFAService(userRepo, platformAuth, totpManager, logger)

	// Condominium realm shares the ledger and denylist but reads users from
	// tenant schemas.
	condoAuth := services.NewAuthService(condoUserRepo, refreshRepo, revocationRepo,
		tokenManager, hasher, timingDelay, dispatcher, logger, cfg.Auth.RefreshTokenExpiry)
	condoMFA := services.NewMFAService(condoUserRepo, condoAuth, totpManager, logger)
	condoService := services.NewCondoAuthService(condoRepo, condoAuth, condoMFA, logger)

	// Handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(platformAuth, ipConfig)
	mfaHandler := handlers.NewMFAHandler(platformMFA, ipConfig)
	condoHandler := handlers.NewCondoAuthHandler(condoService, ipConfig)

	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Route("/api/v1", func(r chi.Router) {
		routes.RegisterRoutes(r, authHandler, mfaHandler, condoHandler,
			tokenManager, revocationRepo, auth.RevocationConfig{FailClosed: cfg.Auth.RevocationFailClosed})
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
