package main

import (
	"context"
	"errors"
	"log"
	"membership-api/internal/api"
	"membership-api/internal/config"
	"membership-api/internal/database"
	"membership-api/internal/services"
	"membership-api/pkg/logging"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}
	cfg := config.AppConfig

	// Initialize logging
	logging.InitLogging(cfg.LogLevel, cfg.LogFormat)

	// Initialize database
	if err := database.InitDatabase(cfg); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.CloseDatabase()

	// One shared Stripe client for the life of the process
	store := database.NewStore(database.DB)
	processor := services.NewStripeProcessor(cfg.StripeSecretKey)
	mailer := services.NewBrevoService(cfg)

	status := services.NewStatusService(store, processor, cfg.StripePriceID)
	webhooks := services.NewWebhookService(
		services.NewEventReceiver(cfg.StripeWebhookSecret),
		store,
		services.NewMembershipReconciler(store, processor),
		services.NewNotificationDispatcher(mailer, cfg.SendAccessEmail, cfg.AccessLinkURL),
	)
	handler := api.NewHandler(api.Dependencies{
		Config:       cfg,
		Store:        store,
		Webhooks:     webhooks,
		Billing:      services.NewBillingService(cfg, store, processor, status),
		Status:       status,
		Login:        services.NewLoginService(services.NewLoginTokenStore(database.RedisClient), mailer, cfg.SiteURL, cfg.LoginLinkTTL, cfg.LoginRateLimit),
		Sessions:     services.NewSessionService(cfg.AuthSecret, cfg.SessionTTL),
		OAuthEnabled: services.SetupOAuth(cfg),
	})

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger())

	// Setup routes
	api.SetupRoutes(r, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	logging.Infof("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("Server shutdown failed: %v", err)
	}
}
