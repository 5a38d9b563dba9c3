package api

import (
	"context"
	"errors"
	"membership-api/internal/config"
	"membership-api/internal/database"
	"membership-api/internal/middleware"
	"membership-api/internal/response"
	"membership-api/internal/services"
	"membership-api/pkg/logging"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler holds the services the HTTP layer calls into.
type Handler struct {
	cfg          *config.Config
	store        *database.Store
	webhooks     *services.WebhookService
	billing      *services.BillingService
	status       *services.StatusService
	login        *services.LoginService
	sessions     *services.SessionService
	oauthEnabled bool
}

// Dependencies groups what NewHandler needs
type Dependencies struct {
	Config       *config.Config
	Store        *database.Store
	Webhooks     *services.WebhookService
	Billing      *services.BillingService
	Status       *services.StatusService
	Login        *services.LoginService
	Sessions     *services.SessionService
	OAuthEnabled bool
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		cfg:          deps.Config,
		store:        deps.Store,
		webhooks:     deps.Webhooks,
		billing:      deps.Billing,
		status:       deps.Status,
		login:        deps.Login,
		sessions:     deps.Sessions,
		oauthEnabled: deps.OAuthEnabled,
	}
}

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, h *Handler) {
	r.Use(middleware.SessionMiddleware(h.sessions, h.cfg.SessionCookieKey))

	api := r.Group("/api")
	{
		// Stripe calls the webhook, browsers call the rest
		stripe := api.Group("/stripe")
		{
			stripe.POST("/webhook", h.StripeWebhook)
			stripe.POST("/checkout", h.CreateCheckout)
			stripe.POST("/portal", h.CreatePortal)
			stripe.POST("/portal-cancel", middleware.RequireSession(), h.CreateCancelPortal)
			stripe.GET("/verify-session", h.VerifySession)
		}

		members := api.Group("/members")
		{
			members.GET("/status", h.MemberStatus)
			members.GET("/access-link", h.AccessLink)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/login-link", h.RequestLoginLink)
			auth.GET("/verify", h.VerifyLoginLink)
			auth.POST("/logout", h.Logout)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware(h.cfg.AdminAPIKey))
		{
			admin.GET("/accounts", h.ListAccounts)
			admin.GET("/accounts/:email", h.GetAccount)
			admin.POST("/accounts/:email/refresh", h.RefreshAccount)
			admin.GET("/webhook-events", h.ListWebhookEvents)
			admin.GET("/config", h.ConfigPresence)
		}
	}

	r.GET("/members/redirect", h.MembersRedirect)
	r.GET("/auth/:provider", h.BeginOAuth)
	r.GET("/auth/:provider/callback", h.CompleteOAuth)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx); err != nil {
			logging.Errorf("Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"service": h.cfg.ServiceName,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": h.cfg.ServiceName,
		})
	})
}

// writeServiceError maps service errors onto HTTP responses
func writeServiceError(c *gin.Context, err error) {
	var cfgErr *config.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		logging.Errorf("Configuration error on %s: %v", c.FullPath(), err)
		response.ErrorJSON(c, http.StatusInternalServerError, cfgErr.Error())
	case errors.Is(err, services.ErrNotLoggedIn):
		response.ErrorJSON(c, http.StatusUnauthorized, "Not logged in")
	case errors.Is(err, services.ErrNoCustomer):
		response.ErrorJSON(c, http.StatusBadRequest, "No billing account found")
	case errors.Is(err, services.ErrNoSubscription):
		response.ErrorJSON(c, http.StatusBadRequest, "No subscription on file")
	case errors.Is(err, services.ErrRateLimited):
		response.ErrorJSON(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, services.ErrInvalidLoginToken):
		response.ErrorJSON(c, http.StatusBadRequest, err.Error())
	default:
		logging.Errorf("Request to %s failed: %v", c.FullPath(), err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Payment processor request failed")
	}
}
