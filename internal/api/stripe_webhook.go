package api

import (
	"errors"
	"io"
	"membership-api/internal/config"
	"membership-api/internal/services"
	"membership-api/pkg/logging"
	"net/http"

	"github.com/gin-gonic/gin"
)

const stripeWebhookBodyLimit = 1024 * 1024 // 1MiB

// StripeWebhook receives Stripe events
// POST /api/stripe/webhook
// Anything other than a signature failure is acknowledged with 200 so Stripe
// does not redeliver.
func (h *Handler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, stripeWebhookBodyLimit)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logging.Errorf("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"received": false,
			"error":    "Failed to read request body",
		})
		return
	}

	outcome, err := h.webhooks.Process(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		var cfgErr *config.ConfigError
		switch {
		case errors.Is(err, services.ErrMissingSignature), errors.Is(err, services.ErrInvalidSignature):
			logging.Warnf("Rejected webhook from %s: %v", c.ClientIP(), err)
			c.JSON(http.StatusBadRequest, gin.H{
				"received": false,
				"error":    "Invalid Stripe signature",
			})
		case errors.As(err, &cfgErr):
			logging.Errorf("Webhook misconfigured: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"received": false,
				"error":    cfgErr.Error(),
			})
		default:
			logging.Errorf("Webhook failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"received": false,
				"error":    "Webhook processing failed",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"status":   outcome.Status,
		"event_id": outcome.EventID,
	})
}
