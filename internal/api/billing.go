package api

import (
	"membership-api/internal/middleware"
	"membership-api/internal/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PortalRequest is the body of the portal endpoint
type PortalRequest struct {
	SessionID string `json:"session_id"`
}

// CreateCheckout starts a hosted membership checkout
// POST /api/stripe/checkout
func (h *Handler) CreateCheckout(c *gin.Context) {
	url, err := h.billing.CreateCheckout(c.Request.Context(), middleware.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreatePortal opens the billing portal for a checkout session or the signed-in member
// POST /api/stripe/portal
func (h *Handler) CreatePortal(c *gin.Context) {
	var req PortalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
			return
		}
	}
	if req.SessionID == "" {
		req.SessionID = c.Query("session_id")
	}

	url, err := h.billing.CreatePortal(c.Request.Context(), req.SessionID, middleware.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreateCancelPortal opens the portal on the cancel flow
// POST /api/stripe/portal-cancel
func (h *Handler) CreateCancelPortal(c *gin.Context) {
	url, err := h.billing.CreateCancelPortal(c.Request.Context(), middleware.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// VerifySession checks a completed checkout session
// GET /api/stripe/verify-session?session_id=xxx
func (h *Handler) VerifySession(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing session_id"})
		return
	}

	verification, err := h.billing.VerifySession(c.Request.Context(), sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}
