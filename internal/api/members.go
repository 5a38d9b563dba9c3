package api

import (
	"errors"
	"membership-api/internal/config"
	"membership-api/internal/middleware"
	"membership-api/internal/services"
	"membership-api/pkg/logging"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MemberStatusResponse is returned when a status check cannot complete
type MemberStatusResponse struct {
	Active bool   `json:"active"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// MemberStatus reports the signed-in member's access
// GET /api/members/status?refresh=1
func (h *Handler) MemberStatus(c *gin.Context) {
	email := middleware.CurrentEmail(c)
	if email == "" {
		c.JSON(http.StatusOK, MemberStatusResponse{Active: false, Reason: services.ReasonNotLoggedIn})
		return
	}

	force := c.Query("refresh") == "1" || c.Query("refresh") == "true"
	res, err := h.status.Check(c.Request.Context(), email, services.StatusOptions{Force: force})
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			logging.Errorf("Status check misconfigured: %v", err)
			c.JSON(http.StatusInternalServerError, MemberStatusResponse{Reason: "missing_price_id", Error: cfgErr.Error()})
			return
		}
		logging.Errorf("Status check failed for %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, MemberStatusResponse{Reason: "stripe_error"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// AccessLink returns the live class link for entitled callers
// GET /api/members/access-link?session_id=xxx
func (h *Handler) AccessLink(c *gin.Context) {
	res, err := h.billing.AccessLink(c.Request.Context(), c.Query("session_id"), middleware.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// MembersRedirect sends the browser where the member belongs
// GET /members/redirect
func (h *Handler) MembersRedirect(c *gin.Context) {
	email := middleware.CurrentEmail(c)
	if email == "" {
		c.Redirect(http.StatusFound, h.cfg.SiteURL+"/members/login")
		return
	}

	res, err := h.status.Check(c.Request.Context(), email, services.StatusOptions{})
	if err != nil {
		// The members page runs its own status check and shows the error.
		logging.Errorf("Redirect status check failed for %s: %v", email, err)
		c.Redirect(http.StatusFound, h.cfg.SiteURL+"/members")
		return
	}

	if res.Active {
		c.Redirect(http.StatusFound, h.cfg.SiteURL+"/members")
		return
	}
	c.Redirect(http.StatusFound, h.cfg.SiteURL+"/pricing?reason=no_membership")
}
