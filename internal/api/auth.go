package api

import (
	"membership-api/internal/response"
	"membership-api/pkg/logging"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
)

// LoginLinkRequest represents a passwordless sign-in request
type LoginLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestLoginLink emails a one-time sign-in link
// POST /api/auth/login-link
func (h *Handler) RequestLoginLink(c *gin.Context) {
	var req LoginLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	if err := h.cfg.Require("SITE_URL"); err != nil {
		writeServiceError(c, err)
		return
	}

	if err := h.login.RequestLink(c.Request.Context(), req.Email); err != nil {
		writeServiceError(c, err)
		return
	}

	response.MessageJSON(c, "Login link sent", nil)
}

// VerifyLoginLink consumes a sign-in link and starts a session
// GET /api/auth/verify?token=xxx
func (h *Handler) VerifyLoginLink(c *gin.Context) {
	email, err := h.login.VerifyLink(c.Request.Context(), c.Query("token"))
	if err != nil {
		logging.Warnf("Login link rejected: %v", err)
		c.Redirect(http.StatusFound, h.cfg.SiteURL+"/members/login?error=link_expired")
		return
	}

	if !h.startSession(c, email) {
		return
	}
	c.Redirect(http.StatusFound, h.cfg.SiteURL+"/members/redirect")
}

// BeginOAuth redirects to the identity provider
// GET /auth/:provider
func (h *Handler) BeginOAuth(c *gin.Context) {
	if !h.oauthEnabled {
		response.ErrorJSON(c, http.StatusNotFound, "Sign-in provider not available")
		return
	}
	setProviderParam(c)
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// CompleteOAuth finishes the provider round trip and starts a session
// GET /auth/:provider/callback
func (h *Handler) CompleteOAuth(c *gin.Context) {
	if !h.oauthEnabled {
		response.ErrorJSON(c, http.StatusNotFound, "Sign-in provider not available")
		return
	}
	setProviderParam(c)

	user, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil || user.Email == "" {
		logging.Warnf("OAuth sign-in failed: %v", err)
		c.Redirect(http.StatusFound, h.cfg.SiteURL+"/members/login?error=oauth_failed")
		return
	}

	if !h.startSession(c, user.Email) {
		return
	}
	c.Redirect(http.StatusFound, h.cfg.SiteURL+"/members/redirect")
}

// Logout clears the session cookie
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookieKey, "", -1, "/", "", h.cfg.SecureCookies, true)
	response.MessageJSON(c, "Logged out", nil)
}

func (h *Handler) startSession(c *gin.Context, email string) bool {
	token, err := h.sessions.Issue(email)
	if err != nil {
		logging.Errorf("Failed to issue session: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Missing AUTH_SECRET")
		return false
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookieKey, token, int(h.sessions.TTL().Seconds()), "/", "", h.cfg.SecureCookies, true)
	logging.Infof("Session started for %s", email)
	return true
}

// gothic reads the provider name from the query string
func setProviderParam(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("provider", c.Param("provider"))
	c.Request.URL.RawQuery = q.Encode()
}
