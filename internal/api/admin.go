package api

import (
	"errors"
	"membership-api/internal/database"
	"membership-api/internal/models"
	"membership-api/internal/response"
	"membership-api/internal/services"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ListAccounts lists Account Records
// GET /api/admin/accounts?page=1&page_size=50
func (h *Handler) ListAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	accounts, total, err := h.store.ListAccounts(c.Request.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	response.SuccessJSON(c, response.Page{
		Items:    accounts,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetAccount returns one Account Record
// GET /api/admin/accounts/:email
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.store.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Account not found")
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to get account")
		return
	}
	response.SuccessJSON(c, account)
}

// AccountRefreshResult pairs the live answer with the record it left behind
type AccountRefreshResult struct {
	Status  *services.StatusResult `json:"status"`
	Account *models.Account        `json:"account,omitempty"`
}

// RefreshAccount re-reads membership from Stripe and writes it back
// POST /api/admin/accounts/:email/refresh
func (h *Handler) RefreshAccount(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.Param("email")

	res, err := h.status.Check(ctx, email, services.StatusOptions{Force: true})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	result := AccountRefreshResult{Status: res}
	if account, err := h.store.GetByEmail(ctx, email); err == nil {
		result.Account = account
	}
	response.SuccessJSON(c, result)
}

// ListWebhookEvents shows the recent webhook event log
// GET /api/admin/webhook-events?customer_id=cus_x&limit=50
func (h *Handler) ListWebhookEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	events, err := h.store.ListWebhookEvents(c.Request.Context(), c.Query("customer_id"), limit)
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list webhook events")
		return
	}
	response.SuccessJSON(c, events)
}

// ConfigPresence reports which settings are present, never their values
// GET /api/admin/config
func (h *Handler) ConfigPresence(c *gin.Context) {
	response.SuccessJSON(c, gin.H{
		"present":           h.cfg.Presence(),
		"send_access_email": h.cfg.SendAccessEmail,
		"google_sign_in":    h.oauthEnabled,
	})
}
