package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"laundry-admin-backend/internal/auth"
	"laundry-admin-backend/internal/model"
	"laundry-admin-backend/internal/mw"
)

type sessionResponse struct {
	Token     string         `json:"token"`
	Role      auth.Role      `json:"role"`
	Company   *model.Company `json:"company"`
	ExpiresAt int64          `json:"expires_at"`
}

// ListCompanies handles GET /api/companies, the login picker.
func (h *Handler) ListCompanies(c *gin.Context) {
	companies, err := h.store.ListCompanies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

type createSessionRequest struct {
	CompanyID string    `json:"company_id" binding:"required"`
	Role      auth.Role `json:"role" binding:"required"`
}

// CreateSession handles POST /api/session.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	company, err := h.store.GetCompany(c.Request.Context(), req.CompanyID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, company, req.Role)
}

// DeleteSession handles DELETE /api/session. Tenant data is kept.
func (h *Handler) DeleteSession(c *gin.Context) {
	h.tokens.Revoke(mw.Claims(c))
	c.Status(http.StatusNoContent)
}

type switchRoleRequest struct {
	Role auth.Role `json:"role" binding:"required"`
}

// SwitchRole handles PUT /api/session/role. The old token is revoked.
func (h *Handler) SwitchRole(c *gin.Context) {
	var req switchRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	claims := mw.Claims(c)
	company, err := h.store.GetCompany(c.Request.Context(), claims.TenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.issue(c, http.StatusOK, company, req.Role) {
		h.tokens.Revoke(claims)
	}
}

func (h *Handler) issue(c *gin.Context, status int, company *model.Company, role auth.Role) bool {
	token, claims, err := h.tokens.Issue(company.ID, role)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownRole) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "role must be admin or employee"})
			return false
		}
		respondError(c, err)
		return false
	}
	c.JSON(status, sessionResponse{
		Token:     token,
		Role:      role,
		Company:   company,
		ExpiresAt: claims.ExpiresAt.Unix(),
	})
	return true
}

type updateCompanyRequest struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

// UpdateCompany handles PUT /api/company for the session's tenant.
func (h *Handler) UpdateCompany(c *gin.Context) {
	var req updateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	company, err := h.store.UpdateCompany(c.Request.Context(), mw.TenantID(c), name, req.Icon)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// GetVAPIDPublicKey returns the key browsers need to create a push subscription.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
