package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-admin-backend/internal/model"
	"laundry-admin-backend/internal/mw"
)

type clientRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (r clientRequest) client(id int64) *model.Client {
	return &model.Client{ID: id, Name: r.Name, Phone: r.Phone, Email: r.Email, Address: r.Address}
}

// ListClients handles GET /api/clients.
func (h *Handler) ListClients(c *gin.Context) {
	clients, err := h.store.ListClients(c.Request.Context(), mw.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

// CreateClient handles POST /api/clients.
func (h *Handler) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	client := req.client(0)
	if err := client.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.CreateClient(c.Request.Context(), mw.TenantID(c), client); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// UpdateClient handles PUT /api/clients/:id.
func (h *Handler) UpdateClient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	client := req.client(id)
	if err := client.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.UpdateClient(c.Request.Context(), mw.TenantID(c), client); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient handles DELETE /api/clients/:id. Orders of the client are
// kept and show up as placed by an unknown client.
func (h *Handler) DeleteClient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteClient(c.Request.Context(), mw.TenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
