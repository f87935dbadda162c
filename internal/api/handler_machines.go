package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-admin-backend/internal/model"
	"laundry-admin-backend/internal/mw"
)

type machineRequest struct {
	Name string            `json:"name"`
	Type model.MachineType `json:"type"`
}

// ListMachines handles GET /api/machines.
func (h *Handler) ListMachines(c *gin.Context) {
	machines, err := h.store.ListMachines(c.Request.Context(), mw.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// CreateMachine handles POST /api/machines. New machines start available
// and active.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req machineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m := &model.Machine{Name: req.Name, Type: req.Type}
	if err := m.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.CreateMachine(c.Request.Context(), mw.TenantID(c), m); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// UpdateMachine handles PUT /api/machines/:id. Only name and type change;
// status and timer belong to the lifecycle endpoints.
func (h *Handler) UpdateMachine(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req machineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m := &model.Machine{ID: id, Name: req.Name, Type: req.Type}
	if err := m.Validate(); err != nil {
		respondError(c, err)
		return
	}
	ctx, tenantID := c.Request.Context(), mw.TenantID(c)
	if err := h.store.UpdateMachine(ctx, tenantID, m); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.store.GetMachine(ctx, tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteMachine handles DELETE /api/machines/:id and ends its countdown.
func (h *Handler) DeleteMachine(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteMachine(c.Request.Context(), mw.TenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	h.machines.Forget(id)
	c.Status(http.StatusNoContent)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetMachineActive handles PUT /api/machines/:id/active.
func (h *Handler) SetMachineActive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m, err := h.machines.SetActive(c.Request.Context(), mw.TenantID(c), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type machineTransition func(ctx context.Context, tenantID string, id int64) (*model.Machine, error)

// MachineAction wraps a lifecycle transition as a POST /api/machines/:id/<action> handler.
func (h *Handler) MachineAction(transition machineTransition) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		m, err := transition(c.Request.Context(), mw.TenantID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}
