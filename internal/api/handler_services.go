package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"laundry-admin-backend/internal/model"
	"laundry-admin-backend/internal/mw"
)

type serviceRequest struct {
	Icon              string                `json:"icon"`
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	Price             decimal.Decimal       `json:"price"`
	PricingMethod     model.PricingMethod   `json:"pricing_method"`
	Category          model.ServiceCategory `json:"category"`
	LinkedMachineType *model.MachineType    `json:"linked_machine_type"`
}

func (r serviceRequest) service(id int64) *model.Service {
	linked := r.LinkedMachineType
	if linked != nil && *linked == "" {
		linked = nil
	}
	return &model.Service{
		ID:                id,
		Icon:              r.Icon,
		Name:              r.Name,
		Description:       r.Description,
		Price:             r.Price,
		PricingMethod:     r.PricingMethod,
		Category:          r.Category,
		LinkedMachineType: linked,
	}
}

// ListServices handles GET /api/services.
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.store.ListServices(c.Request.Context(), mw.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

// CreateService handles POST /api/services.
func (h *Handler) CreateService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	svc := req.service(0)
	if err := svc.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.CreateService(c.Request.Context(), mw.TenantID(c), svc); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// UpdateService handles PUT /api/services/:id. Existing orders keep their
// items; their totals follow the new price the next time they are saved.
func (h *Handler) UpdateService(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	svc := req.service(id)
	if err := svc.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.UpdateService(c.Request.Context(), mw.TenantID(c), svc); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// DeleteService handles DELETE /api/services/:id.
func (h *Handler) DeleteService(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteService(c.Request.Context(), mw.TenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
