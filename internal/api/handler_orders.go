package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"laundry-admin-backend/internal/dashboard"
	"laundry-admin-backend/internal/model"
	"laundry-admin-backend/internal/mw"
	"laundry-admin-backend/internal/orders"
)

// ListOrders handles GET /api/orders.
func (h *Handler) ListOrders(c *gin.Context) {
	list, err := h.orders.List(c.Request.Context(), mw.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// QuoteOrder handles POST /api/orders/quote. Nothing is saved.
func (h *Handler) QuoteOrder(c *gin.Context) {
	var req orders.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	quote, err := h.orders.Quote(c.Request.Context(), mw.TenantID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req orders.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.orders.Create(c.Request.Context(), mw.TenantID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// UpdateOrder handles PUT /api/orders/:id.
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req orders.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.orders.Update(c.Request.Context(), mw.TenantID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/orders/:id.
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), mw.TenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdvanceOrder handles POST /api/orders/:id/advance.
func (h *Handler) AdvanceOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.orders.Advance(c.Request.Context(), mw.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetDashboard handles GET /api/dashboard.
func (h *Handler) GetDashboard(c *gin.Context) {
	tenantID := mw.TenantID(c)
	var (
		list     []model.Order
		machines []model.Machine
		clients  []model.Client
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		list, err = h.store.ListOrders(ctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		machines, err = h.store.ListMachines(ctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		clients, err = h.store.ListClients(ctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard.Build(list, machines, clients))
}

// ListNotifications handles GET /api/notifications.
func (h *Handler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.feed.Recent(mw.TenantID(c)))
}
