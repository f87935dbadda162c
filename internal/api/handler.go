package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"laundry-admin-backend/internal/auth"
	"laundry-admin-backend/internal/lifecycle"
	"laundry-admin-backend/internal/model"
	"laundry-admin-backend/internal/notification"
	"laundry-admin-backend/internal/orders"
	"laundry-admin-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	orders   *orders.Service
	machines *lifecycle.Manager
	tokens   *auth.TokenManager
	feed     *notification.Feed
	webpush  *webpush.Options
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Store    store.Store
	Orders   *orders.Service
	Machines *lifecycle.Manager
	Tokens   *auth.TokenManager
	Feed     *notification.Feed
	WebPush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:    d.Store,
		orders:   d.Orders,
		machines: d.Machines,
		tokens:   d.Tokens,
		feed:     d.Feed,
		webpush:  d.WebPush,
	}
}

// respondError maps domain errors to HTTP statuses. Unknown errors are
// logged and reported without detail.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNoTenant):
		status = http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrIntegrity), errors.Is(err, model.ErrInvalidTransition):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func bindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// pathID parses the :id parameter, answering 400 when it is malformed.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}
