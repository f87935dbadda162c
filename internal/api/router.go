package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"laundry-admin-backend/internal/mw"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	RateLimit      rate.Limit
	RateBurst      int
	CacheTTL       time.Duration
	AllowedOrigins []string
	// Responses is shared with whatever else needs to drop cached
	// responses, such as finished cycles. One is created when nil.
	Responses *mw.ResponseCache
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(10)
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	responses := opts.Responses
	if responses == nil {
		responses = mw.NewResponseCache(opts.CacheTTL)
	}
	admin := mw.RequireAdmin()

	api := r.Group("/api")
	api.Use(mw.RateLimiter(opts.RateLimit, opts.RateBurst))
	{
		api.GET("/companies", h.ListCompanies)
		api.POST("/session", h.CreateSession)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	tenant := api.Group("")
	tenant.Use(mw.Session(h.tokens), responses.InvalidateOnWrite())
	{
		tenant.DELETE("/session", h.DeleteSession)
		tenant.PUT("/session/role", h.SwitchRole)
		tenant.PUT("/company", admin, h.UpdateCompany)

		tenant.GET("/clients", h.ListClients)
		tenant.POST("/clients", h.CreateClient)
		tenant.PUT("/clients/:id", h.UpdateClient)
		tenant.DELETE("/clients/:id", h.DeleteClient)

		tenant.GET("/services", h.ListServices)
		tenant.POST("/services", admin, h.CreateService)
		tenant.PUT("/services/:id", admin, h.UpdateService)
		tenant.DELETE("/services/:id", admin, h.DeleteService)

		tenant.GET("/machines", h.ListMachines)
		tenant.POST("/machines", admin, h.CreateMachine)
		tenant.PUT("/machines/:id", admin, h.UpdateMachine)
		tenant.DELETE("/machines/:id", admin, h.DeleteMachine)
		tenant.PUT("/machines/:id/active", admin, h.SetMachineActive)
		tenant.POST("/machines/:id/start", h.MachineAction(h.machines.StartCycle))
		tenant.POST("/machines/:id/stop", h.MachineAction(h.machines.StopCycle))
		tenant.POST("/machines/:id/maintenance", h.MachineAction(h.machines.SetMaintenance))
		tenant.POST("/machines/:id/broken", h.MachineAction(h.machines.ReportBroken))
		tenant.POST("/machines/:id/resolve", h.MachineAction(h.machines.Resolve))

		tenant.GET("/orders", h.ListOrders)
		tenant.POST("/orders", h.CreateOrder)
		tenant.POST("/orders/quote", h.QuoteOrder)
		tenant.PUT("/orders/:id", h.UpdateOrder)
		tenant.DELETE("/orders/:id", h.DeleteOrder)
		tenant.POST("/orders/:id/advance", h.AdvanceOrder)

		tenant.GET("/dashboard", responses.Cached(), h.GetDashboard)
		tenant.GET("/notifications", h.ListNotifications)

		tenant.GET("/subscriptions", h.GetSubscription)
		tenant.PUT("/subscriptions", h.PutSubscription)
		tenant.DELETE("/subscriptions", h.DeleteSubscription)
	}

	return r
}
