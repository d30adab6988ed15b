package handlers

import (
	"flux_irrigation/internal/config"
	"flux_irrigation/internal/logger"
	"flux_irrigation/internal/models"
	"flux_irrigation/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options selects the role this process serves and the credentials the
// homeowner API checks.
type Options struct {
	Mode               string // config.ModeHomeowner or config.ModeManagement
	APIKey             string // expected X-API-Key on the homeowner API
	RateLimitPerMinute int    // per client address; <= 0 disables the limiter
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	opts     Options
	limiters *clientLimiters
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, opts Options, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Mode == "" {
		opts.Mode = config.ModeHomeowner
	}
	return &Handler{
		services: services,
		opts:     opts,
		limiters: newClientLimiters(opts.RateLimitPerMinute),
		log:      log,
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	// ClientIP is the peer address; forwarded headers are not trusted.
	_ = router.SetTrustedProxies(nil)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)

	// Notification feed push for the dashboard (token in the query string).
	router.GET("/ws", h.wsConnect)

	admin := router.Group("/admin/api", h.userIdMiddleware)
	admin.GET("/changelog", h.getChangeLog)

	switch h.opts.Mode {
	case config.ModeManagement:
		h.registerManagementRoutes(admin)
	default:
		h.registerHomeownerAPIRoutes(router)
		h.registerHomeownerAdminRoutes(admin.Group("/homeowner"))
	}

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

// registerHomeownerAPIRoutes exposes the surface management calls through
// the proxy.
func (h *Handler) registerHomeownerAPIRoutes(r *gin.Engine) {
	r.GET("/api/system/health", h.systemHealth)

	api := r.Group("/api", h.rateLimitMiddleware, h.apiKeyMiddleware)
	{
		api.GET("/system/status", h.systemStatus)

		issues := api.Group("/issues")
		issues.GET("", h.listIssues)
		issues.GET("/active", h.activeIssues)
		issues.GET("/summary", h.issueSummary)
		issues.PUT("/:id/acknowledge", h.acknowledgeIssue)
		issues.PUT("/:id/resolve", h.resolveIssue)

		api.POST("/notifications", h.receiveRemoteChange)
	}
}

func (h *Handler) registerHomeownerAdminRoutes(g *gin.RouterGroup) {
	issues := g.Group("/issues")
	{
		issues.POST("", h.createIssue)
		issues.GET("/visible", h.visibleIssues)
		issues.PUT("/:id/dismiss", h.dismissIssue)
		issues.GET("/:id/calendar.ics", h.issueCalendar)
	}

	registerFeedRoutes[models.HomeownerPreferences, models.HomeownerEvent](
		g.Group("/notifications"), h.services.HomeownerNotifications, h)

	g.GET("/connection-key", h.getConnectionKey)
	g.GET("/access", h.getAccess)
	g.PUT("/access", h.setAccess)
}

func (h *Handler) registerManagementRoutes(g *gin.RouterGroup) {
	customers := g.Group("/customers")
	{
		customers.GET("", h.listCustomers)
		customers.POST("", h.addCustomer)
		customers.GET("/:id", h.getCustomer)
		customers.PUT("/:id", h.updateCustomer)
		customers.DELETE("/:id", h.removeCustomer)
		customers.POST("/:id/check", h.checkCustomer)
		customers.GET("/:id/issues", h.customerIssues)
		customers.PUT("/:id/issues/:issue_id/acknowledge", h.acknowledgeCustomerIssue)
		customers.PUT("/:id/issues/:issue_id/resolve", h.resolveCustomerIssue)
		customers.Any("/:id/remote/*path", h.relayToCustomer)
	}

	registerFeedRoutes[models.ManagementPreferences, models.ManagementEvent](
		g.Group("/management/notifications"), h.services.ManagementNotifications, h)
}
