package handlers

import (
	"powersense/internal/logger"
	"powersense/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)
	h.registerLiveRoutes(router)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/dashboard", h.getDashboard)
		api.PUT("/dashboard/page", h.setPage)

		api.GET("/schedule", h.getSchedule)
		api.GET("/usage", h.getUsage)
		api.GET("/premium", h.getPremium)
		api.POST("/tips", h.requestTips)

		h.registerDeviceRoutes(api)
		h.registerRuleRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	devices := api.Group("/devices")
	{
		devices.GET("", h.getDevices)
		devices.POST("/:id/toggle", h.toggleDevice)
	}
}

func (h *Handler) registerRuleRoutes(api *gin.RouterGroup) {
	rules := api.Group("/rules")
	{
		rules.GET("", h.getRules)
		rules.POST("/:id/toggle", h.toggleRule)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
	}
}

// Live views authenticate through the same bearer header as the API.
func (h *Handler) registerLiveRoutes(r *gin.Engine) {
	ws := r.Group("/ws", h.userIdMiddleware)
	{
		ws.GET("/schedule", h.wsSchedule)
		ws.GET("/usage", h.wsUsage)
	}
}
