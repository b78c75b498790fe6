package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"wellness/config"
	"wellness/handlers"
	"wellness/middleware"
	"wellness/models"
	"wellness/observability"
	"wellness/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// RegisterBookingRoutes sets up the booking lifecycle endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bookings := api.Group("/bookings")
	{
		bookings.POST("", hb.CreateBookingHandler)
		bookings.GET("", hb.ListBookingsHandler)
		bookings.GET("/:id", hb.GetBookingHandler)
		bookings.POST("/:id/cancel", hb.CancelBookingHandler)
		bookings.POST("/:id/reschedule", hb.RescheduleBookingHandler)
		bookings.POST("/:id/status", hb.UpdateStatusHandler)
		bookings.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), hb.DeleteBookingHandler)
	}
}

// RegisterQuotaRoutes sets up balance queries and HR adjustments.
func RegisterQuotaRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	quota := api.Group("/quota")
	{
		quota.GET("/:userId/balance", hb.GetBalanceHandler)
		quota.GET("/:userId/allocations", hb.ListAllocationsHandler)

		hr := quota.Group("")
		hr.Use(middleware.RequireRole(models.RoleHR, models.RoleAdmin))
		hr.POST("/adjust", hb.AdjustQuotaHandler)
		hr.DELETE("/allocations/:id", hb.DeactivateAllocationHandler)
	}
}

// RegisterProviderRoutes sets up the directory and slot endpoints.
func RegisterProviderRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	providers := api.Group("/providers")
	{
		providers.GET("", hb.ListProvidersHandler)
		providers.GET("/:providerId", hb.GetProviderHandler)
		providers.GET("/:providerId/availability", hb.CheckAvailabilityHandler)
		providers.GET("/:providerId/slots", hb.ListSlotsHandler)
		providers.PUT("/:providerId/slots", hb.UpsertSlotHandler)
		providers.DELETE("/:providerId/slots/:slotId", hb.DeleteSlotHandler)
	}
}

// RegisterRecurringRoutes sets up recurring template management.
func RegisterRecurringRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	recurring := api.Group("/recurring")
	{
		recurring.POST("", hb.CreateTemplateHandler)
		recurring.GET("", hb.ListTemplatesHandler)
		recurring.DELETE("/:id", hb.DeactivateTemplateHandler)
	}
}

// RegisterAdminRoutes sets up endpoints restricted to administrators.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	admin := api.Group("/admin")
	{
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		admin.POST("/providers", hb.RegisterProviderHandler)
		admin.PATCH("/providers/:providerId", hb.SetProviderActiveHandler)
		admin.POST("/recurring/dispatch", hb.DispatchHandler)
	}
}

// RegisterHealthRoute registers the unauthenticated health probe.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// trustedProxies splits TRUSTED_PROXIES. An empty value trusts no proxy.
func trustedProxies(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RegisterRoutes centralizes registration of all endpoints and middleware. Background work
// started by middleware stops when ctx is cancelled.
func RegisterRoutes(ctx context.Context, r *gin.Engine, hb *handlers.HandlerBundle, cfg config.Config) {
	if err := r.SetTrustedProxies(trustedProxies(cfg.TrustedProxies)); err != nil {
		utils.GetLogger().Warn("Invalid TRUSTED_PROXIES, trusting no proxy", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(utils.ErrorHandler())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(ctx, cfg.MaxRequestsPerMin))

	RegisterHealthRoute(r, hb)

	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware())
	RegisterBookingRoutes(api, hb)
	RegisterQuotaRoutes(api, hb)
	RegisterProviderRoutes(api, hb)
	RegisterRecurringRoutes(api, hb)
	RegisterAdminRoutes(api, hb)

	r.NoRoute(func(c *gin.Context) {
		utils.JSONError(c, http.StatusNotFound, "Route not found", c.Request.Method+" "+c.Request.URL.Path)
	})
}
