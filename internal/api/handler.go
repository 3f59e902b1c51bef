package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"groupbuy-service/internal/middleware"
	"groupbuy-service/internal/models"
	"groupbuy-service/internal/service"
	"groupbuy-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	auth    *service.AuthService
	catalog *service.CatalogService
	deals   *service.DealService
	orders  *service.OrderService
	admin   *service.AdminService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	auth *service.AuthService,
	catalog *service.CatalogService,
	deals *service.DealService,
	orders *service.OrderService,
	admin *service.AdminService,
) *Handler {
	return &Handler{
		auth:    auth,
		catalog: catalog,
		deals:   deals,
		orders:  orders,
		admin:   admin,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine, authmw *middleware.AuthMiddleware) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/signup", h.signUp)
		v1.POST("/auth/login", h.login)

		v1.GET("/categories", h.listCategories)

		authed := v1.Group("")
		authed.Use(authmw.AuthRequired())
		{
			authed.GET("/users/me", h.me)

			authed.GET("/products", h.listProducts)
			authed.GET("/products/:id", h.getProduct)

			authed.GET("/deals", h.listDeals)
			authed.GET("/deals/:id", h.getDeal)
			authed.GET("/deals/:id/progress", h.getDealProgress)
			authed.GET("/deals/:id/participants", h.listDealParticipants)

			authed.GET("/orders", h.listOrders)
			authed.GET("/orders/:id", h.getOrder)
		}

		suppliers := v1.Group("")
		suppliers.Use(authmw.AuthRequired(), authmw.RoleRequired(models.RoleSupplier))
		{
			suppliers.POST("/products", h.createProduct)
			suppliers.PUT("/products/:id", h.updateProduct)
			suppliers.DELETE("/products/:id", h.deleteProduct)

			suppliers.POST("/deals", h.startDeal)
			suppliers.PUT("/deals/:id/pause", h.toggleDealPause)

			suppliers.PUT("/orders/:id/status", h.advanceOrderStatus)
		}

		vendors := v1.Group("")
		vendors.Use(authmw.AuthRequired(), authmw.RoleRequired(models.RoleVendor))
		{
			vendors.POST("/deals/:id/join", h.joinDeal)
		}

		admins := v1.Group("/admin")
		admins.Use(authmw.AuthRequired(), authmw.RoleRequired(models.RoleAdmin))
		{
			admins.GET("/users", h.listUsers)
			admins.PUT("/users/:id/verify", h.verifyUser)
			admins.PUT("/products/:id/verify", h.verifyProduct)
			admins.PUT("/deals/:id/approve", h.approveDeal)
			admins.PUT("/deals/:id/reject", h.rejectDeal)
			admins.POST("/categories", h.createCategory)
			admins.PUT("/categories/:id", h.updateCategory)
			admins.DELETE("/categories/:id", h.deleteCategory)
			admins.GET("/dashboard/metrics", h.dashboardMetrics)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps service error kinds to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrState):
		status = http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPaymentDeclined):
		status = http.StatusPaymentRequired
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
