package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/metrics"
	"github.com/alexp-buildit/WireSafe-Portal/internal/middleware"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth         *AuthHandler
	Transaction  *TransactionHandler
	Banking      *BankingHandler
	Verification *VerificationHandler
	Audit        *AuditHandler
	Notification *NotificationHandler
}

// NewRouter assembles the gin engine: ambient middleware, the public auth
// endpoints, and the authenticated API surface.
func NewRouter(h Handlers, jwtSecret []byte, collector *metrics.Collector, registry *prometheus.Registry, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(collector.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/profile", middleware.AuthMiddleware(jwtSecret), h.Auth.Profile)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtSecret))

	transactions := protected.Group("/transactions")
	transactions.GET("", h.Transaction.List)
	transactions.POST("", h.Transaction.Create)
	transactions.GET("/:transactionId", h.Transaction.Get)
	transactions.PUT("/:transactionId/status", h.Transaction.UpdateStatus)
	transactions.POST("/:transactionId/participants", h.Transaction.AddParticipant)
	transactions.PUT("/:transactionId/users", h.Transaction.AddUser)

	banking := protected.Group("/banking")
	banking.POST("/:transactionId", h.Banking.Submit)
	banking.GET("/:transactionId", h.Banking.List)
	banking.PUT("/approve/:bankingInfoId", h.Banking.Approve)

	verification := protected.Group("/verification")
	verification.POST("/buyer/:transactionId", h.Verification.SubmitBuyer)
	verification.POST("/seller/:transactionId", h.Verification.SubmitSeller)
	verification.POST("/escrow/:transactionId", h.Verification.SubmitEscrow)

	audit := protected.Group("/audit")
	audit.GET("/transaction/:transactionId", h.Audit.ForTransaction)
	audit.GET("/user/:userId", h.Audit.ForUser)

	notifications := protected.Group("/notifications")
	notifications.GET("", h.Notification.List)
	notifications.PUT("/read", h.Notification.MarkRead)

	return router
}
