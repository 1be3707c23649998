package router

import (
	"github.com/gin-gonic/gin"

	"fapiao/internal/handler"
	"fapiao/internal/middleware"
	"fapiao/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	authSvc service.AuthService,
	authH *handler.AuthHandler,
	invoiceH *handler.InvoiceHandler,
	statsH *handler.StatsHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", authH.Login)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	// Invoice routes
	invoices := protected.Group("/invoices")
	invoices.POST("/upload", invoiceH.Upload)
	invoices.POST("/process", invoiceH.Process)
	invoices.POST("/deduplicate", invoiceH.Deduplicate)
	invoices.GET("", invoiceH.List)
	invoices.GET("/export/csv", invoiceH.ExportCSV)
	invoices.GET("/export/excel", invoiceH.ExportExcel)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.DELETE("/:id", invoiceH.Delete)
	invoices.DELETE("", invoiceH.ClearAll)

	// Stats and review report
	stats := protected.Group("/stats")
	stats.GET("", statsH.Stats)
	stats.POST("/report", statsH.SendReport)

	return r
}
