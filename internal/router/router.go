package router

import (
	"github.com/gin-gonic/gin"

	"flatfeed/internal/handler"
	"flatfeed/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(exportH *handler.ExportHandler, healthH *handler.HealthHandler) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	exports := v1.Group("/exports")
	exports.GET("/:source/csv", exportH.ExportCSV)
	exports.GET("/:source/xlsx", exportH.ExportXLSX)
	exports.GET("/:source/summary", exportH.Summary)

	return r
}
