package routes

import (
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupSecurityRoutes(g *echo.Group, db *gorm.DB) {
	securityHandler := handlers.NewSecurityHandler(db)

	security := g.Group("/security")

	// Classification management, editor and up
	security.POST("/classify", securityHandler.ClassifyObject, middleware.RequireEditor())
	security.DELETE("/classify/:objectId", securityHandler.Declassify, middleware.RequireEditor())
	security.GET("/effective/:objectId", securityHandler.EffectiveClassification)

	// Clearance vetting is an admin concern
	clearances := security.Group("/clearances")
	clearances.POST("", securityHandler.GrantClearance, middleware.RequireAdmin())
	clearances.DELETE("/:userId", securityHandler.RevokeClearance, middleware.RequireAdmin())
	clearances.GET("/me", securityHandler.MyClearance)
	clearances.POST("/renewal", securityHandler.RequestRenewal)
	clearances.POST("/:id/renewal/review", securityHandler.ReviewRenewal, middleware.RequireAdmin())
	clearances.GET("/expiring", securityHandler.ExpiringClearances, middleware.RequireAdmin())
	clearances.GET("/:userId/history", securityHandler.ClearanceHistory)

	// Per-object grants
	grants := security.Group("/grants")
	grants.POST("", securityHandler.CreateGrant, middleware.RequireEditor())
	grants.DELETE("/:id", securityHandler.RevokeGrant, middleware.RequireEditor())

	// Access requests
	requests := security.Group("/requests")
	requests.POST("", securityHandler.SubmitRequest)
	requests.GET("/mine", securityHandler.MyRequests)
	requests.GET("/pending", securityHandler.PendingRequests, middleware.RequireEditor())
	requests.POST("/:id/review", securityHandler.ReviewAccessRequest, middleware.RequireEditor())

	// Watermarks
	watermarks := security.Group("/watermarks")
	watermarks.POST("", securityHandler.GenerateWatermark)
	watermarks.GET("/:code", securityHandler.TraceWatermark, middleware.RequireAdmin())

	security.GET("/statistics", securityHandler.Statistics, middleware.RequireEditor())
}

// SetupAccessCheckRoutes exposes the access evaluator on the public
// surface so anonymous readers get fail-closed decisions too.
func SetupAccessCheckRoutes(g *echo.Group, db *gorm.DB) {
	securityHandler := handlers.NewSecurityHandler(db)
	g.GET("/access/check/:objectId", securityHandler.CheckAccess)
}
