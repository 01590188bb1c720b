package routes

import (
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupGrapRoutes(g *echo.Group, db *gorm.DB) {
	grapHandler := handlers.NewGrapHandler(db)

	grap := g.Group("/grap")

	assets := grap.Group("/assets")
	assets.PUT("", grapHandler.UpsertAsset, middleware.RequireEditor())
	assets.GET("/object/:objectId", grapHandler.ForObject)
	assets.GET("/object/:objectId/compliance", grapHandler.Compliance)
	assets.POST("/:assetId/valuations", grapHandler.RecordValuation, middleware.RequireEditor())
	assets.GET("/:assetId/valuations", grapHandler.Valuations)

	grap.GET("/summary", grapHandler.Summary)
	grap.GET("/insurance-expiring", grapHandler.InsuranceExpiring)
	grap.GET("/valuation-schedule", grapHandler.ValuationSchedule)
	grap.GET("/register/export", grapHandler.ExportRegister, middleware.RequireEditor())
}
