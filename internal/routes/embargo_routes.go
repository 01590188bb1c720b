package routes

import (
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupEmbargoRoutes(g *echo.Group, db *gorm.DB) {
	embargoHandler := handlers.NewEmbargoHandler(db)

	embargoes := g.Group("/embargoes")

	embargoes.POST("", embargoHandler.Create, middleware.RequireEditor())
	embargoes.GET("/object/:objectId", embargoHandler.ForObject)
	embargoes.GET("/expiring", embargoHandler.Expiring, middleware.RequireEditor())
	embargoes.PUT("/:id", embargoHandler.Update, middleware.RequireEditor())
	embargoes.POST("/:id/lift", embargoHandler.Lift, middleware.RequireEditor())
	embargoes.POST("/:id/exceptions", embargoHandler.AddException, middleware.RequireEditor())
}
