package routes

import (
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupRightsRoutes(g *echo.Group, db *gorm.DB) {
	rightsHandler := handlers.NewRightsHandler(db)

	rights := g.Group("/rights")

	rights.POST("", rightsHandler.Create, middleware.RequireEditor())
	rights.GET("/object/:objectId", rightsHandler.ForObject)
	rights.GET("/object/:objectId/check", rightsHandler.CheckAct)
	rights.GET("/object/:objectId/badge", rightsHandler.Badge)
	rights.GET("/expiring", rightsHandler.Expiring, middleware.RequireEditor())
}
