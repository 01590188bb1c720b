package routes

import (
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupSettingsRoutes(g *echo.Group, db *gorm.DB) {
	settingsHandler := handlers.NewSettingsHandler(db)

	settings := g.Group("/settings")

	settings.GET("/:namespace", settingsHandler.Namespace)
	settings.PUT("/:namespace", settingsHandler.Update, middleware.RequireAdmin())
}
