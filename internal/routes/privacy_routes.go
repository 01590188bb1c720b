package routes

import (
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/config"
	"ahgapi/internal/handlers"
	"ahgapi/internal/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Privacy registers are restricted to administrators throughout; they
// carry personal information themselves.
func SetupPrivacyRoutes(g *echo.Group, db *gorm.DB, cfg *config.Config, storage *services.S3Service) {
	privacyHandler := handlers.NewPrivacyHandler(db, cfg, storage)

	privacy := g.Group("/privacy", middleware.RequireAdmin())

	dsars := privacy.Group("/dsars")
	dsars.POST("", privacyHandler.CreateDsar)
	dsars.GET("", privacyHandler.ListDsars)
	dsars.GET("/overdue", privacyHandler.OverdueDsars)
	dsars.GET("/:id", privacyHandler.GetDsar)
	dsars.PUT("/:id/status", privacyHandler.UpdateDsarStatus)

	breaches := privacy.Group("/breaches")
	breaches.POST("", privacyHandler.CreateBreach)
	breaches.GET("", privacyHandler.ListBreaches)
	breaches.POST("/:id/notify", privacyHandler.NotifyRegulator)
	breaches.POST("/:id/close", privacyHandler.CloseBreach)

	templates := privacy.Group("/templates")
	templates.POST("", privacyHandler.UploadTemplate)
	templates.GET("", privacyHandler.ListTemplates)

	privacy.GET("/statistics", privacyHandler.Statistics)
}
