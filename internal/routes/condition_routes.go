package routes

import (
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/config"
	"ahgapi/internal/handlers"
	"ahgapi/internal/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupConditionRoutes(g *echo.Group, db *gorm.DB, cfg *config.Config, storage *services.S3Service) {
	conditionHandler := handlers.NewConditionHandler(db, cfg, storage)

	condition := g.Group("/condition")

	photos := condition.Group("/photos")
	photos.POST("", conditionHandler.UploadPhoto, middleware.RequireEditor())
	photos.PUT("/:id", conditionHandler.UpdatePhoto, middleware.RequireEditor())
	photos.PUT("/:id/annotations", conditionHandler.Annotate, middleware.RequireEditor())
	photos.DELETE("/:id", conditionHandler.DeletePhoto, middleware.RequireEditor())

	checks := condition.Group("/checks")
	checks.POST("", conditionHandler.RecordCheck, middleware.RequireEditor())
	checks.GET("/due", conditionHandler.DueChecks, middleware.RequireEditor())

	condition.GET("/object/:objectId/photos", conditionHandler.PhotosForObject)
	condition.GET("/object/:objectId/checks", conditionHandler.ChecksForObject)
}
