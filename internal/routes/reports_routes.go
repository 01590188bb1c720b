package routes

import (
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/config"
	"ahgapi/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupReportsRoutes(g *echo.Group, db *gorm.DB, cfg *config.Config) {
	reportsHandler := handlers.NewReportsHandler(db, cfg)

	reports := g.Group("/reports", middleware.RequireEditor())

	reports.GET("/dashboard", reportsHandler.Dashboard)
	reports.GET("/access-log", reportsHandler.AccessLog)
	reports.GET("/donor-reviews", reportsHandler.DonorReviews)
}
