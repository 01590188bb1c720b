package routes

import (
	"ahgapi/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupGlamRoutes(g *echo.Group, db *gorm.DB) {
	glamHandler := handlers.NewGlamHandler(db)

	glam := g.Group("/glam")

	glam.GET("/sectors", glamHandler.Sectors)
	glam.GET("/:sector", glamHandler.Browse)
	glam.GET("/:sector/recent", glamHandler.Recent)
	glam.GET("/:sector/repositories", glamHandler.Repositories)
}
