package routes

import (
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/config"
	"ahgapi/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupAuthRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db)

	base := e.Group("/api/v1")

	// Public auth routes
	auth := base.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Protected user routes
	users := base.Group("/users")
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	users.Use(authMiddleware.Middleware())

	users.GET("/me", authHandler.GetMe)
	users.POST("/logout", authHandler.Logout)
}
