package api

import (
	"net/http"

	"ahgapi/internal/api/middleware"
	"ahgapi/internal/api/registry"
	"ahgapi/internal/routes"

	_ "ahgapi/docs/swagger"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Archival Heritage Governance API")
	})
	// Health check
	// @Summary Health check
	// @Description Check if the server is running
	// @Accept json
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	routes.SetupAuthRoutes(s.echo, s.db, s.config)

	auth := middleware.NewAuthMiddleware(s.config.JWT.Secret)

	// Public browse surface; logs in optional
	public := s.echo.Group("/api/v1")
	public.Use(auth.OptionalMiddleware())
	routes.SetupGlamRoutes(public, s.db)
	routes.SetupSharedFolderRoutes(public, s.db, s.config)
	routes.SetupAccessCheckRoutes(public, s.db)

	// Authenticated API surface
	api := s.echo.Group("/api/v1")
	api.Use(auth.Middleware())

	registry.RegisterCRUDRoutes(api, s.db)

	routes.SetupFavoritesRoutes(api, s.db, s.config)
	routes.SetupSecurityRoutes(api, s.db)
	routes.SetupEmbargoRoutes(api, s.db)
	routes.SetupRightsRoutes(api, s.db)
	routes.SetupGrapRoutes(api, s.db)
	routes.SetupPrivacyRoutes(api, s.db, s.config, s.storage)
	routes.SetupConditionRoutes(api, s.db, s.config, s.storage)
	routes.SetupSettingsRoutes(api, s.db)
	routes.SetupReportsRoutes(api, s.db, s.config)
}
