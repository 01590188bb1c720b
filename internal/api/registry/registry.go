package registry

import (
	"github.com/labstack/echo/v4"

	"ahgapi/internal/api/controllers"
	"ahgapi/internal/api/middleware"
	"ahgapi/internal/models"
	"ahgapi/internal/services"

	"gorm.io/gorm"
)

// RegisterCRUDRoutes wires the plain register-style resources that need
// nothing beyond generic CRUD. Workflow-bearing resources (embargoes,
// clearances, requests) have dedicated handlers instead.
func RegisterCRUDRoutes(g *echo.Group, db *gorm.DB) {
	// Catalogue object shadow rows, maintained by editors
	objectService := services.NewBaseService(db, models.ArchivalObject{})
	objectController := controllers.NewBaseController(objectService)
	objectGroup := g.Group("/objects")
	objectGroup.GET("", objectController.List)
	objectGroup.GET("/:id", objectController.Get)
	objectWrite := objectGroup.Group("")
	objectWrite.Use(middleware.RequireEditor())
	objectWrite.POST("", objectController.Create)
	objectWrite.PUT("/:id", objectController.Update)
	objectWrite.DELETE("/:id", objectController.Delete)

	// Classification ladder, admin-managed
	classService := services.NewBaseService(db, models.Classification{})
	classController := controllers.NewBaseController(classService)
	classGroup := g.Group("/classifications")
	classGroup.GET("", classController.List)
	classGroup.GET("/:id", classController.Get)
	classWrite := classGroup.Group("")
	classWrite.Use(middleware.RequireAdmin())
	classWrite.POST("", classController.Create)
	classWrite.PUT("/:id", classController.Update)
	classWrite.DELETE("/:id", classController.Delete)

	// Donor agreements
	donorService := services.NewBaseService(db, models.DonorAgreement{})
	donorController := controllers.NewBaseController(donorService)
	donorGroup := g.Group("/donor-agreements")
	donorGroup.Use(middleware.RequireEditor())
	donorController.RegisterRoutes(donorGroup, "")

	// Record of processing activities
	ropaService := services.NewBaseService(db, models.RopaEntry{})
	ropaController := controllers.NewBaseController(ropaService)
	ropaGroup := g.Group("/privacy/ropa")
	ropaGroup.Use(middleware.RequireAdmin())
	ropaController.RegisterRoutes(ropaGroup, "")
}
