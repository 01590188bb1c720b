package routes

import (
	"ahgapi/internal/config"
	"ahgapi/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupFavoritesRoutes(g *echo.Group, db *gorm.DB, cfg *config.Config) {
	favoritesHandler := handlers.NewFavoritesHandler(db, cfg)

	favorites := g.Group("/favorites")

	favorites.GET("", favoritesHandler.List)
	favorites.POST("/toggle", favoritesHandler.Toggle)
	favorites.POST("/custom", favoritesHandler.AddCustom)
	favorites.GET("/check/:objectId", favoritesHandler.Check)
	favorites.PUT("/:id/notes", favoritesHandler.UpdateNotes)
	favorites.POST("/:id/viewed", favoritesHandler.TouchViewed)
	favorites.POST("/bulk-remove", favoritesHandler.BulkRemove)
	favorites.POST("/move", favoritesHandler.MoveToFolder)
	favorites.POST("/import", favoritesHandler.Import)
	favorites.GET("/export", favoritesHandler.Export)
	favorites.DELETE("/all", favoritesHandler.ClearAll)
	favorites.POST("/shared/:token/copy", favoritesHandler.CopyShared)

	folders := favorites.Group("/folders")
	folders.POST("", favoritesHandler.CreateFolder)
	folders.GET("", favoritesHandler.ListFolders)
	folders.PUT("/:id", favoritesHandler.RenameFolder)
	folders.DELETE("/:id", favoritesHandler.DeleteFolder)
	folders.POST("/:id/share", favoritesHandler.ShareFolder)
}

// SetupSharedFolderRoutes exposes shared folders by token on the
// public surface.
func SetupSharedFolderRoutes(g *echo.Group, db *gorm.DB, cfg *config.Config) {
	favoritesHandler := handlers.NewFavoritesHandler(db, cfg)
	g.GET("/shared/folders/:token", favoritesHandler.ViewShared)
}
