package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"ahgapi/internal/api/validator"
	"ahgapi/internal/config"
	"ahgapi/internal/models"
	"ahgapi/internal/services"
	"ahgapi/internal/tasks/rate"
	"ahgapi/internal/utils"
	"ahgapi/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type FavoritesHandler struct {
	db         *gorm.DB
	favorites  *services.FavoritesService
	export     *services.ExportService
	pdfLimiter *rate.QueueRateLimiter
	log        *logger.Logger
}

func NewFavoritesHandler(db *gorm.DB, cfg *config.Config) *FavoritesHandler {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	// PDF rendering goes through an external service, so cap it per user
	pdfLimiter := rate.NewQueueRateLimiter(redisClient, rate.QueueConfig{
		Name: "pdf_export",
		RateLimit: rate.RateLimit{
			Window:  10 * time.Minute,
			MaxJobs: 5,
		},
	})

	return &FavoritesHandler{
		db:         db,
		favorites:  services.NewFavoritesService(db),
		export:     services.NewExportService(cfg),
		pdfLimiter: pdfLimiter,
		log:        logger.New("FavoritesHandler"),
	}
}

// Toggle adds or removes an object from the user's favorites.
// @Summary Toggle favorite
// @Tags favorites
// @Accept json
// @Produce json
// @Param request body validator.ToggleFavoriteRequest true "Object to toggle"
// @Success 200 {object} map[string]bool
// @Router /favorites/toggle [post]
func (h *FavoritesHandler) Toggle(c echo.Context) error {
	var req validator.ToggleFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	objectType := models.ObjectType(req.ObjectType)
	if objectType == "" {
		objectType = models.ObjectTypeInformationObject
	}

	added, err := h.favorites.Toggle(c.Request().Context(), c.Get("userID").(string), req.ObjectID, objectType)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]bool{"favorited": added})
}

// AddCustom bookmarks an external URL.
// @Summary Add a custom favorite
// @Tags favorites
// @Accept json
// @Produce json
// @Param request body validator.CustomFavoriteRequest true "Custom bookmark"
// @Success 201 {object} models.Favorite
// @Router /favorites/custom [post]
func (h *FavoritesHandler) AddCustom(c echo.Context) error {
	var req validator.CustomFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	favorite, err := h.favorites.AddCustom(c.Request().Context(), c.Get("userID").(string), req.Title, req.URL, req.Notes, req.FolderID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, favorite)
}

// List returns the user's favorites with search, sort and paging.
// @Summary List favorites
// @Tags favorites
// @Produce json
// @Param folderId query string false "Folder ID"
// @Param q query string false "Search in title or reference code"
// @Param sort query string false "title, created_at or last_viewed_at"
// @Param order query string false "asc or desc" default(desc)
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(30)
// @Success 200 {object} map[string]interface{}
// @Router /favorites [get]
func (h *FavoritesHandler) List(c echo.Context) error {
	query := services.ListQuery{
		FolderID: c.QueryParam("folderId"),
		Search:   c.QueryParam("q"),
		Sort:     c.QueryParam("sort"),
		Order:    c.QueryParam("order"),
		Page:     utils.ParseIntDefault(c.QueryParam("page"), 1),
		Limit:    utils.ParseIntDefault(c.QueryParam("limit"), 30),
	}

	favorites, total, err := h.favorites.List(c.Request().Context(), c.Get("userID").(string), query)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list favorites"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": favorites,
		"total": total,
		"page":  query.Page,
		"limit": query.Limit,
	})
}

// Check reports whether an object is favorited by the current user.
func (h *FavoritesHandler) Check(c echo.Context) error {
	found, err := h.favorites.IsFavorite(c.Request().Context(), c.Get("userID").(string), c.Param("objectId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to check favorite"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"favorited": found})
}

// UpdateNotes replaces the research notes on a favorite.
func (h *FavoritesHandler) UpdateNotes(c echo.Context) error {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.favorites.UpdateNotes(c.Request().Context(), c.Get("userID").(string), c.Param("id"), req.Notes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Favorite not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update notes"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notes updated"})
}

// TouchViewed records that the user opened a favorite.
func (h *FavoritesHandler) TouchViewed(c echo.Context) error {
	if err := h.favorites.TouchViewed(c.Request().Context(), c.Get("userID").(string), c.Param("id")); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record view"})
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkRemove deletes a batch of favorites.
// @Summary Remove favorites in bulk
// @Tags favorites
// @Accept json
// @Produce json
// @Param request body validator.BulkFavoritesRequest true "Favorite IDs"
// @Success 200 {object} map[string]int64
// @Router /favorites/bulk-remove [post]
func (h *FavoritesHandler) BulkRemove(c echo.Context) error {
	var req validator.BulkFavoritesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	removed, err := h.favorites.BulkRemove(c.Request().Context(), c.Get("userID").(string), req.FavoriteIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to remove favorites"})
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": removed})
}

// MoveToFolder reassigns a batch of favorites to a folder.
func (h *FavoritesHandler) MoveToFolder(c echo.Context) error {
	var req validator.BulkFavoritesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	moved, err := h.favorites.MoveToFolder(c.Request().Context(), c.Get("userID").(string), req.FolderID, req.FavoriteIDs)
	if err != nil {
		if errors.Is(err, services.ErrNotFolderOwner) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Not your folder"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to move favorites"})
	}
	return c.JSON(http.StatusOK, map[string]int64{"moved": moved})
}

// Import bulk-adds favorites by catalogue slug. Slugs that do not
// resolve are reported back rather than failing the batch.
// @Summary Import favorites by slug
// @Tags favorites
// @Accept json
// @Produce json
// @Param request body validator.ImportFavoritesRequest true "Slugs to import"
// @Success 200 {object} map[string]interface{}
// @Router /favorites/import [post]
func (h *FavoritesHandler) Import(c echo.Context) error {
	var req validator.ImportFavoritesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	added, skipped, unresolved, err := h.favorites.ImportSlugs(c.Request().Context(), c.Get("userID").(string), req.Slugs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Import failed"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"added":   added,
		"skipped": skipped,
		"errors":  unresolved,
	})
}

// ClearAll removes every favorite the user has.
func (h *FavoritesHandler) ClearAll(c echo.Context) error {
	removed, err := h.favorites.ClearAll(c.Request().Context(), c.Get("userID").(string))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to clear favorites"})
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": removed})
}

// Export renders the user's favorites in the requested format.
// @Summary Export favorites
// @Tags favorites
// @Param format query string false "csv, json, bibtex, ris, print or pdf" default(csv)
// @Param folderId query string false "Folder ID"
// @Success 200 {string} string "Exported document"
// @Router /favorites/export [get]
func (h *FavoritesHandler) Export(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("userID").(string)

	favorites, _, err := h.favorites.List(ctx, userID, services.ListQuery{FolderID: c.QueryParam("folderId")})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load favorites"})
	}

	title := fmt.Sprintf("Favorites export %s", time.Now().Format("2006-01-02"))
	format := c.QueryParam("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		data, err := h.export.CSV(favorites)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Export failed"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="favorites.csv"`)
		return c.Blob(http.StatusOK, "text/csv", data)
	case "json":
		data, err := h.export.JSON(favorites)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Export failed"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="favorites.json"`)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
	case "bibtex":
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="favorites.bib"`)
		return c.Blob(http.StatusOK, "application/x-bibtex", h.export.BibTeX(favorites))
	case "ris":
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="favorites.ris"`)
		return c.Blob(http.StatusOK, "application/x-research-info-systems", h.export.RIS(favorites))
	case "print":
		return c.HTMLBlob(http.StatusOK, h.export.PrintHTML(title, favorites))
	case "pdf":
		allowed, err := h.pdfLimiter.Allow(ctx, userID)
		if err != nil {
			h.log.Warn("PDF rate limiter unavailable: %v", err)
		} else if !allowed {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many PDF exports, try again later"})
		}
		data, err := h.export.PDF(ctx, title, favorites)
		if err != nil {
			h.log.Error("PDF export failed: %v", err)
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "PDF rendering unavailable"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="favorites.pdf"`)
		return c.Blob(http.StatusOK, "application/pdf", data)
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown export format"})
	}
}

// CreateFolder makes a new favorites folder.
// @Summary Create folder
// @Tags favorites
// @Accept json
// @Produce json
// @Param request body validator.FolderRequest true "Folder details"
// @Success 201 {object} models.FavoriteFolder
// @Router /favorites/folders [post]
func (h *FavoritesHandler) CreateFolder(c echo.Context) error {
	var req validator.FolderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	folder, err := h.favorites.CreateFolder(c.Request().Context(), c.Get("userID").(string), req.Name, req.Description, req.ParentID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, folder)
}

// ListFolders returns the user's folder tree as a flat list.
func (h *FavoritesHandler) ListFolders(c echo.Context) error {
	folders, err := h.favorites.ListFolders(c.Request().Context(), c.Get("userID").(string))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list folders"})
	}
	return c.JSON(http.StatusOK, folders)
}

// RenameFolder updates a folder's name and description.
func (h *FavoritesHandler) RenameFolder(c echo.Context) error {
	var req validator.FolderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.favorites.RenameFolder(c.Request().Context(), c.Get("userID").(string), c.Param("id"), req.Name, req.Description); err != nil {
		if errors.Is(err, services.ErrNotFolderOwner) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Not your folder"})
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Folder not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to rename folder"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Folder updated"})
}

// DeleteFolder removes a folder; its favorites revert to unfiled.
func (h *FavoritesHandler) DeleteFolder(c echo.Context) error {
	if err := h.favorites.DeleteFolder(c.Request().Context(), c.Get("userID").(string), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrNotFolderOwner) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Not your folder"})
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Folder not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete folder"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Folder deleted"})
}

// ShareFolder mints a share token for read-only folder access.
// @Summary Share a folder
// @Tags favorites
// @Accept json
// @Produce json
// @Param id path string true "Folder ID"
// @Param request body validator.ShareFolderRequest true "Share options"
// @Success 201 {object} models.FolderShare
// @Router /favorites/folders/{id}/share [post]
func (h *FavoritesHandler) ShareFolder(c echo.Context) error {
	var req validator.ShareFolderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	share, err := h.favorites.ShareFolder(c.Request().Context(), c.Get("userID").(string), c.Param("id"), req.ExpiresAt)
	if err != nil {
		if errors.Is(err, services.ErrNotFolderOwner) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Not your folder"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to share folder"})
	}
	return c.JSON(http.StatusCreated, share)
}

// ViewShared resolves a share token. Public, no authentication.
// @Summary View a shared folder
// @Tags favorites
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Unknown or expired token"
// @Router /shared/folders/{token} [get]
func (h *FavoritesHandler) ViewShared(c echo.Context) error {
	folder, favorites, err := h.favorites.ResolveShare(c.Request().Context(), c.Param("token"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Share not found or expired"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"folder":    folder,
		"favorites": favorites,
	})
}

// CopyShared copies a shared folder's contents into the caller's own
// favorites.
// @Summary Copy a shared folder to my favorites
// @Tags favorites
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} map[string]int
// @Failure 404 {object} map[string]string "Unknown or expired token"
// @Router /favorites/shared/{token}/copy [post]
func (h *FavoritesHandler) CopyShared(c echo.Context) error {
	copied, skipped, err := h.favorites.CopyShared(c.Request().Context(), c.Get("userID").(string), c.Param("token"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Share not found or expired"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to copy folder"})
	}
	return c.JSON(http.StatusOK, map[string]int{"copied": copied, "skipped": skipped})
}
