package handlers

import (
	"net/http"

	"ahgapi/internal/models"
	"ahgapi/internal/services"
	"ahgapi/internal/utils"
	"ahgapi/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type GlamHandler struct {
	db   *gorm.DB
	glam *services.GlamService
	log  *logger.Logger
}

func NewGlamHandler(db *gorm.DB) *GlamHandler {
	return &GlamHandler{
		db:   db,
		glam: services.NewGlamService(db),
		log:  logger.New("GlamHandler"),
	}
}

// Sectors returns object counts per GLAM sector for the landing page.
// @Summary Sector counts
// @Tags glam
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /glam/sectors [get]
func (h *GlamHandler) Sectors(c echo.Context) error {
	counts, err := h.glam.SectorCounts(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to count sectors"})
	}
	return c.JSON(http.StatusOK, counts)
}

// Browse pages through a sector's holdings.
// @Summary Browse a sector
// @Tags glam
// @Produce json
// @Param sector path string true "gallery, library, archive or museum"
// @Param repository query string false "Repository name"
// @Param level query string false "Level of description"
// @Param hasDigital query bool false "Only objects with digital copies"
// @Param q query string false "Title or identifier search"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /glam/{sector} [get]
func (h *GlamHandler) Browse(c echo.Context) error {
	filters := services.BrowseFilters{
		Sector:     models.GlamSector(c.Param("sector")),
		Repository: c.QueryParam("repository"),
		Level:      c.QueryParam("level"),
		Query:      c.QueryParam("q"),
		Page:       utils.ParseIntDefault(c.QueryParam("page"), 1),
		Limit:      utils.ParseIntDefault(c.QueryParam("limit"), 20),
	}
	switch c.QueryParam("hasDigital") {
	case "true":
		yes := true
		filters.HasDigital = &yes
	case "false":
		no := false
		filters.HasDigital = &no
	}

	objects, total, err := h.glam.Browse(c.Request().Context(), filters)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Browse failed"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": objects,
		"total": total,
		"page":  filters.Page,
		"limit": filters.Limit,
	})
}

// Recent lists the newest additions to a sector.
func (h *GlamHandler) Recent(c echo.Context) error {
	limit := utils.ParseIntDefault(c.QueryParam("limit"), 10)
	objects, err := h.glam.RecentlyAdded(c.Request().Context(), models.GlamSector(c.Param("sector")), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list recent objects"})
	}
	return c.JSON(http.StatusOK, objects)
}

// Repositories lists the distinct repositories within a sector.
func (h *GlamHandler) Repositories(c echo.Context) error {
	repositories, err := h.glam.Repositories(c.Request().Context(), models.GlamSector(c.Param("sector")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list repositories"})
	}
	return c.JSON(http.StatusOK, repositories)
}
