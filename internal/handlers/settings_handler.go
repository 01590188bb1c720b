package handlers

import (
	"net/http"

	"ahgapi/internal/services"
	"ahgapi/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type SettingsHandler struct {
	db       *gorm.DB
	settings *services.SettingsService
	log      *logger.Logger
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{
		db:       db,
		settings: services.NewSettingsService(db),
		log:      logger.New("SettingsHandler"),
	}
}

// Namespace returns all settings under one namespace.
// @Summary Get settings for a namespace
// @Tags settings
// @Produce json
// @Param namespace path string true "Namespace"
// @Success 200 {object} map[string]string
// @Router /settings/{namespace} [get]
func (h *SettingsHandler) Namespace(c echo.Context) error {
	values, err := h.settings.Namespace(c.Request().Context(), c.Param("namespace"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load settings"})
	}
	return c.JSON(http.StatusOK, values)
}

// Update upserts a batch of settings in one namespace.
// @Summary Update settings in a namespace
// @Tags settings
// @Accept json
// @Produce json
// @Param namespace path string true "Namespace"
// @Param request body map[string]string true "Key/value pairs"
// @Success 200 {object} map[string]string
// @Router /settings/{namespace} [put]
func (h *SettingsHandler) Update(c echo.Context) error {
	var values map[string]string
	if err := c.Bind(&values); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if len(values) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No settings supplied"})
	}

	if err := h.settings.SetMany(c.Request().Context(), c.Param("namespace"), values); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save settings"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Settings saved"})
}
