package handlers

import (
	"errors"
	"io"
	"net/http"

	"ahgapi/internal/api/middleware"
	"ahgapi/internal/api/validator"
	"ahgapi/internal/config"
	"ahgapi/internal/models"
	"ahgapi/internal/services"
	"ahgapi/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConditionHandler struct {
	db        *gorm.DB
	condition *services.ConditionService
	log       *logger.Logger
}

func NewConditionHandler(db *gorm.DB, cfg *config.Config, storage *services.S3Service) *ConditionHandler {
	return &ConditionHandler{
		db:        db,
		condition: services.NewConditionService(db, storage, cfg.Storage.MaxUploadMB),
		log:       logger.New("ConditionHandler"),
	}
}

// UploadPhoto attaches a condition photo to an object. The image goes
// to private object storage; responses carry signed URLs only.
// @Summary Upload a condition photo
// @Tags condition
// @Accept multipart/form-data
// @Produce json
// @Param objectId formData string true "Object ID"
// @Param checkId formData string false "Condition check ID"
// @Param caption formData string false "Caption"
// @Param file formData file true "Image file"
// @Success 201 {object} models.ConditionPhoto
// @Failure 400 {object} map[string]string "File too large or unsupported type"
// @Router /condition/photos [post]
func (h *ConditionHandler) UploadPhoto(c echo.Context) error {
	objectID := c.FormValue("objectId")
	if objectID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "objectId is required"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read file"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read file"})
	}

	photo, err := h.condition.UploadPhoto(c.Request().Context(), objectID, c.FormValue("checkId"),
		middleware.GetUserID(c), fileHeader.Filename, fileHeader.Header.Get("Content-Type"),
		data, c.FormValue("caption"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFileTooLarge):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "File exceeds the upload limit"})
		case errors.Is(err, services.ErrUnsupportedType):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unsupported image type"})
		default:
			h.log.Error("Photo upload failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Upload failed"})
		}
	}
	return c.JSON(http.StatusCreated, photo)
}

// PhotosForObject lists an object's condition photos with signed URLs.
func (h *ConditionHandler) PhotosForObject(c echo.Context) error {
	photos, err := h.condition.PhotosForObject(c.Request().Context(), c.Param("objectId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list photos"})
	}
	return c.JSON(http.StatusOK, photos)
}

// Annotate replaces the annotation overlay on a photo.
func (h *ConditionHandler) Annotate(c echo.Context) error {
	var req struct {
		Annotations datatypes.JSON `json:"annotations" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.condition.Annotate(c.Request().Context(), c.Param("id"), req.Annotations); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save annotations"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Annotations saved"})
}

// UpdatePhoto changes the caption or check linkage on a photo.
func (h *ConditionHandler) UpdatePhoto(c echo.Context) error {
	var req struct {
		Caption *string `json:"caption"`
		CheckID *string `json:"checkId" validate:"omitempty,uuid"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.condition.UpdatePhotoMeta(c.Request().Context(), c.Param("id"), req.Caption, req.CheckID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update photo"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Photo updated"})
}

// DeletePhoto removes a photo record and its stored file.
func (h *ConditionHandler) DeletePhoto(c echo.Context) error {
	if err := h.condition.DeletePhoto(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete photo"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Photo deleted"})
}

// RecordCheck files a condition check for an object.
// @Summary Record a condition check
// @Tags condition
// @Accept json
// @Produce json
// @Param request body validator.ConditionCheckRequest true "Check details"
// @Success 201 {object} models.ConditionCheck
// @Router /condition/checks [post]
func (h *ConditionHandler) RecordCheck(c echo.Context) error {
	var req validator.ConditionCheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	check := &models.ConditionCheck{
		ObjectID:        req.ObjectID,
		CheckedBy:       middleware.GetUserID(c),
		Condition:       req.Condition,
		Notes:           req.Notes,
		Recommendations: req.Recommendations,
		NextCheckMonths: req.NextCheckMonths,
		Humidity:        req.Humidity,
		Temperature:     req.Temperature,
	}
	if err := h.condition.RecordCheck(c.Request().Context(), check); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, check)
}

// ChecksForObject lists an object's condition history, newest first.
func (h *ConditionHandler) ChecksForObject(c echo.Context) error {
	checks, err := h.condition.ChecksForObject(c.Request().Context(), c.Param("objectId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list checks"})
	}
	return c.JSON(http.StatusOK, checks)
}

// DueChecks lists objects whose next scheduled check has passed.
func (h *ConditionHandler) DueChecks(c echo.Context) error {
	checks, err := h.condition.DueChecks(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list due checks"})
	}
	return c.JSON(http.StatusOK, checks)
}
