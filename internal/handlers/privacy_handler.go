package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"ahgapi/internal/api/middleware"
	"ahgapi/internal/api/validator"
	"ahgapi/internal/config"
	"ahgapi/internal/models"
	"ahgapi/internal/services"
	"ahgapi/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type PrivacyHandler struct {
	db      *gorm.DB
	privacy *services.PrivacyService
	storage *services.S3Service
	log     *logger.Logger
}

func NewPrivacyHandler(db *gorm.DB, cfg *config.Config, storage *services.S3Service) *PrivacyHandler {
	return &PrivacyHandler{
		db:      db,
		privacy: services.NewPrivacyService(db, cfg),
		storage: storage,
		log:     logger.New("PrivacyHandler"),
	}
}

// CreateDsar registers a data subject access request and computes its
// statutory due date.
// @Summary Create a DSAR
// @Tags privacy
// @Accept json
// @Produce json
// @Param request body validator.DsarRequest true "Request details"
// @Success 201 {object} models.Dsar
// @Router /privacy/dsars [post]
func (h *PrivacyHandler) CreateDsar(c echo.Context) error {
	var req validator.DsarRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	dsar := &models.Dsar{
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		IDType:         req.IDType,
		Jurisdiction:   req.Jurisdiction,
		RequestType:    req.RequestType,
		Details:        req.Details,
	}
	if err := h.privacy.CreateDsar(c.Request().Context(), dsar); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, dsar)
}

// ListDsars pages through DSARs, optionally by status.
func (h *PrivacyHandler) ListDsars(c echo.Context) error {
	query := h.db.WithContext(c.Request().Context()).
		Model(&models.Dsar{}).
		Where("is_deleted = ?", false)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var dsars []models.Dsar
	if err := query.Order("due_date ASC").Find(&dsars).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list requests"})
	}
	return c.JSON(http.StatusOK, dsars)
}

// GetDsar returns one DSAR with its activity log.
func (h *PrivacyHandler) GetDsar(c echo.Context) error {
	var dsar models.Dsar
	if err := h.db.WithContext(c.Request().Context()).
		Preload("Logs").
		Where("id = ? AND is_deleted = ?", c.Param("id"), false).
		First(&dsar).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Request not found"})
	}
	return c.JSON(http.StatusOK, dsar)
}

// UpdateDsarStatus moves a DSAR through its workflow.
// @Summary Update DSAR status
// @Tags privacy
// @Accept json
// @Produce json
// @Param id path string true "DSAR ID"
// @Param request body validator.DsarStatusRequest true "New status"
// @Success 200 {object} map[string]string
// @Router /privacy/dsars/{id}/status [put]
func (h *PrivacyHandler) UpdateDsarStatus(c echo.Context) error {
	var req validator.DsarStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	err := h.privacy.UpdateDsarStatus(c.Request().Context(), c.Param("id"),
		models.DsarStatus(req.Status), req.Outcome, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Request not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update status"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Status updated"})
}

// OverdueDsars lists open DSARs past their statutory due date.
func (h *PrivacyHandler) OverdueDsars(c echo.Context) error {
	dsars, err := h.privacy.OverdueDsars(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list requests"})
	}
	return c.JSON(http.StatusOK, dsars)
}

// CreateBreach opens a breach register entry.
// @Summary Record a breach
// @Tags privacy
// @Accept json
// @Produce json
// @Param request body validator.BreachRequest true "Breach details"
// @Success 201 {object} models.Breach
// @Router /privacy/breaches [post]
func (h *PrivacyHandler) CreateBreach(c echo.Context) error {
	var req validator.BreachRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	now := time.Now()
	breach := &models.Breach{
		BreachType:       req.BreachType,
		Severity:         req.Severity,
		AffectedSubjects: req.AffectedSubjects,
		Description:      req.Description,
		Jurisdiction:     req.Jurisdiction,
		DiscoveredDate:   &now,
	}
	if err := h.privacy.CreateBreach(c.Request().Context(), breach); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, breach)
}

// ListBreaches returns the breach register.
func (h *PrivacyHandler) ListBreaches(c echo.Context) error {
	query := h.db.WithContext(c.Request().Context()).
		Model(&models.Breach{}).
		Where("is_deleted = ?", false)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var breaches []models.Breach
	if err := query.Order("created_at DESC").Find(&breaches).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list breaches"})
	}
	return c.JSON(http.StatusOK, breaches)
}

// NotifyRegulator marks a breach as reported to the regulator.
func (h *PrivacyHandler) NotifyRegulator(c echo.Context) error {
	if err := h.privacy.MarkRegulatorNotified(c.Request().Context(), c.Param("id"), time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Breach not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update breach"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Regulator notification recorded"})
}

// CloseBreach closes a breach, recording containment when supplied.
func (h *PrivacyHandler) CloseBreach(c echo.Context) error {
	var req struct {
		ContainedDate *time.Time `json:"containedDate"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.privacy.CloseBreach(c.Request().Context(), c.Param("id"), req.ContainedDate); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Breach not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to close breach"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Breach closed"})
}

// Statistics summarises the privacy registers for the dashboard.
func (h *PrivacyHandler) Statistics(c echo.Context) error {
	stats, err := h.privacy.Statistics(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to compute statistics"})
	}
	return c.JSON(http.StatusOK, stats)
}

// UploadTemplate stores a notice or form template in object storage.
// @Summary Upload a privacy template
// @Tags privacy
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Template document"
// @Success 201 {object} models.PrivacyTemplate
// @Router /privacy/templates [post]
func (h *PrivacyHandler) UploadTemplate(c echo.Context) error {
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

	contentType := fileHeader.Header.Get("Content-Type")
	key, err := h.storage.UploadFile(c.Request().Context(), data, fileHeader.Filename, "privacy/templates", contentType)
	if err != nil {
		h.log.Error("Template upload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Upload failed"})
	}

	template := &models.PrivacyTemplate{
		Name:        fileHeader.Filename,
		Path:        key,
		ContentType: contentType,
		Size:        fileHeader.Size,
		UploadedBy:  middleware.GetUserID(c),
	}
	if err := h.db.WithContext(c.Request().Context()).Create(template).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save template"})
	}
	return c.JSON(http.StatusCreated, template)
}

// ListTemplates returns stored templates with short-lived links.
func (h *PrivacyHandler) ListTemplates(c echo.Context) error {
	var templates []models.PrivacyTemplate
	if err := h.db.WithContext(c.Request().Context()).
		Where("is_deleted = ?", false).
		Order("created_at DESC").
		Find(&templates).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list templates"})
	}

	out := make([]map[string]interface{}, 0, len(templates))
	for _, t := range templates {
		url, err := h.storage.GetSignedURL(c.Request().Context(), t.Path, 15*time.Minute)
		if err != nil {
			h.log.Warn("Failed to sign URL for template %s: %v", t.ID, err)
		}
		out = append(out, map[string]interface{}{
			"id":          t.ID,
			"name":        t.Name,
			"contentType": t.ContentType,
			"size":        t.Size,
			"url":         url,
			"createdAt":   t.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}
