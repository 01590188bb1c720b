package handlers

import (
	"errors"
	"net/http"
	"time"

	"ahgapi/internal/api/middleware"
	"ahgapi/internal/api/validator"
	"ahgapi/internal/models"
	"ahgapi/internal/services"
	"ahgapi/internal/utils"
	"ahgapi/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type EmbargoHandler struct {
	db      *gorm.DB
	embargo *services.EmbargoService
	log     *logger.Logger
}

func NewEmbargoHandler(db *gorm.DB) *EmbargoHandler {
	return &EmbargoHandler{
		db:      db,
		embargo: services.NewEmbargoService(db),
		log:     logger.New("EmbargoHandler"),
	}
}

// Create places an embargo on an object. Only one active embargo may
// exist per object.
// @Summary Create an embargo
// @Tags embargoes
// @Accept json
// @Produce json
// @Param request body validator.EmbargoRequest true "Embargo details"
// @Success 201 {object} models.Embargo
// @Failure 409 {object} map[string]string "Object already embargoed"
// @Router /embargoes [post]
func (h *EmbargoHandler) Create(c echo.Context) error {
	var req validator.EmbargoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	startDate := time.Now()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}
	if req.EndDate != nil && !req.EndDate.After(startDate) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "End date must be after start date"})
	}

	embargo := &models.Embargo{
		ObjectID:         req.ObjectID,
		EmbargoType:      models.EmbargoType(req.EmbargoType),
		Reason:           req.Reason,
		InternalNote:     req.InternalNotes,
		StartDate:        startDate,
		EndDate:          req.EndDate,
		AutoRelease:      req.AutoRelease,
		NotifyBeforeDays: req.NotifyBeforeDays,
		CreatedBy:        middleware.GetUserID(c),
	}

	created, err := h.embargo.CreateEmbargo(c.Request().Context(), embargo)
	if err != nil {
		if errors.Is(err, services.ErrEmbargoExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "Object already has an active embargo"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, created)
}

// ForObject returns the active embargo on an object, if any.
// @Summary Get active embargo for an object
// @Tags embargoes
// @Produce json
// @Param objectId path string true "Object ID"
// @Success 200 {object} models.Embargo
// @Router /embargoes/object/{objectId} [get]
func (h *EmbargoHandler) ForObject(c echo.Context) error {
	embargo, err := h.embargo.ActiveEmbargo(c.Request().Context(), c.Param("objectId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load embargo"})
	}
	if embargo == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"embargo": nil})
	}
	return c.JSON(http.StatusOK, embargo)
}

// Update amends a pending or active embargo's terms.
// @Summary Update an embargo
// @Tags embargoes
// @Accept json
// @Produce json
// @Param id path string true "Embargo ID"
// @Success 200 {object} models.Embargo
// @Failure 404 {object} map[string]string "No amendable embargo"
// @Router /embargoes/{id} [put]
func (h *EmbargoHandler) Update(c echo.Context) error {
	var req struct {
		Reason           *string    `json:"reason"`
		InternalNotes    *string    `json:"internalNotes"`
		EndDate          *time.Time `json:"endDate"`
		AutoRelease      *bool      `json:"autoRelease"`
		NotifyBeforeDays *int       `json:"notifyBeforeDays" validate:"omitempty,min=0"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	updated, err := h.embargo.UpdateEmbargo(c.Request().Context(), c.Param("id"), services.EmbargoUpdate{
		Reason:           req.Reason,
		InternalNote:     req.InternalNotes,
		EndDate:          req.EndDate,
		AutoRelease:      req.AutoRelease,
		NotifyBeforeDays: req.NotifyBeforeDays,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No amendable embargo found"})
		}
		if errors.Is(err, services.ErrEmbargoDates) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "End date must be after start date"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update embargo"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Lift ends an embargo early with an audit trail.
// @Summary Lift an embargo
// @Tags embargoes
// @Accept json
// @Produce json
// @Param id path string true "Embargo ID"
// @Param request body validator.LiftEmbargoRequest true "Lift reason"
// @Success 200 {object} map[string]string
// @Router /embargoes/{id}/lift [post]
func (h *EmbargoHandler) Lift(c echo.Context) error {
	var req validator.LiftEmbargoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.embargo.LiftEmbargo(c.Request().Context(), c.Param("id"), middleware.GetUserID(c), req.Reason); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Embargo not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to lift embargo"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Embargo lifted"})
}

// Expiring lists embargoes ending within the query window.
// @Summary List expiring embargoes
// @Tags embargoes
// @Produce json
// @Param days query int false "Window in days" default(30)
// @Success 200 {array} models.Embargo
// @Router /embargoes/expiring [get]
func (h *EmbargoHandler) Expiring(c echo.Context) error {
	days := utils.ParseIntDefault(c.QueryParam("days"), 30)
	embargoes, err := h.embargo.ListExpiring(c.Request().Context(), days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list embargoes"})
	}
	return c.JSON(http.StatusOK, embargoes)
}

// AddException whitelists a user through an embargo.
func (h *EmbargoHandler) AddException(c echo.Context) error {
	var req struct {
		UserID     string     `json:"userId" validate:"required,uuid"`
		Reason     string     `json:"reason"`
		ValidFrom  *time.Time `json:"validFrom"`
		ValidUntil *time.Time `json:"validUntil"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	exception := &models.EmbargoException{
		EmbargoID:  c.Param("id"),
		UserID:     req.UserID,
		Note:       req.Reason,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	}
	if err := h.embargo.AddException(c.Request().Context(), exception); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, exception)
}
