package handlers

import (
	"net/http"

	"ahgapi/internal/api/validator"
	"ahgapi/internal/models"
	"ahgapi/internal/services"
	"ahgapi/internal/utils"
	"ahgapi/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type RightsHandler struct {
	db     *gorm.DB
	rights *services.RightsService
	log    *logger.Logger
}

func NewRightsHandler(db *gorm.DB) *RightsHandler {
	return &RightsHandler{
		db:     db,
		rights: services.NewRightsService(db),
		log:    logger.New("RightsHandler"),
	}
}

// Create attaches a rights record, with its acts, to an object.
// @Summary Create a rights record
// @Tags rights
// @Accept json
// @Produce json
// @Param request body validator.RightsRecordRequest true "Rights record"
// @Success 201 {object} models.RightsRecord
// @Router /rights [post]
func (h *RightsHandler) Create(c echo.Context) error {
	var req validator.RightsRecordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	record := &models.RightsRecord{
		ObjectID:        req.ObjectID,
		Basis:           models.RightsBasis(req.Basis),
		RightsStatement: req.RightsStatement,
		CCLicense:       req.License,
		HolderName:      req.RightsHolder,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		RestrictionNote: req.RestrictionNote,
	}
	for _, act := range req.Acts {
		record.Acts = append(record.Acts, models.RightsAct{
			Act:         act.Act,
			Restriction: models.ActRestriction(act.Restriction),
		})
	}

	if err := h.rights.CreateRecord(c.Request().Context(), record); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, record)
}

// ForObject lists an object's rights records with their acts.
// @Summary List rights records for an object
// @Tags rights
// @Produce json
// @Param objectId path string true "Object ID"
// @Success 200 {array} models.RightsRecord
// @Router /rights/object/{objectId} [get]
func (h *RightsHandler) ForObject(c echo.Context) error {
	records, err := h.rights.RecordsForObject(c.Request().Context(), c.Param("objectId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load rights"})
	}
	return c.JSON(http.StatusOK, records)
}

// CheckAct reports whether an act is permitted on an object under its
// rights records. Disallow beats conditional beats allow.
// @Summary Check whether an act is permitted
// @Tags rights
// @Produce json
// @Param objectId path string true "Object ID"
// @Param act query string true "display, disseminate, replicate, migrate, modify or delete"
// @Success 200 {object} map[string]bool
// @Router /rights/object/{objectId}/check [get]
func (h *RightsHandler) CheckAct(c echo.Context) error {
	act := c.QueryParam("act")
	if act == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "act query parameter required"})
	}

	permitted, conditional, err := h.rights.ActPermitted(c.Request().Context(), c.Param("objectId"), act)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Rights check failed"})
	}
	return c.JSON(http.StatusOK, map[string]bool{
		"permitted":   permitted,
		"conditional": conditional,
	})
}

// Badge returns the display badge for an object's rights status.
func (h *RightsHandler) Badge(c echo.Context) error {
	badge, err := h.rights.Badge(c.Request().Context(), c.Param("objectId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to compute badge"})
	}
	return c.JSON(http.StatusOK, map[string]string{"badge": badge})
}

// Expiring lists rights records whose end date falls within the window.
func (h *RightsHandler) Expiring(c echo.Context) error {
	days := utils.ParseIntDefault(c.QueryParam("days"), 90)
	records, err := h.rights.ExpiringRecords(c.Request().Context(), days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list rights"})
	}
	return c.JSON(http.StatusOK, records)
}
