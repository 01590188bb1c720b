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

type GrapHandler struct {
	db   *gorm.DB
	grap *services.GrapService
	log  *logger.Logger
}

func NewGrapHandler(db *gorm.DB) *GrapHandler {
	return &GrapHandler{
		db:   db,
		grap: services.NewGrapService(db),
		log:  logger.New("GrapHandler"),
	}
}

// UpsertAsset creates or updates the heritage-asset register entry for
// an object.
// @Summary Upsert a heritage asset
// @Tags grap
// @Accept json
// @Produce json
// @Param request body models.HeritageAsset true "Asset details"
// @Success 200 {object} models.HeritageAsset
// @Router /grap/assets [put]
func (h *GrapHandler) UpsertAsset(c echo.Context) error {
	var asset models.HeritageAsset
	if err := c.Bind(&asset); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(asset); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.grap.UpsertAsset(c.Request().Context(), &asset); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, asset)
}

// ForObject returns the register entry for an object.
// @Summary Get heritage asset for an object
// @Tags grap
// @Produce json
// @Param objectId path string true "Object ID"
// @Success 200 {object} models.HeritageAsset
// @Failure 404 {object} map[string]string "Not on the register"
// @Router /grap/assets/object/{objectId} [get]
func (h *GrapHandler) ForObject(c echo.Context) error {
	asset, err := h.grap.AssetForObject(c.Request().Context(), c.Param("objectId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Object is not on the register"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load asset"})
	}
	return c.JSON(http.StatusOK, asset)
}

// Compliance scores the register entry for an object.
// @Summary Score register compliance for an object
// @Tags grap
// @Produce json
// @Param objectId path string true "Object ID"
// @Success 200 {object} services.ComplianceResult
// @Router /grap/assets/object/{objectId}/compliance [get]
func (h *GrapHandler) Compliance(c echo.Context) error {
	asset, err := h.grap.AssetForObject(c.Request().Context(), c.Param("objectId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Object is not on the register"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load asset"})
	}
	return c.JSON(http.StatusOK, h.grap.Compliance(asset))
}

// RecordValuation appends a valuation and rolls the carrying amount
// forward.
// @Summary Record a valuation
// @Tags grap
// @Accept json
// @Produce json
// @Param assetId path string true "Asset ID"
// @Param request body validator.ValuationRequest true "Valuation"
// @Success 201 {object} models.ValuationRecord
// @Router /grap/assets/{assetId}/valuations [post]
func (h *GrapHandler) RecordValuation(c echo.Context) error {
	var req validator.ValuationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	valuation := &models.ValuationRecord{
		AssetID:       c.Param("assetId"),
		ValuationDate: time.Now(),
		Amount:        req.Amount,
		Valuer:        req.Valuer,
		Method:        req.Method,
		RecordedBy:    middleware.GetUserID(c),
		Notes:         req.Notes,
	}
	if err := h.grap.RecordValuation(c.Request().Context(), valuation); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Asset not found"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, valuation)
}

// Valuations lists an asset's valuation history, most recent first.
func (h *GrapHandler) Valuations(c echo.Context) error {
	valuations, err := h.grap.Valuations(c.Request().Context(), c.Param("assetId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list valuations"})
	}
	return c.JSON(http.StatusOK, valuations)
}

// InsuranceExpiring lists assets whose insurance cover lapses soon.
// @Summary Assets with expiring insurance
// @Tags grap
// @Produce json
// @Param days query int false "Window in days" default(60)
// @Success 200 {array} models.HeritageAsset
// @Router /grap/insurance-expiring [get]
func (h *GrapHandler) InsuranceExpiring(c echo.Context) error {
	days := utils.ParseIntDefault(c.QueryParam("days"), 60)
	assets, err := h.grap.InsuranceExpiring(c.Request().Context(), days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list expiring insurance"})
	}
	return c.JSON(http.StatusOK, assets)
}

// ValuationSchedule lists the register in valuation-due order.
// @Summary Valuation schedule
// @Tags grap
// @Produce json
// @Success 200 {array} services.ValuationScheduleEntry
// @Router /grap/valuation-schedule [get]
func (h *GrapHandler) ValuationSchedule(c echo.Context) error {
	entries, err := h.grap.ValuationSchedule(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to build schedule"})
	}
	return c.JSON(http.StatusOK, entries)
}

// ExportRegister downloads the full register as CSV.
// @Summary Export the heritage asset register
// @Tags grap
// @Produce text/csv
// @Router /grap/register/export [get]
func (h *GrapHandler) ExportRegister(c echo.Context) error {
	data, err := h.grap.RegisterCSV(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Export failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="heritage-asset-register.csv"`)
	return c.Blob(http.StatusOK, "text/csv", data)
}

// Summary aggregates the register for reporting.
// @Summary Heritage asset register summary
// @Tags grap
// @Produce json
// @Success 200 {object} services.RegisterSummary
// @Router /grap/summary [get]
func (h *GrapHandler) Summary(c echo.Context) error {
	summary, err := h.grap.Summary(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to build summary"})
	}
	return c.JSON(http.StatusOK, summary)
}
