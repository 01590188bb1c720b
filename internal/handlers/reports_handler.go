package handlers

import (
	"net/http"
	"time"

	"ahgapi/internal/config"
	"ahgapi/internal/services"
	"ahgapi/internal/utils"
	"ahgapi/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type ReportsHandler struct {
	db      *gorm.DB
	reports *services.ReportsService
	log     *logger.Logger
}

func NewReportsHandler(db *gorm.DB, cfg *config.Config) *ReportsHandler {
	security := services.NewSecurityService(db)
	grap := services.NewGrapService(db)
	privacy := services.NewPrivacyService(db, cfg)
	embargo := services.NewEmbargoService(db)
	clearance := services.NewClearanceService(db)
	return &ReportsHandler{
		db:      db,
		reports: services.NewReportsService(db, security, grap, privacy, embargo, clearance),
		log:     logger.New("ReportsHandler"),
	}
}

// Dashboard aggregates the governance registers into one view.
// @Summary Governance dashboard
// @Tags reports
// @Produce json
// @Success 200 {object} services.Dashboard
// @Router /reports/dashboard [get]
func (h *ReportsHandler) Dashboard(c echo.Context) error {
	dashboard, err := h.reports.Dashboard(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to build dashboard"})
	}
	return c.JSON(http.StatusOK, dashboard)
}

// AccessLog pages through the access audit trail.
// @Summary Access audit report
// @Tags reports
// @Produce json
// @Param userId query string false "Filter by user"
// @Param objectId query string false "Filter by object"
// @Param action query string false "Filter by action"
// @Param granted query bool false "Filter by outcome"
// @Param from query string false "RFC 3339 start"
// @Param to query string false "RFC 3339 end"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(50)
// @Param format query string false "Set to csv for a spreadsheet download"
// @Success 200 {object} map[string]interface{}
// @Router /reports/access-log [get]
func (h *ReportsHandler) AccessLog(c echo.Context) error {
	query := services.AccessLogQuery{
		UserID:   c.QueryParam("userId"),
		ObjectID: c.QueryParam("objectId"),
		Action:   c.QueryParam("action"),
		Page:     utils.ParseIntDefault(c.QueryParam("page"), 1),
		Limit:    utils.ParseIntDefault(c.QueryParam("limit"), 50),
	}
	switch c.QueryParam("granted") {
	case "true":
		yes := true
		query.Granted = &yes
	case "false":
		no := false
		query.Granted = &no
	}
	if from := c.QueryParam("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query.From = &t
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			query.To = &t
		}
	}

	if c.QueryParam("format") == "csv" {
		data, err := h.reports.AccessLogCSV(c.Request().Context(), query)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Export failed"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="access-log.csv"`)
		return c.Blob(http.StatusOK, "text/csv", data)
	}

	logs, total, err := h.reports.AccessLogReport(c.Request().Context(), query)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to query audit log"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": logs,
		"total": total,
		"page":  query.Page,
		"limit": query.Limit,
	})
}

// DonorReviews lists donor agreements due for review.
// @Summary Donor agreements due for review
// @Tags reports
// @Produce json
// @Param days query int false "Window in days" default(60)
// @Success 200 {array} models.DonorAgreement
// @Router /reports/donor-reviews [get]
func (h *ReportsHandler) DonorReviews(c echo.Context) error {
	days := utils.ParseIntDefault(c.QueryParam("days"), 60)
	agreements, err := h.reports.DonorAgreementsDueReview(c.Request().Context(), days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list agreements"})
	}
	return c.JSON(http.StatusOK, agreements)
}
