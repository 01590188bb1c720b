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

type SecurityHandler struct {
	db        *gorm.DB
	security  *services.SecurityService
	clearance *services.ClearanceService
	access    *services.AccessService
	log       *logger.Logger
}

func NewSecurityHandler(db *gorm.DB) *SecurityHandler {
	security := services.NewSecurityService(db)
	clearance := services.NewClearanceService(db)
	embargo := services.NewEmbargoService(db)
	rights := services.NewRightsService(db)
	return &SecurityHandler{
		db:        db,
		security:  security,
		clearance: clearance,
		access:    services.NewAccessService(db, security, clearance, embargo, rights),
		log:       logger.New("SecurityHandler"),
	}
}

// ClassifyObject assigns or replaces an object's classification.
// @Summary Classify an archival object
// @Tags security
// @Accept json
// @Produce json
// @Param request body validator.ClassifyObjectRequest true "Classification assignment"
// @Success 201 {object} models.ObjectClassification
// @Failure 409 {object} map[string]string "Child cannot be classified below its parent"
// @Router /security/classify [post]
func (h *SecurityHandler) ClassifyObject(c echo.Context) error {
	var req validator.ClassifyObjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	oc := &models.ObjectClassification{
		ObjectID:         req.ObjectID,
		ClassificationID: req.ClassificationID,
		ClassifiedBy:     middleware.GetUserID(c),
		Reason:           req.Reason,
		ReviewDate:       req.ReviewDate,
		DeclassifyDate:   req.DeclassifyDate,
		AutoDeclassify:   req.AutoDeclassify,
	}
	if req.DeclassifyToID != "" {
		oc.DeclassifyToID = req.DeclassifyToID
	}
	if req.InheritToChildren != nil {
		oc.InheritToChildren = *req.InheritToChildren
	} else {
		oc.InheritToChildren = true
	}
	if req.RetentionYears > 0 && req.DeclassifyDate == nil {
		due := time.Now().AddDate(req.RetentionYears, 0, 0)
		oc.DeclassifyDate = &due
	}

	created, err := h.security.ClassifyObject(c.Request().Context(), oc)
	if err != nil {
		if errors.Is(err, services.ErrChildBelowParent) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, created)
}

// Declassify removes an object's direct classification.
// @Summary Declassify an object
// @Tags security
// @Param objectId path string true "Object ID"
// @Success 200 {object} map[string]string
// @Router /security/classify/{objectId} [delete]
func (h *SecurityHandler) Declassify(c echo.Context) error {
	if err := h.security.Declassify(c.Request().Context(), c.Param("objectId"), middleware.GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Object is not classified"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to declassify"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Object declassified"})
}

// EffectiveClassification resolves the classification an object
// carries after walking inheritance up the hierarchy.
// @Summary Effective classification of an object
// @Tags security
// @Produce json
// @Param objectId path string true "Object ID"
// @Success 200 {object} models.Classification
// @Router /security/effective/{objectId} [get]
func (h *SecurityHandler) EffectiveClassification(c echo.Context) error {
	classification, err := h.security.EffectiveClassification(c.Request().Context(), c.Param("objectId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to resolve classification"})
	}
	if classification == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"classification": nil})
	}
	return c.JSON(http.StatusOK, classification)
}

// CheckAccess evaluates the caller's access to an object for one
// action and writes the audit row. Anonymous callers are evaluated
// with no clearance.
// @Summary Check access to an object
// @Tags security
// @Produce json
// @Param objectId path string true "Object ID"
// @Param action query string false "view_metadata, view_digital, download, print or copy" default(view_metadata)
// @Success 200 {object} services.Decision
// @Router /access/check/{objectId} [get]
func (h *SecurityHandler) CheckAccess(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.GetUserID(c)

	action := c.QueryParam("action")
	if action == "" {
		action = "view_metadata"
	}

	decision, err := h.access.Evaluate(ctx, userID, c.Param("objectId"), action)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Access evaluation failed"})
	}

	details, _ := utils.MapToJSON(map[string]string{"classification": decision.Classification})
	h.security.LogAccess(ctx, userID, c.Param("objectId"), action, decision.Granted, decision.Reason,
		utils.GetIPAddress(c.Request()), c.Request().UserAgent(), details)

	return c.JSON(http.StatusOK, decision)
}

// GrantClearance vets a user at a classification level.
// @Summary Grant a security clearance
// @Tags security
// @Accept json
// @Produce json
// @Param request body validator.GrantClearanceRequest true "Clearance grant"
// @Success 201 {object} models.UserClearance
// @Router /security/clearances [post]
func (h *SecurityHandler) GrantClearance(c echo.Context) error {
	var req validator.GrantClearanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	clearance, err := h.clearance.GrantClearance(c.Request().Context(), req.UserID, req.ClassificationID,
		middleware.GetUserID(c), req.ExpiryDate, req.VettingReference)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, clearance)
}

// RevokeClearance withdraws a user's active clearance.
func (h *SecurityHandler) RevokeClearance(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.clearance.RevokeClearance(c.Request().Context(), c.Param("userId"), middleware.GetUserID(c), req.Reason); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No active clearance"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to revoke clearance"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Clearance revoked"})
}

// MyClearance returns the caller's active clearance, if any.
func (h *SecurityHandler) MyClearance(c echo.Context) error {
	clearance, err := h.clearance.GetActiveClearance(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load clearance"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"clearance": clearance})
}

// RequestRenewal asks for the caller's clearance to be renewed.
func (h *SecurityHandler) RequestRenewal(c echo.Context) error {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.clearance.RequestRenewal(c.Request().Context(), middleware.GetUserID(c), req.Notes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No active clearance to renew"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to request renewal"})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"message": "Renewal requested"})
}

// ReviewRenewal approves or denies a pending renewal.
func (h *SecurityHandler) ReviewRenewal(c echo.Context) error {
	var req validator.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.clearance.ReviewRenewal(c.Request().Context(), c.Param("id"), middleware.GetUserID(c), req.Approve, req.Notes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Clearance not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to review renewal"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Renewal reviewed"})
}

// ExpiringClearances lists clearances lapsing within the window.
func (h *SecurityHandler) ExpiringClearances(c echo.Context) error {
	days := utils.ParseIntDefault(c.QueryParam("days"), 30)
	clearances, err := h.clearance.ListExpiring(c.Request().Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list clearances"})
	}
	return c.JSON(http.StatusOK, clearances)
}

// ClearanceHistory returns the audit trail of a user's clearances.
func (h *SecurityHandler) ClearanceHistory(c echo.Context) error {
	userID := c.Param("userId")
	if models.UserRole(middleware.GetUserRole(c)) != models.UserRoleAdmin && userID != middleware.GetUserID(c) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Admin access required"})
	}

	history, err := h.clearance.History(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load history"})
	}
	return c.JSON(http.StatusOK, history)
}

// CreateGrant issues a direct per-object access grant.
// @Summary Create an access grant
// @Tags security
// @Accept json
// @Produce json
// @Param request body validator.AccessGrantRequest true "Grant details"
// @Success 201 {object} models.AccessGrant
// @Router /security/grants [post]
func (h *SecurityHandler) CreateGrant(c echo.Context) error {
	var req validator.AccessGrantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	grant := &models.AccessGrant{
		UserID:             req.UserID,
		ObjectID:           req.ObjectID,
		Level:              models.GrantLevel(req.Level),
		IncludeDescendants: req.IncludeDescendants,
		GrantedBy:          middleware.GetUserID(c),
		ExpiresAt:          req.ExpiresAt,
		Note:               req.Note,
	}
	if err := h.access.CreateGrant(c.Request().Context(), grant); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, grant)
}

// RevokeGrant withdraws an access grant.
func (h *SecurityHandler) RevokeGrant(c echo.Context) error {
	if err := h.access.RevokeGrant(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Grant not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to revoke grant"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Grant revoked"})
}

// SubmitRequest files an access request for a restricted object.
// @Summary Request access to an object
// @Tags security
// @Accept json
// @Produce json
// @Param request body validator.AccessRequestRequest true "Request details"
// @Success 201 {object} models.AccessRequest
// @Router /security/requests [post]
func (h *SecurityHandler) SubmitRequest(c echo.Context) error {
	var req validator.AccessRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	request := &models.AccessRequest{
		UserID:        middleware.GetUserID(c),
		ObjectID:      req.ObjectID,
		RequestType:   req.RequestType,
		Justification: req.Justification,
		DurationHours: req.DurationHours,
		Priority:      req.Priority,
	}
	if err := h.access.SubmitRequest(c.Request().Context(), request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, request)
}

// ReviewAccessRequest approves or denies a pending access request.
// Approval opens a time-boxed access window.
func (h *SecurityHandler) ReviewAccessRequest(c echo.Context) error {
	var req validator.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	request, err := h.access.ReviewRequest(c.Request().Context(), c.Param("id"), middleware.GetUserID(c), req.Approve, req.Notes)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Request not found"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, request)
}

// PendingRequests lists access requests awaiting review.
func (h *SecurityHandler) PendingRequests(c echo.Context) error {
	requests, err := h.access.PendingRequests(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list requests"})
	}
	return c.JSON(http.StatusOK, requests)
}

// MyRequests lists the caller's own access requests.
func (h *SecurityHandler) MyRequests(c echo.Context) error {
	requests, err := h.access.RequestsForUser(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list requests"})
	}
	return c.JSON(http.StatusOK, requests)
}

// GenerateWatermark records a watermark issued for a delivered copy
// and returns its trace code.
// @Summary Generate a watermark record
// @Tags security
// @Accept json
// @Produce json
// @Success 201 {object} models.WatermarkLog
// @Router /security/watermarks [post]
func (h *SecurityHandler) GenerateWatermark(c echo.Context) error {
	var req struct {
		ObjectID      string `json:"objectId" validate:"required,uuid"`
		WatermarkType string `json:"watermarkType" validate:"omitempty,oneof=visible invisible both"`
		Text          string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.WatermarkType == "" {
		req.WatermarkType = "visible"
	}

	wm, err := h.security.GenerateWatermark(c.Request().Context(), middleware.GetUserID(c), req.ObjectID,
		req.WatermarkType, req.Text, utils.GetIPAddress(c.Request()))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate watermark"})
	}
	return c.JSON(http.StatusCreated, wm)
}

// TraceWatermark looks up who received the copy carrying a code.
// @Summary Trace a watermark code
// @Tags security
// @Produce json
// @Param code path string true "Watermark code"
// @Success 200 {object} models.WatermarkLog
// @Failure 404 {object} map[string]string "Unknown code"
// @Router /security/watermarks/{code} [get]
func (h *SecurityHandler) TraceWatermark(c echo.Context) error {
	wm, err := h.security.TraceWatermark(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Watermark not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Trace failed"})
	}
	return c.JSON(http.StatusOK, wm)
}

// Statistics summarises the security posture for the dashboard.
func (h *SecurityHandler) Statistics(c echo.Context) error {
	stats, err := h.security.Statistics(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to compute statistics"})
	}
	return c.JSON(http.StatusOK, stats)
}
