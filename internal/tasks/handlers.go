package tasks

import (
	"context"
	"time"

	"ahgapi/internal/config"
	"ahgapi/internal/services"
	"ahgapi/internal/utils/logger"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// TaskHandler runs the governance timers: embargo releases, scheduled
// declassifications, clearance expiry scans and share cleanup.
type TaskHandler struct {
	db        *gorm.DB
	logger    *logger.Logger
	embargo   *services.EmbargoService
	security  *services.SecurityService
	clearance *services.ClearanceService
	favorites *services.FavoritesService
	privacy   *services.PrivacyService
	condition *services.ConditionService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(db *gorm.DB, cfg *config.Config, storage *services.S3Service) *TaskHandler {
	return &TaskHandler{
		db:        db,
		logger:    logger.New("task_handler"),
		embargo:   services.NewEmbargoService(db),
		security:  services.NewSecurityService(db),
		clearance: services.NewClearanceService(db),
		favorites: services.NewFavoritesService(db),
		privacy:   services.NewPrivacyService(db, cfg),
		condition: services.NewConditionService(db, storage, cfg.Storage.MaxUploadMB),
	}
}

// HandleEmbargoRelease expires embargoes past their end date and
// activates those whose start date has passed.
func (h *TaskHandler) HandleEmbargoRelease(ctx context.Context, t *asynq.Task) error {
	activated, err := h.embargo.ActivatePending(ctx)
	if err != nil {
		return h.logger.Error("Failed to activate pending embargoes", err)
	}

	released, err := h.embargo.ReleaseExpired(ctx)
	if err != nil {
		return h.logger.Error("Failed to release expired embargoes", err)
	}

	h.logger.Info("Embargo sweep: %d activated, %d released", activated, released)
	return nil
}

// HandleDeclassify processes due declassification schedules.
func (h *TaskHandler) HandleDeclassify(ctx context.Context, t *asynq.Task) error {
	processed, err := h.security.ProcessDueDeclassifications(ctx)
	if err != nil {
		return h.logger.Error("Failed to process declassifications", err)
	}
	h.logger.Info("Declassification sweep: %d processed", processed)
	return nil
}

// HandleClearanceScan flags clearances lapsing within 30 days.
func (h *TaskHandler) HandleClearanceScan(ctx context.Context, t *asynq.Task) error {
	expiring, err := h.clearance.ListExpiring(ctx, 30*24*time.Hour)
	if err != nil {
		return h.logger.Error("Failed to scan clearances", err)
	}
	for _, clearance := range expiring {
		h.logger.Warn("Clearance %s for user %s expires %s", clearance.ID, clearance.UserID, clearance.ExpiryDate)
	}
	return nil
}

// HandleShareCleanup hard-deletes expired folder shares.
func (h *TaskHandler) HandleShareCleanup(ctx context.Context, t *asynq.Task) error {
	removed, err := h.favorites.CleanupExpiredShares(ctx)
	if err != nil {
		return h.logger.Error("Failed to clean up shares", err)
	}
	if removed > 0 {
		h.logger.Info("Removed %d expired folder shares", removed)
	}
	return nil
}

// HandleDsarReminder surfaces DSARs past their statutory due date.
func (h *TaskHandler) HandleDsarReminder(ctx context.Context, t *asynq.Task) error {
	overdue, err := h.privacy.OverdueDsars(ctx)
	if err != nil {
		return h.logger.Error("Failed to scan DSARs", err)
	}
	for _, dsar := range overdue {
		h.logger.Warn("DSAR %s is overdue, due %s", dsar.Reference, dsar.DueDate.Format("2006-01-02"))
	}
	return nil
}

// HandleConditionDue surfaces objects whose next condition check has
// passed.
func (h *TaskHandler) HandleConditionDue(ctx context.Context, t *asynq.Task) error {
	due, err := h.condition.DueChecks(ctx)
	if err != nil {
		return h.logger.Error("Failed to scan condition checks", err)
	}
	if len(due) > 0 {
		h.logger.Info("%d objects are due a condition check", len(due))
	}
	return nil
}
