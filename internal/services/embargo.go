package services

import (
	"context"
	"errors"
	"time"

	"ahgapi/internal/events"
	"ahgapi/internal/models"
	"ahgapi/internal/utils/logger"

	"gorm.io/gorm"
)

var (
	ErrEmbargoExists = errors.New("object already has an active embargo")
	ErrEmbargoDates  = errors.New("end date must be after start date")
)

// EmbargoService manages access embargoes on catalogue objects.
type EmbargoService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewEmbargoService(db *gorm.DB) *EmbargoService {
	return &EmbargoService{
		db:     db,
		logger: logger.New("EMBARGO"),
	}
}

// CreateEmbargo places an embargo. An object carries at most one active
// embargo at a time.
func (s *EmbargoService) CreateEmbargo(ctx context.Context, embargo *models.Embargo) (*models.Embargo, error) {
	existing, err := s.ActiveEmbargo(ctx, embargo.ObjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmbargoExists
	}

	if embargo.StartDate.IsZero() {
		embargo.StartDate = time.Now()
	}
	if embargo.Status == "" {
		if embargo.StartDate.After(time.Now()) {
			embargo.Status = models.EmbargoStatusPending
		} else {
			embargo.Status = models.EmbargoStatusActive
		}
	}

	if err := s.db.WithContext(ctx).Create(embargo).Error; err != nil {
		return nil, err
	}

	events.Emit("embargo.created", embargo)
	return embargo, nil
}

// ActiveEmbargo returns the embargo currently in force for an object,
// or nil when access is unrestricted. An embargo is in force when its
// status is active, it has started, and it has not run out.
func (s *EmbargoService) ActiveEmbargo(ctx context.Context, objectID string) (*models.Embargo, error) {
	now := time.Now()
	var embargo models.Embargo
	err := s.db.WithContext(ctx).
		Where("object_id = ? AND status = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?) AND is_deleted = ?",
			objectID, models.EmbargoStatusActive, now, now, false).
		First(&embargo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &embargo, nil
}

// EmbargoUpdate carries the amendable terms of an embargo. Nil fields
// are left as they are.
type EmbargoUpdate struct {
	Reason           *string
	InternalNote     *string
	EndDate          *time.Time
	AutoRelease      *bool
	NotifyBeforeDays *int
}

// UpdateEmbargo amends a pending or active embargo. Lifted and expired
// embargoes are immutable history.
func (s *EmbargoService) UpdateEmbargo(ctx context.Context, embargoID string, update EmbargoUpdate) (*models.Embargo, error) {
	var embargo models.Embargo
	if err := s.db.WithContext(ctx).
		Where("id = ? AND status IN ? AND is_deleted = ?", embargoID,
			[]models.EmbargoStatus{models.EmbargoStatusPending, models.EmbargoStatusActive}, false).
		First(&embargo).Error; err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.Reason != nil {
		fields["reason"] = *update.Reason
	}
	if update.InternalNote != nil {
		fields["internal_note"] = *update.InternalNote
	}
	if update.EndDate != nil {
		if !update.EndDate.After(embargo.StartDate) {
			return nil, ErrEmbargoDates
		}
		fields["end_date"] = update.EndDate
	}
	if update.AutoRelease != nil {
		fields["auto_release"] = *update.AutoRelease
	}
	if update.NotifyBeforeDays != nil {
		fields["notify_before_days"] = *update.NotifyBeforeDays
	}
	if len(fields) == 0 {
		return &embargo, nil
	}

	if err := s.db.WithContext(ctx).Model(&embargo).Updates(fields).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).First(&embargo, "id = ?", embargoID).Error; err != nil {
		return nil, err
	}

	events.Emit("embargo.updated", &embargo)
	return &embargo, nil
}

// LiftEmbargo ends an embargo early.
func (s *EmbargoService) LiftEmbargo(ctx context.Context, embargoID, liftedBy, reason string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Embargo{}).
		Where("id = ? AND status IN ? AND is_deleted = ?", embargoID, []models.EmbargoStatus{models.EmbargoStatusPending, models.EmbargoStatusActive}, false).
		Updates(map[string]interface{}{
			"status":      models.EmbargoStatusLifted,
			"lifted_by":   liftedBy,
			"lifted_at":   &now,
			"lift_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	events.Emit("embargo.lifted", embargoID)
	return nil
}

// ActivatePending flips pending embargoes whose start date has arrived.
func (s *EmbargoService) ActivatePending(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Embargo{}).
		Where("status = ? AND start_date <= ? AND is_deleted = ?", models.EmbargoStatusPending, time.Now(), false).
		Update("status", models.EmbargoStatusActive)
	return result.RowsAffected, result.Error
}

// ReleaseExpired expires active embargoes whose end date has passed and
// auto release is set. Returns the number released.
func (s *EmbargoService) ReleaseExpired(ctx context.Context) (int, error) {
	now := time.Now()
	var due []models.Embargo
	if err := s.db.WithContext(ctx).
		Where("status = ? AND auto_release = ? AND end_date IS NOT NULL AND end_date < ? AND is_deleted = ?",
			models.EmbargoStatusActive, true, now, false).
		Find(&due).Error; err != nil {
		return 0, err
	}

	released := 0
	for _, embargo := range due {
		if err := s.db.WithContext(ctx).Model(&models.Embargo{}).
			Where("id = ?", embargo.ID).
			Update("status", models.EmbargoStatusExpired).Error; err != nil {
			s.logger.Warn("Failed to release embargo %s: %v", embargo.ID, err)
			continue
		}
		released++
		events.Emit("embargo.expired", &embargo)
	}
	return released, nil
}

// ListExpiring returns active embargoes ending within the next N days.
func (s *EmbargoService) ListExpiring(ctx context.Context, days int) ([]models.Embargo, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, days)
	var embargoes []models.Embargo
	err := s.db.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date BETWEEN ? AND ? AND is_deleted = ?",
			models.EmbargoStatusActive, now, cutoff, false).
		Order("end_date asc").
		Find(&embargoes).Error
	return embargoes, err
}

// HasException reports whether the user holds a currently valid
// pass-through exception on the embargo.
func (s *EmbargoService) HasException(ctx context.Context, embargoID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	now := time.Now()
	var count int64
	err := s.db.WithContext(ctx).Model(&models.EmbargoException{}).
		Where("embargo_id = ? AND user_id = ? AND is_deleted = ?", embargoID, userID, false).
		Where("(valid_from IS NULL OR valid_from <= ?) AND (valid_until IS NULL OR valid_until >= ?)", now, now).
		Count(&count).Error
	return count > 0, err
}

// AddException grants a user a pass-through on an embargo.
func (s *EmbargoService) AddException(ctx context.Context, exception *models.EmbargoException) error {
	return s.db.WithContext(ctx).Create(exception).Error
}

// Blocks reports whether the given embargo type blocks the named
// action. Full embargoes block everything; every type blocks download;
// partial embargoes still permit digital object viewing.
func Blocks(embargoType models.EmbargoType, action string) bool {
	if embargoType == models.EmbargoFull {
		return true
	}
	switch action {
	case "download", "print", "copy":
		return true
	case "view_digital":
		switch embargoType {
		case models.EmbargoDigitalOnly, models.EmbargoMetadataOnly:
			return true
		}
		return false
	case "view_metadata":
		return embargoType == models.EmbargoMetadataOnly
	}
	return false
}
