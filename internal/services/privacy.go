package services

import (
	"context"
	"fmt"
	"time"

	"ahgapi/internal/config"
	"ahgapi/internal/events"
	"ahgapi/internal/models"
	"ahgapi/internal/utils/logger"

	"gorm.io/gorm"
)

// PrivacyService maintains the POPIA/GDPR registers: data subject
// access requests, breaches and processing activities.
type PrivacyService struct {
	db     *gorm.DB
	cfg    *config.Config
	logger *logger.Logger
}

func NewPrivacyService(db *gorm.DB, cfg *config.Config) *PrivacyService {
	return &PrivacyService{
		db:     db,
		cfg:    cfg,
		logger: logger.New("PRIVACY"),
	}
}

// CreateDsar files a new request. The reference is DSAR-<year>-<seq>
// with the sequence scoped per year, and the due date defaults to the
// configured response window.
func (s *PrivacyService) CreateDsar(ctx context.Context, dsar *models.Dsar) error {
	ref, err := s.nextReference(ctx, &models.Dsar{}, "DSAR")
	if err != nil {
		return err
	}
	dsar.Reference = ref
	dsar.Status = models.DsarPending
	if dsar.ReceivedDate.IsZero() {
		dsar.ReceivedDate = time.Now()
	}
	if dsar.DueDate.IsZero() {
		dueDays := s.cfg.Privacy.DsarDueDays
		if dueDays <= 0 {
			dueDays = 30
		}
		dsar.DueDate = dsar.ReceivedDate.AddDate(0, 0, dueDays)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dsar).Error; err != nil {
			return err
		}
		entry := models.DsarLog{
			DsarID: dsar.ID,
			Action: "received",
		}
		return tx.Create(&entry).Error
	})
}

// UpdateDsarStatus moves a request through its workflow and logs the
// transition.
func (s *PrivacyService) UpdateDsarStatus(ctx context.Context, dsarID string, status models.DsarStatus, outcome, userID string) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if outcome != "" {
		updates["outcome"] = outcome
	}
	if status == models.DsarCompleted || status == models.DsarRejected {
		now := time.Now()
		updates["completed_date"] = &now
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Dsar{}).
			Where("id = ? AND is_deleted = ?", dsarID, false).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		entry := models.DsarLog{
			DsarID:  dsarID,
			Action:  string(status),
			Details: outcome,
			UserID:  userID,
		}
		return tx.Create(&entry).Error
	})
}

// OverdueDsars lists open requests past their due date.
func (s *PrivacyService) OverdueDsars(ctx context.Context) ([]models.Dsar, error) {
	var dsars []models.Dsar
	err := s.db.WithContext(ctx).
		Where("status IN ? AND due_date < ? AND is_deleted = ?",
			[]models.DsarStatus{models.DsarPending, models.DsarInProgress}, time.Now(), false).
		Order("due_date asc").
		Find(&dsars).Error
	return dsars, err
}

// CreateBreach files a breach register entry with a BR-<year>-<seq>
// reference.
func (s *PrivacyService) CreateBreach(ctx context.Context, breach *models.Breach) error {
	ref, err := s.nextReference(ctx, &models.Breach{}, "BR")
	if err != nil {
		return err
	}
	breach.Reference = ref
	breach.Status = models.BreachOpen
	if breach.DiscoveredDate == nil {
		now := time.Now()
		breach.DiscoveredDate = &now
	}

	if err := s.db.WithContext(ctx).Create(breach).Error; err != nil {
		return err
	}

	events.Emit("breach.created", breach)
	return nil
}

// MarkRegulatorNotified records the regulator notification date. This
// flag is independent of breach status.
func (s *PrivacyService) MarkRegulatorNotified(ctx context.Context, breachID string, notifiedAt time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.Breach{}).
		Where("id = ? AND is_deleted = ?", breachID, false).
		Updates(map[string]interface{}{
			"regulator_notified": true,
			"regulator_date":     &notifiedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CloseBreach closes a breach, recording containment when given.
func (s *PrivacyService) CloseBreach(ctx context.Context, breachID string, containedAt *time.Time) error {
	updates := map[string]interface{}{
		"status": models.BreachClosed,
	}
	if containedAt != nil {
		updates["contained_date"] = containedAt
	}
	result := s.db.WithContext(ctx).Model(&models.Breach{}).
		Where("id = ? AND is_deleted = ?", breachID, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// BreachesNeedingNotification lists open breaches past the regulator
// notification deadline with no notification recorded.
func (s *PrivacyService) BreachesNeedingNotification(ctx context.Context) ([]models.Breach, error) {
	hours := s.cfg.Privacy.BreachNotifyHours
	if hours <= 0 {
		hours = 72
	}
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	var breaches []models.Breach
	err := s.db.WithContext(ctx).
		Where("status = ? AND regulator_notified = ? AND discovered_date <= ? AND is_deleted = ?",
			models.BreachOpen, false, cutoff, false).
		Order("discovered_date asc").
		Find(&breaches).Error
	return breaches, err
}

// PrivacyStatistics summarises both registers plus the ROPA.
type PrivacyStatistics struct {
	OpenDsars       int64 `json:"openDsars"`
	OverdueDsars    int64 `json:"overdueDsars"`
	CompletedDsars  int64 `json:"completedDsars"`
	OpenBreaches    int64 `json:"openBreaches"`
	UnnotifiedBreaches int64 `json:"unnotifiedBreaches"`
	RopaEntries     int64 `json:"ropaEntries"`
}

func (s *PrivacyService) Statistics(ctx context.Context) (*PrivacyStatistics, error) {
	stats := &PrivacyStatistics{}
	q := s.db.WithContext(ctx)
	open := []models.DsarStatus{models.DsarPending, models.DsarInProgress}

	if err := q.Model(&models.Dsar{}).
		Where("status IN ? AND is_deleted = ?", open, false).
		Count(&stats.OpenDsars).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Dsar{}).
		Where("status IN ? AND due_date < ? AND is_deleted = ?", open, time.Now(), false).
		Count(&stats.OverdueDsars).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Dsar{}).
		Where("status = ? AND is_deleted = ?", models.DsarCompleted, false).
		Count(&stats.CompletedDsars).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Breach{}).
		Where("status = ? AND is_deleted = ?", models.BreachOpen, false).
		Count(&stats.OpenBreaches).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Breach{}).
		Where("status = ? AND regulator_notified = ? AND is_deleted = ?", models.BreachOpen, false, false).
		Count(&stats.UnnotifiedBreaches).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.RopaEntry{}).
		Where("status = ? AND is_deleted = ?", "active", false).
		Count(&stats.RopaEntries).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// nextReference builds PREFIX-<year>-NNN scoped to the current year.
func (s *PrivacyService) nextReference(ctx context.Context, model interface{}, prefix string) (string, error) {
	year := time.Now().Year()
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)

	var count int64
	if err := s.db.WithContext(ctx).Model(model).
		Where("created_at >= ?", yearStart).
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%03d", prefix, year, count+1), nil
}
