package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ahgapi/internal/events"
	"ahgapi/internal/models"
	"ahgapi/internal/utils"
	"ahgapi/internal/utils/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrChildBelowParent = errors.New("child classification level cannot be lower than parent")

// SecurityService manages object classifications, declassification
// schedules, watermarks and the access audit log.
type SecurityService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewSecurityService(db *gorm.DB) *SecurityService {
	return &SecurityService{
		db:     db,
		logger: logger.New("SECURITY"),
	}
}

// ClassifyObject assigns a classification to an object, replacing any
// existing one. A child may never be classified below its parent's
// effective level.
func (s *SecurityService) ClassifyObject(ctx context.Context, oc *models.ObjectClassification) (*models.ObjectClassification, error) {
	newClass, err := s.classificationByID(ctx, oc.ClassificationID)
	if err != nil {
		return nil, err
	}

	obj, err := models.GetObjectByID(s.db.WithContext(ctx), oc.ObjectID)
	if err != nil {
		return nil, err
	}

	if obj.ParentID != "" {
		parentClass, err := s.EffectiveClassification(ctx, obj.ParentID)
		if err != nil {
			return nil, err
		}
		if parentClass != nil && newClass.Level < parentClass.Level {
			return nil, ErrChildBelowParent
		}
	}

	if oc.ClassifiedDate.IsZero() {
		oc.ClassifiedDate = time.Now()
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ObjectClassification
		lookErr := tx.Where("object_id = ? AND is_deleted = ?", oc.ObjectID, false).First(&existing).Error
		if lookErr == nil {
			oc.ID = existing.ID
			return tx.Model(&existing).Omit("id").Updates(oc).Error
		}
		if !errors.Is(lookErr, gorm.ErrRecordNotFound) {
			return lookErr
		}
		return tx.Create(oc).Error
	})
	if err != nil {
		return nil, err
	}

	if oc.DeclassifyDate != nil && oc.AutoDeclassify {
		if err := s.scheduleDeclassification(ctx, oc); err != nil {
			s.logger.Warn("Failed to schedule declassification for object %s: %v", oc.ObjectID, err)
		}
	}

	events.Emit("object.classified", oc)
	return oc, nil
}

// Declassify removes an object's classification record.
func (s *SecurityService) Declassify(ctx context.Context, objectID, changedBy string) error {
	result := s.db.WithContext(ctx).Model(&models.ObjectClassification{}).
		Where("object_id = ? AND is_deleted = ?", objectID, false).
		Update("deleted_at", time.Now()).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	events.Emit("object.declassified", objectID)
	return nil
}

// EffectiveClassification resolves the classification governing an
// object. When the object carries none, ancestors are walked upward and
// the nearest inheritable classification applies.
func (s *SecurityService) EffectiveClassification(ctx context.Context, objectID string) (*models.Classification, error) {
	current := objectID
	inherited := false

	for depth := 0; current != "" && depth < 50; depth++ {
		var oc models.ObjectClassification
		err := s.db.WithContext(ctx).
			Where("object_id = ? AND is_deleted = ?", current, false).
			Preload("Classification").
			First(&oc).Error
		if err == nil {
			if inherited && !oc.InheritToChildren {
				return nil, nil
			}
			return oc.Classification, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		obj, err := models.GetObjectByID(s.db.WithContext(ctx), current)
		if err != nil {
			return nil, err
		}
		current = obj.ParentID
		inherited = true
	}

	return nil, nil
}

func (s *SecurityService) scheduleDeclassification(ctx context.Context, oc *models.ObjectClassification) error {
	schedule := models.DeclassificationSchedule{
		ObjectID:             oc.ObjectID,
		FromClassificationID: oc.ClassificationID,
		ToClassificationID:   oc.DeclassifyToID,
		ScheduledDate:        *oc.DeclassifyDate,
	}
	return s.db.WithContext(ctx).Create(&schedule).Error
}

// ProcessDueDeclassifications applies every unprocessed schedule entry
// whose date has passed. Entries with a target classification downgrade
// the object; entries without one remove the classification entirely.
func (s *SecurityService) ProcessDueDeclassifications(ctx context.Context) (int, error) {
	var due []models.DeclassificationSchedule
	if err := s.db.WithContext(ctx).
		Where("processed = ? AND scheduled_date <= ? AND is_deleted = ?", false, time.Now(), false).
		Find(&due).Error; err != nil {
		return 0, err
	}

	processed := 0
	for _, entry := range due {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if entry.ToClassificationID != "" {
				if err := tx.Model(&models.ObjectClassification{}).
					Where("object_id = ? AND is_deleted = ?", entry.ObjectID, false).
					Updates(map[string]interface{}{
						"classification_id": entry.ToClassificationID,
						"declassify_date":   nil,
						"auto_declassify":   false,
					}).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Model(&models.ObjectClassification{}).
					Where("object_id = ? AND is_deleted = ?", entry.ObjectID, false).
					Update("deleted_at", time.Now()).
					Update("is_deleted", true).Error; err != nil {
					return err
				}
			}

			now := time.Now()
			return tx.Model(&models.DeclassificationSchedule{}).
				Where("id = ?", entry.ID).
				Updates(map[string]interface{}{
					"processed":    true,
					"processed_at": &now,
				}).Error
		})
		if err != nil {
			s.logger.Warn("Declassification failed for object %s: %v", entry.ObjectID, err)
			continue
		}
		processed++
		events.Emit("object.declassified", entry.ObjectID)
	}

	return processed, nil
}

// LogAccess appends one row to the access audit log. Audit failures are
// logged but never block the request itself.
func (s *SecurityService) LogAccess(ctx context.Context, userID, objectID, action string, granted bool, denialReason, ip, userAgent string, details datatypes.JSON) {
	entry := models.AccessLog{
		UserID:       userID,
		ObjectID:     objectID,
		Action:       action,
		Granted:      granted,
		DenialReason: denialReason,
		IPAddress:    ip,
		UserAgent:    userAgent,
		Details:      details,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Warn("Failed to write access log for object %s: %v", objectID, err)
	}
}

// GenerateWatermark creates a watermark tracking code for one view or
// download of a classified object.
func (s *SecurityService) GenerateWatermark(ctx context.Context, userID, objectID, watermarkType, text, ip string) (*models.WatermarkLog, error) {
	code, err := utils.GenerateWatermarkCode()
	if err != nil {
		return nil, err
	}

	entry := &models.WatermarkLog{
		UserID:        userID,
		ObjectID:      objectID,
		WatermarkType: watermarkType,
		WatermarkText: text,
		WatermarkCode: code,
		IPAddress:     ip,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// TraceWatermark resolves a leaked watermark code back to the user and
// object it was issued for.
func (s *SecurityService) TraceWatermark(ctx context.Context, code string) (*models.WatermarkLog, error) {
	var entry models.WatermarkLog
	if err := s.db.WithContext(ctx).
		Where("watermark_code = ? AND is_deleted = ?", code, false).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// SecurityStatistics summarises the register for the dashboard.
type SecurityStatistics struct {
	ClassifiedObjects   int64            `json:"classifiedObjects"`
	ByLevel             map[string]int64 `json:"byLevel"`
	ActiveClearances    int64            `json:"activeClearances"`
	PendingRequests     int64            `json:"pendingRequests"`
	PendingDeclassify   int64            `json:"pendingDeclassify"`
	DeniedLast30Days    int64            `json:"deniedLast30Days"`
	WatermarksLast30    int64            `json:"watermarksLast30Days"`
}

func (s *SecurityService) Statistics(ctx context.Context) (*SecurityStatistics, error) {
	stats := &SecurityStatistics{ByLevel: make(map[string]int64)}
	q := s.db.WithContext(ctx)

	if err := q.Model(&models.ObjectClassification{}).
		Where("is_deleted = ?", false).
		Count(&stats.ClassifiedObjects).Error; err != nil {
		return nil, err
	}

	type levelCount struct {
		Name  string
		Count int64
	}
	var rows []levelCount
	if err := q.Model(&models.ObjectClassification{}).
		Select("classifications.name as name, count(*) as count").
		Joins("JOIN classifications ON classifications.id = object_classifications.classification_id").
		Where("object_classifications.is_deleted = ?", false).
		Group("classifications.name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByLevel[row.Name] = row.Count
	}

	if err := q.Model(&models.UserClearance{}).
		Where("active = ? AND is_deleted = ?", true, false).
		Count(&stats.ActiveClearances).Error; err != nil {
		return nil, err
	}

	if err := q.Model(&models.AccessRequest{}).
		Where("status = ? AND is_deleted = ?", models.RequestPending, false).
		Count(&stats.PendingRequests).Error; err != nil {
		return nil, err
	}

	if err := q.Model(&models.DeclassificationSchedule{}).
		Where("processed = ? AND is_deleted = ?", false, false).
		Count(&stats.PendingDeclassify).Error; err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -30)
	if err := q.Model(&models.AccessLog{}).
		Where("granted = ? AND created_at >= ?", false, cutoff).
		Count(&stats.DeniedLast30Days).Error; err != nil {
		return nil, err
	}

	if err := q.Model(&models.WatermarkLog{}).
		Where("created_at >= ? AND is_deleted = ?", cutoff, false).
		Count(&stats.WatermarksLast30).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *SecurityService) classificationByID(ctx context.Context, id string) (*models.Classification, error) {
	var class models.Classification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND active = ? AND is_deleted = ?", id, true, false).
		First(&class).Error; err != nil {
		return nil, fmt.Errorf("classification lookup failed: %w", err)
	}
	return &class, nil
}
