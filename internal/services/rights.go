package services

import (
	"context"
	"time"

	"ahgapi/internal/models"
	"ahgapi/internal/utils/logger"

	"gorm.io/gorm"
)

// RightsService manages rights records and their granular acts.
type RightsService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewRightsService(db *gorm.DB) *RightsService {
	return &RightsService{
		db:     db,
		logger: logger.New("RIGHTS"),
	}
}

// CreateRecord stores a rights record together with its acts.
func (s *RightsService) CreateRecord(ctx context.Context, record *models.RightsRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// RecordsForObject lists all rights records attached to an object.
func (s *RightsService) RecordsForObject(ctx context.Context, objectID string) ([]models.RightsRecord, error) {
	var records []models.RightsRecord
	err := s.db.WithContext(ctx).
		Where("object_id = ? AND is_deleted = ?", objectID, false).
		Preload("Acts").
		Order("created_at asc").
		Find(&records).Error
	return records, err
}

// ActPermitted reports whether the named act is allowed on the object
// right now. A disallow act wins over an allow; conditional acts count
// as allowed but are flagged to the caller separately. Records outside
// their validity window are ignored. With no applicable record the act
// is permitted.
func (s *RightsService) ActPermitted(ctx context.Context, objectID, act string) (bool, bool, error) {
	records, err := s.RecordsForObject(ctx, objectID)
	if err != nil {
		return false, false, err
	}

	now := time.Now()
	permitted := true
	conditional := false

	for _, record := range records {
		if record.StartDate != nil && record.StartDate.After(now) {
			continue
		}
		if record.EndDate != nil && record.EndDate.Before(now) {
			continue
		}
		for _, a := range record.Acts {
			if a.Act != act {
				continue
			}
			switch a.Restriction {
			case models.RestrictionDisallow:
				return false, false, nil
			case models.RestrictionConditional:
				conditional = true
			}
		}
	}

	return permitted, conditional, nil
}

// Badge summarises the strictest applicable restriction for display
// alongside an object: "restricted", "conditional" or "open".
func (s *RightsService) Badge(ctx context.Context, objectID string) (string, error) {
	records, err := s.RecordsForObject(ctx, objectID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	badge := "open"
	for _, record := range records {
		if record.StartDate != nil && record.StartDate.After(now) {
			continue
		}
		if record.EndDate != nil && record.EndDate.Before(now) {
			continue
		}
		for _, a := range record.Acts {
			switch a.Restriction {
			case models.RestrictionDisallow:
				return "restricted", nil
			case models.RestrictionConditional:
				badge = "conditional"
			}
		}
	}
	return badge, nil
}

// ExpiringRecords lists rights records whose end date falls within the
// next N days.
func (s *RightsService) ExpiringRecords(ctx context.Context, days int) ([]models.RightsRecord, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, days)
	var records []models.RightsRecord
	err := s.db.WithContext(ctx).
		Where("end_date IS NOT NULL AND end_date BETWEEN ? AND ? AND is_deleted = ?", now, cutoff, false).
		Preload("Acts").
		Order("end_date asc").
		Find(&records).Error
	return records, err
}
