package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ahgapi/internal/events"
	"ahgapi/internal/models"
	"ahgapi/internal/utils/logger"

	"gorm.io/gorm"
)

// ClearanceService manages user security clearances and their history.
type ClearanceService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewClearanceService(db *gorm.DB) *ClearanceService {
	return &ClearanceService{
		db:     db,
		logger: logger.New("CLEARANCE"),
	}
}

// GrantClearance gives a user a clearance level, deactivating any
// previous active clearance. The history row records whether this was a
// fresh grant, an upgrade or a downgrade.
func (s *ClearanceService) GrantClearance(ctx context.Context, userID, classificationID, grantedBy string, expiryDate *time.Time, vettingRef string) (*models.UserClearance, error) {
	newClass, err := s.getClassification(ctx, classificationID)
	if err != nil {
		return nil, err
	}

	var previous models.UserClearance
	action := "granted"
	var previousClassID string

	err = s.db.WithContext(ctx).
		Where("user_id = ? AND active = ? AND is_deleted = ?", userID, true, false).
		Preload("Classification").
		First(&previous).Error
	if err == nil {
		previousClassID = previous.ClassificationID
		if previous.Classification != nil {
			switch {
			case newClass.Level > previous.Classification.Level:
				action = "upgraded"
			case newClass.Level < previous.Classification.Level:
				action = "downgraded"
			default:
				action = "renewed"
			}
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	clearance := &models.UserClearance{
		UserID:           userID,
		ClassificationID: classificationID,
		GrantedBy:        grantedBy,
		GrantedDate:      time.Now(),
		ExpiryDate:       expiryDate,
		VettingReference: vettingRef,
		Active:           true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if previous.ID != "" {
			if err := tx.Model(&models.UserClearance{}).
				Where("id = ?", previous.ID).
				Update("active", false).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(clearance).Error; err != nil {
			return err
		}

		history := models.ClearanceHistory{
			UserID:                   userID,
			PreviousClassificationID: previousClassID,
			NewClassificationID:      classificationID,
			Action:                   action,
			ChangedBy:                grantedBy,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	events.Emit("clearance."+action, clearance)
	return clearance, nil
}

// RevokeClearance deactivates a user's active clearance.
func (s *ClearanceService) RevokeClearance(ctx context.Context, userID, revokedBy, reason string) error {
	var clearance models.UserClearance
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ? AND is_deleted = ?", userID, true, false).
		First(&clearance).Error; err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserClearance{}).
			Where("id = ?", clearance.ID).
			Update("active", false).Error; err != nil {
			return err
		}

		history := models.ClearanceHistory{
			UserID:                   userID,
			PreviousClassificationID: clearance.ClassificationID,
			Action:                   "revoked",
			ChangedBy:                revokedBy,
			Reason:                   reason,
		}
		return tx.Create(&history).Error
	})
}

// RequestRenewal flags an active clearance for renewal review.
func (s *ClearanceService) RequestRenewal(ctx context.Context, userID, notes string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.UserClearance{}).
		Where("user_id = ? AND active = ? AND is_deleted = ?", userID, true, false).
		Updates(map[string]interface{}{
			"renewal_status":    models.RenewalPending,
			"renewal_notes":     notes,
			"renewal_requested": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReviewRenewal approves or denies a pending renewal. Approval extends
// the expiry by one year from the later of now and the current expiry.
func (s *ClearanceService) ReviewRenewal(ctx context.Context, clearanceID, reviewedBy string, approve bool, notes string) error {
	var clearance models.UserClearance
	if err := s.db.WithContext(ctx).
		Where("id = ? AND renewal_status = ? AND is_deleted = ?", clearanceID, models.RenewalPending, false).
		First(&clearance).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{
		"renewal_notes": notes,
	}

	if approve {
		base := time.Now()
		if clearance.ExpiryDate != nil && clearance.ExpiryDate.After(base) {
			base = *clearance.ExpiryDate
		}
		newExpiry := base.AddDate(1, 0, 0)
		updates["renewal_status"] = models.RenewalApproved
		updates["expiry_date"] = &newExpiry
	} else {
		updates["renewal_status"] = models.RenewalDenied
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserClearance{}).
			Where("id = ?", clearanceID).
			Updates(updates).Error; err != nil {
			return err
		}

		if approve {
			history := models.ClearanceHistory{
				UserID:                   clearance.UserID,
				PreviousClassificationID: clearance.ClassificationID,
				NewClassificationID:      clearance.ClassificationID,
				Action:                   "renewed",
				ChangedBy:                reviewedBy,
				Reason:                   notes,
			}
			return tx.Create(&history).Error
		}
		return nil
	})
}

// GetActiveClearance returns the user's active clearance, or nil when
// the user holds none.
func (s *ClearanceService) GetActiveClearance(ctx context.Context, userID string) (*models.UserClearance, error) {
	var clearance models.UserClearance
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ? AND is_deleted = ?", userID, true, false).
		Preload("Classification").
		First(&clearance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// An expired clearance no longer confers access
	if clearance.ExpiryDate != nil && clearance.ExpiryDate.Before(time.Now()) {
		return nil, nil
	}

	return &clearance, nil
}

// ClearanceLevel resolves the user's effective numeric level. Users
// without an active clearance sit at level 1 (public only).
func (s *ClearanceService) ClearanceLevel(ctx context.Context, userID string) (int, error) {
	clearance, err := s.GetActiveClearance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if clearance == nil || clearance.Classification == nil {
		return 1, nil
	}
	return clearance.Classification.Level, nil
}

// ListExpiring returns active clearances expiring within the window.
func (s *ClearanceService) ListExpiring(ctx context.Context, within time.Duration) ([]models.UserClearance, error) {
	cutoff := time.Now().Add(within)
	var clearances []models.UserClearance
	err := s.db.WithContext(ctx).
		Where("active = ? AND is_deleted = ? AND expiry_date IS NOT NULL AND expiry_date <= ? AND expiry_date >= ?",
			true, false, cutoff, time.Now()).
		Preload("User").
		Preload("Classification").
		Order("expiry_date asc").
		Find(&clearances).Error
	return clearances, err
}

// History returns a user's full clearance history, newest first.
func (s *ClearanceService) History(ctx context.Context, userID string) ([]models.ClearanceHistory, error) {
	var history []models.ClearanceHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at desc").
		Find(&history).Error
	return history, err
}

func (s *ClearanceService) getClassification(ctx context.Context, id string) (*models.Classification, error) {
	var class models.Classification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND active = ? AND is_deleted = ?", id, true, false).
		First(&class).Error; err != nil {
		return nil, fmt.Errorf("classification lookup failed: %w", err)
	}
	return &class, nil
}
