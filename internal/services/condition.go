package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ahgapi/internal/models"
	"ahgapi/internal/utils/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ConditionService manages condition checks and their photographs.
type ConditionService struct {
	db          *gorm.DB
	storage     *S3Service
	maxUpload   int64
	logger      *logger.Logger
}

func NewConditionService(db *gorm.DB, storage *S3Service, maxUploadMB int64) *ConditionService {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &ConditionService{
		db:        db,
		storage:   storage,
		maxUpload: maxUploadMB * 1024 * 1024,
		logger:    logger.New("CONDITION"),
	}
}

// UploadPhoto validates and stores a condition photo.
func (s *ConditionService) UploadPhoto(ctx context.Context, objectID, checkID, uploadedBy, fileName, contentType string, data []byte, caption string) (*models.ConditionPhoto, error) {
	if int64(len(data)) > s.maxUpload {
		return nil, ErrFileTooLarge
	}
	if !allowedPhotoTypes[contentType] {
		return nil, ErrUnsupportedType
	}

	if _, err := models.GetObjectByID(s.db.WithContext(ctx), objectID); err != nil {
		return nil, err
	}

	key, err := s.storage.UploadFile(ctx, data, fileName, "condition-photos", contentType)
	if err != nil {
		return nil, err
	}

	photo := &models.ConditionPhoto{
		ObjectID:    objectID,
		CheckID:     checkID,
		StoragePath: key,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Caption:     caption,
		UploadedBy:  uploadedBy,
	}
	if err := s.db.WithContext(ctx).Create(photo).Error; err != nil {
		// Orphaned object in storage is cleaned up immediately
		if delErr := s.storage.DeleteFile(ctx, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned upload %s: %v", key, delErr)
		}
		return nil, err
	}

	return photo, nil
}

// PhotosForObject lists photos for an object, signed URLs included.
func (s *ConditionService) PhotosForObject(ctx context.Context, objectID string) ([]models.ConditionPhoto, error) {
	var photos []models.ConditionPhoto
	err := s.db.WithContext(ctx).
		Where("object_id = ? AND is_deleted = ?", objectID, false).
		Order("created_at desc").
		Find(&photos).Error
	return photos, err
}

// Annotate replaces the annotation overlay data on a photo.
func (s *ConditionService) Annotate(ctx context.Context, photoID string, annotations datatypes.JSON) error {
	result := s.db.WithContext(ctx).Model(&models.ConditionPhoto{}).
		Where("id = ? AND is_deleted = ?", photoID, false).
		Update("annotations", annotations)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePhotoMeta changes the caption or check linkage on a photo. A
// nil field is left alone.
func (s *ConditionService) UpdatePhotoMeta(ctx context.Context, photoID string, caption, checkID *string) error {
	fields := map[string]interface{}{}
	if caption != nil {
		fields["caption"] = *caption
	}
	if checkID != nil {
		fields["check_id"] = *checkID
	}
	if len(fields) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&models.ConditionPhoto{}).
		Where("id = ? AND is_deleted = ?", photoID, false).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePhoto removes the photo row and its stored object.
func (s *ConditionService) DeletePhoto(ctx context.Context, photoID string) error {
	var photo models.ConditionPhoto
	if err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", photoID, false).
		First(&photo).Error; err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&models.ConditionPhoto{}).
		Where("id = ?", photoID).
		Update("deleted_at", time.Now()).
		Update("is_deleted", true).Error; err != nil {
		return err
	}

	if err := s.storage.DeleteFile(ctx, photo.StoragePath); err != nil {
		s.logger.Warn("Failed to delete stored photo %s: %v", photo.StoragePath, err)
	}
	return nil
}

// RecordCheck stores a condition assessment.
func (s *ConditionService) RecordCheck(ctx context.Context, check *models.ConditionCheck) error {
	if _, err := models.GetObjectByID(s.db.WithContext(ctx), check.ObjectID); err != nil {
		return fmt.Errorf("object lookup failed: %w", err)
	}
	return s.db.WithContext(ctx).Create(check).Error
}

// ChecksForObject lists an object's assessments, newest first, with
// photos attached.
func (s *ConditionService) ChecksForObject(ctx context.Context, objectID string) ([]models.ConditionCheck, error) {
	var checks []models.ConditionCheck
	err := s.db.WithContext(ctx).
		Where("object_id = ? AND is_deleted = ?", objectID, false).
		Preload("Photos").
		Order("created_at desc").
		Find(&checks).Error
	return checks, err
}

// DueChecks lists objects whose latest check has aged past its
// next-check interval.
func (s *ConditionService) DueChecks(ctx context.Context) ([]models.ConditionCheck, error) {
	var latest []models.ConditionCheck
	err := s.db.WithContext(ctx).
		Raw(`SELECT c.* FROM condition_checks c
			 JOIN (SELECT object_id, MAX(created_at) AS latest
			       FROM condition_checks WHERE is_deleted = ? GROUP BY object_id) m
			 ON c.object_id = m.object_id AND c.created_at = m.latest
			 WHERE c.is_deleted = ?`, false, false).
		Scan(&latest).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var due []models.ConditionCheck
	for _, check := range latest {
		months := check.NextCheckMonths
		if months <= 0 {
			months = 12
		}
		if check.CreatedAt.AddDate(0, months, 0).Before(now) {
			due = append(due, check)
		}
	}
	return due, nil
}
