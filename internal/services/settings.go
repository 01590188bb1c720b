package services

import (
	"context"
	"sync"

	"ahgapi/internal/events"
	"ahgapi/internal/models"

	"gorm.io/gorm"
)

// SettingsService wraps the namespaced key-value settings table. Reads
// are served from an in-process cache per namespace; writes through the
// service invalidate it.
type SettingsService struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[string]map[string]string
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		db:    db,
		cache: make(map[string]map[string]string),
	}
}

// Get returns the value for a key, or the fallback when unset.
func (s *SettingsService) Get(ctx context.Context, namespace, key, fallback string) string {
	s.mu.RLock()
	cached, ok := s.cache[namespace]
	s.mu.RUnlock()
	if ok {
		if value, present := cached[key]; present {
			return value
		}
		return fallback
	}
	return models.GetSetting(s.db.WithContext(ctx), namespace, key, fallback)
}

// Namespace returns every setting under one namespace as a map.
func (s *SettingsService) Namespace(ctx context.Context, namespace string) (map[string]string, error) {
	s.mu.RLock()
	cached, ok := s.cache[namespace]
	s.mu.RUnlock()
	if ok {
		return copySettings(cached), nil
	}

	var settings []models.Setting
	if err := s.db.WithContext(ctx).
		Where("namespace = ? AND is_deleted = ?", namespace, false).
		Find(&settings).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(settings))
	for _, setting := range settings {
		out[setting.Key] = setting.Value
	}

	s.mu.Lock()
	s.cache[namespace] = copySettings(out)
	s.mu.Unlock()

	return out, nil
}

// Set upserts one setting and notifies listeners.
func (s *SettingsService) Set(ctx context.Context, namespace, key, value string) error {
	var setting models.Setting
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		First(&setting).Error
	if err == nil {
		if updErr := s.db.WithContext(ctx).Model(&setting).
			Update("value", value).Error; updErr != nil {
			return updErr
		}
	} else if err == gorm.ErrRecordNotFound {
		setting = models.Setting{Namespace: namespace, Key: key, Value: value}
		if createErr := s.db.WithContext(ctx).Create(&setting).Error; createErr != nil {
			return createErr
		}
	} else {
		return err
	}

	s.invalidate(namespace)
	events.Emit("setting.changed", &setting)
	return nil
}

// SetMany applies a batch of updates to one namespace atomically.
func (s *SettingsService) SetMany(ctx context.Context, namespace string, values map[string]string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			var setting models.Setting
			err := tx.Where("namespace = ? AND key = ?", namespace, key).First(&setting).Error
			if err == nil {
				if updErr := tx.Model(&setting).Update("value", value).Error; updErr != nil {
					return updErr
				}
				continue
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}
			setting = models.Setting{Namespace: namespace, Key: key, Value: value}
			if createErr := tx.Create(&setting).Error; createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(namespace)
	return nil
}

func (s *SettingsService) invalidate(namespace string) {
	s.mu.Lock()
	delete(s.cache, namespace)
	s.mu.Unlock()
}

// copySettings keeps callers from mutating the cached map.
func copySettings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
