package models

import "gorm.io/gorm"

// GetObjectBySlug fetches a catalogue object by its slug.
func GetObjectBySlug(db *gorm.DB, slug string) (*ArchivalObject, error) {
	var obj ArchivalObject
	if err := db.Where("slug = ? AND is_deleted = ?", slug, false).First(&obj).Error; err != nil {
		return nil, err
	}
	return &obj, nil
}

// GetObjectByID fetches a catalogue object by primary key.
func GetObjectByID(db *gorm.DB, id string) (*ArchivalObject, error) {
	var obj ArchivalObject
	if err := db.Where("id = ? AND is_deleted = ?", id, false).First(&obj).Error; err != nil {
		return nil, err
	}
	return &obj, nil
}

// GetSetting returns a setting value with a fallback default.
func GetSetting(db *gorm.DB, namespace, key, fallback string) string {
	var s Setting
	if err := db.Where("namespace = ? AND key = ?", namespace, key).First(&s).Error; err != nil {
		return fallback
	}
	if s.Value == "" {
		return fallback
	}
	return s.Value
}
