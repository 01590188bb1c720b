package models

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	console "ahgapi/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("SEEDER")

// Default classification ladder. Level 1 is open access, level 5 is the
// most restricted; codes follow the South African MISS scheme.
var defaultClassifications = []Classification{
	{Code: "PUB", Name: "Public", Level: 1, Color: "#28a745", Icon: "unlock", DownloadAllowed: true, PrintAllowed: true, CopyAllowed: true, Active: true},
	{Code: "INT", Name: "Internal", Level: 2, Color: "#17a2b8", Icon: "building", DownloadAllowed: true, PrintAllowed: true, CopyAllowed: false, Active: true, WatermarkRequired: true},
	{Code: "CON", Name: "Confidential", Level: 3, Color: "#ffc107", Icon: "eye-slash", DownloadAllowed: false, PrintAllowed: true, CopyAllowed: false, Active: true, WatermarkRequired: true},
	{Code: "SEC", Name: "Secret", Level: 4, Color: "#fd7e14", Icon: "lock", DownloadAllowed: false, PrintAllowed: false, CopyAllowed: false, Active: true, WatermarkRequired: true},
	{Code: "TS", Name: "Top Secret", Level: 5, Color: "#dc3545", Icon: "shield-alt", DownloadAllowed: false, PrintAllowed: false, CopyAllowed: false, Active: true, WatermarkRequired: true},
}

// Settings the UI expects to exist even before anyone saves the form.
var defaultSettings = []Setting{
	{Namespace: "theme", Key: "primary_color", Value: "#1a5276"},
	{Namespace: "theme", Key: "secondary_color", Value: "#d4ac0d"},
	{Namespace: "theme", Key: "institution_name", Value: ""},
	{Namespace: "theme", Key: "logo_path", Value: ""},
	{Namespace: "privacy", Key: "dsar_due_days", Value: "30"},
	{Namespace: "security", Key: "watermark_enabled", Value: "true"},
	{Namespace: "glam", Key: "default_sector", Value: "archive"},
}

// SeedDefaults creates the classification ladder and baseline settings.
// Safe to run on every boot.
func SeedDefaults(db *gorm.DB) error {
	for _, c := range defaultClassifications {
		if err := db.FirstOrCreate(&c, Classification{Code: c.Code}).Error; err != nil {
			return fmt.Errorf("failed to create classification %s: %v", c.Code, err)
		}
	}

	for _, s := range defaultSettings {
		if err := db.FirstOrCreate(&s, Setting{Namespace: s.Namespace, Key: s.Key}).Error; err != nil {
			return fmt.Errorf("failed to create setting %s.%s: %v", s.Namespace, s.Key, err)
		}
	}

	return nil
}

// CreateAdminFromEnv bootstraps the first admin account when the users
// table has no admin yet.
func CreateAdminFromEnv(db *gorm.DB) error {
	role := UserRoleAdmin

	var count int64
	db.Model(&User{}).Where("role = ?", role).Count(&count)
	log.Info("Admin count: %d", count)
	if count > 0 {
		return nil
	}

	email, ok := os.LookupEnv("ADMIN_EMAIL")
	if !ok {
		return fmt.Errorf("ADMIN_EMAIL not set")
	}

	password, ok := os.LookupEnv("ADMIN_PASSWORD")
	if !ok {
		return fmt.Errorf("ADMIN_PASSWORD not set")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	name, ok := os.LookupEnv("ADMIN_NAME")
	if !ok {
		name = "Administrator"
	}

	user := User{
		FirstName: name,
		LastName:  "",
		Email:     email,
		Username:  email,
		Role:      role,
		Password:  string(hashedPassword),
	}

	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %v", err)
	}

	return nil
}
