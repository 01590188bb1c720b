package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ahgapi/internal/config"
	"ahgapi/internal/models"
	console "ahgapi/internal/utils/logger"
)

var DB *gorm.DB
var log = console.New("DB")

func Connect(cfg *config.Config) error {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.Database.Host,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.Port,
		cfg.Database.SSLMode,
	)

	log.Info("Connecting to database...")
	maxRetries := 5
	var err error
	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:                                   logger.Default.LogMode(logger.Info),
			DisableForeignKeyConstraintWhenMigrating: true,
			PrepareStmt:                              true,
			AllowGlobalUpdate:                        false,
		})
		if err == nil {
			log.Success("Connected to database")

			sqlDB, err := DB.DB()
			if err != nil {
				return log.Error("Failed to get underlying *sql.DB instance", err)
			}

			sqlDB.SetMaxOpenConns(100)
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetConnMaxLifetime(time.Hour)
			sqlDB.SetConnMaxIdleTime(time.Minute * 30)

			if err := RunMigrations(DB); err != nil {
				return log.Error("Failed to run migrations", err)
			}

			log.Success("Migrations completed")

			return nil
		}
		log.Warn("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(time.Second * 5)
	}
	return log.Error("failed to connect to database after %d attempts", fmt.Errorf("failed to connect to database after %d attempts", maxRetries))
}

// RunMigrations auto-migrates every model inside one transaction.
func RunMigrations(db *gorm.DB) error {
	log.Info("Running migrations...")
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.AutoMigrate(
		// Base models without foreign keys
		&models.User{},
		&models.AuthSession{},
		&models.ArchivalObject{},
		&models.Classification{},
		&models.Setting{},

		// Rights and restrictions
		&models.RightsRecord{},
		&models.RightsAct{},
		&models.Embargo{},
		&models.EmbargoException{},

		// Security layer
		&models.ObjectClassification{},
		&models.UserClearance{},
		&models.ClearanceHistory{},
		&models.AccessGrant{},
		&models.AccessRequest{},
		&models.AccessLog{},
		&models.DeclassificationSchedule{},
		&models.WatermarkLog{},

		// Researcher workspace
		&models.FavoriteFolder{},
		&models.Favorite{},
		&models.FolderShare{},

		// Heritage asset register
		&models.HeritageAsset{},
		&models.ValuationRecord{},

		// Privacy registers
		&models.Dsar{},
		&models.DsarLog{},
		&models.Breach{},
		&models.RopaEntry{},
		&models.PrivacyTemplate{},

		// Preservation and provenance
		&models.ConditionCheck{},
		&models.ConditionPhoto{},
		&models.DonorAgreement{},
	); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}
