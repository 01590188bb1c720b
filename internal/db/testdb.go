package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTest opens an isolated in-memory sqlite database with the full
// schema migrated. Each call returns a fresh database.
func OpenTest() (*gorm.DB, error) {
	tdb, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(tdb); err != nil {
		return nil, err
	}
	return tdb, nil
}
