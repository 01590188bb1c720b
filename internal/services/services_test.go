package services

import (
	"testing"

	"ahgapi/internal/db"
	"ahgapi/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	tdb, err := db.OpenTest()
	require.NoError(t, err)
	return tdb
}

func seedUser(t *testing.T, tdb *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Username: email,
		Password: "x",
		Role:     role,
	}
	require.NoError(t, tdb.Create(user).Error)
	return user
}

func seedObject(t *testing.T, tdb *gorm.DB, slug, parentID string) *models.ArchivalObject {
	t.Helper()
	obj := &models.ArchivalObject{
		Slug:       slug,
		Title:      slug,
		ObjectType: models.ObjectTypeInformationObject,
		ParentID:   parentID,
	}
	require.NoError(t, tdb.Create(obj).Error)
	return obj
}

func seedClassification(t *testing.T, tdb *gorm.DB, code string, level int) *models.Classification {
	t.Helper()
	class := &models.Classification{
		Code:   code,
		Name:   code,
		Level:  level,
		Active: true,
	}
	require.NoError(t, tdb.Create(class).Error)
	return class
}

// setFlags overwrites a classification's per-action columns directly, since
// false values would otherwise be swallowed by the column defaults on insert.
func setFlags(t *testing.T, tdb *gorm.DB, class *models.Classification, download, print, copyAllowed, watermark bool) {
	t.Helper()
	require.NoError(t, tdb.Model(class).Updates(map[string]interface{}{
		"download_allowed":   download,
		"print_allowed":      print,
		"copy_allowed":       copyAllowed,
		"watermark_required": watermark,
	}).Error)
	class.DownloadAllowed = download
	class.PrintAllowed = print
	class.CopyAllowed = copyAllowed
	class.WatermarkRequired = watermark
}

func classifyObject(t *testing.T, tdb *gorm.DB, objectID, classificationID string) *models.ObjectClassification {
	t.Helper()
	oc := &models.ObjectClassification{
		ObjectID:          objectID,
		ClassificationID:  classificationID,
		ClassifiedBy:      uuid.New().String(),
		InheritToChildren: true,
	}
	require.NoError(t, tdb.Create(oc).Error)
	return oc
}
