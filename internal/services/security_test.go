package services

import (
	"context"
	"testing"
	"time"

	"ahgapi/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyObjectReplacesExisting(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSecurityService(tdb)
	obj := seedObject(t, tdb, "reclassified", "")
	restricted := seedClassification(t, tdb, "RESTRICTED", 2)
	secret := seedClassification(t, tdb, "SECRET", 4)
	officer := uuid.New().String()

	_, err := svc.ClassifyObject(context.Background(), &models.ObjectClassification{
		ObjectID:         obj.ID,
		ClassificationID: restricted.ID,
		ClassifiedBy:     officer,
	})
	require.NoError(t, err)

	_, err = svc.ClassifyObject(context.Background(), &models.ObjectClassification{
		ObjectID:         obj.ID,
		ClassificationID: secret.ID,
		ClassifiedBy:     officer,
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, tdb.Model(&models.ObjectClassification{}).
		Where("object_id = ? AND is_deleted = ?", obj.ID, false).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	effective, err := svc.EffectiveClassification(context.Background(), obj.ID)
	require.NoError(t, err)
	require.NotNil(t, effective)
	assert.Equal(t, "SECRET", effective.Code)
}

func TestClassifyObjectChildBelowParent(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSecurityService(tdb)
	parent := seedObject(t, tdb, "secret-fonds", "")
	child := seedObject(t, tdb, "secret-item", parent.ID)
	restricted := seedClassification(t, tdb, "RESTRICTED", 2)
	secret := seedClassification(t, tdb, "SECRET", 4)
	officer := uuid.New().String()

	_, err := svc.ClassifyObject(context.Background(), &models.ObjectClassification{
		ObjectID:         parent.ID,
		ClassificationID: secret.ID,
		ClassifiedBy:     officer,
	})
	require.NoError(t, err)

	_, err = svc.ClassifyObject(context.Background(), &models.ObjectClassification{
		ObjectID:         child.ID,
		ClassificationID: restricted.ID,
		ClassifiedBy:     officer,
	})
	assert.ErrorIs(t, err, ErrChildBelowParent)

	// Matching the parent's level is allowed.
	_, err = svc.ClassifyObject(context.Background(), &models.ObjectClassification{
		ObjectID:         child.ID,
		ClassificationID: secret.ID,
		ClassifiedBy:     officer,
	})
	require.NoError(t, err)
}

func TestEffectiveClassificationInheritance(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSecurityService(tdb)
	fonds := seedObject(t, tdb, "inh-fonds", "")
	series := seedObject(t, tdb, "inh-series", fonds.ID)
	item := seedObject(t, tdb, "inh-item", series.ID)
	secret := seedClassification(t, tdb, "SECRET", 4)

	oc := classifyObject(t, tdb, fonds.ID, secret.ID)

	effective, err := svc.EffectiveClassification(context.Background(), item.ID)
	require.NoError(t, err)
	require.NotNil(t, effective)
	assert.Equal(t, "SECRET", effective.Code)

	// Turning inheritance off stops the walk at the classified ancestor.
	require.NoError(t, tdb.Model(oc).Update("inherit_to_children", false).Error)
	effective, err = svc.EffectiveClassification(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Nil(t, effective)

	// The fonds itself is still classified.
	effective, err = svc.EffectiveClassification(context.Background(), fonds.ID)
	require.NoError(t, err)
	require.NotNil(t, effective)
}

func TestDeclassify(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSecurityService(tdb)
	obj := seedObject(t, tdb, "declassified", "")
	secret := seedClassification(t, tdb, "SECRET", 4)
	classifyObject(t, tdb, obj.ID, secret.ID)

	require.NoError(t, svc.Declassify(context.Background(), obj.ID, uuid.New().String()))

	effective, err := svc.EffectiveClassification(context.Background(), obj.ID)
	require.NoError(t, err)
	assert.Nil(t, effective)

	err = svc.Declassify(context.Background(), obj.ID, uuid.New().String())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProcessDueDeclassifications(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSecurityService(tdb)
	downgrade := seedObject(t, tdb, "downgrade-due", "")
	remove := seedObject(t, tdb, "removal-due", "")
	notYet := seedObject(t, tdb, "not-due", "")
	restricted := seedClassification(t, tdb, "RESTRICTED", 2)
	secret := seedClassification(t, tdb, "SECRET", 4)
	officer := uuid.New().String()

	past := time.Now().Add(-time.Hour)
	future := time.Now().AddDate(1, 0, 0)

	_, err := svc.ClassifyObject(context.Background(), &models.ObjectClassification{
		ObjectID:         downgrade.ID,
		ClassificationID: secret.ID,
		ClassifiedBy:     officer,
		DeclassifyDate:   &past,
		DeclassifyToID:   restricted.ID,
		AutoDeclassify:   true,
	})
	require.NoError(t, err)

	_, err = svc.ClassifyObject(context.Background(), &models.ObjectClassification{
		ObjectID:         remove.ID,
		ClassificationID: secret.ID,
		ClassifiedBy:     officer,
		DeclassifyDate:   &past,
		AutoDeclassify:   true,
	})
	require.NoError(t, err)

	_, err = svc.ClassifyObject(context.Background(), &models.ObjectClassification{
		ObjectID:         notYet.ID,
		ClassificationID: secret.ID,
		ClassifiedBy:     officer,
		DeclassifyDate:   &future,
		AutoDeclassify:   true,
	})
	require.NoError(t, err)

	processed, err := svc.ProcessDueDeclassifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	effective, err := svc.EffectiveClassification(context.Background(), downgrade.ID)
	require.NoError(t, err)
	require.NotNil(t, effective)
	assert.Equal(t, "RESTRICTED", effective.Code)

	effective, err = svc.EffectiveClassification(context.Background(), remove.ID)
	require.NoError(t, err)
	assert.Nil(t, effective)

	effective, err = svc.EffectiveClassification(context.Background(), notYet.ID)
	require.NoError(t, err)
	require.NotNil(t, effective)
	assert.Equal(t, "SECRET", effective.Code)

	// Processed entries are not picked up again.
	processed, err = svc.ProcessDueDeclassifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}

func TestWatermarkGenerateAndTrace(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSecurityService(tdb)
	obj := seedObject(t, tdb, "watermarked", "")
	user := seedUser(t, tdb, "leaker@example.com", models.UserRoleResearcher)

	entry, err := svc.GenerateWatermark(context.Background(), user.ID, obj.ID, "visible", "For review only", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.WatermarkCode)

	second, err := svc.GenerateWatermark(context.Background(), user.ID, obj.ID, "visible", "", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, entry.WatermarkCode, second.WatermarkCode)

	traced, err := svc.TraceWatermark(context.Background(), entry.WatermarkCode)
	require.NoError(t, err)
	assert.Equal(t, user.ID, traced.UserID)
	assert.Equal(t, obj.ID, traced.ObjectID)

	_, err = svc.TraceWatermark(context.Background(), "WM-UNKNOWN")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSecurityStatistics(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSecurityService(tdb)
	clearance := NewClearanceService(tdb)
	obj := seedObject(t, tdb, "counted", "")
	secret := seedClassification(t, tdb, "SECRET", 4)
	classifyObject(t, tdb, obj.ID, secret.ID)

	user := seedUser(t, tdb, "counted@example.com", models.UserRoleResearcher)
	_, err := clearance.GrantClearance(context.Background(), user.ID, secret.ID, uuid.New().String(), nil, "")
	require.NoError(t, err)

	svc.LogAccess(context.Background(), user.ID, obj.ID, "download", false, "insufficient clearance", "10.0.0.1", "test", nil)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ClassifiedObjects)
	assert.Equal(t, int64(1), stats.ByLevel["SECRET"])
	assert.Equal(t, int64(1), stats.ActiveClearances)
	assert.Equal(t, int64(1), stats.DeniedLast30Days)
}
