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

func TestCreateEmbargoStatusFromStartDate(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewEmbargoService(tdb)
	current := seedObject(t, tdb, "current-embargo", "")
	future := seedObject(t, tdb, "future-embargo", "")

	embargo, err := svc.CreateEmbargo(context.Background(), &models.Embargo{
		ObjectID:    current.ID,
		EmbargoType: models.EmbargoFull,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EmbargoStatusActive, embargo.Status)
	assert.False(t, embargo.StartDate.IsZero())

	pending, err := svc.CreateEmbargo(context.Background(), &models.Embargo{
		ObjectID:    future.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.EmbargoStatusPending, pending.Status)
}

func TestCreateEmbargoConflicts(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewEmbargoService(tdb)
	obj := seedObject(t, tdb, "conflicted", "")

	first, err := svc.CreateEmbargo(context.Background(), &models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoFull,
	})
	require.NoError(t, err)

	_, err = svc.CreateEmbargo(context.Background(), &models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoDigitalOnly,
	})
	assert.ErrorIs(t, err, ErrEmbargoExists)

	// Lifting the embargo frees the object for a new one.
	require.NoError(t, svc.LiftEmbargo(context.Background(), first.ID, uuid.New().String(), "appeal upheld"))
	_, err = svc.CreateEmbargo(context.Background(), &models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoDigitalOnly,
	})
	require.NoError(t, err)
}

func TestLiftEmbargoAlreadyLifted(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewEmbargoService(tdb)
	obj := seedObject(t, tdb, "lift-twice", "")

	embargo, err := svc.CreateEmbargo(context.Background(), &models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoFull,
	})
	require.NoError(t, err)
	require.NoError(t, svc.LiftEmbargo(context.Background(), embargo.ID, uuid.New().String(), ""))

	err = svc.LiftEmbargo(context.Background(), embargo.ID, uuid.New().String(), "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateEmbargo(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewEmbargoService(tdb)
	obj := seedObject(t, tdb, "amended-embargo", "")

	embargo, err := svc.CreateEmbargo(context.Background(), &models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoFull,
		Reason:      "donor request",
	})
	require.NoError(t, err)

	newEnd := time.Now().AddDate(1, 0, 0)
	newReason := "donor request, extended after review"
	autoRelease := true
	updated, err := svc.UpdateEmbargo(context.Background(), embargo.ID, EmbargoUpdate{
		Reason:      &newReason,
		EndDate:     &newEnd,
		AutoRelease: &autoRelease,
	})
	require.NoError(t, err)
	assert.Equal(t, newReason, updated.Reason)
	require.NotNil(t, updated.EndDate)
	assert.WithinDuration(t, newEnd, *updated.EndDate, time.Second)
	assert.True(t, updated.AutoRelease)

	// An end date on or before the start is rejected.
	badEnd := embargo.StartDate.Add(-time.Hour)
	_, err = svc.UpdateEmbargo(context.Background(), embargo.ID, EmbargoUpdate{EndDate: &badEnd})
	assert.ErrorIs(t, err, ErrEmbargoDates)

	// Lifted embargoes are history and cannot be amended.
	require.NoError(t, svc.LiftEmbargo(context.Background(), embargo.ID, uuid.New().String(), "appeal"))
	_, err = svc.UpdateEmbargo(context.Background(), embargo.ID, EmbargoUpdate{Reason: &newReason})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestActiveEmbargoIgnoresLapsed(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewEmbargoService(tdb)
	obj := seedObject(t, tdb, "lapsed-embargo", "")

	end := time.Now().Add(-time.Hour)
	require.NoError(t, tdb.Create(&models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().AddDate(0, -1, 0),
		EndDate:     &end,
		Status:      models.EmbargoStatusActive,
	}).Error)

	active, err := svc.ActiveEmbargo(context.Background(), obj.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestActivatePending(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewEmbargoService(tdb)
	obj := seedObject(t, tdb, "due-to-start", "")

	require.NoError(t, tdb.Create(&models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().Add(-time.Minute),
		Status:      models.EmbargoStatusPending,
	}).Error)

	activated, err := svc.ActivatePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), activated)

	active, err := svc.ActiveEmbargo(context.Background(), obj.ID)
	require.NoError(t, err)
	assert.NotNil(t, active)
}

func TestReleaseExpiredHonoursAutoRelease(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewEmbargoService(tdb)
	auto := seedObject(t, tdb, "auto-release", "")
	manual := seedObject(t, tdb, "manual-release", "")

	end := time.Now().Add(-time.Hour)
	autoEmbargo := &models.Embargo{
		ObjectID:    auto.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().AddDate(0, -1, 0),
		EndDate:     &end,
		Status:      models.EmbargoStatusActive,
		AutoRelease: true,
	}
	require.NoError(t, tdb.Create(autoEmbargo).Error)

	manualEmbargo := &models.Embargo{
		ObjectID:    manual.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().AddDate(0, -1, 0),
		EndDate:     &end,
		Status:      models.EmbargoStatusActive,
	}
	require.NoError(t, tdb.Create(manualEmbargo).Error)
	require.NoError(t, tdb.Model(manualEmbargo).Update("auto_release", false).Error)

	released, err := svc.ReleaseExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	var kept models.Embargo
	require.NoError(t, tdb.First(&kept, "id = ?", manualEmbargo.ID).Error)
	assert.Equal(t, models.EmbargoStatusActive, kept.Status)
}

func TestListExpiringEmbargoes(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewEmbargoService(tdb)
	soon := seedObject(t, tdb, "ending-soon", "")
	later := seedObject(t, tdb, "ending-later", "")

	soonEnd := time.Now().AddDate(0, 0, 10)
	laterEnd := time.Now().AddDate(0, 0, 90)
	require.NoError(t, tdb.Create(&models.Embargo{
		ObjectID:    soon.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().AddDate(0, -1, 0),
		EndDate:     &soonEnd,
		Status:      models.EmbargoStatusActive,
	}).Error)
	require.NoError(t, tdb.Create(&models.Embargo{
		ObjectID:    later.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().AddDate(0, -1, 0),
		EndDate:     &laterEnd,
		Status:      models.EmbargoStatusActive,
	}).Error)

	expiring, err := svc.ListExpiring(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, soon.ID, expiring[0].ObjectID)
}

func TestHasExceptionWindow(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewEmbargoService(tdb)
	obj := seedObject(t, tdb, "windowed", "")
	user := seedUser(t, tdb, "window@example.com", models.UserRoleResearcher)

	embargo, err := svc.CreateEmbargo(context.Background(), &models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoFull,
	})
	require.NoError(t, err)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, svc.AddException(context.Background(), &models.EmbargoException{
		EmbargoID:  embargo.ID,
		UserID:     user.ID,
		ValidUntil: &expired,
	}))

	ok, err := svc.HasException(context.Background(), embargo.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Anonymous readers never hold exceptions.
	ok, err = svc.HasException(context.Background(), embargo.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	future := time.Now().Add(time.Hour)
	require.NoError(t, svc.AddException(context.Background(), &models.EmbargoException{
		EmbargoID:  embargo.ID,
		UserID:     user.ID,
		ValidUntil: &future,
	}))
	ok, err = svc.HasException(context.Background(), embargo.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBlocksByEmbargoType(t *testing.T) {
	cases := []struct {
		embargoType models.EmbargoType
		action      string
		blocked     bool
	}{
		{models.EmbargoFull, "view_metadata", true},
		{models.EmbargoFull, "view_digital", true},
		{models.EmbargoFull, "download", true},
		{models.EmbargoMetadataOnly, "view_metadata", true},
		{models.EmbargoMetadataOnly, "view_digital", true},
		{models.EmbargoDigitalOnly, "view_metadata", false},
		{models.EmbargoDigitalOnly, "view_digital", true},
		{models.EmbargoDigitalOnly, "download", true},
		{models.EmbargoPartial, "view_metadata", false},
		{models.EmbargoPartial, "view_digital", false},
		{models.EmbargoPartial, "download", true},
		{models.EmbargoPartial, "print", true},
		{models.EmbargoPartial, "copy", true},
	}

	for _, tc := range cases {
		got := Blocks(tc.embargoType, tc.action)
		assert.Equalf(t, tc.blocked, got, "%s on %s", tc.action, tc.embargoType)
	}
}
