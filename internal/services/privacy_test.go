package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ahgapi/internal/config"
	"ahgapi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPrivacyService(tdb *gorm.DB) *PrivacyService {
	return NewPrivacyService(tdb, config.LoadTestConfig())
}

func newDsar(requestType string) *models.Dsar {
	return &models.Dsar{
		RequesterName:  "Thandi Nkosi",
		RequesterEmail: "thandi@example.com",
		RequestType:    requestType,
	}
}

func TestCreateDsarReferenceAndDueDate(t *testing.T) {
	tdb := newTestDB(t)
	svc := newPrivacyService(tdb)
	year := time.Now().Year()

	first := newDsar("access")
	require.NoError(t, svc.CreateDsar(context.Background(), first))
	assert.Equal(t, fmt.Sprintf("DSAR-%d-001", year), first.Reference)
	assert.Equal(t, models.DsarPending, first.Status)
	assert.WithinDuration(t, first.ReceivedDate.AddDate(0, 0, 30), first.DueDate, time.Second)

	second := newDsar("deletion")
	require.NoError(t, svc.CreateDsar(context.Background(), second))
	assert.Equal(t, fmt.Sprintf("DSAR-%d-002", year), second.Reference)

	// Creation is logged as received.
	var logs []models.DsarLog
	require.NoError(t, tdb.Where("dsar_id = ?", first.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "received", logs[0].Action)
}

func TestUpdateDsarStatus(t *testing.T) {
	tdb := newTestDB(t)
	svc := newPrivacyService(tdb)

	dsar := newDsar("access")
	require.NoError(t, svc.CreateDsar(context.Background(), dsar))

	require.NoError(t, svc.UpdateDsarStatus(context.Background(), dsar.ID, models.DsarInProgress, "", "officer-1"))
	require.NoError(t, svc.UpdateDsarStatus(context.Background(), dsar.ID, models.DsarCompleted, "records supplied", "officer-1"))

	var updated models.Dsar
	require.NoError(t, tdb.Preload("Logs").First(&updated, "id = ?", dsar.ID).Error)
	assert.Equal(t, models.DsarCompleted, updated.Status)
	assert.Equal(t, "records supplied", updated.Outcome)
	assert.NotNil(t, updated.CompletedDate)
	assert.Len(t, updated.Logs, 3)

	err := svc.UpdateDsarStatus(context.Background(), "no-such-id", models.DsarCompleted, "", "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOverdueDsars(t *testing.T) {
	tdb := newTestDB(t)
	svc := newPrivacyService(tdb)

	overdue := newDsar("access")
	overdue.ReceivedDate = time.Now().AddDate(0, 0, -60)
	overdue.DueDate = time.Now().AddDate(0, 0, -30)
	require.NoError(t, svc.CreateDsar(context.Background(), overdue))

	current := newDsar("correction")
	require.NoError(t, svc.CreateDsar(context.Background(), current))

	closed := newDsar("access")
	closed.ReceivedDate = time.Now().AddDate(0, 0, -60)
	closed.DueDate = time.Now().AddDate(0, 0, -30)
	require.NoError(t, svc.CreateDsar(context.Background(), closed))
	require.NoError(t, svc.UpdateDsarStatus(context.Background(), closed.ID, models.DsarCompleted, "done", ""))

	late, err := svc.OverdueDsars(context.Background())
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, overdue.ID, late[0].ID)
}

func TestCreateBreachReference(t *testing.T) {
	tdb := newTestDB(t)
	svc := newPrivacyService(tdb)
	year := time.Now().Year()

	breach := &models.Breach{
		BreachType:  "phishing",
		Description: "credential reuse on staff account",
	}
	require.NoError(t, svc.CreateBreach(context.Background(), breach))
	assert.Equal(t, fmt.Sprintf("BR-%d-001", year), breach.Reference)
	assert.Equal(t, models.BreachOpen, breach.Status)
	require.NotNil(t, breach.DiscoveredDate)
}

func TestBreachNotificationDeadline(t *testing.T) {
	tdb := newTestDB(t)
	svc := newPrivacyService(tdb)

	stale := &models.Breach{BreachType: "data_loss"}
	old := time.Now().Add(-100 * time.Hour)
	stale.DiscoveredDate = &old
	require.NoError(t, svc.CreateBreach(context.Background(), stale))

	fresh := &models.Breach{BreachType: "disclosure"}
	require.NoError(t, svc.CreateBreach(context.Background(), fresh))

	due, err := svc.BreachesNeedingNotification(context.Background())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, stale.ID, due[0].ID)

	// Notifying the regulator takes the breach off the list without
	// touching its status.
	require.NoError(t, svc.MarkRegulatorNotified(context.Background(), stale.ID, time.Now()))
	due, err = svc.BreachesNeedingNotification(context.Background())
	require.NoError(t, err)
	assert.Empty(t, due)

	var updated models.Breach
	require.NoError(t, tdb.First(&updated, "id = ?", stale.ID).Error)
	assert.Equal(t, models.BreachOpen, updated.Status)
	assert.True(t, updated.RegulatorNotified)
}

func TestCloseBreach(t *testing.T) {
	tdb := newTestDB(t)
	svc := newPrivacyService(tdb)

	breach := &models.Breach{BreachType: "ransomware"}
	require.NoError(t, svc.CreateBreach(context.Background(), breach))

	contained := time.Now()
	require.NoError(t, svc.CloseBreach(context.Background(), breach.ID, &contained))

	var updated models.Breach
	require.NoError(t, tdb.First(&updated, "id = ?", breach.ID).Error)
	assert.Equal(t, models.BreachClosed, updated.Status)
	require.NotNil(t, updated.ContainedDate)

	err := svc.CloseBreach(context.Background(), "no-such-id", nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPrivacyStatistics(t *testing.T) {
	tdb := newTestDB(t)
	svc := newPrivacyService(tdb)

	open := newDsar("access")
	require.NoError(t, svc.CreateDsar(context.Background(), open))
	done := newDsar("deletion")
	require.NoError(t, svc.CreateDsar(context.Background(), done))
	require.NoError(t, svc.UpdateDsarStatus(context.Background(), done.ID, models.DsarCompleted, "", ""))

	breach := &models.Breach{BreachType: "other"}
	require.NoError(t, svc.CreateBreach(context.Background(), breach))

	require.NoError(t, tdb.Create(&models.RopaEntry{
		ActivityName: "Reading room registration",
		Purpose:      "visitor management",
		LawfulBasis:  "legitimate_interest",
	}).Error)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.OpenDsars)
	assert.Equal(t, int64(1), stats.CompletedDsars)
	assert.Equal(t, int64(1), stats.OpenBreaches)
	assert.Equal(t, int64(1), stats.UnnotifiedBreaches)
	assert.Equal(t, int64(1), stats.RopaEntries)
}
