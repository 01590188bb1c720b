package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"ahgapi/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReportsService(tdb *gorm.DB) *ReportsService {
	security := NewSecurityService(tdb)
	grap := NewGrapService(tdb)
	privacy := newPrivacyService(tdb)
	embargo := NewEmbargoService(tdb)
	clearance := NewClearanceService(tdb)
	return NewReportsService(tdb, security, grap, privacy, embargo, clearance)
}

func TestDashboard(t *testing.T) {
	tdb := newTestDB(t)
	svc := newReportsService(tdb)

	obj := seedObject(t, tdb, "dashboard-object", "")
	secret := seedClassification(t, tdb, "SECRET", 4)
	classifyObject(t, tdb, obj.ID, secret.ID)

	end := time.Now().AddDate(0, 0, 15)
	require.NoError(t, tdb.Create(&models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().AddDate(0, -1, 0),
		EndDate:     &end,
		Status:      models.EmbargoStatusActive,
	}).Error)

	dashboard, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.NotNil(t, dashboard.Security)
	require.NotNil(t, dashboard.Privacy)
	require.NotNil(t, dashboard.HeritageRegister)
	assert.Equal(t, int64(1), dashboard.Security.ClassifiedObjects)
	assert.Equal(t, int64(1), dashboard.ActiveEmbargoes)
	assert.Len(t, dashboard.EmbargoesExpiring, 1)
	assert.False(t, dashboard.GeneratedAt.IsZero())
}

func TestAccessLogReport(t *testing.T) {
	tdb := newTestDB(t)
	svc := newReportsService(tdb)
	security := NewSecurityService(tdb)
	obj := seedObject(t, tdb, "logged-object", "")
	user := seedUser(t, tdb, "auditor@example.com", models.UserRoleResearcher)

	security.LogAccess(context.Background(), user.ID, obj.ID, "view_metadata", true, "", "10.0.0.1", "ua", nil)
	security.LogAccess(context.Background(), user.ID, obj.ID, "download", false, "insufficient clearance", "10.0.0.1", "ua", nil)
	security.LogAccess(context.Background(), uuid.New().String(), obj.ID, "download", true, "", "10.0.0.2", "ua", nil)

	logs, total, err := svc.AccessLogReport(context.Background(), AccessLogQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, logs, 3)

	logs, total, err = svc.AccessLogReport(context.Background(), AccessLogQuery{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	denied := false
	logs, total, err = svc.AccessLogReport(context.Background(), AccessLogQuery{Granted: &denied})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "insufficient clearance", logs[0].DenialReason)

	logs, total, err = svc.AccessLogReport(context.Background(), AccessLogQuery{Action: "download", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 1)
}

func TestAccessLogCSV(t *testing.T) {
	tdb := newTestDB(t)
	svc := newReportsService(tdb)
	security := NewSecurityService(tdb)
	obj := seedObject(t, tdb, "exported-log-object", "")
	user := seedUser(t, tdb, "csv-auditor@example.com", models.UserRoleResearcher)

	security.LogAccess(context.Background(), user.ID, obj.ID, "view_metadata", true, "", "10.0.0.1", "ua", nil)
	security.LogAccess(context.Background(), user.ID, obj.ID, "download", false, "insufficient clearance", "10.0.0.1", "ua", nil)

	data, err := svc.AccessLogCSV(context.Background(), AccessLogQuery{UserID: user.ID})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Time", rows[0][0])
	assert.Equal(t, "view_metadata", rows[1][3])
	assert.Equal(t, "download", rows[2][3])
	assert.Equal(t, "false", rows[2][4])
	assert.Equal(t, "insufficient clearance", rows[2][5])

	// The action filter applies to the export too.
	data, err = svc.AccessLogCSV(context.Background(), AccessLogQuery{Action: "download"})
	require.NoError(t, err)
	rows, err = csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDonorAgreementsDueReview(t *testing.T) {
	tdb := newTestDB(t)
	svc := newReportsService(tdb)

	soon := time.Now().AddDate(0, 0, 20)
	far := time.Now().AddDate(1, 0, 0)
	require.NoError(t, tdb.Create(&models.DonorAgreement{
		DonorName:  "E. Mokoena",
		ReviewDate: &soon,
	}).Error)
	require.NoError(t, tdb.Create(&models.DonorAgreement{
		DonorName:  "Far Future Trust",
		ReviewDate: &far,
	}).Error)
	expired := &models.DonorAgreement{
		DonorName:  "Lapsed Estate",
		ReviewDate: &soon,
	}
	require.NoError(t, tdb.Create(expired).Error)
	require.NoError(t, tdb.Model(expired).Update("status", "terminated").Error)

	due, err := svc.DonorAgreementsDueReview(context.Background(), 60)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "E. Mokoena", due[0].DonorName)
}
