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

func newAccessService(tdb *gorm.DB) *AccessService {
	security := NewSecurityService(tdb)
	clearance := NewClearanceService(tdb)
	embargo := NewEmbargoService(tdb)
	rights := NewRightsService(tdb)
	return NewAccessService(tdb, security, clearance, embargo, rights)
}

func TestEvaluateUnclassifiedObjectIsOpen(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "open-object", "")

	decision, err := svc.Evaluate(context.Background(), "", obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.True(t, decision.AllowDownload)
	assert.True(t, decision.AllowPrint)
	assert.True(t, decision.AllowCopy)
	assert.Empty(t, decision.Classification)
}

func TestEvaluateEmbargoBlocksBeforeClearance(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "embargoed-object", "")
	user := seedUser(t, tdb, "reader@example.com", models.UserRoleResearcher)

	end := time.Now().AddDate(1, 0, 0)
	embargo := &models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().Add(-time.Hour),
		EndDate:     &end,
		Status:      models.EmbargoStatusActive,
	}
	require.NoError(t, tdb.Create(embargo).Error)

	decision, err := svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "embargoed", decision.Reason)
	require.NotNil(t, decision.EmbargoedUntil)
	assert.WithinDuration(t, end, *decision.EmbargoedUntil, time.Second)
}

func TestEvaluateEmbargoExceptionPassesThrough(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "exception-object", "")
	user := seedUser(t, tdb, "exempt@example.com", models.UserRoleResearcher)

	embargo := &models.Embargo{
		ObjectID:    obj.ID,
		EmbargoType: models.EmbargoFull,
		StartDate:   time.Now().Add(-time.Hour),
		Status:      models.EmbargoStatusActive,
	}
	require.NoError(t, tdb.Create(embargo).Error)
	require.NoError(t, tdb.Create(&models.EmbargoException{
		EmbargoID: embargo.ID,
		UserID:    user.ID,
	}).Error)

	decision, err := svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.True(t, decision.Granted)

	// The exception is personal; other users stay blocked.
	other := seedUser(t, tdb, "other@example.com", models.UserRoleResearcher)
	decision, err = svc.Evaluate(context.Background(), other.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "embargoed", decision.Reason)
}

func TestEvaluateAnonymousDeniedOnClassified(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "classified-object", "")
	confidential := seedClassification(t, tdb, "CONFIDENTIAL", 3)
	classifyObject(t, tdb, obj.ID, confidential.ID)

	decision, err := svc.Evaluate(context.Background(), "", obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "authentication required", decision.Reason)
}

func TestEvaluateClearanceLevels(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	clearance := NewClearanceService(tdb)
	obj := seedObject(t, tdb, "secret-object", "")
	secret := seedClassification(t, tdb, "SECRET", 4)
	classifyObject(t, tdb, obj.ID, secret.ID)

	// No clearance on file means level 1.
	user := seedUser(t, tdb, "junior@example.com", models.UserRoleResearcher)
	decision, err := svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "insufficient clearance", decision.Reason)

	_, err = clearance.GrantClearance(context.Background(), user.ID, secret.ID, uuid.New().String(), nil, "VET-1")
	require.NoError(t, err)

	decision, err = svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.Equal(t, "SECRET", decision.Classification)
}

func TestEvaluatePerActionFlags(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	clearance := NewClearanceService(tdb)
	obj := seedObject(t, tdb, "no-download-object", "")
	restricted := seedClassification(t, tdb, "RESTRICTED", 2)
	setFlags(t, tdb, restricted, false, false, true, true)
	classifyObject(t, tdb, obj.ID, restricted.ID)

	user := seedUser(t, tdb, "cleared@example.com", models.UserRoleResearcher)
	_, err := clearance.GrantClearance(context.Background(), user.ID, restricted.ID, uuid.New().String(), nil, "")
	require.NoError(t, err)

	decision, err := svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.True(t, decision.Watermark)
	assert.False(t, decision.AllowDownload)

	decision, err = svc.Evaluate(context.Background(), user.ID, obj.ID, "download")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "download not permitted at this classification", decision.Reason)

	decision, err = svc.Evaluate(context.Background(), user.ID, obj.ID, "print")
	require.NoError(t, err)
	assert.False(t, decision.Granted)

	decision, err = svc.Evaluate(context.Background(), user.ID, obj.ID, "copy")
	require.NoError(t, err)
	assert.True(t, decision.Granted)
}

func TestEvaluateGrantOverride(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "granted-object", "")
	secret := seedClassification(t, tdb, "SECRET", 4)
	classifyObject(t, tdb, obj.ID, secret.ID)

	user := seedUser(t, tdb, "visitor@example.com", models.UserRoleResearcher)
	require.NoError(t, svc.CreateGrant(context.Background(), &models.AccessGrant{
		UserID:    user.ID,
		ObjectID:  obj.ID,
		Level:     models.GrantView,
		GrantedBy: uuid.New().String(),
	}))

	decision, err := svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.True(t, decision.Granted)

	// A view grant does not cover downloads.
	decision, err = svc.Evaluate(context.Background(), user.ID, obj.ID, "download")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "insufficient clearance", decision.Reason)
}

func TestEvaluateExpiredGrantIgnored(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "expired-grant-object", "")
	secret := seedClassification(t, tdb, "SECRET", 4)
	classifyObject(t, tdb, obj.ID, secret.ID)

	user := seedUser(t, tdb, "late@example.com", models.UserRoleResearcher)
	expired := time.Now().Add(-time.Hour)
	require.NoError(t, svc.CreateGrant(context.Background(), &models.AccessGrant{
		UserID:    user.ID,
		ObjectID:  obj.ID,
		Level:     models.GrantEdit,
		GrantedBy: uuid.New().String(),
		ExpiresAt: &expired,
	}))

	decision, err := svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
}

func TestEvaluateDescendantGrant(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	fonds := seedObject(t, tdb, "fonds", "")
	series := seedObject(t, tdb, "series", fonds.ID)
	item := seedObject(t, tdb, "item", series.ID)
	secret := seedClassification(t, tdb, "SECRET", 4)
	classifyObject(t, tdb, item.ID, secret.ID)

	user := seedUser(t, tdb, "scoped@example.com", models.UserRoleResearcher)
	require.NoError(t, svc.CreateGrant(context.Background(), &models.AccessGrant{
		UserID:             user.ID,
		ObjectID:           fonds.ID,
		Level:              models.GrantDownload,
		IncludeDescendants: true,
		GrantedBy:          uuid.New().String(),
	}))

	decision, err := svc.Evaluate(context.Background(), user.ID, item.ID, "view_metadata")
	require.NoError(t, err)
	assert.True(t, decision.Granted)

	// Without descendant scope the same grant stops at the fonds itself.
	require.NoError(t, tdb.Model(&models.AccessGrant{}).
		Where("user_id = ?", user.ID).
		Update("include_descendants", false).Error)
	decision, err = svc.Evaluate(context.Background(), user.ID, item.ID, "view_metadata")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
}

func TestEvaluateApprovedRequestWindow(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "requested-object", "")
	secret := seedClassification(t, tdb, "SECRET", 4)
	classifyObject(t, tdb, obj.ID, secret.ID)

	user := seedUser(t, tdb, "petitioner@example.com", models.UserRoleResearcher)
	request := &models.AccessRequest{
		UserID:        user.ID,
		ObjectID:      obj.ID,
		RequestType:   "object_access",
		Justification: "thesis research",
		DurationHours: 48,
	}
	require.NoError(t, svc.SubmitRequest(context.Background(), request))

	// Pending requests confer nothing.
	decision, err := svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.False(t, decision.Granted)

	reviewed, err := svc.ReviewRequest(context.Background(), request.ID, uuid.New().String(), true, "ok")
	require.NoError(t, err)
	require.NotNil(t, reviewed.AccessGrantedUntil)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), *reviewed.AccessGrantedUntil, time.Minute)

	decision, err = svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.True(t, decision.Granted)

	// Once the window lapses the door closes again.
	past := time.Now().Add(-time.Minute)
	require.NoError(t, tdb.Model(&models.AccessRequest{}).
		Where("id = ?", request.ID).
		Update("access_granted_until", &past).Error)
	decision, err = svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
}

func TestReviewRequestDenied(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "denied-object", "")
	user := seedUser(t, tdb, "denied@example.com", models.UserRoleResearcher)

	request := &models.AccessRequest{
		UserID:        user.ID,
		ObjectID:      obj.ID,
		RequestType:   "object_access",
		Justification: "curiosity",
	}
	require.NoError(t, svc.SubmitRequest(context.Background(), request))
	assert.Equal(t, 24, request.DurationHours)

	reviewed, err := svc.ReviewRequest(context.Background(), request.ID, uuid.New().String(), false, "no")
	require.NoError(t, err)
	assert.Equal(t, models.RequestDenied, reviewed.Status)
	assert.Nil(t, reviewed.AccessGrantedUntil)

	// A decided request cannot be reviewed twice.
	_, err = svc.ReviewRequest(context.Background(), request.ID, uuid.New().String(), true, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPendingRequestsPriorityThenAge(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "queue-object", "")
	user := seedUser(t, tdb, "queue@example.com", models.UserRoleResearcher)

	submit := func(priority string) *models.AccessRequest {
		request := &models.AccessRequest{
			UserID:        user.ID,
			ObjectID:      obj.ID,
			RequestType:   "object_access",
			Justification: "review queue",
			Priority:      priority,
		}
		require.NoError(t, svc.SubmitRequest(context.Background(), request))
		return request
	}
	first := submit("normal")
	urgent := submit("urgent")
	second := submit("normal")
	low := submit("low")

	pending, err := svc.PendingRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 4)
	assert.Equal(t, urgent.ID, pending[0].ID)
	assert.Equal(t, first.ID, pending[1].ID)
	assert.Equal(t, second.ID, pending[2].ID)
	assert.Equal(t, low.ID, pending[3].ID)
}

func TestRequestsForUser(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "mine-object", "")
	mine := seedUser(t, tdb, "mine@example.com", models.UserRoleResearcher)
	other := seedUser(t, tdb, "theirs@example.com", models.UserRoleResearcher)

	for _, userID := range []string{mine.ID, mine.ID, other.ID} {
		require.NoError(t, svc.SubmitRequest(context.Background(), &models.AccessRequest{
			UserID:        userID,
			ObjectID:      obj.ID,
			RequestType:   "object_access",
			Justification: "own listing",
		}))
	}

	requests, err := svc.RequestsForUser(context.Background(), mine.ID)
	require.NoError(t, err)
	assert.Len(t, requests, 2)
	for _, request := range requests {
		assert.Equal(t, mine.ID, request.UserID)
	}
}

func TestEvaluateCarriesRightsBadges(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	rights := NewRightsService(tdb)
	obj := seedObject(t, tdb, "badged-object", "")

	record := seedRightsRecord(t, rights, obj.ID, nil, nil,
		models.RightsAct{Act: "replicate", Restriction: models.RestrictionDisallow},
	)
	require.NoError(t, tdb.Model(&models.RightsRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"rights_statement": "In copyright",
			"cc_license":       "CC BY-NC 4.0",
		}).Error)

	// The badges ride along but never gate: a disallow act still leaves
	// the unclassified object open.
	decision, err := svc.Evaluate(context.Background(), "", obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.Equal(t, "In copyright", decision.RightsStatement)
	assert.Equal(t, "CC BY-NC 4.0", decision.CCLicense)
	assert.Equal(t, "restricted", decision.RightsBadge)
}

func TestEvaluateDeniedStillReportsRights(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	rights := NewRightsService(tdb)
	obj := seedObject(t, tdb, "badged-classified", "")
	secret := seedClassification(t, tdb, "SECRET", 4)
	classifyObject(t, tdb, obj.ID, secret.ID)

	record := seedRightsRecord(t, rights, obj.ID, nil, nil)
	require.NoError(t, tdb.Model(&models.RightsRecord{}).
		Where("id = ?", record.ID).
		Update("rights_statement", "No known copyright").Error)

	user := seedUser(t, tdb, "uncleared@example.com", models.UserRoleResearcher)
	decision, err := svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "No known copyright", decision.RightsStatement)
	assert.Equal(t, "open", decision.RightsBadge)
}

func TestEvaluateFailsClosedOnLookupError(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "broken-db-object", "")
	user := seedUser(t, tdb, "unlucky@example.com", models.UserRoleResearcher)

	sqlDB, err := tdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	decision, evalErr := svc.Evaluate(context.Background(), user.ID, obj.ID, "view_metadata")
	require.Error(t, evalErr)
	require.NotNil(t, decision)
	assert.False(t, decision.Granted)
	assert.Equal(t, "evaluation error", decision.Reason)
}

func TestRevokeGrant(t *testing.T) {
	tdb := newTestDB(t)
	svc := newAccessService(tdb)
	obj := seedObject(t, tdb, "revoked-object", "")
	user := seedUser(t, tdb, "revoked@example.com", models.UserRoleResearcher)

	grant := &models.AccessGrant{
		UserID:    user.ID,
		ObjectID:  obj.ID,
		Level:     models.GrantView,
		GrantedBy: uuid.New().String(),
	}
	require.NoError(t, svc.CreateGrant(context.Background(), grant))
	require.NoError(t, svc.RevokeGrant(context.Background(), grant.ID))

	err := svc.RevokeGrant(context.Background(), grant.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
