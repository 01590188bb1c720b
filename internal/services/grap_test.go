package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"ahgapi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplianceScoring(t *testing.T) {
	svc := NewGrapService(nil)

	// Nothing filled in scores zero.
	empty := &models.HeritageAsset{}
	result := svc.Compliance(empty)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, "low", result.Status)
	assert.Len(t, result.MissingRequired, 5)
	assert.Len(t, result.MissingRecommended, 6)

	// All required fields alone land at 70.
	amount := 125000.0
	date := time.Now().AddDate(-1, 0, 0)
	required := &models.HeritageAsset{
		AssetClass:        models.AssetClassCollections,
		RecognitionStatus: "recognised",
		MeasurementBasis:  models.BasisRevaluation,
		AcquisitionMethod: "donation",
		Custodian:         "National Archives",
	}
	result = svc.Compliance(required)
	assert.Equal(t, 70, result.Score)
	assert.Equal(t, "needs_work", result.Status)
	assert.Empty(t, result.MissingRequired)

	// A fully populated entry is compliant.
	full := *required
	full.CarryingAmount = &amount
	full.AcquisitionDate = &date
	full.Condition = "good"
	full.SignificanceStatement = "Founding correspondence of the society"
	full.LastValuationDate = &date
	full.InsuranceValue = &amount
	result = svc.Compliance(&full)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, "compliant", result.Status)
	assert.Empty(t, result.MissingRecommended)
	assert.False(t, result.ValuationOverdue)
}

func TestComplianceValuationOverdue(t *testing.T) {
	svc := NewGrapService(nil)

	old := time.Now().AddDate(-5, 0, 0)
	asset := &models.HeritageAsset{LastValuationDate: &old}
	assert.True(t, svc.Compliance(asset).ValuationOverdue)

	// A longer revaluation cycle keeps the same date current.
	asset.ValuationFrequencyYears = 10
	assert.False(t, svc.Compliance(asset).ValuationOverdue)

	// Never valued means nothing is overdue yet.
	asset.LastValuationDate = nil
	assert.False(t, svc.Compliance(asset).ValuationOverdue)
}

func TestComplianceStatuses(t *testing.T) {
	svc := NewGrapService(nil)
	amount := 50000.0

	// No cover and no valuation history.
	bare := &models.HeritageAsset{}
	result := svc.Compliance(bare)
	assert.Equal(t, "never_valued", result.ValuationStatus)
	assert.Equal(t, "uninsured", result.InsuranceStatus)

	// Cover lapsed last month, valuation due within the quarter.
	lapsed := time.Now().AddDate(0, -1, 0)
	nearlyDue := time.Now().AddDate(-3, 0, 30)
	asset := &models.HeritageAsset{
		InsuranceValue:    &amount,
		InsuranceExpiry:   &lapsed,
		LastValuationDate: &nearlyDue,
	}
	result = svc.Compliance(asset)
	assert.Equal(t, "expired", result.InsuranceStatus)
	assert.Equal(t, "due_soon", result.ValuationStatus)
	assert.False(t, result.ValuationOverdue)

	// Cover lapsing within 60 days.
	soon := time.Now().AddDate(0, 0, 30)
	asset.InsuranceExpiry = &soon
	assert.Equal(t, "expiring_soon", svc.Compliance(asset).InsuranceStatus)

	// Healthy on both fronts.
	far := time.Now().AddDate(1, 0, 0)
	recent := time.Now().AddDate(0, -6, 0)
	asset.InsuranceExpiry = &far
	asset.LastValuationDate = &recent
	result = svc.Compliance(asset)
	assert.Equal(t, "insured", result.InsuranceStatus)
	assert.Equal(t, "current", result.ValuationStatus)

	// Overdue valuation.
	old := time.Now().AddDate(-5, 0, 0)
	asset.LastValuationDate = &old
	result = svc.Compliance(asset)
	assert.Equal(t, "overdue", result.ValuationStatus)
	assert.True(t, result.ValuationOverdue)
}

func TestInsuranceExpiring(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGrapService(tdb)
	lapsing := seedObject(t, tdb, "lapsing-cover", "")
	safe := seedObject(t, tdb, "safe-cover", "")
	uninsured := seedObject(t, tdb, "no-cover", "")

	amount := 20000.0
	soon := time.Now().AddDate(0, 0, 14)
	far := time.Now().AddDate(1, 0, 0)
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:        lapsing.ID,
		InsuranceValue:  &amount,
		InsuranceExpiry: &soon,
	}))
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:        safe.ID,
		InsuranceValue:  &amount,
		InsuranceExpiry: &far,
	}))
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID: uninsured.ID,
	}))

	expiring, err := svc.InsuranceExpiring(context.Background(), 60)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, lapsing.ID, expiring[0].ObjectID)
}

func TestValuationSchedule(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGrapService(tdb)
	never := seedObject(t, tdb, "never-valued", "")
	overdue := seedObject(t, tdb, "overdue-valuation", "")
	current := seedObject(t, tdb, "current-valuation", "")

	old := time.Now().AddDate(-5, 0, 0)
	recent := time.Now().AddDate(0, -6, 0)
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{ObjectID: never.ID}))
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:          overdue.ID,
		LastValuationDate: &old,
	}))
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:          current.ID,
		LastValuationDate: &recent,
	}))

	schedule, err := svc.ValuationSchedule(context.Background())
	require.NoError(t, err)
	require.Len(t, schedule, 3)

	assert.Equal(t, never.ID, schedule[0].Asset.ObjectID)
	assert.Equal(t, "never_valued", schedule[0].Status)
	assert.Nil(t, schedule[0].NextDue)

	assert.Equal(t, overdue.ID, schedule[1].Asset.ObjectID)
	assert.Equal(t, "overdue", schedule[1].Status)
	require.NotNil(t, schedule[1].NextDue)

	assert.Equal(t, current.ID, schedule[2].Asset.ObjectID)
	assert.Equal(t, "current", schedule[2].Status)
}

func TestRegisterCSV(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGrapService(tdb)
	obj := seedObject(t, tdb, "csv-asset", "")

	amount := 75000.0
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:          obj.ID,
		AssetClass:        models.AssetClassArt,
		RecognitionStatus: "recognised",
		CarryingAmount:    &amount,
		Custodian:         "City Gallery",
	}))

	data, err := svc.RegisterCSV(context.Background())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Object", rows[0][0])
	assert.Contains(t, rows[0], "Insurance Status")
	assert.Equal(t, "art", rows[1][1])
	assert.Equal(t, "75000.00", rows[1][4])
	assert.Equal(t, "City Gallery", rows[1][13])
}

func TestUpsertAsset(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGrapService(tdb)
	obj := seedObject(t, tdb, "register-entry", "")

	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:   obj.ID,
		AssetClass: models.AssetClassArt,
		Custodian:  "City Gallery",
	}))

	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:   obj.ID,
		AssetClass: models.AssetClassMonuments,
	}))

	asset, err := svc.AssetForObject(context.Background(), obj.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssetClassMonuments, asset.AssetClass)
	assert.Equal(t, "City Gallery", asset.Custodian)

	var count int64
	require.NoError(t, tdb.Model(&models.HeritageAsset{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordValuationRollsForward(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGrapService(tdb)
	obj := seedObject(t, tdb, "valued-object", "")

	initial := 80000.0
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:       obj.ID,
		CarryingAmount: &initial,
	}))
	asset, err := svc.AssetForObject(context.Background(), obj.ID)
	require.NoError(t, err)

	valuation := &models.ValuationRecord{
		AssetID: asset.ID,
		Amount:  95000.0,
		Valuer:  "Heritage Valuers CC",
		Method:  "market",
	}
	require.NoError(t, svc.RecordValuation(context.Background(), valuation))
	require.NotNil(t, valuation.PreviousAmount)
	assert.Equal(t, initial, *valuation.PreviousAmount)
	assert.False(t, valuation.ValuationDate.IsZero())

	updated, err := svc.AssetForObject(context.Background(), obj.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.CarryingAmount)
	assert.Equal(t, 95000.0, *updated.CarryingAmount)
	require.NotNil(t, updated.LastValuationDate)

	second := &models.ValuationRecord{AssetID: asset.ID, Amount: 110000.0}
	require.NoError(t, svc.RecordValuation(context.Background(), second))
	require.NotNil(t, second.PreviousAmount)
	assert.Equal(t, 95000.0, *second.PreviousAmount)

	history, err := svc.Valuations(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRegisterSummary(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGrapService(tdb)
	art := seedObject(t, tdb, "summary-art", "")
	collection := seedObject(t, tdb, "summary-collection", "")

	a1 := 10000.0
	a2 := 5000.0
	overdue := time.Now().AddDate(-5, 0, 0)
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:          art.ID,
		AssetClass:        models.AssetClassArt,
		RecognitionStatus: "recognised",
		CarryingAmount:    &a1,
		LastValuationDate: &overdue,
	}))
	require.NoError(t, svc.UpsertAsset(context.Background(), &models.HeritageAsset{
		ObjectID:          collection.ID,
		AssetClass:        models.AssetClassCollections,
		RecognitionStatus: "pending",
		CarryingAmount:    &a2,
	}))

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalAssets)
	assert.Equal(t, int64(1), summary.ByClass["art"])
	assert.Equal(t, int64(1), summary.ByClass["collections"])
	assert.Equal(t, int64(1), summary.ByStatus["recognised"])
	assert.Equal(t, 15000.0, summary.TotalCarrying)
	assert.Equal(t, int64(1), summary.ValuationOverdue)
}
