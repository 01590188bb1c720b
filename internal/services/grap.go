package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"sort"
	"strconv"
	"time"

	"ahgapi/internal/models"
	"ahgapi/internal/utils/logger"

	"gorm.io/gorm"
)

// Required and recommended reporting fields for a heritage asset
// register entry. Required fields carry 70% of the compliance score,
// recommended fields the remaining 30%.
var (
	requiredAssetFields = []string{
		"asset_class", "recognition_status", "measurement_basis",
		"acquisition_method", "custodian",
	}
	recommendedAssetFields = []string{
		"carrying_amount", "acquisition_date", "condition",
		"significance_statement", "last_valuation_date", "insurance_value",
	}
)

// GrapService maintains the heritage asset register and its valuation
// history.
type GrapService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewGrapService(db *gorm.DB) *GrapService {
	return &GrapService{
		db:     db,
		logger: logger.New("GRAP"),
	}
}

// UpsertAsset creates or updates the register entry for an object.
func (s *GrapService) UpsertAsset(ctx context.Context, asset *models.HeritageAsset) error {
	var existing models.HeritageAsset
	err := s.db.WithContext(ctx).
		Where("object_id = ? AND is_deleted = ?", asset.ObjectID, false).
		First(&existing).Error
	if err == nil {
		asset.ID = existing.ID
		return s.db.WithContext(ctx).Model(&existing).Omit("id").Updates(asset).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(asset).Error
}

// AssetForObject fetches the register entry for an object.
func (s *GrapService) AssetForObject(ctx context.Context, objectID string) (*models.HeritageAsset, error) {
	var asset models.HeritageAsset
	if err := s.db.WithContext(ctx).
		Where("object_id = ? AND is_deleted = ?", objectID, false).
		First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// RecordValuation appends a valuation to the history and rolls the
// asset's carrying amount forward.
func (s *GrapService) RecordValuation(ctx context.Context, valuation *models.ValuationRecord) error {
	var asset models.HeritageAsset
	if err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", valuation.AssetID, false).
		First(&asset).Error; err != nil {
		return err
	}

	valuation.PreviousAmount = asset.CarryingAmount
	if valuation.ValuationDate.IsZero() {
		valuation.ValuationDate = time.Now()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(valuation).Error; err != nil {
			return err
		}
		amount := valuation.Amount
		now := valuation.ValuationDate
		return tx.Model(&models.HeritageAsset{}).
			Where("id = ?", asset.ID).
			Updates(map[string]interface{}{
				"carrying_amount":     &amount,
				"last_valuation_date": &now,
			}).Error
	})
}

// Valuations lists an asset's valuation history, newest first.
func (s *GrapService) Valuations(ctx context.Context, assetID string) ([]models.ValuationRecord, error) {
	var records []models.ValuationRecord
	err := s.db.WithContext(ctx).
		Where("asset_id = ? AND is_deleted = ?", assetID, false).
		Order("valuation_date desc").
		Find(&records).Error
	return records, err
}

// ComplianceResult scores one register entry and derives its valuation
// and insurance standing.
type ComplianceResult struct {
	Score              int      `json:"score"`
	Status             string   `json:"status"`
	MissingRequired    []string `json:"missingRequired,omitempty"`
	MissingRecommended []string `json:"missingRecommended,omitempty"`
	ValuationOverdue   bool     `json:"valuationOverdue"`
	ValuationStatus    string   `json:"valuationStatus"`
	InsuranceStatus    string   `json:"insuranceStatus"`
}

// Compliance scores an asset. Required fields contribute 70 points
// pro rata, recommended fields 30. Status buckets: compliant at 80 and
// above, needs_work from 50 to 79, low below 50.
func (s *GrapService) Compliance(asset *models.HeritageAsset) *ComplianceResult {
	result := &ComplianceResult{}

	filled := map[string]bool{
		"asset_class":            asset.AssetClass != "",
		"recognition_status":     asset.RecognitionStatus != "",
		"measurement_basis":      asset.MeasurementBasis != "",
		"acquisition_method":     asset.AcquisitionMethod != "",
		"custodian":              asset.Custodian != "",
		"carrying_amount":        asset.CarryingAmount != nil,
		"acquisition_date":       asset.AcquisitionDate != nil,
		"condition":              asset.Condition != "",
		"significance_statement": asset.SignificanceStatement != "",
		"last_valuation_date":    asset.LastValuationDate != nil,
		"insurance_value":        asset.InsuranceValue != nil,
	}

	requiredFilled := 0
	for _, field := range requiredAssetFields {
		if filled[field] {
			requiredFilled++
		} else {
			result.MissingRequired = append(result.MissingRequired, field)
		}
	}

	recommendedFilled := 0
	for _, field := range recommendedAssetFields {
		if filled[field] {
			recommendedFilled++
		} else {
			result.MissingRecommended = append(result.MissingRecommended, field)
		}
	}

	score := float64(requiredFilled)/float64(len(requiredAssetFields))*70 +
		float64(recommendedFilled)/float64(len(recommendedAssetFields))*30
	result.Score = int(score + 0.5)

	switch {
	case result.Score >= 80:
		result.Status = "compliant"
	case result.Score >= 50:
		result.Status = "needs_work"
	default:
		result.Status = "low"
	}

	now := time.Now()
	result.ValuationStatus = "never_valued"
	if due := nextValuationDue(asset); due != nil {
		switch {
		case due.Before(now):
			result.ValuationStatus = "overdue"
			result.ValuationOverdue = true
		case due.Before(now.AddDate(0, 0, 90)):
			result.ValuationStatus = "due_soon"
		default:
			result.ValuationStatus = "current"
		}
	}

	switch {
	case asset.InsuranceValue == nil && asset.InsurancePolicyNo == "":
		result.InsuranceStatus = "uninsured"
	case asset.InsuranceExpiry != nil && asset.InsuranceExpiry.Before(now):
		result.InsuranceStatus = "expired"
	case asset.InsuranceExpiry != nil && asset.InsuranceExpiry.Before(now.AddDate(0, 0, 60)):
		result.InsuranceStatus = "expiring_soon"
	default:
		result.InsuranceStatus = "insured"
	}

	return result
}

func nextValuationDue(asset *models.HeritageAsset) *time.Time {
	if asset.LastValuationDate == nil {
		return nil
	}
	frequency := asset.ValuationFrequencyYears
	if frequency <= 0 {
		frequency = 3
	}
	due := asset.LastValuationDate.AddDate(frequency, 0, 0)
	return &due
}

// InsuranceExpiring lists assets whose cover lapses within the window,
// lapsed cover included.
func (s *GrapService) InsuranceExpiring(ctx context.Context, days int) ([]models.HeritageAsset, error) {
	cutoff := time.Now().AddDate(0, 0, days)
	var assets []models.HeritageAsset
	err := s.db.WithContext(ctx).
		Preload("Object").
		Where("insurance_expiry IS NOT NULL AND insurance_expiry <= ? AND is_deleted = ?", cutoff, false).
		Order("insurance_expiry asc").
		Find(&assets).Error
	return assets, err
}

// ValuationScheduleEntry pairs an asset with its next valuation due date.
type ValuationScheduleEntry struct {
	Asset   models.HeritageAsset `json:"asset"`
	NextDue *time.Time           `json:"nextDue,omitempty"`
	Status  string               `json:"status"`
}

// ValuationSchedule lists the register in valuation-due order. Assets
// never valued sort first since those are the longest outstanding.
func (s *GrapService) ValuationSchedule(ctx context.Context) ([]ValuationScheduleEntry, error) {
	var assets []models.HeritageAsset
	if err := s.db.WithContext(ctx).
		Preload("Object").
		Where("is_deleted = ?", false).
		Find(&assets).Error; err != nil {
		return nil, err
	}

	entries := make([]ValuationScheduleEntry, 0, len(assets))
	for i := range assets {
		entries = append(entries, ValuationScheduleEntry{
			Asset:   assets[i],
			NextDue: nextValuationDue(&assets[i]),
			Status:  s.Compliance(&assets[i]).ValuationStatus,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].NextDue == nil {
			return entries[j].NextDue != nil
		}
		if entries[j].NextDue == nil {
			return false
		}
		return entries[i].NextDue.Before(*entries[j].NextDue)
	})
	return entries, nil
}

// RegisterCSV renders the full register as a spreadsheet for auditors.
func (s *GrapService) RegisterCSV(ctx context.Context) ([]byte, error) {
	var assets []models.HeritageAsset
	if err := s.db.WithContext(ctx).
		Preload("Object").
		Where("is_deleted = ?", false).
		Order("created_at asc").
		Find(&assets).Error; err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"Object", "Asset Class", "Recognition Status", "Measurement Basis",
		"Carrying Amount", "Currency", "Last Valuation", "Valuer",
		"Insurance Policy", "Insurance Value", "Insurance Expiry",
		"Acquisition Method", "Acquisition Date", "Custodian", "Condition",
		"Compliance Score", "Compliance Status", "Valuation Status", "Insurance Status",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i := range assets {
		asset := &assets[i]
		compliance := s.Compliance(asset)
		title := asset.ObjectID
		if asset.Object != nil {
			title = asset.Object.Title
		}
		row := []string{
			title,
			string(asset.AssetClass),
			asset.RecognitionStatus,
			string(asset.MeasurementBasis),
			csvAmount(asset.CarryingAmount),
			asset.Currency,
			csvDate(asset.LastValuationDate),
			asset.Valuer,
			asset.InsurancePolicyNo,
			csvAmount(asset.InsuranceValue),
			csvDate(asset.InsuranceExpiry),
			asset.AcquisitionMethod,
			csvDate(asset.AcquisitionDate),
			asset.Custodian,
			asset.Condition,
			strconv.Itoa(compliance.Score),
			compliance.Status,
			compliance.ValuationStatus,
			compliance.InsuranceStatus,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func csvAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func csvDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// RegisterSummary aggregates the register for reporting.
type RegisterSummary struct {
	TotalAssets      int64              `json:"totalAssets"`
	ByClass          map[string]int64   `json:"byClass"`
	ByStatus         map[string]int64   `json:"byStatus"`
	TotalCarrying    float64            `json:"totalCarryingAmount"`
	ValuationOverdue int64              `json:"valuationOverdue"`
}

func (s *GrapService) Summary(ctx context.Context) (*RegisterSummary, error) {
	summary := &RegisterSummary{
		ByClass:  make(map[string]int64),
		ByStatus: make(map[string]int64),
	}
	q := s.db.WithContext(ctx)

	if err := q.Model(&models.HeritageAsset{}).
		Where("is_deleted = ?", false).
		Count(&summary.TotalAssets).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var classes []bucket
	if err := q.Model(&models.HeritageAsset{}).
		Select("asset_class as key, count(*) as count").
		Where("is_deleted = ?", false).
		Group("asset_class").
		Scan(&classes).Error; err != nil {
		return nil, err
	}
	for _, row := range classes {
		summary.ByClass[row.Key] = row.Count
	}

	var statuses []bucket
	if err := q.Model(&models.HeritageAsset{}).
		Select("recognition_status as key, count(*) as count").
		Where("is_deleted = ?", false).
		Group("recognition_status").
		Scan(&statuses).Error; err != nil {
		return nil, err
	}
	for _, row := range statuses {
		summary.ByStatus[row.Key] = row.Count
	}

	var total struct{ Sum float64 }
	if err := q.Model(&models.HeritageAsset{}).
		Select("coalesce(sum(carrying_amount), 0) as sum").
		Where("is_deleted = ?", false).
		Scan(&total).Error; err != nil {
		return nil, err
	}
	summary.TotalCarrying = total.Sum

	var assets []models.HeritageAsset
	if err := q.Where("is_deleted = ?", false).Find(&assets).Error; err != nil {
		return nil, err
	}
	for i := range assets {
		if s.Compliance(&assets[i]).ValuationOverdue {
			summary.ValuationOverdue++
		}
	}

	return summary, nil
}
