package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"ahgapi/internal/models"

	"gorm.io/gorm"
)

// ReportsService aggregates the registers into dashboard and report
// payloads.
type ReportsService struct {
	db        *gorm.DB
	security  *SecurityService
	grap      *GrapService
	privacy   *PrivacyService
	embargo   *EmbargoService
	clearance *ClearanceService
}

func NewReportsService(db *gorm.DB, security *SecurityService, grap *GrapService, privacy *PrivacyService, embargo *EmbargoService, clearance *ClearanceService) *ReportsService {
	return &ReportsService{
		db:        db,
		security:  security,
		grap:      grap,
		privacy:   privacy,
		embargo:   embargo,
		clearance: clearance,
	}
}

// Dashboard is the combined snapshot shown on the admin landing page.
type Dashboard struct {
	Security           *SecurityStatistics    `json:"security"`
	Privacy            *PrivacyStatistics     `json:"privacy"`
	HeritageRegister   *RegisterSummary       `json:"heritageRegister"`
	ActiveEmbargoes    int64                  `json:"activeEmbargoes"`
	EmbargoesExpiring  []models.Embargo       `json:"embargoesExpiring"`
	ClearancesExpiring []models.UserClearance `json:"clearancesExpiring"`
	GeneratedAt        time.Time              `json:"generatedAt"`
}

func (s *ReportsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	security, err := s.security.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	privacy, err := s.privacy.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	register, err := s.grap.Summary(ctx)
	if err != nil {
		return nil, err
	}

	var activeEmbargoes int64
	if err := s.db.WithContext(ctx).Model(&models.Embargo{}).
		Where("status = ? AND is_deleted = ?", models.EmbargoStatusActive, false).
		Count(&activeEmbargoes).Error; err != nil {
		return nil, err
	}

	expiringEmbargoes, err := s.embargo.ListExpiring(ctx, 30)
	if err != nil {
		return nil, err
	}
	expiringClearances, err := s.clearance.ListExpiring(ctx, 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Security:           security,
		Privacy:            privacy,
		HeritageRegister:   register,
		ActiveEmbargoes:    activeEmbargoes,
		EmbargoesExpiring:  expiringEmbargoes,
		ClearancesExpiring: expiringClearances,
		GeneratedAt:        time.Now(),
	}, nil
}

// AccessLogQuery filters the audit trail report.
type AccessLogQuery struct {
	UserID   string
	ObjectID string
	Action   string
	Granted  *bool
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

// AccessLogReport pages through the audit trail.
func (s *ReportsService) AccessLogReport(ctx context.Context, query AccessLogQuery) ([]models.AccessLog, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.AccessLog{})

	if query.UserID != "" {
		q = q.Where("user_id = ?", query.UserID)
	}
	if query.ObjectID != "" {
		q = q.Where("object_id = ?", query.ObjectID)
	}
	if query.Action != "" {
		q = q.Where("action = ?", query.Action)
	}
	if query.Granted != nil {
		q = q.Where("granted = ?", *query.Granted)
	}
	if query.From != nil {
		q = q.Where("created_at >= ?", *query.From)
	}
	if query.To != nil {
		q = q.Where("created_at <= ?", *query.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var logs []models.AccessLog
	err := q.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	return logs, total, err
}

// AccessLogCSV renders the filtered audit trail as a spreadsheet.
// Paging is ignored so auditors receive the complete trail.
func (s *ReportsService) AccessLogCSV(ctx context.Context, query AccessLogQuery) ([]byte, error) {
	q := s.db.WithContext(ctx).Model(&models.AccessLog{})
	if query.UserID != "" {
		q = q.Where("user_id = ?", query.UserID)
	}
	if query.ObjectID != "" {
		q = q.Where("object_id = ?", query.ObjectID)
	}
	if query.Action != "" {
		q = q.Where("action = ?", query.Action)
	}
	if query.Granted != nil {
		q = q.Where("granted = ?", *query.Granted)
	}
	if query.From != nil {
		q = q.Where("created_at >= ?", *query.From)
	}
	if query.To != nil {
		q = q.Where("created_at <= ?", *query.To)
	}

	var logs []models.AccessLog
	if err := q.Order("created_at asc").Find(&logs).Error; err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Time", "User", "Object", "Action", "Granted", "Denial Reason", "IP Address"}); err != nil {
		return nil, err
	}
	for _, entry := range logs {
		row := []string{
			entry.CreatedAt.Format(time.RFC3339),
			entry.UserID,
			entry.ObjectID,
			entry.Action,
			strconv.FormatBool(entry.Granted),
			entry.DenialReason,
			entry.IPAddress,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// DonorAgreementsDueReview lists agreements whose review date falls
// within the next N days.
func (s *ReportsService) DonorAgreementsDueReview(ctx context.Context, days int) ([]models.DonorAgreement, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, days)
	var agreements []models.DonorAgreement
	err := s.db.WithContext(ctx).
		Where("status = ? AND review_date IS NOT NULL AND review_date BETWEEN ? AND ? AND is_deleted = ?",
			"active", now, cutoff, false).
		Order("review_date asc").
		Find(&agreements).Error
	return agreements, err
}
