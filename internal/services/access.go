package services

import (
	"context"
	"errors"
	"time"

	"ahgapi/internal/events"
	"ahgapi/internal/models"
	"ahgapi/internal/utils/logger"

	"gorm.io/gorm"
)

// Decision is the outcome of one access evaluation. The rights fields
// are informational badges and never gate access.
type Decision struct {
	Granted         bool       `json:"granted"`
	Reason          string     `json:"reason,omitempty"`
	Classification  string     `json:"classification,omitempty"`
	Watermark       bool       `json:"watermark"`
	AllowDownload   bool       `json:"allowDownload"`
	AllowPrint      bool       `json:"allowPrint"`
	AllowCopy       bool       `json:"allowCopy"`
	EmbargoedUntil  *time.Time `json:"embargoedUntil,omitempty"`
	RightsStatement string     `json:"rightsStatement,omitempty"`
	CCLicense       string     `json:"ccLicense,omitempty"`
	RightsBadge     string     `json:"rightsBadge,omitempty"`
}

// AccessService evaluates whether a user may perform an action on an
// object, and manages access requests and explicit grants.
//
// Evaluation order: embargo, then clearance against the effective
// classification, then explicit grants and approved requests as
// overrides, then the classification's per-action flags. Lookup errors
// fail closed.
type AccessService struct {
	db        *gorm.DB
	security  *SecurityService
	clearance *ClearanceService
	embargo   *EmbargoService
	rights    *RightsService
	logger    *logger.Logger
}

func NewAccessService(db *gorm.DB, security *SecurityService, clearance *ClearanceService, embargo *EmbargoService, rights *RightsService) *AccessService {
	return &AccessService{
		db:        db,
		security:  security,
		clearance: clearance,
		embargo:   embargo,
		rights:    rights,
		logger:    logger.New("ACCESS"),
	}
}

// Evaluate decides whether userID may perform action on objectID.
// userID may be empty for anonymous readers.
func (s *AccessService) Evaluate(ctx context.Context, userID, objectID, action string) (*Decision, error) {
	statement, license, badge := s.rightsBadges(ctx, objectID)
	denied := func(reason string) *Decision {
		return &Decision{Granted: false, Reason: reason, RightsStatement: statement, CCLicense: license, RightsBadge: badge}
	}

	// Embargo comes first; clearance never overrides an embargo.
	embargo, err := s.embargo.ActiveEmbargo(ctx, objectID)
	if err != nil {
		return denied("evaluation error"), err
	}
	if embargo != nil && Blocks(embargo.EmbargoType, action) {
		exempt, err := s.embargo.HasException(ctx, embargo.ID, userID)
		if err != nil {
			return denied("evaluation error"), err
		}
		if !exempt {
			d := denied("embargoed")
			d.EmbargoedUntil = embargo.EndDate
			return d, nil
		}
	}

	class, err := s.security.EffectiveClassification(ctx, objectID)
	if err != nil {
		return denied("evaluation error"), err
	}

	// Unclassified objects are open; only the embargo gate applies.
	if class == nil || class.Level <= 1 {
		d := &Decision{
			Granted: true, AllowDownload: true, AllowPrint: true, AllowCopy: true,
			RightsStatement: statement, CCLicense: license, RightsBadge: badge,
		}
		if class != nil {
			d.Classification = class.Code
			d.Watermark = class.WatermarkRequired
			d.AllowDownload = class.DownloadAllowed
			d.AllowPrint = class.PrintAllowed
			d.AllowCopy = class.CopyAllowed
		}
		return d, nil
	}

	if userID == "" {
		return denied("authentication required"), nil
	}

	level, err := s.clearance.ClearanceLevel(ctx, userID)
	if err != nil {
		return denied("evaluation error"), err
	}

	if level < class.Level {
		// Clearance is insufficient; explicit grants and approved
		// access requests can still open the door.
		override, err := s.hasOverride(ctx, userID, objectID, action)
		if err != nil {
			return denied("evaluation error"), err
		}
		if !override {
			return denied("insufficient clearance"), nil
		}
	}

	d := &Decision{
		Granted:         true,
		Classification:  class.Code,
		Watermark:       class.WatermarkRequired,
		AllowDownload:   class.DownloadAllowed,
		AllowPrint:      class.PrintAllowed,
		AllowCopy:       class.CopyAllowed,
		RightsStatement: statement,
		CCLicense:       license,
		RightsBadge:     badge,
	}

	switch action {
	case "download":
		if !d.AllowDownload {
			return denied("download not permitted at this classification"), nil
		}
	case "print":
		if !d.AllowPrint {
			return denied("printing not permitted at this classification"), nil
		}
	case "copy":
		if !d.AllowCopy {
			return denied("copying not permitted at this classification"), nil
		}
	}

	return d, nil
}

// rightsBadges collects the display badges from the object's rights
// records. Rights metadata never gates access, so a failed lookup is
// logged and yields empty badges rather than a denial.
func (s *AccessService) rightsBadges(ctx context.Context, objectID string) (statement, license, badge string) {
	records, err := s.rights.RecordsForObject(ctx, objectID)
	if err != nil {
		s.logger.Warn("Rights lookup failed for %s: %v", objectID, err)
		return "", "", ""
	}

	now := time.Now()
	for _, record := range records {
		if record.StartDate != nil && record.StartDate.After(now) {
			continue
		}
		if record.EndDate != nil && record.EndDate.Before(now) {
			continue
		}
		if statement == "" {
			statement = record.RightsStatement
		}
		if license == "" {
			license = record.CCLicense
		}
	}
	if b, err := s.rights.Badge(ctx, objectID); err == nil {
		badge = b
	}
	return statement, license, badge
}

// hasOverride checks explicit grants (including ancestor grants with
// descendant scope) and approved access requests still in their window.
func (s *AccessService) hasOverride(ctx context.Context, userID, objectID, action string) (bool, error) {
	now := time.Now()

	neededLevel := models.GrantView
	switch action {
	case "download", "print", "copy":
		neededLevel = models.GrantDownload
	case "edit":
		neededLevel = models.GrantEdit
	}

	var grants []models.AccessGrant
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ? AND (expires_at IS NULL OR expires_at >= ?)", userID, false, now).
		Find(&grants).Error; err != nil {
		return false, err
	}

	for _, grant := range grants {
		if !grantCovers(grant.Level, neededLevel) {
			continue
		}
		if grant.ObjectID == objectID {
			return true, nil
		}
		if grant.IncludeDescendants {
			isDesc, err := s.isDescendant(ctx, objectID, grant.ObjectID)
			if err != nil {
				return false, err
			}
			if isDesc {
				return true, nil
			}
		}
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.AccessRequest{}).
		Where("user_id = ? AND object_id = ? AND status = ? AND is_deleted = ?", userID, objectID, models.RequestApproved, false).
		Where("access_granted_until IS NOT NULL AND access_granted_until >= ?", now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func grantCovers(held, needed models.GrantLevel) bool {
	rank := map[models.GrantLevel]int{
		models.GrantView:     1,
		models.GrantDownload: 2,
		models.GrantEdit:     3,
	}
	return rank[held] >= rank[needed]
}

func (s *AccessService) isDescendant(ctx context.Context, objectID, ancestorID string) (bool, error) {
	current := objectID
	for depth := 0; current != "" && depth < 50; depth++ {
		obj, err := models.GetObjectByID(s.db.WithContext(ctx), current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		if obj.ParentID == ancestorID {
			return true, nil
		}
		current = obj.ParentID
	}
	return false, nil
}

// CreateGrant records an explicit access grant.
func (s *AccessService) CreateGrant(ctx context.Context, grant *models.AccessGrant) error {
	if err := s.db.WithContext(ctx).Create(grant).Error; err != nil {
		return err
	}
	events.Emit("access_grant.created", grant)
	return nil
}

// RevokeGrant soft deletes a grant.
func (s *AccessService) RevokeGrant(ctx context.Context, grantID string) error {
	result := s.db.WithContext(ctx).Model(&models.AccessGrant{}).
		Where("id = ? AND is_deleted = ?", grantID, false).
		Update("deleted_at", time.Now()).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SubmitRequest files an access request for review.
func (s *AccessService) SubmitRequest(ctx context.Context, request *models.AccessRequest) error {
	request.Status = models.RequestPending
	if request.DurationHours <= 0 {
		request.DurationHours = 24
	}
	if err := s.db.WithContext(ctx).Create(request).Error; err != nil {
		return err
	}
	events.Emit("access_request.created", request)
	return nil
}

// ReviewRequest approves or denies a pending request. Approval opens an
// access window of the requested duration starting now.
func (s *AccessService) ReviewRequest(ctx context.Context, requestID, reviewedBy string, approve bool, notes string) (*models.AccessRequest, error) {
	var request models.AccessRequest
	if err := s.db.WithContext(ctx).
		Where("id = ? AND status = ? AND is_deleted = ?", requestID, models.RequestPending, false).
		First(&request).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"reviewed_by":  reviewedBy,
		"reviewed_at":  &now,
		"review_notes": notes,
	}
	if approve {
		until := now.Add(time.Duration(request.DurationHours) * time.Hour)
		updates["status"] = models.RequestApproved
		updates["access_granted_until"] = &until
		request.Status = models.RequestApproved
		request.AccessGrantedUntil = &until
	} else {
		updates["status"] = models.RequestDenied
		request.Status = models.RequestDenied
	}
	request.ReviewedBy = reviewedBy
	request.ReviewedAt = &now
	request.ReviewNotes = notes

	if err := s.db.WithContext(ctx).Model(&models.AccessRequest{}).
		Where("id = ?", requestID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	if approve {
		events.Emit("access_request.approved", &request)
	} else {
		events.Emit("access_request.denied", &request)
	}
	return &request, nil
}

// PendingRequests lists requests awaiting review, most urgent first and
// oldest first within the same priority.
func (s *AccessService) PendingRequests(ctx context.Context) ([]models.AccessRequest, error) {
	var requests []models.AccessRequest
	err := s.db.WithContext(ctx).
		Where("status = ? AND is_deleted = ?", models.RequestPending, false).
		Preload("User").
		Preload("Object").
		Order("CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END").
		Order("created_at asc").
		Find(&requests).Error
	return requests, err
}

// RequestsForUser lists a user's own access requests, newest first.
func (s *AccessService) RequestsForUser(ctx context.Context, userID string) ([]models.AccessRequest, error) {
	var requests []models.AccessRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Preload("Object").
		Order("created_at desc").
		Find(&requests).Error
	return requests, err
}
