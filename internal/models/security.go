package models

import (
	"time"

	"gorm.io/datatypes"
)

// Classification is one of the seeded security levels (1-5).
type Classification struct {
	Base
	Code                 string `gorm:"uniqueIndex;not null" json:"code" validate:"required"`
	Name                 string `gorm:"not null" json:"name" validate:"required"`
	Level                int    `gorm:"not null;uniqueIndex" json:"level" validate:"required,min=1,max=5"`
	Color                string `json:"color"`
	Icon                 string `json:"icon"`
	HandlingInstructions string `gorm:"type:text" json:"handlingInstructions"`
	WatermarkRequired    bool   `json:"watermarkRequired"`
	DownloadAllowed      bool   `gorm:"default:true" json:"downloadAllowed"`
	PrintAllowed         bool   `gorm:"default:true" json:"printAllowed"`
	CopyAllowed          bool   `gorm:"default:true" json:"copyAllowed"`
	Active               bool   `gorm:"default:true" json:"active"`
}

// ObjectClassification assigns a classification level to an object.
type ObjectClassification struct {
	Base
	ObjectID             string          `gorm:"type:uuid;not null;uniqueIndex" json:"objectId" validate:"required,uuid"`
	Object               *ArchivalObject `json:"object,omitempty"`
	ClassificationID     string          `gorm:"type:uuid;not null" json:"classificationId" validate:"required,uuid"`
	Classification       *Classification `json:"classification,omitempty"`
	ClassifiedBy         string          `gorm:"type:uuid;not null" json:"classifiedBy"`
	ClassifiedDate       time.Time       `json:"classifiedDate"`
	ReviewDate           *time.Time      `json:"reviewDate"`
	DeclassifyDate       *time.Time      `json:"declassifyDate"`
	DeclassifyToID       string          `gorm:"type:uuid;default:NULL" json:"declassifyToId,omitempty"`
	Reason               string          `gorm:"type:text" json:"reason"`
	HandlingInstructions string          `gorm:"type:text" json:"handlingInstructions"`
	Caveats              string          `json:"caveats"`
	InheritToChildren    bool            `gorm:"default:true" json:"inheritToChildren"`
	AutoDeclassify       bool            `json:"autoDeclassify"`
	RetentionYears       int             `json:"retentionYears"`
}

type RenewalStatus string

const (
	RenewalNone     RenewalStatus = ""
	RenewalPending  RenewalStatus = "pending"
	RenewalApproved RenewalStatus = "approved"
	RenewalDenied   RenewalStatus = "denied"
)

// UserClearance is the clearance a user currently holds. Only one row per
// user is active; granting a new clearance deactivates the previous one.
type UserClearance struct {
	Base
	UserID           string          `gorm:"type:uuid;not null;index" json:"userId" validate:"required,uuid"`
	User             *User           `json:"user,omitempty"`
	ClassificationID string          `gorm:"type:uuid;not null" json:"classificationId" validate:"required,uuid"`
	Classification   *Classification `json:"classification,omitempty"`
	GrantedBy        string          `gorm:"type:uuid;not null" json:"grantedBy"`
	GrantedDate      time.Time       `json:"grantedDate"`
	ExpiryDate       *time.Time      `json:"expiryDate"`
	VettingReference string          `json:"vettingReference"`
	VettingDate      *time.Time      `json:"vettingDate"`
	VettingAuthority string          `json:"vettingAuthority"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Active           bool            `gorm:"default:true;index" json:"active"`
	RenewalStatus    RenewalStatus   `json:"renewalStatus"`
	RenewalNotes     string          `json:"renewalNotes"`
	RenewalRequested *time.Time      `json:"renewalRequested"`
}

// ClearanceHistory is an append-only trail of clearance changes.
type ClearanceHistory struct {
	Base
	UserID                   string `gorm:"type:uuid;not null;index" json:"userId"`
	PreviousClassificationID string `gorm:"type:uuid;default:NULL" json:"previousClassificationId,omitempty"`
	NewClassificationID      string `gorm:"type:uuid;default:NULL" json:"newClassificationId,omitempty"`
	Action                   string `gorm:"not null" json:"action"` // granted|upgraded|downgraded|revoked|renewed
	ChangedBy                string `gorm:"type:uuid;not null" json:"changedBy"`
	Reason                   string `json:"reason"`
}

type GrantLevel string

const (
	GrantView     GrantLevel = "view"
	GrantDownload GrantLevel = "download"
	GrantEdit     GrantLevel = "edit"
)

// AccessGrant gives one user access to one object regardless of clearance.
type AccessGrant struct {
	Base
	UserID             string          `gorm:"type:uuid;not null;index" json:"userId" validate:"required,uuid"`
	ObjectID           string          `gorm:"type:uuid;not null;index" json:"objectId" validate:"required,uuid"`
	Object             *ArchivalObject `json:"object,omitempty"`
	Level              GrantLevel      `gorm:"not null;default:'view'" json:"level" validate:"required,grant_level"`
	IncludeDescendants bool            `json:"includeDescendants"`
	GrantedBy          string          `gorm:"type:uuid;not null" json:"grantedBy"`
	ExpiresAt          *time.Time      `json:"expiresAt"`
	Note               string          `json:"note"`
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

// AccessRequest is a user's petition for access to a classified object.
type AccessRequest struct {
	Base
	UserID             string          `gorm:"type:uuid;not null;index" json:"userId"`
	User               *User           `json:"user,omitempty"`
	ObjectID           string          `gorm:"type:uuid;index;default:NULL" json:"objectId,omitempty" validate:"omitempty,uuid"`
	Object             *ArchivalObject `json:"object,omitempty"`
	ClassificationID   string          `gorm:"type:uuid;default:NULL" json:"classificationId,omitempty"`
	RequestType        string          `gorm:"not null" json:"requestType" validate:"required"`
	Justification      string          `gorm:"type:text;not null" json:"justification" validate:"required"`
	DurationHours      int             `gorm:"default:24" json:"durationHours"`
	Priority           string          `gorm:"default:'normal'" json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Status             RequestStatus   `gorm:"not null;default:'pending';index" json:"status"`
	ReviewedBy         string          `gorm:"type:uuid;default:NULL" json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time      `json:"reviewedAt"`
	ReviewNotes        string          `json:"reviewNotes"`
	AccessGrantedUntil *time.Time      `json:"accessGrantedUntil"`
}

// AccessLog is the append-only audit record for every access decision.
type AccessLog struct {
	Base
	UserID           string         `gorm:"type:uuid;index;default:NULL" json:"userId,omitempty"`
	ObjectID         string         `gorm:"type:uuid;index;default:NULL" json:"objectId,omitempty"`
	ClassificationID string         `gorm:"type:uuid;default:NULL" json:"classificationId,omitempty"`
	Action           string         `gorm:"not null;index" json:"action"`
	Granted          bool           `gorm:"index" json:"granted"`
	DenialReason     string         `json:"denialReason,omitempty"`
	Justification    string         `json:"justification,omitempty"`
	IPAddress        string         `json:"ipAddress"`
	UserAgent        string         `json:"userAgent"`
	Details          datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
}

// DeclassificationSchedule queues an object for automatic downgrade/removal.
type DeclassificationSchedule struct {
	Base
	ObjectID             string          `gorm:"type:uuid;not null;index" json:"objectId" validate:"required,uuid"`
	Object               *ArchivalObject `json:"object,omitempty"`
	ScheduledDate        time.Time       `gorm:"not null;index" json:"scheduledDate"`
	FromClassificationID string          `gorm:"type:uuid;not null" json:"fromClassificationId"`
	ToClassificationID   string          `gorm:"type:uuid;default:NULL" json:"toClassificationId,omitempty"` // empty = remove entirely
	TriggerType          string          `gorm:"default:'date'" json:"triggerType"`
	Processed            bool            `gorm:"default:false;index" json:"processed"`
	ProcessedAt          *time.Time      `json:"processedAt"`
	ProcessedBy          string          `gorm:"type:uuid;default:NULL" json:"processedBy,omitempty"`
}

// WatermarkLog ties a generated watermark code back to a download.
type WatermarkLog struct {
	Base
	UserID        string `gorm:"type:uuid;not null;index" json:"userId"`
	User          *User  `json:"user,omitempty"`
	ObjectID      string `gorm:"type:uuid;not null;index" json:"objectId"`
	Object        *ArchivalObject `json:"object,omitempty"`
	WatermarkType string `gorm:"default:'visible'" json:"watermarkType"`
	WatermarkText string `json:"watermarkText"`
	WatermarkCode string `gorm:"uniqueIndex;not null" json:"watermarkCode"`
	IPAddress     string `json:"ipAddress"`
}
