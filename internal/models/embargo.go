package models

import "time"

type EmbargoType string

const (
	EmbargoFull         EmbargoType = "full"
	EmbargoMetadataOnly EmbargoType = "metadata_only"
	EmbargoDigitalOnly  EmbargoType = "digital_only"
	EmbargoPartial      EmbargoType = "partial"
)

type EmbargoStatus string

const (
	EmbargoStatusPending EmbargoStatus = "pending"
	EmbargoStatusActive  EmbargoStatus = "active"
	EmbargoStatusLifted  EmbargoStatus = "lifted"
	EmbargoStatusExpired EmbargoStatus = "expired"
)

type Embargo struct {
	Base
	ObjectID         string          `gorm:"type:uuid;not null;index" json:"objectId" validate:"required,uuid"`
	Object           *ArchivalObject `json:"object,omitempty"`
	EmbargoType      EmbargoType     `gorm:"not null;default:'full'" json:"embargoType" validate:"required,embargo_type"`
	Reason           string          `gorm:"not null;default:'other'" json:"reason"`
	ReasonNote       string          `gorm:"type:text" json:"reasonNote"`
	InternalNote     string          `gorm:"type:text" json:"internalNote"`
	StartDate        time.Time       `gorm:"not null" json:"startDate"`
	EndDate          *time.Time      `json:"endDate"` // nil = indefinite
	AutoRelease      bool            `gorm:"default:true" json:"autoRelease"`
	NotifyBeforeDays int             `gorm:"default:30" json:"notifyBeforeDays"`
	Status           EmbargoStatus   `gorm:"not null;default:'pending';index" json:"status" validate:"omitempty,embargo_status"`
	CreatedBy        string          `gorm:"type:uuid;default:NULL" json:"createdBy,omitempty"`
	LiftedBy         string          `gorm:"type:uuid;default:NULL" json:"liftedBy,omitempty"`
	LiftedAt         *time.Time      `json:"liftedAt,omitempty"`
	LiftReason       string          `json:"liftReason,omitempty"`
}

// EmbargoException grants a specific user a pass through an active embargo.
type EmbargoException struct {
	Base
	EmbargoID  string     `gorm:"type:uuid;not null;index" json:"embargoId" validate:"required,uuid"`
	UserID     string     `gorm:"type:uuid;not null;index" json:"userId" validate:"required,uuid"`
	ValidFrom  *time.Time `json:"validFrom"`
	ValidUntil *time.Time `json:"validUntil"`
	Note       string     `json:"note"`
}
