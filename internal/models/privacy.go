package models

import (
	"time"

	"gorm.io/datatypes"
)

type DsarStatus string

const (
	DsarPending    DsarStatus = "pending"
	DsarInProgress DsarStatus = "in_progress"
	DsarCompleted  DsarStatus = "completed"
	DsarRejected   DsarStatus = "rejected"
)

// Dsar is one data-subject access request in the privacy register.
type Dsar struct {
	Base
	Reference      string     `gorm:"uniqueIndex;not null" json:"reference"`
	RequesterName  string     `gorm:"not null" json:"requesterName" validate:"required"`
	RequesterEmail string     `gorm:"not null" json:"requesterEmail" validate:"required,email"`
	IDType         string     `json:"idType" validate:"omitempty,oneof=national_id passport drivers_license other"`
	Jurisdiction   string     `gorm:"not null;default:'popia'" json:"jurisdiction" validate:"omitempty,jurisdiction"`
	RequestType    string     `gorm:"not null" json:"requestType" validate:"required,oneof=access correction deletion objection portability"`
	Details        string     `gorm:"type:text" json:"details"`
	Status         DsarStatus `gorm:"not null;default:'pending';index" json:"status" validate:"omitempty,dsar_status"`
	ReceivedDate   time.Time  `json:"receivedDate"`
	DueDate        time.Time  `gorm:"index" json:"dueDate"`
	Outcome        string     `json:"outcome"`
	CompletedDate  *time.Time `json:"completedDate"`
	AssignedTo     string     `gorm:"type:uuid;default:NULL" json:"assignedTo,omitempty"`

	Logs []DsarLog `gorm:"foreignKey:DsarID;constraint:OnDelete:CASCADE" json:"logs,omitempty"`
}

// DsarLog is an activity entry on a DSAR.
type DsarLog struct {
	Base
	DsarID  string `gorm:"type:uuid;not null;index" json:"dsarId"`
	Action  string `gorm:"not null" json:"action"`
	Details string `gorm:"type:text" json:"details"`
	UserID  string `gorm:"type:uuid;default:NULL" json:"userId,omitempty"`
}

type BreachStatus string

const (
	BreachOpen   BreachStatus = "open"
	BreachClosed BreachStatus = "closed"
)

// Breach is one entry in the privacy breach register.
type Breach struct {
	Base
	Reference         string       `gorm:"uniqueIndex;not null" json:"reference"`
	BreachType        string       `gorm:"not null" json:"breachType" validate:"required,oneof=unauthorised_access data_loss disclosure ransomware phishing other"`
	Severity          string       `gorm:"not null;default:'medium'" json:"severity" validate:"omitempty,oneof=low medium high critical"`
	AffectedSubjects  int          `json:"affectedSubjects"`
	Description       string       `gorm:"type:text" json:"description"`
	Status            BreachStatus `gorm:"not null;default:'open';index" json:"status" validate:"omitempty,breach_status"`
	RegulatorNotified bool         `json:"regulatorNotified"`
	RegulatorDate     *time.Time   `json:"regulatorDate"`
	DiscoveredDate    *time.Time   `json:"discoveredDate"`
	ContainedDate     *time.Time   `json:"containedDate"`
	Jurisdiction      string       `gorm:"default:'popia'" json:"jurisdiction" validate:"omitempty,jurisdiction"`
}

// RopaEntry is a record-of-processing-activities row.
type RopaEntry struct {
	Base
	ActivityName     string         `gorm:"not null" json:"activityName" validate:"required"`
	Purpose          string         `gorm:"type:text;not null" json:"purpose" validate:"required"`
	LawfulBasis      string         `gorm:"not null" json:"lawfulBasis" validate:"required"`
	DataCategories   datatypes.JSON `gorm:"type:jsonb" json:"dataCategories,omitempty"`
	Recipients       string         `json:"recipients"`
	RetentionPeriod  string         `json:"retentionPeriod"`
	SecurityMeasures string         `gorm:"type:text" json:"securityMeasures"`
	Status           string         `gorm:"default:'active'" json:"status" validate:"omitempty,oneof=active archived draft"`
	Jurisdiction     string         `gorm:"default:'popia'" json:"jurisdiction" validate:"omitempty,jurisdiction"`
}

// PrivacyTemplate is an uploaded .docx template used for privacy paperwork.
type PrivacyTemplate struct {
	Base
	Name        string `gorm:"not null" json:"name" validate:"required"`
	Path        string `gorm:"not null" json:"path"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	UploadedBy  string `gorm:"type:uuid;default:NULL" json:"uploadedBy,omitempty"`
}
