package models

import "time"

type RightsBasis string

const (
	BasisCopyright RightsBasis = "copyright"
	BasisLicense   RightsBasis = "license"
	BasisStatute   RightsBasis = "statute"
	BasisDonor     RightsBasis = "donor"
	BasisPolicy    RightsBasis = "policy"
)

type ActRestriction string

const (
	RestrictionAllow       ActRestriction = "allow"
	RestrictionDisallow    ActRestriction = "disallow"
	RestrictionConditional ActRestriction = "conditional"
)

// RightsRecord carries the rights/licensing metadata attached to an object.
// It is informational: display badges come from here, access gating does not.
type RightsRecord struct {
	Base
	ObjectID        string          `gorm:"type:uuid;not null;index" json:"objectId" validate:"required,uuid"`
	Object          *ArchivalObject `json:"object,omitempty"`
	Basis           RightsBasis     `gorm:"not null;default:'copyright'" json:"basis" validate:"required,rights_basis"`
	RightsStatement string          `json:"rightsStatement"`
	CCLicense       string          `json:"ccLicense"`
	HolderName      string          `json:"holderName"`
	StartDate       *time.Time      `json:"startDate"`
	EndDate         *time.Time      `json:"endDate"` // nil = open-ended
	RightsNote      string          `gorm:"type:text" json:"rightsNote"`
	RestrictionNote string          `gorm:"type:text" json:"restrictionNote"`

	Acts []RightsAct `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"acts,omitempty"`
}

// RightsAct is one granted/withheld act under a rights record.
type RightsAct struct {
	Base
	RecordID    string         `gorm:"type:uuid;not null;index" json:"recordId" validate:"required,uuid"`
	Act         string         `gorm:"not null" json:"act" validate:"required,oneof=display disseminate replicate migrate modify delete"`
	Restriction ActRestriction `gorm:"not null;default:'allow'" json:"restriction" validate:"required,act_restriction"`
	Note        string         `gorm:"type:text" json:"note"`
}
