package models

import "time"

// DonorAgreement links a donor to the material they transferred and the
// terms attached to the transfer.
type DonorAgreement struct {
	Base
	DonorName      string     `gorm:"not null" json:"donorName" validate:"required"`
	DonorEmail     string     `json:"donorEmail" validate:"omitempty,email"`
	DonorPhone     string     `json:"donorPhone"`
	ObjectID       string     `gorm:"type:uuid;default:NULL;index" json:"objectId,omitempty"`
	AccessionRef   string     `json:"accessionRef"`
	AgreementType  string     `gorm:"not null;default:'donation'" json:"agreementType" validate:"omitempty,oneof=donation bequest loan purchase transfer"`
	SignedDate     *time.Time `json:"signedDate"`
	Terms          string     `gorm:"type:text" json:"terms"`
	Restrictions   string     `gorm:"type:text" json:"restrictions"`
	CopyrightHeld  bool       `json:"copyrightHeld"`
	DocumentPath   string     `json:"-"`
	Status         string     `gorm:"default:'active'" json:"status" validate:"omitempty,oneof=draft active expired terminated"`
	ReviewDate     *time.Time `json:"reviewDate"`
	CreatedBy      string     `gorm:"type:uuid;default:NULL" json:"createdBy,omitempty"`
}
