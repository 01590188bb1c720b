package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConditionPhoto is a photograph attached to a physical condition check.
// StoragePath is the S3 key; SignedURL is populated after load and never
// persisted.
type ConditionPhoto struct {
	Base
	ObjectID    string         `gorm:"type:uuid;not null;index" json:"objectId" validate:"required,uuid"`
	CheckID     string         `gorm:"type:uuid;default:NULL;index" json:"checkId,omitempty"`
	StoragePath string         `gorm:"not null" json:"-"`
	FileName    string         `gorm:"not null" json:"fileName"`
	ContentType string         `gorm:"not null" json:"contentType"`
	Size        int64          `json:"size"`
	Caption     string         `json:"caption"`
	Annotations datatypes.JSON `gorm:"type:jsonb" json:"annotations,omitempty"`
	UploadedBy  string         `gorm:"type:uuid;default:NULL" json:"uploadedBy,omitempty"`
	SignedURL   string         `gorm:"-" json:"url,omitempty"`
}

// AfterFind resolves the storage path to a presigned URL when a generator
// is registered.
func (p *ConditionPhoto) AfterFind(tx *gorm.DB) error {
	if p.StoragePath == "" {
		return nil
	}
	if gen := GetFileURLGenerator(); gen != nil {
		if url, err := gen.GenerateURL(p.StoragePath); err == nil {
			p.SignedURL = url
		}
	}
	return nil
}

// ConditionCheck records one assessment of an object's physical state.
type ConditionCheck struct {
	Base
	ObjectID        string  `gorm:"type:uuid;not null;index" json:"objectId" validate:"required,uuid"`
	CheckedBy       string  `gorm:"type:uuid;default:NULL" json:"checkedBy,omitempty"`
	Condition       string  `gorm:"not null" json:"condition" validate:"required,oneof=excellent good fair poor critical"`
	Notes           string  `gorm:"type:text" json:"notes"`
	Recommendations string  `gorm:"type:text" json:"recommendations"`
	NextCheckMonths int     `gorm:"default:12" json:"nextCheckMonths"`
	Humidity        *float64 `json:"humidity,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`

	Photos []ConditionPhoto `gorm:"foreignKey:CheckID;constraint:OnDelete:SET NULL" json:"photos,omitempty"`
}
