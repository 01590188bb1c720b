package models

// ArchivalObject is the local shadow of a description in the host catalogue.
// The authoritative record lives in the archival application; this table keeps
// the fields the plugins need for slug resolution, browse facades, and the
// access evaluator without round-tripping to the host on every request.
type ArchivalObject struct {
	Base
	Slug               string     `gorm:"uniqueIndex;not null" json:"slug" validate:"required"`
	Title              string     `gorm:"not null" json:"title" validate:"required"`
	Identifier         string     `gorm:"index" json:"identifier"`
	ObjectType         ObjectType `gorm:"not null;default:'information_object'" json:"objectType" validate:"omitempty,object_type"`
	Sector             GlamSector `gorm:"index" json:"sector" validate:"omitempty,glam_sector"`
	LevelOfDescription string     `json:"levelOfDescription"`
	DateRange          string     `json:"dateRange"`
	RepositoryName     string     `json:"repositoryName"`
	ParentID           string     `gorm:"type:uuid;index;default:NULL" json:"parentId,omitempty" validate:"omitempty,uuid"`
	Parent             *ArchivalObject `json:"parent,omitempty"`
	HasDigitalObject   bool       `json:"hasDigitalObject"`
	ThumbnailPath      string     `json:"thumbnailPath,omitempty"`
}
