package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	DeletedAt time.Time `gorm:"index;default:NULL" json:"-" validate:"omitempty"`
	IsDeleted bool      `json:"isDeleted" default:"false"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

type UserRole string

const (
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleEditor     UserRole = "EDITOR"
	UserRoleResearcher UserRole = "RESEARCHER"
)

// ObjectType identifies which kind of archival entity a row refers to
type ObjectType string

const (
	ObjectTypeInformationObject ObjectType = "information_object"
	ObjectTypeActor             ObjectType = "actor"
	ObjectTypeRepository        ObjectType = "repository"
	ObjectTypeAccession         ObjectType = "accession"
)

// GlamSector buckets objects for cross-type browsing
type GlamSector string

const (
	SectorGallery GlamSector = "gallery"
	SectorLibrary GlamSector = "library"
	SectorArchive GlamSector = "archive"
	SectorMuseum  GlamSector = "museum"
)

// IsValidUserRole checks if a given role is valid
func IsValidUserRole(role UserRole) bool {
	switch role {
	case UserRoleAdmin, UserRoleEditor, UserRoleResearcher:
		return true
	default:
		return false
	}
}
