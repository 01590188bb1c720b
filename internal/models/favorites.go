package models

import (
	"time"

	"ahgapi/internal/events"

	"gorm.io/gorm"
)

// Favorite bookmarks either a catalogue object (ObjectID set, fields
// denormalised at save time) or a custom external item (CustomType + URL).
type Favorite struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index:idx_fav_user_object,unique" json:"userId" validate:"required,uuid"`
	User          *User           `json:"user,omitempty"`
	ObjectID      string          `gorm:"type:uuid;index:idx_fav_user_object,unique;default:NULL" json:"objectId,omitempty" validate:"omitempty,uuid"`
	Object        *ArchivalObject `json:"object,omitempty"`
	Title         string          `gorm:"not null" json:"title"`
	Slug          string          `json:"slug"`
	ReferenceCode string          `json:"referenceCode"`
	ObjectType    ObjectType      `gorm:"not null;default:'information_object';index:idx_fav_user_object,unique" json:"objectType"`
	CustomURL     string          `json:"customUrl,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes"`
	FolderID      string          `gorm:"type:uuid;index;default:NULL" json:"folderId,omitempty" validate:"omitempty,uuid"`
	Folder        *FavoriteFolder `json:"folder,omitempty"`
	LastViewedAt  *time.Time      `json:"lastViewedAt"`
}

func (f *Favorite) AfterCreate(tx *gorm.DB) error {
	events.Emit("favorite.created", f)
	return nil
}

// FavoriteFolder organises a user's favorites into a tree via ParentID.
type FavoriteFolder struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;index" json:"userId" validate:"required,uuid"`
	Name        string       `gorm:"not null" json:"name" validate:"required,min=1"`
	Description string       `json:"description"`
	ParentID    string       `gorm:"type:uuid;index;default:NULL" json:"parentId,omitempty" validate:"omitempty,uuid"`
	Parent   *FavoriteFolder `json:"parent,omitempty"`
	Children []FavoriteFolder `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Favorites []Favorite      `gorm:"foreignKey:FolderID" json:"favorites,omitempty"`
}

// FolderShare exposes a folder read-only behind an opaque token.
type FolderShare struct {
	Base
	FolderID  string          `gorm:"type:uuid;not null;index" json:"folderId" validate:"required,uuid"`
	Folder    *FavoriteFolder `json:"folder,omitempty"`
	Token     string          `gorm:"uniqueIndex;not null" json:"token"`
	CreatedBy string          `gorm:"type:uuid;not null" json:"createdBy"`
	ExpiresAt *time.Time      `json:"expiresAt"`
}
