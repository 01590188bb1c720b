package models

import (
	"time"
)

type User struct {
	Base
	Email     string   `gorm:"uniqueIndex;not null" json:"email"`
	Password  string   `gorm:"not null" json:"-"`
	Username  string   `gorm:"uniqueIndex;not null" json:"username" validate:"required,min=2"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Role      UserRole `gorm:"not null;default:'RESEARCHER'" json:"role"`

	Clearances []UserClearance `gorm:"foreignKey:UserID" json:"clearances,omitempty"`
	Favorites  []Favorite      `gorm:"foreignKey:UserID" json:"favorites,omitempty"`
}

// AuthSession records an issued token pair so logins can be revoked server-side.
type AuthSession struct {
	Base
	UserID    string    `gorm:"type:uuid;not null;index" json:"userId"`
	User      *User     `json:"user,omitempty"`
	Token     string    `gorm:"not null" json:"-"`
	Refresh   string    `gorm:"not null" json:"-"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
}
