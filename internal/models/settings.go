package models

// Setting is one namespaced key-value pair. Theme colours, feature
// toggles and institution branding all live here.
type Setting struct {
	Base
	Namespace string `gorm:"not null;default:'general';uniqueIndex:idx_setting_ns_key" json:"namespace"`
	Key       string `gorm:"not null;uniqueIndex:idx_setting_ns_key" json:"key" validate:"required"`
	Value     string `gorm:"type:text" json:"value"`
	Editable  bool   `gorm:"default:true" json:"editable"`
}
