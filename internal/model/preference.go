package model

import "gorm.io/datatypes"

// Preference holds per-user UI preferences (theme, locale, ...)
type Preference struct {
	BaseModel
	UserID int            `gorm:"not null;uniqueIndex" json:"user_id"`
	Values datatypes.JSON `gorm:"type:json" json:"values"`
}

// TableName specifies the table name for Preference model
func (Preference) TableName() string {
	return "preferences"
}
