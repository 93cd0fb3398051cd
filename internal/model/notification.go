package model

import "gorm.io/datatypes"

// Notification represents a persisted notification for a user.
// The realtime stream is fire-and-forget; this table is the durable
// record behind the unread-count poll.
type Notification struct {
	BaseModel
	ExternalID string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"external_id"`
	UserID     int            `gorm:"not null;index:idx_user_read" json:"user_id"`
	Type       string         `gorm:"type:varchar(64);not null" json:"type"`
	Title      string         `gorm:"type:varchar(128);not null" json:"title"`
	Message    string         `gorm:"type:text" json:"message"`
	Link       string         `gorm:"type:varchar(255)" json:"link"`
	Read       bool           `gorm:"not null;default:false;index:idx_user_read" json:"read"`
	Metadata   datatypes.JSON `gorm:"type:json" json:"metadata"`
}

// TableName specifies the table name for Notification model
func (Notification) TableName() string {
	return "notifications"
}
