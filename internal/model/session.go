package model

import "time"

// SessionStatus represents the status of a consultation session
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session represents a consultation between a patient and a professional
type Session struct {
	BaseModel
	PatientID      int           `gorm:"not null;index" json:"patient_id"`
	ProfessionalID int           `gorm:"not null;index" json:"professional_id"`
	ScheduledAt    time.Time     `gorm:"not null" json:"scheduled_at"`
	Status         SessionStatus `gorm:"type:enum('scheduled','completed','cancelled');default:'scheduled'" json:"status"`
}

// TableName specifies the table name for Session model
func (Session) TableName() string {
	return "sessions"
}
