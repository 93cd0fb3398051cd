package model

import "gorm.io/datatypes"

// FileType represents the kind of file uploaded by a user
type FileType string

const (
	FileTypeProfilePhoto FileType = "profile_photo"
	FileTypeMealPhoto    FileType = "meal_photo"
)

// UploadedFile records a completed file upload. Storage itself is
// external; only the completion fact is tracked here.
type UploadedFile struct {
	BaseModel
	UserID   int            `gorm:"not null;index" json:"user_id"`
	FileType FileType       `gorm:"type:enum('profile_photo','meal_photo');not null" json:"file_type"`
	FileURL  string         `gorm:"type:varchar(255);not null" json:"file_url"`
	Metadata datatypes.JSON `gorm:"type:json" json:"metadata"`
}

// TableName specifies the table name for UploadedFile model
func (UploadedFile) TableName() string {
	return "uploaded_files"
}
