package model

// UserRole represents the role of a user in the practice
type UserRole string

const (
	UserRolePatient      UserRole = "patient"
	UserRoleNutritionist UserRole = "nutritionist"
	UserRoleAdmin        UserRole = "admin"
)

// UserStatus represents user status
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User represents a user in the system (patient, nutritionist or admin)
type User struct {
	BaseModel
	Email        string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"type:varchar(128);not null" json:"name"`
	AvatarURL    string     `gorm:"type:varchar(255)" json:"avatar_url"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         UserRole   `gorm:"type:enum('patient','nutritionist','admin');default:'patient'" json:"role"`
	Status       UserStatus `gorm:"type:enum('active','inactive');default:'active'" json:"status"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
