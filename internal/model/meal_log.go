package model

import "time"

// MealType represents which meal of the day a log belongs to
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// MealLog represents a meal logged by a patient (an "ingesta")
type MealLog struct {
	BaseModel
	PatientID int       `gorm:"not null;index" json:"patient_id"`
	Date      time.Time `gorm:"type:date;not null" json:"date"`
	MealType  MealType  `gorm:"type:enum('breakfast','lunch','dinner','snack');not null" json:"meal_type"`
	Calories  float64   `gorm:"not null" json:"calories"`
	Protein   float64   `gorm:"not null" json:"protein"`
	Carbs     float64   `gorm:"not null" json:"carbs"`
	Fat       float64   `gorm:"not null" json:"fat"`
}

// TableName specifies the table name for MealLog model
func (MealLog) TableName() string {
	return "meal_logs"
}
