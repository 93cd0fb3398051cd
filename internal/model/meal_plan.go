package model

import "gorm.io/datatypes"

// MealPlan represents a meal plan assigned to a patient by a nutritionist
type MealPlan struct {
	BaseModel
	PatientID      int            `gorm:"not null;index" json:"patient_id"`
	NutritionistID int            `gorm:"not null;index" json:"nutritionist_id"`
	Title          string         `gorm:"type:varchar(128);not null" json:"title"`
	Targets        datatypes.JSON `gorm:"type:json" json:"targets"`
}

// TableName specifies the table name for MealPlan model
func (MealPlan) TableName() string {
	return "meal_plans"
}
