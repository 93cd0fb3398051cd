package channels

import (
	"context"
	"errors"
	"fmt"

	"nutrihub/internal/model"

	"gorm.io/gorm"
)

// GormDirectory backs all membership lookups with the database
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a database-backed membership directory
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// IsParticipant reports whether the user belongs to the conversation
func (d *GormDirectory) IsParticipant(ctx context.Context, conversationID, userID int) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query conversation participants: %w", err)
	}
	return count > 0, nil
}

// SessionParties returns the patient and professional of a session
func (d *GormDirectory) SessionParties(ctx context.Context, sessionID int) (int, int, error) {
	var session model.Session
	err := d.db.WithContext(ctx).First(&session, sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, fmt.Errorf("session %d not found", sessionID)
		}
		return 0, 0, fmt.Errorf("failed to query session %d: %w", sessionID, err)
	}
	return session.PatientID, session.ProfessionalID, nil
}

// PlanParties returns the patient and nutritionist of a meal plan
func (d *GormDirectory) PlanParties(ctx context.Context, planID int) (int, int, error) {
	var plan model.MealPlan
	err := d.db.WithContext(ctx).First(&plan, planID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, fmt.Errorf("plan %d not found", planID)
		}
		return 0, 0, fmt.Errorf("failed to query plan %d: %w", planID, err)
	}
	return plan.PatientID, plan.NutritionistID, nil
}
