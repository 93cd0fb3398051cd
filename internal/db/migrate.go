package db

import (
	"fmt"
	"log"

	"nutrihub/internal/model"

	"gorm.io/gorm"
)

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	log.Println("Starting database migration...")

	// List of all models to migrate
	models := []interface{}{
		&model.User{},
		&model.Conversation{},
		&model.ConversationParticipant{},
		&model.Message{},
		&model.Session{},
		&model.MealPlan{},
		&model.MealLog{},
		&model.Notification{},
		&model.Preference{},
		&model.UploadedFile{},
	}

	// Run AutoMigrate for all models
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("✓ Database migration completed successfully (%d tables)", len(models))
	return nil
}
