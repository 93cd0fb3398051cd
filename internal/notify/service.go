package notify

import (
	"context"
	"encoding/json"

	"nutrihub/internal/model"
	"nutrihub/internal/realtime"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service persists notifications and pushes them to the recipient's
// private channel. Persistence is the source of truth; the broadcast
// is best-effort and a failed emit never rolls the row back, the
// unread-count poll covers the gap.
type Service struct {
	db      *gorm.DB
	emitter *realtime.Emitter
	logger  *logrus.Entry
}

// NewService creates a notification service
func NewService(db *gorm.DB, emitter *realtime.Emitter, logger *logrus.Logger) *Service {
	return &Service{
		db:      db,
		emitter: emitter,
		logger:  logger.WithField("component", "notify-service"),
	}
}

// CreateInput describes one notification to deliver
type CreateInput struct {
	UserID   int
	Type     string
	Title    string
	Message  string
	Link     string
	Metadata map[string]any
}

// Create stores the notification and emits notification.created to the
// recipient's private channel
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Notification, error) {
	n := &model.Notification{
		ExternalID: uuid.NewString(),
		UserID:     in.UserID,
		Type:       in.Type,
		Title:      in.Title,
		Message:    in.Message,
		Link:       in.Link,
	}
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, err
		}
		n.Metadata = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}

	s.emitter.TryEmit(ctx, realtime.NewNotificationCreated(n.UserID, realtime.NotificationData{
		ID:        n.ExternalID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      false,
		CreatedAt: n.CreatedAt,
	}))
	return n, nil
}

// UnreadCount returns the user's current unread notification count
func (s *Service) UnreadCount(ctx context.Context, userID int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&count).Error
	return count, err
}

// List returns the user's notifications, newest first
func (s *Service) List(ctx context.Context, userID, page, pageSize int) ([]model.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Notification
	err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// MarkRead marks one of the user's notifications as read by external id.
// Marking an already-read or unknown notification is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID int, externalID string) error {
	return s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND external_id = ?", userID, externalID).
		Update("read", true).Error
}

// MarkAllRead marks every unread notification of the user as read
func (s *Service) MarkAllRead(ctx context.Context, userID int) error {
	return s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Update("read", true).Error
}
