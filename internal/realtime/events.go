package realtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventName identifies a broadcast event type. The payload shape is
// fixed per name; consumers rely on it as a contract.
type EventName string

const (
	EventNotificationCreated EventName = "notification.created"
	EventPlanUpdated         EventName = "plan.updated"
	EventMessageSent         EventName = "message.sent"
	EventIngestaCreated      EventName = "ingesta.created"
	EventPreferencesUpdated  EventName = "preferences.updated"
	EventFileUploaded        EventName = "file.uploaded"
	EventUserOnline          EventName = "user.online"
	EventUserOffline         EventName = "user.offline"
	EventUserTyping          EventName = "user.typing"
)

// PresenceChannel is the shared channel every authenticated user may join.
const PresenceChannel = "presence"

// UserChannel returns the private per-user channel name
func UserChannel(userID int) string {
	return fmt.Sprintf("user.%d", userID)
}

// ChatChannel returns the private per-conversation channel name
func ChatChannel(conversationID int) string {
	return fmt.Sprintf("chat.%d", conversationID)
}

// SessionChannel returns the private per-session channel name
func SessionChannel(sessionID int) string {
	return fmt.Sprintf("session.%d", sessionID)
}

// PlanChannel returns the private per-plan channel name
func PlanChannel(planID int) string {
	return fmt.Sprintf("plan.%d", planID)
}

// ParseChannel splits a channel name into its namespace and numeric id.
// The shared presence channel has no id; ok is false for anything that
// does not match a known namespace.
func ParseChannel(name string) (namespace string, id int, ok bool) {
	if name == PresenceChannel {
		return PresenceChannel, 0, true
	}
	idx := strings.IndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return "", 0, false
	}
	namespace = name[:idx]
	switch namespace {
	case "user", "chat", "session", "plan":
	default:
		return "", 0, false
	}
	id, err := strconv.Atoi(name[idx+1:])
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return namespace, id, true
}

// UserRef identifies a user inside event payloads
type UserRef struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// NotificationData is the notification object carried by notification.created
type NotificationData struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationCreatedPayload is the payload of notification.created
type NotificationCreatedPayload struct {
	Notification NotificationData `json:"notification"`
}

// PlanUpdatedPayload is the payload of plan.updated
type PlanUpdatedPayload struct {
	PlanID    int            `json:"planId"`
	PatientID int            `json:"patientId"`
	Changes   map[string]any `json:"changes"`
	Timestamp time.Time      `json:"timestamp"`
}

// MessageSentPayload is the payload of message.sent
type MessageSentPayload struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	User      UserRef   `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// IngestaData describes a logged meal inside ingesta.created
type IngestaData struct {
	ID       int     `json:"id"`
	Date     string  `json:"date"`
	MealType string  `json:"mealType"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// IngestaCreatedPayload is the payload of ingesta.created
type IngestaCreatedPayload struct {
	Ingesta   IngestaData `json:"ingesta"`
	PatientID int         `json:"patientId"`
	Timestamp time.Time   `json:"timestamp"`
}

// PreferencesUpdatedPayload is the payload of preferences.updated
type PreferencesUpdatedPayload struct {
	Preferences map[string]any `json:"preferences"`
	Timestamp   time.Time      `json:"timestamp"`
}

// FileUploadedPayload is the payload of file.uploaded
type FileUploadedPayload struct {
	UserID    int            `json:"userId"`
	FileType  string         `json:"fileType"`
	FileURL   string         `json:"fileUrl"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

// UserOnlinePayload is the payload of user.online
type UserOnlinePayload struct {
	UserID    int    `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// UserOfflinePayload is the payload of user.offline
type UserOfflinePayload struct {
	UserID     int       `json:"userId"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	Timestamp  time.Time `json:"timestamp"`
}

// UserTypingPayload is the payload of user.typing
type UserTypingPayload struct {
	UserID   int    `json:"userId"`
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

// Event is a single immutable broadcast fact targeting one or more channels
type Event struct {
	Channels  []string
	Name      EventName
	Payload   any
	EmittedAt time.Time
}

// Constructors below normalize each domain fact into its canonical
// payload shape and resolve target channels, so consumers never see
// two shapes for the same event name.

// NewNotificationCreated targets the recipient's private channel
func NewNotificationCreated(userID int, n NotificationData) Event {
	return Event{
		Channels:  []string{UserChannel(userID)},
		Name:      EventNotificationCreated,
		Payload:   NotificationCreatedPayload{Notification: n},
		EmittedAt: time.Now(),
	}
}

// NewPlanUpdated targets the plan channel and the patient's private channel
func NewPlanUpdated(planID, patientID int, changes map[string]any) Event {
	now := time.Now()
	return Event{
		Channels: []string{PlanChannel(planID), UserChannel(patientID)},
		Name:     EventPlanUpdated,
		Payload: PlanUpdatedPayload{
			PlanID:    planID,
			PatientID: patientID,
			Changes:   changes,
			Timestamp: now,
		},
		EmittedAt: now,
	}
}

// NewMessageSent targets the conversation channel
func NewMessageSent(conversationID int, id, content string, sender UserRef, createdAt time.Time) Event {
	return Event{
		Channels: []string{ChatChannel(conversationID)},
		Name:     EventMessageSent,
		Payload: MessageSentPayload{
			ID:        id,
			Content:   content,
			User:      sender,
			CreatedAt: createdAt,
		},
		EmittedAt: time.Now(),
	}
}

// NewIngestaCreated targets the private channels of everyone who follows
// the patient's intake (the patient plus the assigned nutritionist when known)
func NewIngestaCreated(patientID int, followerIDs []int, ingesta IngestaData) Event {
	now := time.Now()
	channels := []string{UserChannel(patientID)}
	for _, id := range followerIDs {
		if id != patientID {
			channels = append(channels, UserChannel(id))
		}
	}
	return Event{
		Channels: channels,
		Name:     EventIngestaCreated,
		Payload: IngestaCreatedPayload{
			Ingesta:   ingesta,
			PatientID: patientID,
			Timestamp: now,
		},
		EmittedAt: now,
	}
}

// NewPreferencesUpdated targets the owner's private channel
func NewPreferencesUpdated(userID int, prefs map[string]any) Event {
	now := time.Now()
	return Event{
		Channels: []string{UserChannel(userID)},
		Name:     EventPreferencesUpdated,
		Payload: PreferencesUpdatedPayload{
			Preferences: prefs,
			Timestamp:   now,
		},
		EmittedAt: now,
	}
}

// NewFileUploaded targets the uploader's private channel
func NewFileUploaded(userID int, fileType, fileURL string, metadata map[string]any) Event {
	now := time.Now()
	return Event{
		Channels: []string{UserChannel(userID)},
		Name:     EventFileUploaded,
		Payload: FileUploadedPayload{
			UserID:    userID,
			FileType:  fileType,
			FileURL:   fileURL,
			Metadata:  metadata,
			Timestamp: now,
		},
		EmittedAt: now,
	}
}

// NewUserOnline targets the shared presence channel
func NewUserOnline(user UserRef) Event {
	return Event{
		Channels: []string{PresenceChannel},
		Name:     EventUserOnline,
		Payload: UserOnlinePayload{
			UserID:    user.ID,
			Name:      user.Name,
			AvatarURL: user.AvatarURL,
		},
		EmittedAt: time.Now(),
	}
}

// NewUserOffline targets the shared presence channel
func NewUserOffline(user UserRef, lastSeenAt time.Time) Event {
	now := time.Now()
	return Event{
		Channels: []string{PresenceChannel},
		Name:     EventUserOffline,
		Payload: UserOfflinePayload{
			UserID:     user.ID,
			Name:       user.Name,
			Status:     "offline",
			LastSeenAt: lastSeenAt,
			Timestamp:  now,
		},
		EmittedAt: now,
	}
}

// NewUserTyping targets the conversation channel
func NewUserTyping(conversationID int, user UserRef, isTyping bool) Event {
	return Event{
		Channels: []string{ChatChannel(conversationID)},
		Name:     EventUserTyping,
		Payload: UserTypingPayload{
			UserID:   user.ID,
			Name:     user.Name,
			IsTyping: isTyping,
		},
		EmittedAt: time.Now(),
	}
}
