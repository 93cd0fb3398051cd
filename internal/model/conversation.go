package model

// Conversation represents a chat thread between two or more users
type Conversation struct {
	BaseModel
	Subject string `gorm:"type:varchar(128)" json:"subject"`
}

// TableName specifies the table name for Conversation model
func (Conversation) TableName() string {
	return "conversations"
}

// ConversationParticipant links a user to a conversation
type ConversationParticipant struct {
	BaseModel
	ConversationID int `gorm:"not null;uniqueIndex:idx_conversation_user" json:"conversation_id"`
	UserID         int `gorm:"not null;uniqueIndex:idx_conversation_user" json:"user_id"`
}

// TableName specifies the table name for ConversationParticipant model
func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}
