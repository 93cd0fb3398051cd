package model

// Message represents a chat message inside a conversation
type Message struct {
	BaseModel
	ExternalID     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"external_id"`
	ConversationID int    `gorm:"not null;index" json:"conversation_id"`
	SenderID       int    `gorm:"not null;index" json:"sender_id"`
	Content        string `gorm:"type:text;not null" json:"content"`
}

// TableName specifies the table name for Message model
func (Message) TableName() string {
	return "messages"
}
