package messages

import (
	"nutrihub/internal/channels"
	"nutrihub/internal/httpx"
	"nutrihub/internal/model"
	"nutrihub/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handler persists chat messages and pushes message.sent to the
// conversation channel
type Handler struct {
	db      *gorm.DB
	dir     channels.ConversationDirectory
	emitter *realtime.Emitter
}

// NewHandler creates a messages handler
func NewHandler(db *gorm.DB, dir channels.ConversationDirectory, emitter *realtime.Emitter) *Handler {
	return &Handler{db: db, dir: dir, emitter: emitter}
}

// SendRequest represents a new chat message
type SendRequest struct {
	ConversationID int    `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
}

// Send handles POST /messages/send
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}
	if len(req.Content) > 4096 {
		httpx.FailErr(c, httpx.ErrParamInvalid("message too long"))
		return
	}

	uid := c.GetInt("uid")
	member, err := h.dir.IsParticipant(c.Request.Context(), req.ConversationID, uid)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to check membership", err))
		return
	}
	if !member {
		httpx.FailErr(c, httpx.ErrForbidden("not a participant of this conversation"))
		return
	}

	msg := &model.Message{
		ExternalID:     uuid.NewString(),
		ConversationID: req.ConversationID,
		SenderID:       uid,
		Content:        req.Content,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(msg).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to store message", err))
		return
	}

	sender := realtime.UserRef{
		ID:        uid,
		Name:      c.GetString("name"),
		AvatarURL: c.GetString("avatar_url"),
	}
	h.emitter.TryEmit(c.Request.Context(), realtime.NewMessageSent(
		req.ConversationID, msg.ExternalID, msg.Content, sender, msg.CreatedAt))

	httpx.OK(c, gin.H{
		"id":             msg.ExternalID,
		"conversationId": msg.ConversationID,
		"createdAt":      msg.CreatedAt,
	})
}
