package presence

import (
	"time"

	"nutrihub/internal/channels"
	"nutrihub/internal/httpx"
	"nutrihub/internal/presence"
	"nutrihub/internal/realtime"

	"github.com/gin-gonic/gin"
)

// Handler exposes the HTTP side of presence: explicit status signals
// from clients whose socket is down or idle, batch hydration, and the
// typing fallback path.
type Handler struct {
	store   *presence.Store
	authz   *channels.Authorizer
	emitter *realtime.Emitter
}

// NewHandler creates a presence handler
func NewHandler(store *presence.Store, authz *channels.Authorizer, emitter *realtime.Emitter) *Handler {
	return &Handler{store: store, authz: authz, emitter: emitter}
}

// StatusRequest represents an explicit status signal
type StatusRequest struct {
	Status   string `json:"status" binding:"required"`
	SocketID string `json:"socketId"`
}

// Status handles POST /presence/status
func (h *Handler) Status(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	user := realtime.UserRef{
		ID:        c.GetInt("uid"),
		Name:      c.GetString("name"),
		AvatarURL: c.GetString("avatar_url"),
	}

	switch req.Status {
	case string(presence.StatusOnline):
		applied := h.store.SetOnline(c.Request.Context(), user, req.SocketID)
		httpx.OK(c, gin.H{"applied": applied})
	case string(presence.StatusOffline):
		applied := h.store.SetOffline(c.Request.Context(), user.ID, time.Now())
		httpx.OK(c, gin.H{"applied": applied})
	default:
		httpx.FailErr(c, httpx.ErrParamInvalid("status must be online or offline"))
	}
}

// Away handles POST /presence/away, the inactivity-monitor signal
func (h *Handler) Away(c *gin.Context) {
	applied := h.store.SetAway(c.Request.Context(), c.GetInt("uid"))
	httpx.OK(c, gin.H{"applied": applied})
}

// GetRequest represents a batch presence lookup
type GetRequest struct {
	UserIDs []int `json:"userIds" binding:"required"`
}

// Get handles POST /presence/get. Entries are keyed by user id; users
// with no presence record anywhere are omitted.
func (h *Handler) Get(c *gin.Context) {
	var req GetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}
	if len(req.UserIDs) > 200 {
		httpx.FailErr(c, httpx.ErrParamInvalid("too many user ids"))
		return
	}

	entries := h.store.GetMany(c.Request.Context(), req.UserIDs)
	httpx.OK(c, gin.H{"entries": entries})
}

// TypingRequest represents a typing signal sent over HTTP
type TypingRequest struct {
	ConversationID int   `json:"conversationId" binding:"required"`
	IsTyping       *bool `json:"isTyping" binding:"required"`
}

// Typing handles POST /presence/typing, the fallback for clients whose
// socket is unavailable. The same membership check as the socket path
// applies.
func (h *Handler) Typing(c *gin.Context) {
	var req TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	principal := channels.Principal{
		ID:   c.GetInt("uid"),
		Name: c.GetString("name"),
		Role: c.GetString("role"),
	}
	channelName := realtime.ChatChannel(req.ConversationID)
	if !h.authz.Authorize(c.Request.Context(), principal, channelName) {
		httpx.FailErr(c, httpx.ErrForbidden("not a participant of this conversation"))
		return
	}

	user := realtime.UserRef{ID: principal.ID, Name: principal.Name, AvatarURL: c.GetString("avatar_url")}
	h.emitter.TryEmit(c.Request.Context(), realtime.NewUserTyping(req.ConversationID, user, *req.IsTyping))
	httpx.OK(c, gin.H{"sent": true})
}
