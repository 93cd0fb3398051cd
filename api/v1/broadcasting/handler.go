package broadcasting

import (
	"nutrihub/internal/channels"
	"nutrihub/internal/httpx"

	"github.com/gin-gonic/gin"
)

// Handler answers channel authorization handshakes. The decision is
// stateless and re-evaluated on every request, so a revoked membership
// takes effect on the next (re)subscribe.
type Handler struct {
	authz *channels.Authorizer
}

// NewHandler creates a broadcasting auth handler
func NewHandler(authz *channels.Authorizer) *Handler {
	return &Handler{authz: authz}
}

// AuthRequest represents a channel authorization request
type AuthRequest struct {
	ChannelName string `json:"channelName" binding:"required"`
	SocketID    string `json:"socketId"`
}

// Auth handles POST /broadcasting/auth
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	principal := channels.Principal{
		ID:   c.GetInt("uid"),
		Name: c.GetString("name"),
		Role: c.GetString("role"),
	}
	if !h.authz.Authorize(c.Request.Context(), principal, req.ChannelName) {
		httpx.FailErr(c, httpx.ErrForbidden("channel access denied"))
		return
	}

	httpx.OK(c, gin.H{"authorized": true, "channelName": req.ChannelName})
}
