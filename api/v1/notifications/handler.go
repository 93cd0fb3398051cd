package notifications

import (
	"strconv"

	"nutrihub/internal/httpx"
	"nutrihub/internal/notify"

	"github.com/gin-gonic/gin"
)

// Handler exposes the durable notification record: the unread-count
// poll target plus listing and read-marking.
type Handler struct {
	svc *notify.Service
}

// NewHandler creates a notifications handler
func NewHandler(svc *notify.Service) *Handler {
	return &Handler{svc: svc}
}

// UnreadCount handles GET /notifications/unread/count, the polling
// safety net behind the live stream
func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(c.Request.Context(), c.GetInt("uid"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count notifications", err))
		return
	}
	httpx.OK(c, gin.H{"count": count})
}

// List handles GET /notifications
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	items, total, err := h.svc.List(c.Request.Context(), c.GetInt("uid"), page, pageSize)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list notifications", err))
		return
	}
	httpx.OKItems(c, items, total, page, pageSize)
}

// MarkReadRequest identifies one notification by its external id
type MarkReadRequest struct {
	ID string `json:"id" binding:"required"`
}

// MarkRead handles POST /notifications/read
func (h *Handler) MarkRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), c.GetInt("uid"), req.ID); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to mark notification read", err))
		return
	}
	httpx.OK(c, gin.H{"updated": true})
}

// MarkAllRead handles POST /notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	if err := h.svc.MarkAllRead(c.Request.Context(), c.GetInt("uid")); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to mark notifications read", err))
		return
	}
	httpx.OK(c, gin.H{"updated": true})
}
