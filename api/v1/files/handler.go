package files

import (
	"encoding/json"

	"nutrihub/internal/httpx"
	"nutrihub/internal/model"
	"nutrihub/internal/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Handler records completed uploads and pushes file.uploaded to the
// uploader's private channel. Storage itself happens elsewhere; this
// endpoint only acknowledges the completion fact.
type Handler struct {
	db      *gorm.DB
	emitter *realtime.Emitter
}

// NewHandler creates a files handler
func NewHandler(db *gorm.DB, emitter *realtime.Emitter) *Handler {
	return &Handler{db: db, emitter: emitter}
}

// CompleteRequest represents an upload completion report
type CompleteRequest struct {
	FileType string         `json:"fileType" binding:"required"`
	FileURL  string         `json:"fileUrl" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

// Complete handles POST /files/complete
func (h *Handler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}
	switch model.FileType(req.FileType) {
	case model.FileTypeProfilePhoto, model.FileTypeMealPhoto:
	default:
		httpx.FailErr(c, httpx.ErrParamInvalid("unknown file type"))
		return
	}

	uid := c.GetInt("uid")
	file := &model.UploadedFile{
		UserID:   uid,
		FileType: model.FileType(req.FileType),
		FileURL:  req.FileURL,
	}
	if req.Metadata != nil {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid metadata"))
			return
		}
		file.Metadata = datatypes.JSON(raw)
	}

	if err := h.db.WithContext(c.Request.Context()).Create(file).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to record upload", err))
		return
	}

	h.emitter.TryEmit(c.Request.Context(), realtime.NewFileUploaded(uid, req.FileType, req.FileURL, req.Metadata))
	httpx.OK(c, gin.H{"id": file.ID})
}
