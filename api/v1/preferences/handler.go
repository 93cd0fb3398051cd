package preferences

import (
	"encoding/json"

	"nutrihub/internal/httpx"
	"nutrihub/internal/model"
	"nutrihub/internal/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Handler upserts per-user preferences and pushes preferences.updated
// to the owner's private channel so other open tabs converge
type Handler struct {
	db      *gorm.DB
	emitter *realtime.Emitter
}

// NewHandler creates a preferences handler
func NewHandler(db *gorm.DB, emitter *realtime.Emitter) *Handler {
	return &Handler{db: db, emitter: emitter}
}

// UpdateRequest carries the full preference document
type UpdateRequest struct {
	Values map[string]any `json:"values" binding:"required"`
}

// Update handles POST /preferences/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	raw, err := json.Marshal(req.Values)
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid preference values"))
		return
	}

	uid := c.GetInt("uid")
	pref := &model.Preference{UserID: uid, Values: datatypes.JSON(raw)}
	err = h.db.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"values", "updated_at"}),
		}).
		Create(pref).Error
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to store preferences", err))
		return
	}

	h.emitter.TryEmit(c.Request.Context(), realtime.NewPreferencesUpdated(uid, req.Values))
	httpx.OK(c, gin.H{"updated": true})
}
