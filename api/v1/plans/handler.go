package plans

import (
	"encoding/json"
	"errors"
	"fmt"

	"nutrihub/internal/httpx"
	"nutrihub/internal/model"
	"nutrihub/internal/notify"
	"nutrihub/internal/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Handler mutates meal plans and pushes plan.updated to the plan
// channel and the patient's private channel
type Handler struct {
	db      *gorm.DB
	emitter *realtime.Emitter
	notify  *notify.Service
}

// NewHandler creates a plans handler
func NewHandler(db *gorm.DB, emitter *realtime.Emitter, notifySvc *notify.Service) *Handler {
	return &Handler{db: db, emitter: emitter, notify: notifySvc}
}

// UpdateRequest represents a plan update
type UpdateRequest struct {
	PlanID  int            `json:"planId" binding:"required"`
	Title   string         `json:"title"`
	Targets map[string]any `json:"targets"`
}

// Update handles POST /plans/update. Only the assigned nutritionist
// may change a plan.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	var plan model.MealPlan
	if err := h.db.WithContext(c.Request.Context()).First(&plan, req.PlanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("plan not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to load plan", err))
		return
	}

	uid := c.GetInt("uid")
	if plan.NutritionistID != uid {
		httpx.FailErr(c, httpx.ErrForbidden("not the plan's nutritionist"))
		return
	}

	changes := make(map[string]any)
	updates := make(map[string]any)
	if req.Title != "" && req.Title != plan.Title {
		updates["title"] = req.Title
		changes["title"] = req.Title
	}
	if req.Targets != nil {
		raw, err := json.Marshal(req.Targets)
		if err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid targets"))
			return
		}
		updates["targets"] = datatypes.JSON(raw)
		changes["targets"] = req.Targets
	}
	if len(updates) == 0 {
		httpx.FailErr(c, httpx.ErrParamMissing("nothing to update"))
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(&plan).Updates(updates).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to update plan", err))
		return
	}

	// Broadcast first for immediacy, then leave the durable trail
	h.emitter.TryEmit(c.Request.Context(), realtime.NewPlanUpdated(plan.ID, plan.PatientID, changes))

	if _, err := h.notify.Create(c.Request.Context(), notify.CreateInput{
		UserID:   plan.PatientID,
		Type:     "plan_updated",
		Title:    "Your meal plan was updated",
		Message:  plan.Title,
		Link:     fmt.Sprintf("/plans/%d", plan.ID),
		Metadata: map[string]any{"planId": plan.ID},
	}); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to record notification", err))
		return
	}

	httpx.OK(c, gin.H{"planId": plan.ID, "changes": changes})
}
