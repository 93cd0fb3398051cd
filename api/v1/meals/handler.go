package meals

import (
	"fmt"
	"time"

	"nutrihub/internal/httpx"
	"nutrihub/internal/model"
	"nutrihub/internal/notify"
	"nutrihub/internal/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler records meal logs ("ingestas") and fans ingesta.created out
// to the patient and the nutritionists following them
type Handler struct {
	db      *gorm.DB
	emitter *realtime.Emitter
	notify  *notify.Service
}

// NewHandler creates a meals handler
func NewHandler(db *gorm.DB, emitter *realtime.Emitter, notifySvc *notify.Service) *Handler {
	return &Handler{db: db, emitter: emitter, notify: notifySvc}
}

// LogRequest represents one meal log entry
type LogRequest struct {
	Date     string  `json:"date" binding:"required"`
	MealType string  `json:"mealType" binding:"required"`
	Calories float64 `json:"calories" binding:"required"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Log handles POST /meals/log
func (h *Handler) Log(c *gin.Context) {
	var req LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("date must be YYYY-MM-DD"))
		return
	}
	switch model.MealType(req.MealType) {
	case model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner, model.MealTypeSnack:
	default:
		httpx.FailErr(c, httpx.ErrParamInvalid("unknown meal type"))
		return
	}

	uid := c.GetInt("uid")
	log := &model.MealLog{
		PatientID: uid,
		Date:      date,
		MealType:  model.MealType(req.MealType),
		Calories:  req.Calories,
		Protein:   req.Protein,
		Carbs:     req.Carbs,
		Fat:       req.Fat,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(log).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to store meal log", err))
		return
	}

	followers, err := h.followers(c, uid)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to resolve followers", err))
		return
	}

	h.emitter.TryEmit(c.Request.Context(), realtime.NewIngestaCreated(uid, followers, realtime.IngestaData{
		ID:       log.ID,
		Date:     req.Date,
		MealType: req.MealType,
		Calories: log.Calories,
		Protein:  log.Protein,
		Carbs:    log.Carbs,
		Fat:      log.Fat,
	}))

	name := c.GetString("name")
	for _, nid := range followers {
		if _, err := h.notify.Create(c.Request.Context(), notify.CreateInput{
			UserID:   nid,
			Type:     "ingesta_created",
			Title:    fmt.Sprintf("%s logged a %s", name, req.MealType),
			Message:  fmt.Sprintf("%.0f kcal on %s", log.Calories, req.Date),
			Link:     fmt.Sprintf("/patients/%d/meals", uid),
			Metadata: map[string]any{"mealLogId": log.ID, "patientId": uid},
		}); err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to record notification", err))
			return
		}
	}

	httpx.OK(c, gin.H{"id": log.ID})
}

// followers returns the nutritionists with an active plan for the patient
func (h *Handler) followers(c *gin.Context, patientID int) ([]int, error) {
	var ids []int
	err := h.db.WithContext(c.Request.Context()).
		Model(&model.MealPlan{}).
		Where("patient_id = ?", patientID).
		Distinct().
		Pluck("nutritionist_id", &ids).Error
	return ids, err
}
