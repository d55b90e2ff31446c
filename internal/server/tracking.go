package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/healthmate/internal/store"
)

const dateLayout = "2006-01-02"

// Store is the persistence behind the tracking endpoints the agent tools
// read from.
type Store interface {
	AddNutritionLog(ctx context.Context, l store.NutritionLog) error
	AddDailyTracking(ctx context.Context, d store.DailyTracking) error
	AddFoodLog(ctx context.Context, f store.FoodLog) error
	AddWorkoutProgress(ctx context.Context, w store.WorkoutProgress) error
	AddMentalHealthLogs(ctx context.Context, logs ...store.MentalHealthLog) error
	AddMedicine(ctx context.Context, m store.Medicine) (int64, error)
	Medicines(ctx context.Context, userID string, activeOnly bool) ([]store.Medicine, error)
	FitnessPlan(ctx context.Context, userID string) (store.FitnessPlan, error)
	ReplacePlanSection(ctx context.Context, userID, name string, section store.PlanSection, data json.RawMessage) (bool, error)
	DailyTracking(ctx context.Context, userID, sinceDate string, withWorkout bool) ([]store.DailyTracking, error)
	Goals(ctx context.Context, userID, planType string) ([]store.Goal, error)
	ReasoningLogs(ctx context.Context, userID string, limit int) ([]store.ReasoningLog, error)
}

func (h *handlers) mountTracking(api *gin.RouterGroup) {
	api.POST("/tracking/nutrition", h.addNutrition)
	api.POST("/tracking/daily", h.addDaily)
	api.POST("/tracking/food", h.addFood)
	api.POST("/tracking/workouts", h.addWorkout)
	api.POST("/tracking/mood", h.addMood)
	api.POST("/medicines", h.addMedicine)
	api.GET("/medicines", h.listMedicines)
	api.GET("/plans/:userId", h.plan)
	api.GET("/agent/logs", h.reasoningLogs)
}

type nutritionRequest struct {
	UserID string          `json:"userId" binding:"required"`
	Items  json.RawMessage `json:"items"`
}

type dailyRequest struct {
	UserID       string          `json:"userId" binding:"required"`
	Date         string          `json:"date"`
	DietConsumed json.RawMessage `json:"dietConsumed"`
	WorkoutDone  json.RawMessage `json:"workoutDone"`
}

type foodRequest struct {
	UserID   string  `json:"userId" binding:"required"`
	MealDate string  `json:"mealDate"`
	Calories float64 `json:"calories" binding:"gte=0"`
	Protein  float64 `json:"protein" binding:"gte=0"`
	Carbs    float64 `json:"carbs" binding:"gte=0"`
	Fats     float64 `json:"fats" binding:"gte=0"`
}

type workoutRequest struct {
	UserID       string          `json:"userId" binding:"required"`
	WorkoutType  string          `json:"workoutType" binding:"required"`
	ProgressData json.RawMessage `json:"progressData"`
	Completed    bool            `json:"completed"`
}

type moodRequest struct {
	UserID   string `json:"userId" binding:"required"`
	LogDate  string `json:"logDate"`
	Score    int    `json:"score" binding:"gte=0,lte=10"`
	Category string `json:"category" binding:"required,oneof=Severe Moderate Mild 'Minimal/Low risk'"`
	Notes    string `json:"notes"`
}

type medicineRequest struct {
	UserID        string   `json:"userId" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	Dosage        string   `json:"dosage"`
	Frequency     string   `json:"frequency"`
	SideEffects   string   `json:"sideEffects"`
	Purpose       string   `json:"purpose"`
	ReminderTimes []string `json:"reminderTimes"`
	Active        *bool    `json:"active"`
}

// dateOrToday validates a YYYY-MM-DD date, defaulting to today.
func dateOrToday(s string) (string, error) {
	if s == "" {
		return time.Now().Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", err
	}
	return s, nil
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (h *handlers) saveFailed(c *gin.Context, what string, err error) {
	h.Logger.Error("tracking write failed", "kind", what, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save " + what})
}

func (h *handlers) addNutrition(c *gin.Context) {
	var req nutritionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if err := h.Store.AddNutritionLog(c.Request.Context(), store.NutritionLog{UserID: req.UserID, Items: req.Items}); err != nil {
		h.saveFailed(c, "nutrition log", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

func (h *handlers) addDaily(c *gin.Context) {
	var req dailyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	date, err := dateOrToday(req.Date)
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}
	err = h.Store.AddDailyTracking(c.Request.Context(), store.DailyTracking{
		UserID:       req.UserID,
		Date:         date,
		DietConsumed: nullableJSON(req.DietConsumed),
		WorkoutDone:  nullableJSON(req.WorkoutDone),
	})
	if err != nil {
		h.saveFailed(c, "daily tracking", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created", "date": date})
}

func (h *handlers) addFood(c *gin.Context) {
	var req foodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	date, err := dateOrToday(req.MealDate)
	if err != nil {
		badRequest(c, "mealDate must be YYYY-MM-DD")
		return
	}
	err = h.Store.AddFoodLog(c.Request.Context(), store.FoodLog{
		UserID:   req.UserID,
		MealDate: date,
		Calories: req.Calories,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fats:     req.Fats,
	})
	if err != nil {
		h.saveFailed(c, "food log", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created", "meal_date": date})
}

func (h *handlers) addWorkout(c *gin.Context) {
	var req workoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	err := h.Store.AddWorkoutProgress(c.Request.Context(), store.WorkoutProgress{
		UserID:       req.UserID,
		WorkoutType:  req.WorkoutType,
		ProgressData: nullableJSON(req.ProgressData),
		Completed:    req.Completed,
	})
	if err != nil {
		h.saveFailed(c, "workout", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

func (h *handlers) addMood(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	date, err := dateOrToday(req.LogDate)
	if err != nil {
		badRequest(c, "logDate must be YYYY-MM-DD")
		return
	}
	err = h.Store.AddMentalHealthLogs(c.Request.Context(), store.MentalHealthLog{
		UserID:   req.UserID,
		LogDate:  date,
		Score:    req.Score,
		Category: req.Category,
		Notes:    req.Notes,
	})
	if err != nil {
		h.saveFailed(c, "mood log", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created", "log_date": date})
}

func (h *handlers) addMedicine(c *gin.Context) {
	var req medicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	id, err := h.Store.AddMedicine(c.Request.Context(), store.Medicine{
		UserID:          req.UserID,
		Name:            req.Name,
		Dosage:          req.Dosage,
		Frequency:       req.Frequency,
		SideEffects:     req.SideEffects,
		Purpose:         req.Purpose,
		ReminderTimes:   req.ReminderTimes,
		ReminderEnabled: len(req.ReminderTimes) > 0,
		Active:          active,
	})
	if err != nil {
		h.saveFailed(c, "medicine", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created", "id": id})
}

func (h *handlers) listMedicines(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		badRequest(c, "userId is required")
		return
	}
	meds, err := h.Store.Medicines(c.Request.Context(), userID, c.Query("active") == "true")
	if err != nil {
		h.Logger.Error("list medicines failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load medicines"})
		return
	}
	if meds == nil {
		meds = []store.Medicine{}
	}
	c.JSON(http.StatusOK, gin.H{"medicines": meds})
}

// plan returns the user's fitness/diet plan and health goals. A user with
// no plan gets a null plan, not a 404.
func (h *handlers) plan(c *gin.Context) {
	userID := c.Param("userId")
	ctx := c.Request.Context()

	var plan *store.FitnessPlan
	p, err := h.Store.FitnessPlan(ctx, userID)
	switch {
	case err == nil:
		plan = &p
	case !errors.Is(err, store.ErrNotFound):
		h.Logger.Error("load plan failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
		return
	}

	goals, err := h.Store.Goals(ctx, userID, "health_goal")
	if err != nil {
		h.Logger.Error("load goals failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
		return
	}
	if goals == nil {
		goals = []store.Goal{}
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "goals": goals})
}

func (h *handlers) reasoningLogs(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		badRequest(c, "userId is required")
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			badRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	logs, err := h.Store.ReasoningLogs(c.Request.Context(), userID, limit)
	if err != nil {
		h.Logger.Error("load reasoning logs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reasoning logs"})
		return
	}
	if logs == nil {
		logs = []store.ReasoningLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// nullableJSON maps an absent or JSON null field to SQL NULL.
func nullableJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
