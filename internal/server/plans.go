package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/healthmate/internal/predict"
	"github.com/Skufu/healthmate/internal/store"
)

type Planner interface {
	GeneratePlan(ctx context.Context, profile predict.Profile) (predict.GeneratedPlan, error)
	AnalyzeDay(ctx context.Context, planned, actual predict.DayRecord) (predict.DayAnalysis, error)
}

type generateRequest struct {
	UserID string `json:"userId"`
	predict.Profile
}

type analyzeDayRequest struct {
	UserID string             `json:"userId"`
	Date   string             `json:"date"`
	Plan   *predict.DayRecord `json:"plan"`
	Actual *predict.DayRecord `json:"actual"`
}

// generatePlan asks the model for a plan. With a userId and a store the
// plan replaces the user's saved workout and diet sections.
func (h *handlers) generatePlan(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.Name == "" || req.Age <= 0 || req.Goal == "" {
		badRequest(c, "Please provide at least Name, Age, and Goal.")
		return
	}

	ctx := c.Request.Context()
	plan, err := h.Planner.GeneratePlan(ctx, req.Profile)
	switch {
	case errors.Is(err, predict.ErrUnparseable):
		h.Logger.Warn("plan generation unparseable", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid JSON from AI"})
		return
	case err != nil:
		h.Logger.Error("plan generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate plan"})
		return
	}

	saved := false
	if req.UserID != "" && h.Store != nil {
		if err := h.savePlan(ctx, req.UserID, req.Goal, plan); err != nil {
			h.saveFailed(c, "plan", err)
			return
		}
		saved = true
	}
	c.JSON(http.StatusOK, gin.H{"output": plan, "saved": saved})
}

func (h *handlers) savePlan(ctx context.Context, userID, name string, plan predict.GeneratedPlan) error {
	if _, err := h.Store.ReplacePlanSection(ctx, userID, name, store.WorkoutSection, plan.WorkoutPlan); err != nil {
		return err
	}
	_, err := h.Store.ReplacePlanSection(ctx, userID, name, store.DietSection, plan.DietPlan)
	return err
}

// analyzeDay scores a day against its plan. A missing plan or actual is
// read from the user's saved plan and the day's tracking entry.
func (h *handlers) analyzeDay(c *gin.Context) {
	var req analyzeDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	date, err := dateOrToday(req.Date)
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}

	ctx := c.Request.Context()
	if (req.Plan == nil || req.Actual == nil) && (req.UserID == "" || h.Store == nil) {
		badRequest(c, "plan and actual are required without a userId")
		return
	}
	if req.Plan == nil {
		p, err := h.Store.FitnessPlan(ctx, req.UserID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			badRequest(c, "no saved plan for user")
			return
		case err != nil:
			h.Logger.Error("load plan failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
			return
		}
		req.Plan = &predict.DayRecord{Workout: rawOrNil(p.WorkoutPlan), Diet: rawOrNil(p.DietPlan)}
	}
	if req.Actual == nil {
		days, err := h.Store.DailyTracking(ctx, req.UserID, date, false)
		if err != nil {
			h.Logger.Error("load daily tracking failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tracking"})
			return
		}
		for _, d := range days {
			if d.Date == date {
				req.Actual = &predict.DayRecord{Workout: rawOrNil(d.WorkoutDone), Diet: rawOrNil(d.DietConsumed)}
				break
			}
		}
		if req.Actual == nil {
			badRequest(c, "no tracking recorded for "+date)
			return
		}
	}

	analysis, err := h.Planner.AnalyzeDay(ctx, *req.Plan, *req.Actual)
	if err != nil {
		h.Logger.Error("day analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze day"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "analysis": analysis})
}

// rawOrNil keeps an absent column as nil so it reads as "none recorded".
func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
