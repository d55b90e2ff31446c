package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Skufu/healthmate/internal/places"
	"github.com/Skufu/healthmate/internal/predict"
	"github.com/Skufu/healthmate/internal/store"
)

const dateLayout = "2006-01-02"

// Store is the persistence the tools read and write.
type Store interface {
	Medicines(ctx context.Context, userID string, activeOnly bool) ([]store.Medicine, error)
	NutritionLogs(ctx context.Context, userID string, since time.Time, limit int) ([]store.NutritionLog, error)
	DailyTracking(ctx context.Context, userID, sinceDate string, withWorkout bool) ([]store.DailyTracking, error)
	FoodLogs(ctx context.Context, userID, sinceDate string) ([]store.FoodLog, error)
	WorkoutProgress(ctx context.Context, userID string, since time.Time) ([]store.WorkoutProgress, error)
	RecentMentalHealthLogs(ctx context.Context, userID string, limit int) ([]store.MentalHealthLog, error)
	ReplacePlanSection(ctx context.Context, userID, name string, section store.PlanSection, data json.RawMessage) (bool, error)
	UpsertMedicineReminder(ctx context.Context, m store.Medicine) (bool, error)
	AddMentalHealthLogs(ctx context.Context, logs ...store.MentalHealthLog) error
	AddGoals(ctx context.Context, goals ...store.Goal) error
}

type Predictor interface {
	Predict(ctx context.Context, problem string, answers map[string]any) (predict.Result, error)
}

type PlaceSearcher interface {
	Search(ctx context.Context, q places.Query) ([]places.Place, error)
}

// Caller identifies the user a dispatch runs on behalf of.
type Caller struct {
	UserID string
}

type Deps struct {
	Store     Store
	Predictor Predictor
	Places    PlaceSearcher
	Logger    *slog.Logger
	Now       func() time.Time
}

type Dispatcher struct {
	store     Store
	predictor Predictor
	places    PlaceSearcher
	logger    *slog.Logger
	now       func() time.Time
}

func NewDispatcher(d Deps) *Dispatcher {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Dispatcher{
		store:     d.Store,
		predictor: d.Predictor,
		places:    d.Places,
		logger:    d.Logger,
		now:       d.Now,
	}
}

// Dispatch validates args for the named tool and runs it for caller. The
// returned error is one of *UnknownToolError, *ArgumentError or
// *UpstreamError; it is meant to be reported back to the model.
func (d *Dispatcher) Dispatch(ctx context.Context, caller Caller, name string, raw map[string]any) (any, error) {
	args, err := Decode(name, raw)
	if err != nil {
		return nil, err
	}
	if caller.UserID == "" {
		return nil, &ArgumentError{Tool: name, Field: "user_id", Reason: "is missing from the request context"}
	}

	start := time.Now()
	result, err := d.run(ctx, caller, args)
	d.logger.Debug("tool executed",
		"tool", name,
		"user_id", caller.UserID,
		"duration", time.Since(start),
		"ok", err == nil,
	)
	return result, err
}

func (d *Dispatcher) run(ctx context.Context, caller Caller, args Args) (any, error) {
	switch a := args.(type) {
	case PredictDiseaseArgs:
		return d.predictDisease(ctx, a)
	case CheckMedicinesArgs:
		return d.checkMedicines(ctx, caller, a)
	case AnalyzeNutritionArgs:
		return d.analyzeNutrition(ctx, caller, a)
	case FitnessActivityArgs:
		return d.fitnessActivity(ctx, caller, a)
	case FindClinicsArgs:
		return d.findClinics(ctx, a)
	case AssessMentalHealthArgs:
		return d.assessMentalHealth(ctx, caller)
	case FitnessPlanArgs:
		return d.createFitnessPlan(ctx, caller, a)
	case MealPlanArgs:
		return d.createMealPlan(ctx, caller, a)
	case MentalHealthRoutineArgs:
		return d.createMentalHealthRoutine(ctx, caller, a)
	case MedicineRemindersArgs:
		return d.createMedicineReminders(ctx, caller, a)
	case HealthGoalsArgs:
		return d.createHealthGoals(ctx, caller, a)
	default:
		return nil, &UnknownToolError{Name: args.ToolName()}
	}
}
