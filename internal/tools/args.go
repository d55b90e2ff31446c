package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
)

// Args is the decoded argument set of one tool call. Each tool has exactly
// one implementation.
type Args interface {
	ToolName() string
}

type PredictDiseaseArgs struct {
	Symptoms []string `json:"symptoms"`
	Duration string   `json:"duration,omitempty"`
}

type CheckMedicinesArgs struct {
	CheckInteractions bool `json:"check_interactions,omitempty"`
}

type AnalyzeNutritionArgs struct {
	Days float64 `json:"days,omitempty"`
}

type FitnessActivityArgs struct {
	Days float64 `json:"days,omitempty"`
}

type FindClinicsArgs struct {
	Location  string  `json:"location"`
	Specialty string  `json:"specialty,omitempty"`
	Radius    float64 `json:"radius,omitempty"`
}

type AssessMentalHealthArgs struct{}

type FitnessPlanArgs struct {
	PlanName      string           `json:"plan_name"`
	DurationWeeks float64          `json:"duration_weeks,omitempty"`
	Workouts      []map[string]any `json:"workouts"`
	Goal          string           `json:"goal,omitempty"`
	Difficulty    string           `json:"difficulty,omitempty"`
}

type MealPlanArgs struct {
	PlanName      string           `json:"plan_name"`
	DurationDays  float64          `json:"duration_days,omitempty"`
	DailyMeals    []map[string]any `json:"daily_meals"`
	DailyCalories float64          `json:"daily_calories,omitempty"`
	Macros        map[string]any   `json:"macros,omitempty"`
}

type MentalHealthRoutineArgs struct {
	RoutineName string           `json:"routine_name"`
	Activities  []map[string]any `json:"activities"`
	Frequency   string           `json:"frequency,omitempty"`
	Goal        string           `json:"goal,omitempty"`
}

type MedicineReminder struct {
	Name          string   `json:"name"`
	Dosage        string   `json:"dosage,omitempty"`
	Frequency     string   `json:"frequency,omitempty"`
	ReminderTimes []string `json:"reminder_times,omitempty"`
	Purpose       string   `json:"purpose,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

type MedicineRemindersArgs struct {
	Medicines []MedicineReminder `json:"medicines"`
}

type HealthGoal struct {
	Name       string   `json:"name"`
	Target     string   `json:"target,omitempty"`
	Timeline   string   `json:"timeline,omitempty"`
	Milestones []string `json:"milestones,omitempty"`
}

type HealthGoalsArgs struct {
	Goals []HealthGoal `json:"goals"`
}

func (PredictDiseaseArgs) ToolName() string      { return PredictDisease }
func (CheckMedicinesArgs) ToolName() string      { return CheckMedicines }
func (AnalyzeNutritionArgs) ToolName() string    { return AnalyzeNutrition }
func (FitnessActivityArgs) ToolName() string     { return GetFitnessActivity }
func (FindClinicsArgs) ToolName() string         { return FindClinics }
func (AssessMentalHealthArgs) ToolName() string  { return AssessMentalHealth }
func (FitnessPlanArgs) ToolName() string         { return CreateFitnessPlan }
func (MealPlanArgs) ToolName() string            { return CreateMealPlan }
func (MentalHealthRoutineArgs) ToolName() string { return CreateMentalHealthRoutine }
func (MedicineRemindersArgs) ToolName() string   { return CreateMedicineReminders }
func (HealthGoalsArgs) ToolName() string         { return CreateHealthGoals }

type entry struct {
	decl   mcp.Tool
	schema *jsonschema.Resolved
	decode func([]byte) (Args, error)
}

var decoders = map[string]func([]byte) (Args, error){
	PredictDisease:            decodeAs[PredictDiseaseArgs],
	CheckMedicines:            decodeAs[CheckMedicinesArgs],
	AnalyzeNutrition:          decodeAs[AnalyzeNutritionArgs],
	GetFitnessActivity:        decodeAs[FitnessActivityArgs],
	FindClinics:               decodeAs[FindClinicsArgs],
	AssessMentalHealth:        decodeAs[AssessMentalHealthArgs],
	CreateFitnessPlan:         decodeAs[FitnessPlanArgs],
	CreateMealPlan:            decodeAs[MealPlanArgs],
	CreateMentalHealthRoutine: decodeAs[MentalHealthRoutineArgs],
	CreateMedicineReminders:   decodeAs[MedicineRemindersArgs],
	CreateHealthGoals:         decodeAs[HealthGoalsArgs],
}

func decodeAs[T Args](b []byte) (Args, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// registry resolves every declaration's JSON Schema once. A declaration
// that does not resolve is a programming error.
var registry = sync.OnceValue(func() map[string]entry {
	reg := make(map[string]entry)
	for _, decl := range declarations() {
		raw, err := json.Marshal(decl.InputSchema)
		if err != nil {
			panic(fmt.Sprintf("tools: encode %s schema: %v", decl.Name, err))
		}
		var schema jsonschema.Schema
		if err := json.Unmarshal(raw, &schema); err != nil {
			panic(fmt.Sprintf("tools: parse %s schema: %v", decl.Name, err))
		}
		resolved, err := schema.Resolve(nil)
		if err != nil {
			panic(fmt.Sprintf("tools: resolve %s schema: %v", decl.Name, err))
		}
		reg[decl.Name] = entry{decl: decl, schema: resolved, decode: decoders[decl.Name]}
	}
	return reg
})

// Decode validates raw model arguments against the tool's schema and
// decodes them into the tool's Args variant.
func Decode(name string, raw map[string]any) (Args, error) {
	e, ok := registry()[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	// Round-trip so provider-specific map and number types become plain JSON values.
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, &ArgumentError{Tool: name, Reason: err.Error()}
	}
	instance := map[string]any{}
	if raw != nil {
		if err := json.Unmarshal(b, &instance); err != nil {
			return nil, &ArgumentError{Tool: name, Reason: err.Error()}
		}
	}

	for _, field := range e.decl.InputSchema.Required {
		if v, ok := instance[field]; !ok || v == nil {
			return nil, &ArgumentError{Tool: name, Field: field, Reason: "is required"}
		}
	}
	if err := e.schema.Validate(instance); err != nil {
		return nil, &ArgumentError{Tool: name, Reason: err.Error()}
	}

	b, _ = json.Marshal(instance)
	args, err := e.decode(b)
	if err != nil {
		return nil, &ArgumentError{Tool: name, Reason: err.Error()}
	}
	return args, nil
}

// wholeDays converts a model-supplied day count to a positive integer.
func wholeDays(d float64, fallback int) int {
	n := int(math.Round(d))
	if n <= 0 {
		return fallback
	}
	return n
}
