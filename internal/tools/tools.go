// Package tools holds the fixed set of health tools the agent may call:
// their declarations, argument validation and execution against the store,
// the predictor and place search.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names, case-sensitive.
const (
	PredictDisease            = "predict_disease"
	CheckMedicines            = "check_medicines"
	AnalyzeNutrition          = "analyze_nutrition"
	GetFitnessActivity        = "get_fitness_activity"
	FindClinics               = "find_clinics"
	AssessMentalHealth        = "assess_mental_health"
	CreateFitnessPlan         = "create_fitness_plan"
	CreateMealPlan            = "create_meal_plan"
	CreateMentalHealthRoutine = "create_mental_health_routine"
	CreateMedicineReminders   = "create_medicine_reminders"
	CreateHealthGoals         = "create_health_goals"
)

// Names lists every tool in declaration order.
func Names() []string {
	return []string{
		PredictDisease, CheckMedicines, AnalyzeNutrition, GetFitnessActivity,
		FindClinics, AssessMentalHealth, CreateFitnessPlan, CreateMealPlan,
		CreateMentalHealthRoutine, CreateMedicineReminders, CreateHealthGoals,
	}
}

// Declarations returns the tool schemas offered to the model. The caller's
// identity is never a model-supplied argument.
func Declarations() []mcp.Tool {
	reg := registry()
	out := make([]mcp.Tool, 0, len(reg))
	for _, name := range Names() {
		out = append(out, reg[name].decl)
	}
	return out
}

func declarations() []mcp.Tool {
	objectItems := func(props map[string]any, required ...string) map[string]any {
		m := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			m["required"] = required
		}
		return m
	}
	str := func(desc string) map[string]any { return map[string]any{"type": "string", "description": desc} }
	strList := func(desc string) map[string]any {
		return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
	}

	return []mcp.Tool{
		mcp.NewTool(PredictDisease,
			mcp.WithDescription("Analyzes symptoms and predicts possible health conditions. Use this when the user mentions any physical symptoms or health complaints."),
			mcp.WithArray("symptoms", mcp.Required(), mcp.WithStringItems(),
				mcp.Description("List of symptoms reported by the user (e.g. 'fatigue', 'headache', 'fever')")),
			mcp.WithString("duration", mcp.Description("How long symptoms have been present")),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
		),
		mcp.NewTool(CheckMedicines,
			mcp.WithDescription("Retrieves the user's current medications and checks for side effects. Use when investigating potential medication-related issues."),
			mcp.WithBoolean("check_interactions", mcp.Description("Whether to check for drug interactions")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		mcp.NewTool(AnalyzeNutrition,
			mcp.WithDescription("Analyzes the user's calorie intake and nutrition data over a time period. Use to investigate diet-related concerns."),
			mcp.WithNumber("days", mcp.Description("Number of days to analyze (default 7)"), mcp.Min(1)),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		mcp.NewTool(GetFitnessActivity,
			mcp.WithDescription("Retrieves the user's workout history and physical activity levels. Use to assess exercise patterns."),
			mcp.WithNumber("days", mcp.Description("Number of days to analyze (default 7)"), mcp.Min(1)),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		mcp.NewTool(FindClinics,
			mcp.WithDescription("Finds nearby healthcare facilities based on location. Use when the user needs medical consultation."),
			mcp.WithString("location", mcp.Required(), mcp.Description("User's location or address")),
			mcp.WithString("specialty", mcp.Description("Type of clinic needed (e.g. 'general', 'cardiology')")),
			mcp.WithNumber("radius", mcp.Description("Search radius in kilometers (default 5)")),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
		),
		mcp.NewTool(AssessMentalHealth,
			mcp.WithDescription("Evaluates mental health status and mood patterns. Use when investigating stress, anxiety, or mood-related concerns."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		mcp.NewTool(CreateFitnessPlan,
			mcp.WithDescription("Creates a personalized fitness plan and saves it. It replaces the user's current fitness plan and appears in their Fitness Studio."),
			mcp.WithString("plan_name", mcp.Required(), mcp.Description("Name of the fitness plan (e.g. 'Weekly Full Body Workout')")),
			mcp.WithNumber("duration_weeks", mcp.Description("How many weeks the plan runs (default 4)")),
			mcp.WithArray("workouts", mcp.Required(),
				mcp.Items(objectItems(map[string]any{
					"day":       str("Day of the week"),
					"type":      str("Workout type"),
					"duration":  map[string]any{"type": "number", "description": "Minutes"},
					"exercises": map[string]any{"type": "array", "description": "Exercises with sets and reps"},
				})),
				mcp.Description("Workouts with day, type, duration, exercises")),
			mcp.WithString("goal", mcp.Description("Fitness goal (e.g. 'Increase strength', 'Improve cardio', 'Lose weight')")),
			mcp.WithString("difficulty", mcp.Enum("Beginner", "Intermediate", "Advanced"), mcp.Description("Difficulty level")),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
		),
		mcp.NewTool(CreateMealPlan,
			mcp.WithDescription("Creates a personalized meal plan with daily nutrition targets and saves it, replacing the user's current meal plan."),
			mcp.WithString("plan_name", mcp.Required(), mcp.Description("Name of the meal plan (e.g. 'High Protein Diet')")),
			mcp.WithNumber("duration_days", mcp.Description("Duration of the plan in days (default 7)")),
			mcp.WithArray("daily_meals", mcp.Required(),
				mcp.Items(map[string]any{"type": "object"}),
				mcp.Description("Meals with breakfast, lunch, dinner, snacks")),
			mcp.WithNumber("daily_calories", mcp.Description("Target daily calories (default 2000)")),
			mcp.WithObject("macros", mcp.Description("Daily macro targets (protein, carbs, fats)"),
				mcp.Properties(map[string]any{
					"protein": map[string]any{"type": "number"},
					"carbs":   map[string]any{"type": "number"},
					"fats":    map[string]any{"type": "number"},
				})),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
		),
		mcp.NewTool(CreateMentalHealthRoutine,
			mcp.WithDescription("Creates a personalized mental health routine with daily activities like meditation, yoga and breathing exercises. Saves a week of entries to the Mental Health logs."),
			mcp.WithString("routine_name", mcp.Required(), mcp.Description("Name of the routine (e.g. 'Daily Stress Relief')")),
			mcp.WithArray("activities", mcp.Required(),
				mcp.Items(objectItems(map[string]any{
					"time":         str("Time of day"),
					"type":         str("Activity type"),
					"duration":     map[string]any{"type": "number", "description": "Minutes"},
					"instructions": str("How to do it"),
				})),
				mcp.Description("Activities with time, type, duration, instructions")),
			mcp.WithString("frequency", mcp.Enum("Daily", "Weekly", "Bi-weekly"), mcp.Description("How often to do this routine")),
			mcp.WithString("goal", mcp.Description("Mental health goal (e.g. 'Reduce stress', 'Better sleep')")),
			mcp.WithDestructiveHintAnnotation(false),
		),
		mcp.NewTool(CreateMedicineReminders,
			mcp.WithDescription("Sets up medicine reminders with specific times. Updates the user's medicine with the same name or adds a new one."),
			mcp.WithArray("medicines", mcp.Required(),
				mcp.Items(objectItems(map[string]any{
					"name":           str("Medicine name"),
					"dosage":         str("Dosage, e.g. '500mg'"),
					"frequency":      str("How often, e.g. 'Twice daily'"),
					"reminder_times": strList("Times of day in HH:MM"),
					"purpose":        str("What it is taken for"),
					"notes":          str("Extra instructions"),
				}, "name")),
				mcp.Description("Medicines with name, dosage, frequency, reminder_times")),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
		),
		mcp.NewTool(CreateHealthGoals,
			mcp.WithDescription("Creates personalized health goals based on current health status and saves them to the user's goals."),
			mcp.WithArray("goals", mcp.Required(),
				mcp.Items(objectItems(map[string]any{
					"name":       str("Goal name"),
					"target":     str("Measurable target"),
					"timeline":   str("Time frame, e.g. '4 weeks'"),
					"milestones": strList("Intermediate milestones"),
				}, "name")),
				mcp.Description("Health goals with name, target, timeline, milestones")),
			mcp.WithDestructiveHintAnnotation(false),
		),
	}
}
