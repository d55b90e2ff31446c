package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Skufu/healthmate/internal/store"
)

// PlanWrite confirms a fitness or meal plan save.
type PlanWrite struct {
	Success       bool   `json:"success"`
	Action        string `json:"action"`
	Message       string `json:"message"`
	WorkoutsCount int    `json:"workouts_count,omitempty"`
	MealsCount    int    `json:"meals_count,omitempty"`
	Note          string `json:"note,omitempty"`
}

func (d *Dispatcher) createFitnessPlan(ctx context.Context, c Caller, a FitnessPlanArgs) (any, error) {
	name := orDefault(a.PlanName, "AI Generated Plan")
	workouts := a.Workouts
	if workouts == nil {
		workouts = []map[string]any{}
	}
	plan, err := json.Marshal(map[string]any{
		"plan_name":      name,
		"duration_weeks": wholeDays(a.DurationWeeks, 4),
		"workouts":       workouts,
		"goal":           orDefault(a.Goal, "General Fitness"),
		"difficulty":     orDefault(a.Difficulty, "Intermediate"),
		"created_at":     d.now().UTC().Format(time.RFC3339),
		"ai_generated":   true,
	})
	if err != nil {
		return nil, &ArgumentError{Tool: CreateFitnessPlan, Field: "workouts", Reason: err.Error()}
	}

	created, err := d.store.ReplacePlanSection(ctx, c.UserID, name, store.WorkoutSection, plan)
	if err != nil {
		return nil, upstream(CreateFitnessPlan, "save fitness plan", err)
	}
	if created {
		return PlanWrite{
			Success:       true,
			Action:        "CREATED",
			Message:       fmt.Sprintf("Fitness plan %q created! Check your Fitness Studio.", name),
			WorkoutsCount: len(a.Workouts),
		}, nil
	}
	return PlanWrite{
		Success:       true,
		Action:        "UPDATED",
		Message:       fmt.Sprintf("Fitness plan %q updated! Old plan replaced. Check your Fitness Studio.", name),
		WorkoutsCount: len(a.Workouts),
		Note:          "Your previous plan has been replaced with this new one",
	}, nil
}

func (d *Dispatcher) createMealPlan(ctx context.Context, c Caller, a MealPlanArgs) (any, error) {
	name := orDefault(a.PlanName, "AI Generated Meal Plan")
	meals := a.DailyMeals
	if meals == nil {
		meals = []map[string]any{}
	}
	macros := a.Macros
	if macros == nil {
		macros = map[string]any{}
	}
	plan, err := json.Marshal(map[string]any{
		"plan_name":      name,
		"duration_days":  wholeDays(a.DurationDays, 7),
		"daily_meals":    meals,
		"daily_calories": orDefaultNumber(a.DailyCalories, 2000),
		"macros":         macros,
		"ai_generated":   true,
		"created_at":     d.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, &ArgumentError{Tool: CreateMealPlan, Field: "daily_meals", Reason: err.Error()}
	}

	created, err := d.store.ReplacePlanSection(ctx, c.UserID, name, store.DietSection, plan)
	if err != nil {
		return nil, upstream(CreateMealPlan, "save meal plan", err)
	}
	if created {
		return PlanWrite{
			Success:    true,
			Action:     "CREATED",
			Message:    fmt.Sprintf("Meal plan %q created! Check your Diet Progress.", name),
			MealsCount: len(a.DailyMeals),
		}, nil
	}
	return PlanWrite{
		Success:    true,
		Action:     "UPDATED",
		Message:    fmt.Sprintf("Meal plan %q updated! Check your Diet Progress.", name),
		MealsCount: len(a.DailyMeals),
		Note:       "Your previous meal plan has been replaced",
	}, nil
}

// routineDays is how many daily log entries a new routine seeds.
const routineDays = 7

func (d *Dispatcher) createMentalHealthRoutine(ctx context.Context, c Caller, a MentalHealthRoutineArgs) (any, error) {
	activities, err := json.Marshal(a.Activities)
	if err != nil {
		return nil, &ArgumentError{Tool: CreateMentalHealthRoutine, Field: "activities", Reason: err.Error()}
	}
	notes := fmt.Sprintf("%s: %s", a.RoutineName, orDefault(a.Goal, "Mental health routine"))

	now := d.now()
	entries := make([]store.MentalHealthLog, 0, routineDays)
	for i := range routineDays {
		entries = append(entries, store.MentalHealthLog{
			UserID:      c.UserID,
			LogDate:     now.AddDate(0, 0, i).Format(dateLayout),
			Score:       6,
			Category:    "Moderate",
			Notes:       notes,
			RoutineData: activities,
			CreatedAt:   now,
		})
	}
	if err := d.store.AddMentalHealthLogs(ctx, entries...); err != nil {
		return nil, upstream(CreateMentalHealthRoutine, "save routine", err)
	}

	cadence := "daily"
	if a.Frequency != "" {
		cadence = strings.ToLower(a.Frequency)
	}
	return map[string]any{
		"success":          true,
		"routine_name":     a.RoutineName,
		"message":          fmt.Sprintf("Mental health routine %q created! Check your Mental Health section.", a.RoutineName),
		"activities_count": len(a.Activities),
		"entries_created":  len(entries),
		"recommendation":   fmt.Sprintf("%s. Practice %s for best results.", orDefault(a.Goal, "Mental health improvement"), cadence),
	}, nil
}

func (d *Dispatcher) createMedicineReminders(ctx context.Context, c Caller, a MedicineRemindersArgs) (any, error) {
	var created, updated []string
	for i, m := range a.Medicines {
		if strings.TrimSpace(m.Name) == "" {
			return nil, &ArgumentError{Tool: CreateMedicineReminders, Field: fmt.Sprintf("medicines[%d].name", i), Reason: "is required"}
		}
		frequency := orDefault(m.Frequency, "Daily")
		notes := m.Notes
		if notes == "" {
			notes = fmt.Sprintf("Reminder set for %s", orDefault(strings.ToLower(m.Frequency), "as needed"))
		}
		isNew, err := d.store.UpsertMedicineReminder(ctx, store.Medicine{
			UserID:        c.UserID,
			Name:          m.Name,
			Dosage:        orDefault(m.Dosage, "As prescribed"),
			Frequency:     frequency,
			Purpose:       orDefault(m.Purpose, "Health maintenance"),
			ReminderTimes: m.ReminderTimes,
			Notes:         notes,
			Active:        true,
			AIGenerated:   true,
		})
		if err != nil {
			return nil, upstream(CreateMedicineReminders, "save reminder for "+m.Name, err)
		}
		if isNew {
			created = append(created, m.Name)
		} else {
			updated = append(updated, m.Name)
		}
	}

	var firstTimes []string
	if len(a.Medicines) > 0 {
		firstTimes = a.Medicines[0].ReminderTimes
	}
	if firstTimes == nil {
		firstTimes = []string{}
	}
	total := len(created) + len(updated)
	return map[string]any{
		"success":         true,
		"message":         fmt.Sprintf("Medicine reminders set for %d medication(s)! Check your Medicine Tracker.", total),
		"medicines_count": total,
		"created":         nonNil(created),
		"updated":         nonNil(updated),
		"reminder_times":  firstTimes,
		"notification":    "You will receive notifications at scheduled times",
	}, nil
}

func (d *Dispatcher) createHealthGoals(ctx context.Context, c Caller, a HealthGoalsArgs) (any, error) {
	now := d.now()
	goals := make([]store.Goal, 0, len(a.Goals))
	list := make([]string, 0, len(a.Goals))
	for _, g := range a.Goals {
		goals = append(goals, store.Goal{
			UserID:      c.UserID,
			Name:        g.Name,
			Type:        "health_goal",
			Target:      g.Target,
			Timeline:    g.Timeline,
			Milestones:  g.Milestones,
			Status:      "active",
			Progress:    0,
			Description: fmt.Sprintf("Goal: %s. Target: %s. Timeline: %s", g.Name, g.Target, g.Timeline),
			AIGenerated: true,
			CreatedAt:   now,
		})
		list = append(list, fmt.Sprintf("• %s (%s)", g.Name, g.Timeline))
	}
	if err := d.store.AddGoals(ctx, goals...); err != nil {
		return nil, upstream(CreateHealthGoals, "save goals", err)
	}
	return map[string]any{
		"success":       true,
		"message":       fmt.Sprintf("%d health goal(s) created! Check your Goals section.", len(goals)),
		"goals_created": len(goals),
		"goals_list":    list,
		"motivation":    "Track your progress regularly and celebrate milestones!",
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
