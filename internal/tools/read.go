package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Skufu/healthmate/internal/predict"
	"github.com/Skufu/healthmate/internal/store"
)

var fatigueKeywords = []string{"fatigue", "drowsiness", "tiredness", "sleepiness", "tired"}

type MedicineSummary struct {
	Name        string    `json:"name"`
	Dosage      string    `json:"dosage"`
	Frequency   string    `json:"frequency"`
	SideEffects string    `json:"side_effects"`
	Purpose     string    `json:"purpose,omitempty"`
	LoggedAt    time.Time `json:"logged_at"`
}

type MedicineReport struct {
	Medicines          []MedicineSummary     `json:"medicines"`
	TotalCount         int                   `json:"total_count"`
	FatigueCausingMeds []string              `json:"fatigue_causing_meds"`
	SideEffectsRisk    string                `json:"side_effects_risk"`
	Interactions       []predict.Interaction `json:"interactions,omitempty"`
	Message            string                `json:"message,omitempty"`
	Recommendation     string                `json:"recommendation"`
}

func (d *Dispatcher) checkMedicines(ctx context.Context, c Caller, a CheckMedicinesArgs) (any, error) {
	meds, err := d.store.Medicines(ctx, c.UserID, true)
	if err != nil {
		return nil, upstream(CheckMedicines, "read medicines", err)
	}

	summaries := make([]MedicineSummary, 0, len(meds))
	for _, m := range meds {
		summaries = append(summaries, MedicineSummary{
			Name:        m.Name,
			Dosage:      orDefault(m.Dosage, "Not specified"),
			Frequency:   orDefault(m.Frequency, "As needed"),
			SideEffects: m.SideEffects,
			Purpose:     m.Purpose,
			LoggedAt:    m.CreatedAt,
		})
	}

	var message string
	if len(summaries) == 0 {
		summaries, err = d.medicinesFromNutritionLogs(ctx, c)
		if err != nil {
			return nil, err
		}
		message = "Medications found in nutrition logs. Consider using the dedicated Medicine Tracker."
	}
	if len(summaries) == 0 {
		return map[string]any{
			"medicines":         []MedicineSummary{},
			"total_count":       0,
			"message":           "No medication data found. Start tracking medicines in the Medicine Tracker.",
			"side_effects_risk": "none",
			"recommendation":    "Add your medications to get personalized side effect analysis and drug interaction checks.",
		}, nil
	}

	report := MedicineReport{
		Medicines:          summaries,
		TotalCount:         len(summaries),
		FatigueCausingMeds: []string{},
		SideEffectsRisk:    "low",
		Message:            message,
		Recommendation:     "No obvious medication-related fatigue concerns found.",
	}
	for _, m := range summaries {
		if containsAny(m.SideEffects, fatigueKeywords) {
			report.FatigueCausingMeds = append(report.FatigueCausingMeds, m.Name)
		}
	}
	if n := len(report.FatigueCausingMeds); n > 0 {
		report.SideEffectsRisk = "high"
		report.Recommendation = fmt.Sprintf("%d medication(s) may contribute to fatigue: %s. Consult your doctor about alternatives.",
			n, strings.Join(report.FatigueCausingMeds, ", "))
	}

	if a.CheckInteractions {
		names := make([]string, 0, len(summaries))
		for _, m := range summaries {
			names = append(names, m.Name)
		}
		report.Interactions = predict.CheckInteractions(names)
		if predict.HasSeverity(report.Interactions, "HIGH") {
			report.SideEffectsRisk = "high"
			report.Recommendation += " A high-severity drug interaction was found; talk to a doctor or pharmacist before the next dose."
		}
	}
	return report, nil
}

// medicinesFromNutritionLogs scans free-form nutrition entries for logged
// medication, for users who never used the medicine tracker.
func (d *Dispatcher) medicinesFromNutritionLogs(ctx context.Context, c Caller) ([]MedicineSummary, error) {
	logs, err := d.store.NutritionLogs(ctx, c.UserID, time.Time{}, 20)
	if err != nil {
		return nil, upstream(CheckMedicines, "read nutrition logs", err)
	}
	var out []MedicineSummary
	for _, l := range logs {
		if !containsAny(string(l.Items), []string{"medicine", "medication", "pill", "tablet"}) {
			continue
		}
		items := objectOf(l.Items)
		out = append(out, MedicineSummary{
			Name:        orDefault(firstString(items, "medicine_name", "name", "medication"), "Unknown medication"),
			Dosage:      orDefault(firstString(items, "dosage"), "Not specified"),
			Frequency:   orDefault(firstString(items, "frequency"), "As needed"),
			SideEffects: firstString(items, "side_effects", "notes"),
			LoggedAt:    l.CreatedAt,
		})
	}
	return out, nil
}

type DailyAverages struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fats     int `json:"fats"`
}

type NutritionReport struct {
	DaysAnalyzed     int            `json:"days_analyzed"`
	AverageDaily     DailyAverages  `json:"average_daily"`
	Deficiencies     []string       `json:"deficiencies"`
	Warnings         []string       `json:"warnings"`
	NutritionQuality string         `json:"nutrition_quality"`
	DataSources      map[string]int `json:"data_sources"`
}

type macroEntry struct {
	calories, protein, carbs, fats float64
}

func (d *Dispatcher) analyzeNutrition(ctx context.Context, c Caller, a AnalyzeNutritionArgs) (any, error) {
	days := wholeDays(a.Days, 7)
	since := d.now().AddDate(0, 0, -days)
	sinceDate := since.Format(dateLayout)

	nutrition, err := d.store.NutritionLogs(ctx, c.UserID, since, 1000)
	if err != nil {
		return nil, upstream(AnalyzeNutrition, "read nutrition logs", err)
	}
	daily, err := d.store.DailyTracking(ctx, c.UserID, sinceDate, false)
	if err != nil {
		return nil, upstream(AnalyzeNutrition, "read daily tracking", err)
	}
	food, err := d.store.FoodLogs(ctx, c.UserID, sinceDate)
	if err != nil {
		return nil, upstream(AnalyzeNutrition, "read food logs", err)
	}

	if len(nutrition)+len(daily)+len(food) == 0 {
		return map[string]any{
			"message":        "No nutrition data available for analysis",
			"recommendation": "Start tracking meals in the Calorie Tracker to get personalized insights",
			"days_analyzed":  0,
		}, nil
	}

	entries := make([]macroEntry, 0, len(nutrition)+len(daily)+len(food))
	for _, l := range nutrition {
		items := objectOf(l.Items)
		entries = append(entries, macroEntry{
			calories: firstNumber(items, "calories"),
			protein:  firstNumber(items, "protein"),
			carbs:    firstNumber(items, "carbs"),
			fats:     firstNumber(items, "fats"),
		})
	}
	for _, t := range daily {
		diet := objectOf(t.DietConsumed)
		entries = append(entries, macroEntry{
			calories: firstNumber(diet, "total_calories", "calories"),
			protein:  firstNumber(diet, "total_protein", "protein"),
			carbs:    firstNumber(diet, "total_carbs", "carbs"),
			fats:     firstNumber(diet, "total_fats", "fats"),
		})
	}
	for _, f := range food {
		entries = append(entries, macroEntry{calories: f.Calories, protein: f.Protein, carbs: f.Carbs, fats: f.Fats})
	}

	var sum macroEntry
	for _, e := range entries {
		sum.calories += e.calories
		sum.protein += e.protein
		sum.carbs += e.carbs
		sum.fats += e.fats
	}
	n := float64(len(entries))
	avg := DailyAverages{
		Calories: round(sum.calories / n),
		Protein:  round(sum.protein / n),
		Carbs:    round(sum.carbs / n),
		Fats:     round(sum.fats / n),
	}

	report := NutritionReport{
		DaysAnalyzed: len(entries),
		AverageDaily: avg,
		Deficiencies: []string{},
		Warnings:     []string{},
		DataSources: map[string]int{
			"nutrition_logs": len(nutrition),
			"daily_tracking": len(daily),
			"food_logs":      len(food),
		},
	}
	if sum.protein/n < 50 {
		report.Deficiencies = append(report.Deficiencies, "protein")
		report.Warnings = append(report.Warnings, "Low protein intake. Aim for 50-60g daily.")
	}
	if sum.calories/n < 1500 {
		report.Deficiencies = append(report.Deficiencies, "calories")
		report.Warnings = append(report.Warnings, "Calorie intake below recommended minimum.")
	}
	if sum.fats/n < 40 {
		report.Deficiencies = append(report.Deficiencies, "healthy_fats")
		report.Warnings = append(report.Warnings, "Low fat intake. Healthy fats are essential.")
	}
	report.NutritionQuality = "good"
	if len(report.Deficiencies) > 0 {
		report.NutritionQuality = "needs_improvement"
	}
	return report, nil
}

type RecentWorkout struct {
	Date      string  `json:"date"`
	Type      string  `json:"type"`
	Duration  float64 `json:"duration"`
	Exercises int     `json:"exercises"`
}

type FitnessReport struct {
	DaysAnalyzed            int             `json:"days_analyzed"`
	TotalWorkouts           int             `json:"total_workouts"`
	WorkoutsPerWeek         float64         `json:"workouts_per_week"`
	AvgDurationMinutes      int             `json:"avg_duration_minutes"`
	TotalDurationHours      float64         `json:"total_duration_hours"`
	ActivityLevel           string          `json:"activity_level"`
	ActivityDescription     string          `json:"activity_description"`
	WorkoutTypeDistribution map[string]int  `json:"workout_type_distribution"`
	RecentWorkouts          []RecentWorkout `json:"recent_workouts"`
	DataSources             map[string]int  `json:"data_sources"`
}

func (d *Dispatcher) fitnessActivity(ctx context.Context, c Caller, a FitnessActivityArgs) (any, error) {
	days := wholeDays(a.Days, 7)
	since := d.now().AddDate(0, 0, -days)

	daily, err := d.store.DailyTracking(ctx, c.UserID, since.Format(dateLayout), true)
	if err != nil {
		return nil, upstream(GetFitnessActivity, "read daily tracking", err)
	}
	progress, err := d.store.WorkoutProgress(ctx, c.UserID, since)
	if err != nil {
		return nil, upstream(GetFitnessActivity, "read workout progress", err)
	}

	if len(daily)+len(progress) == 0 {
		return map[string]any{
			"message":        "No workout data available",
			"activity_level": "sedentary",
			"recommendation": "Consider starting with 20-30 minutes of light physical activity daily",
			"days_analyzed":  days,
		}, nil
	}

	workouts := make([]RecentWorkout, 0, len(daily)+len(progress))
	for _, t := range daily {
		w := objectOf(t.WorkoutDone)
		exercises, _ := w["exercises"].([]any)
		workouts = append(workouts, RecentWorkout{
			Date:      t.Date,
			Type:      orDefault(firstString(w, "type", "workout_type"), "general"),
			Duration:  orDefaultNumber(firstNumber(w, "duration", "total_duration"), 30),
			Exercises: len(exercises),
		})
	}
	for _, p := range progress {
		data := objectOf(p.ProgressData)
		workouts = append(workouts, RecentWorkout{
			Date:     p.CreatedAt.Format(dateLayout),
			Type:     orDefault(p.WorkoutType, "general"),
			Duration: orDefaultNumber(firstNumber(data, "duration"), 30),
		})
	}

	total := len(workouts)
	perWeek := float64(total) / float64(days) * 7
	var minutes float64
	types := map[string]int{}
	for _, w := range workouts {
		minutes += w.Duration
		types[w.Type]++
	}

	report := FitnessReport{
		DaysAnalyzed:            days,
		TotalWorkouts:           total,
		WorkoutsPerWeek:         math.Round(perWeek*10) / 10,
		AvgDurationMinutes:      round(minutes / float64(total)),
		TotalDurationHours:      math.Round(minutes/60*10) / 10,
		WorkoutTypeDistribution: types,
		RecentWorkouts:          workouts[:min(5, total)],
		DataSources: map[string]int{
			"daily_tracking":   len(daily),
			"workout_progress": len(progress),
		},
	}
	switch {
	case perWeek >= 5:
		report.ActivityLevel = "very_active"
		report.ActivityDescription = "Excellent! You maintain a very active lifestyle."
	case perWeek >= 3:
		report.ActivityLevel = "active"
		report.ActivityDescription = "Good! You meet recommended activity guidelines."
	case perWeek >= 1:
		report.ActivityLevel = "lightly_active"
		report.ActivityDescription = "Room for improvement. Try to increase frequency."
	default:
		report.ActivityLevel = "sedentary"
		report.ActivityDescription = "Low activity detected. This may contribute to fatigue."
	}
	return report, nil
}

var categoryScores = map[string]float64{
	"Severe":           1,
	"Moderate":         5,
	"Mild":             7,
	"Minimal/Low risk": 9,
}

type MoodEntry struct {
	Date     string `json:"date"`
	Category string `json:"category"`
	Score    int    `json:"score"`
}

type MentalHealthReport struct {
	EntriesAnalyzed      int            `json:"entries_analyzed"`
	MoodTrend            string         `json:"mood_trend"`
	TrendDescription     string         `json:"trend_description"`
	MentalHealthStatus   string         `json:"mental_health_status"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	Concerns             []string       `json:"concerns"`
	Recommendation       string         `json:"recommendation"`
	RecentEntries        []MoodEntry    `json:"recent_entries"`
}

func (d *Dispatcher) assessMentalHealth(ctx context.Context, c Caller) (any, error) {
	logs, err := d.store.RecentMentalHealthLogs(ctx, c.UserID, 21)
	if err != nil {
		return nil, upstream(AssessMentalHealth, "read mental health logs", err)
	}
	if len(logs) == 0 {
		return map[string]any{
			"message":              "No mental health data available",
			"recommendation":       "Start tracking your mood and stress levels daily to identify patterns",
			"mental_health_status": "unknown",
		}, nil
	}

	recent := logs[:min(7, len(logs))]
	older := logs[min(7, len(logs)):min(14, len(logs))]
	recentAvg := averageMood(recent)
	olderAvg := recentAvg
	if len(older) > 0 {
		olderAvg = averageMood(older)
	}

	report := MentalHealthReport{
		EntriesAnalyzed:      len(logs),
		MentalHealthStatus:   "good",
		CategoryDistribution: map[string]int{},
		Concerns:             []string{},
	}
	switch {
	case recentAvg > olderAvg+1:
		report.MoodTrend = "improving"
		report.TrendDescription = "Your mental health has been improving recently."
	case recentAvg < olderAvg-1:
		report.MoodTrend = "declining"
		report.TrendDescription = "Your mental health has been declining. Consider reaching out for support."
	default:
		report.MoodTrend = "stable"
		report.TrendDescription = "Your mental health has been relatively stable."
	}

	for _, l := range logs {
		report.CategoryDistribution[l.Category]++
	}
	if n := report.CategoryDistribution["Severe"]; n > 0 {
		report.MentalHealthStatus = "needs_attention"
		report.Concerns = append(report.Concerns, fmt.Sprintf("%d entries with Severe stress/mood", n))
	}
	if float64(report.CategoryDistribution["Moderate"]) > float64(len(logs))/2 {
		report.MentalHealthStatus = "needs_attention"
		report.Concerns = append(report.Concerns, "More than half your entries show Moderate stress")
	}
	if report.MoodTrend == "declining" {
		report.Concerns = append(report.Concerns, "Mental health showing declining trend")
	}
	if len(report.Concerns) == 0 {
		report.Concerns = append(report.Concerns, "No major concerns detected")
	}

	if report.MentalHealthStatus == "needs_attention" {
		report.Recommendation = "Consider speaking with a mental health professional or counselor. Practice stress management techniques like meditation or exercise."
	} else {
		report.Recommendation = "Continue monitoring your mental health regularly. Maintain current wellness practices."
	}

	for _, l := range recent[:min(3, len(recent))] {
		report.RecentEntries = append(report.RecentEntries, MoodEntry{
			Date:     l.CreatedAt.Format(dateLayout),
			Category: l.Category,
			Score:    l.Score,
		})
	}
	return report, nil
}

func averageMood(logs []store.MentalHealthLog) float64 {
	var sum float64
	for _, l := range logs {
		switch score, ok := categoryScores[l.Category]; {
		case ok:
			sum += score
		case l.Score != 0:
			sum += float64(l.Score)
		default:
			sum += 5
		}
	}
	return sum / float64(len(logs))
}

// objectOf decodes a JSON object column, treating anything else as empty.
func objectOf(raw json.RawMessage) map[string]any {
	m := map[string]any{}
	if len(raw) == 0 {
		return m
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstNumber returns the first non-zero numeric value among keys.
// Numeric strings are accepted.
func firstNumber(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			var f float64
			if _, err := fmt.Sscanf(v, "%g", &f); err == nil && f != 0 {
				return f
			}
		}
	}
	return 0
}

func containsAny(s string, words []string) bool {
	s = strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func orDefaultNumber(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func round(f float64) int {
	return int(math.Round(f))
}
