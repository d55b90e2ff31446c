package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Profile describes the person a workout and diet plan is generated for.
type Profile struct {
	Name           string  `json:"name"`
	Age            float64 `json:"age"`
	Gender         string  `json:"gender,omitempty"`
	WeightKg       float64 `json:"weightKg,omitempty"`
	HeightCm       float64 `json:"heightCm,omitempty"`
	ActivityLevel  string  `json:"activityLevel,omitempty"`
	Goal           string  `json:"goal"`
	DietPreference string  `json:"dietPreference,omitempty"`
}

// GeneratedPlan keeps both sections as the model produced them.
type GeneratedPlan struct {
	WorkoutPlan json.RawMessage `json:"workoutPlan"`
	DietPlan    json.RawMessage `json:"dietPlan"`
}

// GeneratePlan asks the model for a workout and diet plan fitted to the
// profile. A reply missing either section is ErrUnparseable.
func (p *Predictor) GeneratePlan(ctx context.Context, profile Profile) (GeneratedPlan, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return GeneratedPlan{}, fmt.Errorf("encode profile: %w", err)
	}
	prompt := fmt.Sprintf(`Generate a workout and diet plan in valid JSON format only.
No code block markers.
The structure must be:
{
  "workoutPlan": [
    { "day": "Day 1", "exercises": [ { "name": "...", "sets": 3, "reps": 10 } ] }
  ],
  "dietPlan": [
    { "meal": "Breakfast", "items": [ { "food": "...", "quantity": "..." } ] }
  ]
}
User profile: %s`, profileJSON)

	reply, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		return GeneratedPlan{}, err
	}
	var plan GeneratedPlan
	if err := json.Unmarshal([]byte(stripFences(reply)), &plan); err != nil {
		p.logger.Warn("plan reply not JSON", "error", err, "reply_len", len(reply))
		return GeneratedPlan{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if isEmptyJSON(plan.WorkoutPlan) || isEmptyJSON(plan.DietPlan) {
		return GeneratedPlan{}, fmt.Errorf("%w: incomplete plan structure", ErrUnparseable)
	}
	return plan, nil
}

// DayRecord is one day's workout and diet, planned or actual. Either field
// may be structured JSON or free text.
type DayRecord struct {
	Workout any `json:"workout"`
	Diet    any `json:"diet"`
}

// DayAnalysis scores how closely a day followed its plan. Adherence is a
// percentage in [0, 100].
type DayAnalysis struct {
	WorkoutAdherence float64 `json:"workout_adherence"`
	DietAdherence    float64 `json:"diet_adherence"`
	Feedback         string  `json:"feedback"`
}

// AnalyzeDay compares actual activity with the plan.
func (p *Predictor) AnalyzeDay(ctx context.Context, planned, actual DayRecord) (DayAnalysis, error) {
	prompt := fmt.Sprintf(`Compare today's actual fitness data with the planned data.
Return JSON with:
- workout_adherence %% (0-100)
- diet_adherence %% (0-100)
- feedback as a short message

Planned Workout: %s
Actual Workout: %s

Planned Diet: %s
Actual Diet: %s

Respond ONLY with valid JSON:
{
  "workout_adherence": number,
  "diet_adherence": number,
  "feedback": string
}`, describe(planned.Workout), describe(actual.Workout), describe(planned.Diet), describe(actual.Diet))

	reply, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		return DayAnalysis{}, err
	}
	obj, ok := outerObject(reply)
	if !ok {
		return DayAnalysis{}, fmt.Errorf("%w: no object in reply", ErrUnparseable)
	}
	var a DayAnalysis
	if err := json.Unmarshal([]byte(obj), &a); err != nil {
		p.logger.Warn("day analysis reply not JSON", "error", err, "reply_len", len(reply))
		return DayAnalysis{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	a.WorkoutAdherence = clampPercent(a.WorkoutAdherence)
	a.DietAdherence = clampPercent(a.DietAdherence)
	return a, nil
}

// describe renders text as-is and anything else as JSON.
func describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "none recorded"
	case string:
		return v
	case json.RawMessage:
		return string(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// outerObject returns the text from the first '{' to the last '}'.
func outerObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func isEmptyJSON(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func clampPercent(v float64) float64 {
	return max(0, min(100, v))
}
