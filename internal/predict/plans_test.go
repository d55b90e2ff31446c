package predict

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGeneratePlan(t *testing.T) {
	llm := &fakeCompleter{reply: "```json\n" + `{
		"workoutPlan": [{"day": "Day 1", "exercises": [{"name": "Squat", "sets": 3, "reps": 10}]}],
		"dietPlan": [{"meal": "Breakfast", "items": [{"food": "Oats", "quantity": "1 cup"}]}]
	}` + "\n```"}
	p := New(llm, nil)

	got, err := p.GeneratePlan(context.Background(), Profile{Name: "Asha", Age: 29, Goal: "build strength", DietPreference: "vegetarian"})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	var workouts []map[string]any
	if err := json.Unmarshal(got.WorkoutPlan, &workouts); err != nil || len(workouts) != 1 || workouts[0]["day"] != "Day 1" {
		t.Fatalf("workout plan = %s (%v)", got.WorkoutPlan, err)
	}
	if !strings.Contains(string(got.DietPlan), "Oats") {
		t.Fatalf("diet plan = %s", got.DietPlan)
	}
	for _, want := range []string{`"name":"Asha"`, `"goal":"build strength"`, `"dietPreference":"vegetarian"`} {
		if !strings.Contains(llm.prompt, want) {
			t.Fatalf("prompt missing %s: %s", want, llm.prompt)
		}
	}
}

func TestGeneratePlanRejectsIncompleteReply(t *testing.T) {
	for _, reply := range []string{
		`{"workoutPlan": [{"day": "Day 1"}]}`,
		`{"workoutPlan": [], "dietPlan": null}`,
		"Here is your plan: do squats.",
	} {
		p := New(&fakeCompleter{reply: reply}, nil)
		if _, err := p.GeneratePlan(context.Background(), Profile{Name: "A", Age: 30, Goal: "g"}); !errors.Is(err, ErrUnparseable) {
			t.Fatalf("%q: expected ErrUnparseable, got %v", reply, err)
		}
	}
}

func TestAnalyzeDay(t *testing.T) {
	llm := &fakeCompleter{reply: `Sure! {"workout_adherence": 120, "diet_adherence": 65.5, "feedback": "Good effort."} Keep going.`}
	p := New(llm, nil)

	got, err := p.AnalyzeDay(context.Background(),
		DayRecord{Workout: map[string]any{"type": "run", "minutes": 30}, Diet: "2000 kcal"},
		DayRecord{Workout: "ran 40 minutes"},
	)
	if err != nil {
		t.Fatalf("AnalyzeDay: %v", err)
	}
	want := DayAnalysis{WorkoutAdherence: 100, DietAdherence: 65.5, Feedback: "Good effort."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("AnalyzeDay mismatch (-want +got):\n%s", diff)
	}
	for _, want := range []string{`{"minutes":30,"type":"run"}`, "ran 40 minutes", "Planned Diet: 2000 kcal", "Actual Diet: none recorded"} {
		if !strings.Contains(llm.prompt, want) {
			t.Fatalf("prompt missing %q: %s", want, llm.prompt)
		}
	}
}

func TestAnalyzeDayWithoutObject(t *testing.T) {
	p := New(&fakeCompleter{reply: "I cannot compare these."}, nil)
	if _, err := p.AnalyzeDay(context.Background(), DayRecord{}, DayRecord{}); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}
