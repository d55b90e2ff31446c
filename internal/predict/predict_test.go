package predict

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestPredictFiltersPrescriptionMedicines(t *testing.T) {
	llm := &fakeCompleter{reply: "```json\n" + `{
		"conditions": ["Common cold"],
		"medicines": ["Paracetamol", "Amoxicillin (prescription only)"],
		"care_tips": ["Rest"],
		"see_doctor_if": ["Fever above 39C"]
	}` + "\n```"}
	p := New(llm, nil)

	got, err := p.Predict(context.Background(), "runny nose", map[string]any{"How long?": "2 days"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	want := Result{
		Conditions:  []string{"Common cold"},
		Medicines:   []string{"Paracetamol"},
		CareTips:    []string{"Rest"},
		SeeDoctorIf: []string{"Fever above 39C"},
		Disclaimer:  Disclaimer,
		Source:      "model",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Predict mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(llm.prompt, "runny nose") || !strings.Contains(llm.prompt, "2 days") {
		t.Fatalf("prompt missing inputs: %s", llm.prompt)
	}
}

func TestPredictRejectsProse(t *testing.T) {
	p := New(&fakeCompleter{reply: "You probably have a cold."}, nil)
	_, err := p.Predict(context.Background(), "cough", nil)
	if !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}

func TestPredictPassesModelError(t *testing.T) {
	boom := errors.New("quota exceeded")
	p := New(&fakeCompleter{err: boom}, nil)
	if _, err := p.Predict(context.Background(), "cough", nil); !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestFollowups(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{"json array", `["How long?", "Any fever?"]`, []string{"How long?", "Any fever?"}},
		{"fenced array", "```json\n[\"Where does it hurt?\"]\n```", []string{"Where does it hurt?"}},
		{"raw text kept", "How long have you had it?", []string{"How long have you had it?"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&fakeCompleter{reply: tt.reply}, nil)
			got, err := p.Followups(context.Background(), "headache")
			if err != nil {
				t.Fatalf("Followups: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Followups mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name       string
		symptoms   []string
		duration   string
		conditions []string
		warnings   int
		level      string
	}{
		{
			name:       "cold with fever",
			symptoms:   []string{"cough", "fever"},
			conditions: []string{"Common cold or influenza", "Upper respiratory irritation"},
			level:      "MEDIUM",
		},
		{
			name:       "chest pain is urgent",
			symptoms:   []string{"chest pain"},
			conditions: []string{},
			warnings:   1,
			level:      "HIGH",
		},
		{
			name:       "long fatigue",
			symptoms:   []string{"Tiredness"},
			duration:   "3 weeks",
			conditions: []string{"Fatigue related to sleep, nutrition or stress"},
			warnings:   1,
			level:      "MEDIUM",
		},
		{
			name:       "skin irritation",
			symptoms:   []string{"itchy elbow"},
			conditions: []string{"Allergic reaction or dermatitis"},
			level:      "LOW",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.symptoms, tt.duration)
			if diff := cmp.Diff(tt.conditions, got.Conditions); diff != "" {
				t.Fatalf("conditions mismatch (-want +got):\n%s", diff)
			}
			if len(got.WarningSigns) != tt.warnings {
				t.Fatalf("warnings = %v", got.WarningSigns)
			}
			if got.RiskLevel != tt.level {
				t.Fatalf("risk level = %s (score %d)", got.RiskLevel, got.RiskScore)
			}
			if got.Source != "rules" {
				t.Fatalf("source = %q", got.Source)
			}
		})
	}
}

func TestCheckInteractions(t *testing.T) {
	got := CheckInteractions([]string{"Sertraline 50mg", "Ibuprofen", "warfarin"})
	want := []Interaction{
		{Pair: "nsaids+anticoagulants", Severity: "HIGH", Note: "Increased bleeding risk; avoid unless a doctor approves."},
		{Pair: "ssris+nsaids", Severity: "MEDIUM", Note: "Raised risk of stomach bleeding; take with food and monitor."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("CheckInteractions mismatch (-want +got):\n%s", diff)
	}
	if !HasSeverity(got, "HIGH") || HasSeverity(got, "LOW") {
		t.Fatal("HasSeverity disagrees with result")
	}
	if got := CheckInteractions([]string{"Vitamin D"}); len(got) != 0 {
		t.Fatalf("expected no interactions, got %v", got)
	}
}
