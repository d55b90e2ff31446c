// Package predict prompts a model for JSON: likely conditions and
// over-the-counter guidance for symptoms, generated workout and diet plans,
// and day-by-day plan adherence.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Skufu/healthmate/internal/gateway"
)

const Disclaimer = "This is not medical advice. Consult a doctor for serious symptoms."

// ErrUnparseable is returned when the model reply is not the requested JSON.
var ErrUnparseable = errors.New("model reply is not valid JSON")

type Result struct {
	Conditions  []string `json:"conditions"`
	Medicines   []string `json:"medicines"`
	CareTips    []string `json:"care_tips"`
	SeeDoctorIf []string `json:"see_doctor_if"`
	Disclaimer  string   `json:"disclaimer"`
	Source      string   `json:"source,omitempty"`
}

type Predictor struct {
	llm    gateway.Completer
	logger *slog.Logger
}

func New(llm gateway.Completer, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{llm: llm, logger: logger}
}

// Predict asks the model for likely conditions given the problem and the
// user's answers to follow-up questions. The result is safety filtered.
func (p *Predictor) Predict(ctx context.Context, problem string, answers map[string]any) (Result, error) {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return Result{}, fmt.Errorf("encode answers: %w", err)
	}
	prompt := fmt.Sprintf(`The user reported: %q.
Follow-up answers: %s.

Suggest:
1. Likely conditions (max 3)
2. Safe over-the-counter medicines
3. Home care tips
4. Red-flag symptoms requiring doctor

Return ONLY JSON, with no markdown:
{
  "conditions": [...],
  "medicines": [...],
  "care_tips": [...],
  "see_doctor_if": [...]
}`, problem, answersJSON)

	reply, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		return Result{}, err
	}
	var res Result
	if err := json.Unmarshal([]byte(stripFences(reply)), &res); err != nil {
		p.logger.Warn("prediction reply not JSON", "error", err, "reply_len", len(reply))
		return Result{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	res.Source = "model"
	return filterSafety(res), nil
}

// Followups asks the model for short clarifying questions about the problem.
func (p *Predictor) Followups(ctx context.Context, problem string) ([]string, error) {
	prompt := fmt.Sprintf(`A user reports: %q.
Generate 5-6 short follow-up questions to clarify their symptoms.
Return ONLY a JSON array of questions, with no markdown or explanation.`, problem)

	reply, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	cleaned := stripFences(reply)
	var questions []string
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		// Keep the raw reply as a single question rather than failing the form.
		p.logger.Debug("followups reply not a JSON array", "error", err)
		if cleaned == "" {
			return nil, fmt.Errorf("%w: empty reply", ErrUnparseable)
		}
		return []string{cleaned}, nil
	}
	return questions, nil
}

// filterSafety drops prescription-only medicines and stamps the disclaimer.
func filterSafety(r Result) Result {
	otc := make([]string, 0, len(r.Medicines))
	for _, m := range r.Medicines {
		if strings.Contains(strings.ToLower(m), "prescription") {
			continue
		}
		otc = append(otc, m)
	}
	r.Medicines = otc
	r.Disclaimer = Disclaimer
	return r
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
