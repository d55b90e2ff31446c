package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skufu/healthmate/internal/places"
	"github.com/Skufu/healthmate/internal/predict"
)

type Diagnosis struct {
	Analysis       string   `json:"analysis"`
	Conditions     []string `json:"conditions"`
	Medicines      []string `json:"medicines,omitempty"`
	CareTips       []string `json:"care_tips,omitempty"`
	WarningSigns   []string `json:"warning_signs,omitempty"`
	Recommendation string   `json:"recommendation"`
	Confidence     string   `json:"confidence,omitempty"`
	RiskLevel      string   `json:"risk_level,omitempty"`
	Disclaimer     string   `json:"disclaimer,omitempty"`
	Note           string   `json:"note,omitempty"`
}

// predictDisease asks the predictor and falls back to the symptom rule
// table when it is unavailable. It never fails.
func (d *Dispatcher) predictDisease(ctx context.Context, a PredictDiseaseArgs) (any, error) {
	problem := strings.Join(a.Symptoms, ", ")
	if d.predictor != nil {
		res, err := d.predictor.Predict(ctx, problem, map[string]any{
			"symptoms": a.Symptoms,
			"duration": orDefault(a.Duration, "Not specified"),
			"onset":    "Recent",
		})
		if err == nil {
			return diagnosisFromPrediction(problem, res), nil
		}
		d.logger.Warn("prediction failed, using rule fallback", "error", err)
	}

	assessed := predict.Assess(a.Symptoms, a.Duration)
	analysis := "Symptom Analysis: " + problem
	if a.Duration != "" {
		analysis += fmt.Sprintf(" (Duration: %s)", a.Duration)
	}
	conditions := assessed.Conditions
	if len(conditions) == 0 {
		conditions = a.Symptoms
	}
	return Diagnosis{
		Analysis:       analysis,
		Conditions:     conditions,
		WarningSigns:   assessed.WarningSigns,
		Recommendation: "Consult a healthcare professional for accurate diagnosis and medical advice.",
		RiskLevel:      assessed.RiskLevel,
		Disclaimer:     predict.Disclaimer,
		Note:           "Using fallback analysis. Consider consulting a doctor for persistent symptoms.",
	}, nil
}

func diagnosisFromPrediction(problem string, r predict.Result) Diagnosis {
	out := Diagnosis{
		Analysis:       fmt.Sprintf("Based on reported symptoms (%s):", problem),
		Conditions:     nonNil(r.Conditions),
		Medicines:      r.Medicines,
		CareTips:       r.CareTips,
		WarningSigns:   r.SeeDoctorIf,
		Recommendation: "Consult a healthcare professional for diagnosis.",
		Confidence:     "Medium",
		Disclaimer:     r.Disclaimer,
	}
	if len(r.Conditions) > 0 {
		out.Recommendation = fmt.Sprintf("Possible conditions: %s.", strings.Join(r.Conditions, ", "))
		if len(r.Medicines) > 0 {
			out.Recommendation += " Consider these OTC medicines: " + strings.Join(r.Medicines, ", ")
		}
	}
	return out
}

type ClinicSearch struct {
	Clinics      []places.Place `json:"clinics"`
	Count        int            `json:"count"`
	SearchParams struct {
		Location  string  `json:"location"`
		Specialty string  `json:"specialty,omitempty"`
		RadiusKM  float64 `json:"radius_km"`
	} `json:"search_params"`
	Message string `json:"message,omitempty"`
}

func (d *Dispatcher) findClinics(ctx context.Context, a FindClinicsArgs) (any, error) {
	if d.places == nil {
		return nil, upstream(FindClinics, "search places", errors.New("place search is not configured"))
	}
	radius := orDefaultNumber(a.Radius, 5)
	kind := "clinic"
	if s := strings.TrimSpace(a.Specialty); s != "" && !strings.EqualFold(s, "general") {
		kind = s + " clinic"
	}
	query := fmt.Sprintf("%s near %s", kind, a.Location)

	found, err := d.places.Search(ctx, places.Query{Text: query})
	if err != nil {
		return nil, upstream(FindClinics, "search places", err)
	}

	out := ClinicSearch{Clinics: found, Count: len(found)}
	if out.Clinics == nil {
		out.Clinics = []places.Place{}
	}
	out.SearchParams.Location = a.Location
	out.SearchParams.Specialty = a.Specialty
	out.SearchParams.RadiusKM = radius
	if len(found) == 0 {
		out.Message = fmt.Sprintf("No clinics found near %s. Try a broader location.", a.Location)
	}
	return out, nil
}
