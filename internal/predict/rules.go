package predict

import (
	"slices"
	"sort"
	"strings"
)

var (
	respiratoryClass = []string{"cough", "sore throat", "congestion", "runny nose", "sneez", "wheez"}
	feverClass       = []string{"fever", "chills", "temperature", "sweats"}
	gastroClass      = []string{"nausea", "vomit", "diarrh", "stomach", "abdominal", "cramp", "bloat"}
	cardiacClass     = []string{"chest pain", "chest tight", "palpitation", "shortness of breath", "breathless"}
	neuroClass       = []string{"headache", "migraine", "dizz", "numb", "confus", "faint"}
	fatigueClass     = []string{"fatigue", "tired", "exhaust", "weak", "lethargy", "sleepy"}
	skinClass        = []string{"rash", "itch", "hives", "swelling"}
	moodClass        = []string{"anxious", "anxiety", "stress", "sad", "depress", "insomnia", "can't sleep"}

	ruleDB = []Rule{
		{ID: "respiratory+fever", Type: "condition", Severity: "MEDIUM", Match: RuleMatch{ClassA: "respiratory", ClassB: "fever"}, Note: "Common cold or influenza"},
		{ID: "gastro+fever", Type: "condition", Severity: "MEDIUM", Match: RuleMatch{ClassA: "gastro", ClassB: "fever"}, Note: "Gastroenteritis"},
		{ID: "respiratory", Type: "condition", Severity: "LOW", Match: RuleMatch{ClassA: "respiratory"}, Note: "Upper respiratory irritation"},
		{ID: "gastro", Type: "condition", Severity: "LOW", Match: RuleMatch{ClassA: "gastro"}, Note: "Indigestion or food intolerance"},
		{ID: "neuro", Type: "condition", Severity: "LOW", Match: RuleMatch{ClassA: "neuro"}, Note: "Tension headache or dehydration"},
		{ID: "fatigue", Type: "condition", Severity: "LOW", Match: RuleMatch{ClassA: "fatigue"}, Note: "Fatigue related to sleep, nutrition or stress"},
		{ID: "fatigue+mood", Type: "condition", Severity: "MEDIUM", Match: RuleMatch{ClassA: "fatigue", ClassB: "mood"}, Note: "Stress-related exhaustion"},
		{ID: "skin", Type: "condition", Severity: "LOW", Match: RuleMatch{ClassA: "skin"}, Note: "Allergic reaction or dermatitis"},
		{ID: "cardiac", Type: "warning", Severity: "HIGH", Match: RuleMatch{ClassA: "cardiac"}, Note: "Chest pain or breathlessness needs urgent medical evaluation."},
		{ID: "neuro+fever", Type: "warning", Severity: "HIGH", Match: RuleMatch{ClassA: "neuro", ClassB: "fever"}, Note: "Headache with fever can signal a serious infection; see a doctor promptly."},
		{ID: "long-duration", Type: "warning", Severity: "MEDIUM", Match: RuleMatch{Duration: true}, Note: "Symptoms lasting more than a week should be checked by a doctor."},
	}
	severityWeight = map[string]int{
		"HIGH":   40,
		"MEDIUM": 20,
		"LOW":    10,
	}
)

type Rule struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"` // condition|warning
	Severity string    `json:"severity"`
	Match    RuleMatch `json:"match"`
	Note     string    `json:"note"`
}

type RuleMatch struct {
	ClassA   string `json:"classA"`
	ClassB   string `json:"classB,omitempty"`
	Duration bool   `json:"duration,omitempty"`
}

// Assessment is the rule engine's reading of a symptom list.
type Assessment struct {
	Conditions   []string `json:"conditions"`
	WarningSigns []string `json:"warning_signs"`
	RiskScore    int      `json:"risk_score"`
	RiskLevel    string   `json:"risk_level"`
	Source       string   `json:"source"`
}

// Assess matches symptoms against the rule table. It never fails and is
// used when the model is unavailable.
func Assess(symptoms []string, duration string) Assessment {
	tokens := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		tokens = append(tokens, normalizeList(s)...)
	}
	long := isLongDuration(duration)

	type hit struct {
		rule  Rule
		score int
	}
	var hits []hit
	for _, rule := range ruleDB {
		matched := false
		switch {
		case rule.Match.Duration:
			matched = long
		case rule.Match.ClassB != "":
			matched = hasClassTokenByName(tokens, rule.Match.ClassA) && hasClassTokenByName(tokens, rule.Match.ClassB)
		default:
			matched = hasClassTokenByName(tokens, rule.Match.ClassA)
		}
		if matched {
			hits = append(hits, hit{rule: rule, score: severityWeight[rule.Severity]})
		}
	}
	// Most severe first; ruleDB order breaks ties.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := Assessment{Conditions: []string{}, WarningSigns: []string{}, Source: "rules"}
	for _, h := range hits {
		out.RiskScore += h.score
		switch h.rule.Type {
		case "condition":
			if len(out.Conditions) < 3 && !slices.Contains(out.Conditions, h.rule.Note) {
				out.Conditions = append(out.Conditions, h.rule.Note)
			}
		case "warning":
			out.WarningSigns = append(out.WarningSigns, h.rule.Note)
		}
	}

	switch {
	case out.RiskScore >= 40:
		out.RiskLevel = "HIGH"
	case out.RiskScore >= 20:
		out.RiskLevel = "MEDIUM"
	default:
		out.RiskLevel = "LOW"
	}
	return out
}

func isLongDuration(d string) bool {
	d = strings.ToLower(d)
	for _, unit := range []string{"week", "month", "year"} {
		if strings.Contains(d, unit) {
			return true
		}
	}
	return false
}

func normalizeList(text string) []string {
	out := []string{}
	for _, t := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		trimmed := strings.TrimSpace(t)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func hasClassToken(tokens []string, class []string) bool {
	for _, t := range tokens {
		for _, word := range class {
			if strings.Contains(t, word) {
				return true
			}
		}
	}
	return false
}

func hasClassTokenByName(tokens []string, className string) bool {
	switch className {
	case "respiratory":
		return hasClassToken(tokens, respiratoryClass)
	case "fever":
		return hasClassToken(tokens, feverClass)
	case "gastro":
		return hasClassToken(tokens, gastroClass)
	case "cardiac":
		return hasClassToken(tokens, cardiacClass)
	case "neuro":
		return hasClassToken(tokens, neuroClass)
	case "fatigue":
		return hasClassToken(tokens, fatigueClass)
	case "skin":
		return hasClassToken(tokens, skinClass)
	case "mood":
		return hasClassToken(tokens, moodClass)
	default:
		return false
	}
}
