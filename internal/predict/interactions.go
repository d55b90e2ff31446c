package predict

import "fmt"

var (
	pde5iClass         = []string{"sildenafil", "tadalafil", "vardenafil", "avanafil"}
	nitrateClass       = []string{"nitroglycerin", "isosorbide"}
	alphaBlockerClass  = []string{"tamsulosin", "doxazosin", "terazosin", "alfuzosin"}
	cyp3a4Class        = []string{"ketoconazole", "itraconazole", "ritonavir", "cobicistat", "clarithromycin"}
	nsaidClass         = []string{"ibuprofen", "naproxen", "diclofenac", "aspirin", "celecoxib"}
	anticoagulantClass = []string{"warfarin", "apixaban", "rivaroxaban", "dabigatran", "heparin"}
	ssriClass          = []string{"fluoxetine", "sertraline", "citalopram", "escitalopram", "paroxetine"}
	maoiClass          = []string{"phenelzine", "tranylcypromine", "selegiline", "isocarboxazid"}

	interactionDB = []Rule{
		{ID: "nitrates+pde5i", Type: "interaction", Severity: "HIGH", Match: RuleMatch{ClassA: "nitrates", ClassB: "pde5i"}, Note: "Risk of profound hypotension; avoid co-administration."},
		{ID: "alpha+pde5i", Type: "interaction", Severity: "MEDIUM", Match: RuleMatch{ClassA: "alphaBlockers", ClassB: "pde5i"}, Note: "Additive hypotension; separate dosing and start low."},
		{ID: "cyp3a4+pde5i", Type: "interaction", Severity: "MEDIUM", Match: RuleMatch{ClassA: "cyp3a4Inhibitors", ClassB: "pde5i"}, Note: "Higher PDE5i levels; use lowest dose and monitor."},
		{ID: "nsaid+anticoagulant", Type: "interaction", Severity: "HIGH", Match: RuleMatch{ClassA: "nsaids", ClassB: "anticoagulants"}, Note: "Increased bleeding risk; avoid unless a doctor approves."},
		{ID: "ssri+maoi", Type: "interaction", Severity: "HIGH", Match: RuleMatch{ClassA: "ssris", ClassB: "maois"}, Note: "Risk of serotonin syndrome; never combine."},
		{ID: "ssri+nsaid", Type: "interaction", Severity: "MEDIUM", Match: RuleMatch{ClassA: "ssris", ClassB: "nsaids"}, Note: "Raised risk of stomach bleeding; take with food and monitor."},
	}
)

type Interaction struct {
	Pair     string `json:"pair"`
	Severity string `json:"severity"`
	Note     string `json:"note"`
}

// CheckInteractions reports known drug-class interactions among the named
// medicines, most severe first.
func CheckInteractions(medicines []string) []Interaction {
	tokens := make([]string, 0, len(medicines))
	for _, m := range medicines {
		tokens = append(tokens, normalizeList(m)...)
	}

	out := []Interaction{}
	for _, sev := range []string{"HIGH", "MEDIUM", "LOW"} {
		for _, rule := range interactionDB {
			if rule.Severity != sev {
				continue
			}
			if hasDrugClass(tokens, rule.Match.ClassA) && hasDrugClass(tokens, rule.Match.ClassB) {
				out = append(out, Interaction{
					Pair:     fmt.Sprintf("%s+%s", rule.Match.ClassA, rule.Match.ClassB),
					Severity: rule.Severity,
					Note:     rule.Note,
				})
			}
		}
	}
	return out
}

// HasSeverity reports whether any interaction has the given severity.
func HasSeverity(items []Interaction, severity string) bool {
	for _, i := range items {
		if i.Severity == severity {
			return true
		}
	}
	return false
}

func hasDrugClass(tokens []string, className string) bool {
	switch className {
	case "pde5i":
		return hasClassToken(tokens, pde5iClass)
	case "nitrates":
		return hasClassToken(tokens, nitrateClass)
	case "alphaBlockers":
		return hasClassToken(tokens, alphaBlockerClass)
	case "cyp3a4Inhibitors":
		return hasClassToken(tokens, cyp3a4Class)
	case "nsaids":
		return hasClassToken(tokens, nsaidClass)
	case "anticoagulants":
		return hasClassToken(tokens, anticoagulantClass)
	case "ssris":
		return hasClassToken(tokens, ssriClass)
	case "maois":
		return hasClassToken(tokens, maoiClass)
	default:
		return false
	}
}
