package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions   int            `json:"total_decisions"`
	Changes          int            `json:"changes"`           // decisions that moved the flex fraction
	LongestHold      int            `json:"longest_hold"`      // longest run of consecutive unchanged decisions
	RuleDistribution map[string]int `json:"rule_distribution"` // rule name → count
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		RuleDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Decisions)
	hold := 0
	for _, d := range st.Decisions {
		summary.RuleDistribution[d.Rule]++
		if d.Changed() {
			summary.Changes++
			hold = 0
			continue
		}
		hold++
		if hold > summary.LongestHold {
			summary.LongestHold = hold
		}
	}
	return summary
}
