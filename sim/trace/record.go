// Package trace provides decision-trace recording for controller analysis.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// DecisionRecord captures a single controller decision.
type DecisionRecord struct {
	Step              int     `json:"step"`
	Rule              string  `json:"rule"`
	RenewableFraction float64 `json:"renewable_fraction"`
	Stress            float64 `json:"stress"`
	PreviousFraction  float64 `json:"previous_flex_fraction"`
	AppliedFraction   float64 `json:"applied_flex_fraction"`
	StepsInState      int     `json:"steps_in_state"`
}

// Changed reports whether the decision moved the flex fraction.
func (r DecisionRecord) Changed() bool {
	return r.AppliedFraction != r.PreviousFraction
}
