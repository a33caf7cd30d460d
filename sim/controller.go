package sim

import "math"

// Rule names the decision-rule branch that produced a Decision.
type Rule string

const (
	// RuleInitial marks the decision supplied before step 0.
	RuleInitial Rule = "initial"
	// RuleStress forces a decrease while the grid is stressed.
	RuleStress Rule = "stress"
	// RuleRenewableHigh ramps flexible load up on abundant renewables.
	RuleRenewableHigh Rule = "renewable_high"
	// RuleRenewableLow ramps flexible load down on scarce renewables.
	RuleRenewableLow Rule = "renewable_low"
	// RuleDeadBand holds the previous set-point.
	RuleDeadBand Rule = "dead_band"
)

// Decision is the controller's flexible-workload set-point, carried from one
// step to the next. StepsInState counts consecutive decisions made by Rule.
type Decision struct {
	FlexFraction float64 `json:"flex_fraction"`
	Rule         Rule    `json:"rule"`
	StepsInState int     `json:"steps_in_state"`
}

// InitialDecision returns the decision in force before the first step.
func InitialDecision(flexFraction float64) Decision {
	return Decision{FlexFraction: flexFraction, Rule: RuleInitial}
}

// Controller is a rule-based flexible-load controller. It holds only static
// thresholds; all memory is the Decision passed in and returned.
type Controller struct {
	cfg ControllerConfig
}

// NewController creates a Controller.
func NewController(cfg ControllerConfig) *Controller {
	return &Controller{cfg: cfg}
}

// Decide returns the next decision. Rules are evaluated in priority order and
// the first match wins:
//  1. stress >= stress_threshold_high: decrease by step_down
//  2. renewable >= renewable_threshold_high: increase by step_up
//  3. renewable < renewable_threshold_low: decrease by step_down
//  4. otherwise hold (dead band)
func (c *Controller) Decide(g GridState, prev Decision) (Decision, error) {
	if err := checkFraction("previous flex_fraction", prev.FlexFraction); err != nil {
		return Decision{}, err
	}
	if err := checkFraction("stress", g.Stress); err != nil {
		return Decision{}, err
	}
	if err := checkFraction("renewable_fraction", g.RenewableFraction); err != nil {
		return Decision{}, err
	}

	var next Decision
	switch {
	case g.Stress >= c.cfg.StressThresholdHigh:
		next = Decision{FlexFraction: math.Max(0, prev.FlexFraction-c.cfg.StepDown), Rule: RuleStress}
	case g.RenewableFraction >= c.cfg.RenewableThresholdHigh:
		next = Decision{FlexFraction: math.Min(1, prev.FlexFraction+c.cfg.StepUp), Rule: RuleRenewableHigh}
	case g.RenewableFraction < c.cfg.RenewableThresholdLow:
		next = Decision{FlexFraction: math.Max(0, prev.FlexFraction-c.cfg.StepDown), Rule: RuleRenewableLow}
	default:
		next = Decision{FlexFraction: prev.FlexFraction, Rule: RuleDeadBand}
	}

	next.StepsInState = 1
	if next.Rule == prev.Rule {
		next.StepsInState = prev.StepsInState + 1
	}
	return next, nil
}
