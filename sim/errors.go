package sim

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrConfiguration marks an invalid or missing configuration parameter.
	// Always reported before the first step runs.
	ErrConfiguration = errors.New("configuration error")

	// ErrRangeViolation marks a value outside a component's documented domain
	// ([0,1] fractions, non-negative powers, finite temperatures).
	ErrRangeViolation = errors.New("range violation")
)

// Component names used in StepError.
const (
	ComponentGrid       = "grid"
	ComponentController = "controller"
	ComponentITLoad     = "it_load"
	ComponentCooling    = "cooling"
	ComponentMetrics    = "metrics"
)

// StepError identifies the step index and component that aborted a run.
type StepError struct {
	Step      int
	Component string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %s: %v", e.Step, e.Component, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func rangeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRangeViolation, fmt.Sprintf(format, args...))
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// checkFraction rejects NaN and values outside [0,1].
func checkFraction(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return rangeErrorf("%s must be in [0,1], got %v", name, v)
	}
	return nil
}

// checkNonNegative rejects NaN, Inf and negative values.
func checkNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return rangeErrorf("%s must be finite and non-negative, got %v", name, v)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
