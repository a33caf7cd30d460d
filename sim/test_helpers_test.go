package sim

import (
	"testing"
)

// signalFunc adapts a function to SignalSource for scripted scenarios.
type signalFunc func(step int) (GridState, error)

func (f signalFunc) SignalAt(step int) (GridState, error) { return f(step) }

// constantGrid returns a source emitting the same conditions every step.
func constantGrid(renewable, stress, tempC float64) signalFunc {
	return func(step int) (GridState, error) {
		return GridState{
			Step:              step,
			Hour:              float64(step) / 12,
			RenewableFraction: renewable,
			Price:             0.12,
			CarbonIntensity:   500 - 450*renewable,
			Stress:            stress,
			OutdoorTempC:      tempC,
		}, nil
	}
}

// quietConfig returns the default configuration with grid noise disabled,
// so signal values are exact functions of the hour.
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Grid.WindNoise = 0
	cfg.Grid.StressNoise = 0
	return cfg
}

// monitorAt builds a GridMonitor whose step 0 falls at the given hour.
func monitorAt(cfg Config, hour float64) *GridMonitor {
	sc := cfg.Simulation
	sc.StartHour = hour
	return NewGridMonitor(cfg.Grid, sc)
}

// mustSimulator builds a Simulator or fails the test.
func mustSimulator(t *testing.T, cfg Config, opts ...Option) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, opts...)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}

// mustRun runs a scripted scenario of n steps starting from flex fraction f0.
func mustRun(t *testing.T, src SignalSource, n int, f0 float64) *Result {
	t.Helper()
	s := mustSimulator(t, DefaultConfig(), WithSignalSource(src))
	res, err := s.Run(n, DefaultConfig().Simulation.DtHours, InitialDecision(f0))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}
