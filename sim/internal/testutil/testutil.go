// Package testutil provides shared test infrastructure for the dcsim
// simulator. It consolidates configuration fixtures and assertion helpers
// used across sim/ and its sub-package tests. It must not import sim.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// ReferenceConfigYAML is a complete configuration with every required key,
// matching the values of sim.DefaultConfig.
const ReferenceConfigYAML = `
it_load:
  base_capacity_kw: 500
  flex_capacity_kw: 500
  num_servers: 1000
cooling:
  chiller_cop: 3.5
  free_cooling_threshold_c: 15
  mechanical_threshold_c: 25
controller:
  renewable_threshold_high: 0.6
  renewable_threshold_low: 0.3
  stress_threshold_high: 0.7
  step_up: 0.2
  step_down: 0.2
simulation:
  horizon_steps: 288
  dt_hours: 0.08333333333333333
  seed: 42
`

// WriteFile writes content under t.TempDir() and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
