package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridaware/dcsim/sim/internal/testutil"
)

func TestGridTrace_ExportReadRoundTrip(t *testing.T) {
	// GIVEN a sampled day of synthetic signals
	cfg := DefaultConfig()
	states, err := SignalTrace(NewGridMonitor(cfg.Grid, cfg.Simulation), 48)
	require.NoError(t, err)

	// WHEN exported and read back
	var buf bytes.Buffer
	require.NoError(t, ExportGridTrace(&buf, states))
	src, err := ReadGridTrace(&buf)
	require.NoError(t, err)

	// THEN every row replays bit-identically
	require.Equal(t, len(states), src.Len())
	for i, want := range states {
		got, err := src.SignalAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestGridTrace_LoadFromFile(t *testing.T) {
	path := testutil.WriteFile(t, "grid.csv",
		"step,hour,renewable_fraction,price_per_kwh,carbon_g_per_kwh,stress,outdoor_temp_c\n"+
			"0,0,0.2,0.12,410,0.2,5\n"+
			"1,0.5,0.25,0.12,387.5,0.15,5.2\n")

	src, err := LoadGridTrace(path)

	require.NoError(t, err)
	assert.Equal(t, 2, src.Len())
	g, err := src.SignalAt(1)
	require.NoError(t, err)
	assert.Equal(t, 0.25, g.RenewableFraction)
	assert.Equal(t, 5.2, g.OutdoorTempC)
}

func TestTraceSource_SignalAt_Errors(t *testing.T) {
	src := NewTraceSource([]GridState{
		{RenewableFraction: 0.5, Price: 0.1, Stress: 0.2},
		{RenewableFraction: 1.5, Price: 0.1, Stress: 0.2},
	})

	_, err := src.SignalAt(2)
	assert.ErrorIs(t, err, ErrRangeViolation, "past the end")

	_, err = src.SignalAt(-1)
	assert.ErrorIs(t, err, ErrRangeViolation)

	_, err = src.SignalAt(1)
	assert.ErrorIs(t, err, ErrRangeViolation, "invalid row")
}

func TestReadGridTrace_Malformed(t *testing.T) {
	header := "step,hour,renewable_fraction,price_per_kwh,carbon_g_per_kwh,stress,outdoor_temp_c\n"
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"header only", header},
		{"short row", header + "0,0,0.2\n"},
		{"non-numeric value", header + "0,0,high,0.12,410,0.2,5\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadGridTrace(strings.NewReader(tc.input))
			assert.Error(t, err)
		})
	}
}

func TestSimulator_TraceShorterThanHorizon_FailsAtEnd(t *testing.T) {
	cfg := DefaultConfig()
	states, err := SignalTrace(NewGridMonitor(cfg.Grid, cfg.Simulation), 10)
	require.NoError(t, err)
	s := mustSimulator(t, cfg, WithSignalSource(NewTraceSource(states)))

	_, err = s.Run(12, cfg.Simulation.DtHours, InitialDecision(0.3))

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 10, stepErr.Step)
	assert.Equal(t, ComponentGrid, stepErr.Component)
}
