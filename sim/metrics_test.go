package sim

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 0.25)

	assert.Equal(t, 0, s.Steps)
	assert.True(t, s.TotalCost.IsZero())
	assert.NotNil(t, s.ModeSteps)
	assert.NotNil(t, s.CostByMode)
}

func TestSummarize_Totals(t *testing.T) {
	// GIVEN two hand-built steps of half an hour each
	records := []SimulationRecord{
		{
			Grid:      GridState{RenewableFraction: 0.2, CarbonIntensity: 100},
			Decision:  Decision{FlexFraction: 0.4},
			ITLoad:    ITLoadState{TotalITKW: 2, FlexKW: 1},
			Cooling:   CoolingState{Mode: ModeFreeCooling, CoolingKW: 0.1, FacilityKW: 2.2, PUE: 1.1},
			EnergyKWh: 1,
			Cost:      0.1,
			CarbonG:   100,
		},
		{
			Grid:      GridState{RenewableFraction: 0.6, CarbonIntensity: 300},
			Decision:  Decision{FlexFraction: 0.8},
			ITLoad:    ITLoadState{TotalITKW: 5, FlexKW: 3},
			Cooling:   CoolingState{Mode: ModeMechanical, CoolingKW: 1, FacilityKW: 6, PUE: 1.2},
			EnergyKWh: 3,
			Cost:      0.2,
			CarbonG:   900,
		},
	}

	// WHEN summarized
	s := Summarize(records, 0.5)

	// THEN totals, weighted carbon and PUE statistics follow
	assert.Equal(t, 2, s.Steps)
	assert.Equal(t, 1.0, s.DurationHours)
	assert.Equal(t, 4.0, s.TotalEnergyKWh)
	assert.InDelta(t, 3.5, s.ITEnergyKWh, 1e-12)
	assert.InDelta(t, 0.55, s.CoolingEnergyKWh, 1e-12)
	assert.InDelta(t, 2.0, s.FlexEnergyKWh, 1e-12)
	assert.True(t, decimal.NewFromFloat(0.3).Equal(s.TotalCost), "cost sums exactly, got %s", s.TotalCost)
	assert.InDelta(t, 1.0, s.TotalCarbonKg, 1e-12)
	assert.InDelta(t, 250.0, s.EffectiveCarbon, 1e-9, "energy-weighted intensity")
	assert.InDelta(t, 1.15, s.AvgPUE, 1e-12)
	assert.Equal(t, 1.1, s.MinPUE)
	assert.Equal(t, 1.2, s.MaxPUE)
	assert.Equal(t, 1.2, s.P95PUE)
	assert.InDelta(t, 0.4, s.AvgRenewable, 1e-12)
	assert.InDelta(t, 0.6, s.AvgFlexFraction, 1e-12)
	assert.Equal(t, map[CoolingMode]int{ModeFreeCooling: 1, ModeMechanical: 1}, s.ModeSteps)
	assert.Equal(t, "0.2", s.CostByMode[ModeMechanical].String())
}

func TestSummarize_ModeStepsCoverRun(t *testing.T) {
	res, err := mustSimulator(t, DefaultConfig()).RunConfigured()
	require.NoError(t, err)

	total := 0
	for _, n := range res.Summary.ModeSteps {
		total += n
	}
	assert.Equal(t, len(res.Records), total)
	assert.GreaterOrEqual(t, res.Summary.MinPUE, 1.0)
	assert.LessOrEqual(t, res.Summary.MinPUE, res.Summary.P95PUE)
	assert.LessOrEqual(t, res.Summary.P95PUE, res.Summary.MaxPUE)
}

func TestSummary_Print(t *testing.T) {
	res, err := mustSimulator(t, DefaultConfig()).RunConfigured()
	require.NoError(t, err)

	var buf bytes.Buffer
	res.Summary.Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "=== Simulation Summary ===")
	assert.Contains(t, out, "Total Cost")
	assert.Contains(t, out, res.Summary.TotalCost.StringFixed(2))
	assert.Contains(t, out, "free_cooling")
}
