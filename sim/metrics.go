// Aggregates run-wide cost, carbon and efficiency metrics from the Result Log.

package sim

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates statistics about a simulation run for final reporting.
type Summary struct {
	Steps         int     `json:"steps"`
	DurationHours float64 `json:"duration_hours"`

	TotalEnergyKWh   float64 `json:"total_energy_kwh"`
	ITEnergyKWh      float64 `json:"it_energy_kwh"`
	CoolingEnergyKWh float64 `json:"cooling_energy_kwh"`
	FlexEnergyKWh    float64 `json:"flex_energy_kwh"` // energy served to flexible workload

	TotalCost     decimal.Decimal `json:"total_cost"` // exact sum of per-step costs
	TotalCarbonKg float64         `json:"total_carbon_kg"`
	// EffectiveCarbon is the energy-weighted grid carbon intensity actually consumed.
	EffectiveCarbon float64 `json:"effective_carbon_g_per_kwh"`

	AvgPUE float64 `json:"avg_pue"`
	MinPUE float64 `json:"min_pue"`
	MaxPUE float64 `json:"max_pue"`
	P95PUE float64 `json:"p95_pue"`

	AvgRenewable    float64 `json:"avg_renewable_fraction"`
	AvgFlexFraction float64 `json:"avg_flex_fraction"`

	ModeSteps  map[CoolingMode]int             `json:"mode_steps"`
	CostByMode map[CoolingMode]decimal.Decimal `json:"cost_by_mode"`
}

// Summarize computes a Summary from an ordered record slice.
// Returns a zero-valued Summary (with non-nil maps) for empty input.
func Summarize(records []SimulationRecord, dtHours float64) *Summary {
	s := &Summary{
		Steps:      len(records),
		TotalCost:  decimal.Zero,
		ModeSteps:  make(map[CoolingMode]int),
		CostByMode: make(map[CoolingMode]decimal.Decimal),
	}
	if len(records) == 0 {
		return s
	}
	s.DurationHours = float64(len(records)) * dtHours

	pue := make([]float64, len(records))
	renewable := make([]float64, len(records))
	flex := make([]float64, len(records))
	intensity := make([]float64, len(records))
	energy := make([]float64, len(records))
	var carbonG float64

	for i, r := range records {
		pue[i] = r.Cooling.PUE
		renewable[i] = r.Grid.RenewableFraction
		flex[i] = r.Decision.FlexFraction
		intensity[i] = r.Grid.CarbonIntensity
		energy[i] = r.EnergyKWh

		s.ITEnergyKWh += r.ITLoad.TotalITKW * dtHours
		s.CoolingEnergyKWh += r.Cooling.CoolingKW * dtHours
		s.FlexEnergyKWh += r.ITLoad.FlexKW * dtHours
		carbonG += r.CarbonG

		cost := decimal.NewFromFloat(r.Cost)
		s.TotalCost = s.TotalCost.Add(cost)
		s.ModeSteps[r.Cooling.Mode]++
		if prev, ok := s.CostByMode[r.Cooling.Mode]; ok {
			s.CostByMode[r.Cooling.Mode] = prev.Add(cost)
		} else {
			s.CostByMode[r.Cooling.Mode] = cost
		}
	}

	s.TotalEnergyKWh = floats.Sum(energy)
	s.TotalCarbonKg = carbonG / 1000
	if s.TotalEnergyKWh > 0 {
		s.EffectiveCarbon = stat.Mean(intensity, energy)
	}

	s.AvgPUE = stat.Mean(pue, nil)
	s.MinPUE = floats.Min(pue)
	s.MaxPUE = floats.Max(pue)
	sorted := append([]float64(nil), pue...)
	sort.Float64s(sorted)
	s.P95PUE = stat.Quantile(0.95, stat.Empirical, sorted, nil)

	s.AvgRenewable = stat.Mean(renewable, nil)
	s.AvgFlexFraction = stat.Mean(flex, nil)
	return s
}

// Print displays the summary in a fixed-width table.
func (s *Summary) Print(w io.Writer) {
	_, _ = fmt.Fprintln(w, "=== Simulation Summary ===")
	_, _ = fmt.Fprintf(w, "Steps            : %d (%.2f h)\n", s.Steps, s.DurationHours)
	_, _ = fmt.Fprintf(w, "Total Energy     : %10.2f kWh\n", s.TotalEnergyKWh)
	_, _ = fmt.Fprintf(w, "Total Cost       : %10s\n", s.TotalCost.StringFixed(2))
	_, _ = fmt.Fprintf(w, "Total Carbon     : %10.2f kg CO2\n", s.TotalCarbonKg)
	_, _ = fmt.Fprintf(w, "Average PUE      : %10.3f\n", s.AvgPUE)
	_, _ = fmt.Fprintf(w, "PUE Range        : %.3f - %.3f (p95 %.3f)\n", s.MinPUE, s.MaxPUE, s.P95PUE)
	_, _ = fmt.Fprintf(w, "Avg Renewable    : %10.1f%%\n", s.AvgRenewable*100)
	_, _ = fmt.Fprintf(w, "Avg Flex Load    : %10.1f%%\n", s.AvgFlexFraction*100)
	for _, mode := range CoolingModes {
		if n := s.ModeSteps[mode]; n > 0 {
			_, _ = fmt.Fprintf(w, "  %-14s : %4d steps, cost %s\n", mode, n, s.CostByMode[mode].StringFixed(2))
		}
	}
}
