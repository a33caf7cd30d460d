package sim

import (
	"math"
	"time"
)

// SimulationRecord is one step of the Result Log.
type SimulationRecord struct {
	Step      int          `json:"step"`
	Timestamp time.Time    `json:"timestamp"`
	Grid      GridState    `json:"grid"`
	Decision  Decision     `json:"decision"`
	ITLoad    ITLoadState  `json:"it_load"`
	Cooling   CoolingState `json:"cooling"`
	EnergyKWh float64      `json:"energy_kwh"` // facility energy over the step
	Cost      float64      `json:"cost"`       // FacilityKW × price × Δt
	CarbonG   float64      `json:"carbon_g"`   // FacilityKW × carbon intensity × Δt
}

// checkInvariants enforces the per-record power invariants.
func (r *SimulationRecord) checkInvariants(baseCapacityKW, flexCapacityKW float64) error {
	if err := checkNonNegative("cooling_kw", r.Cooling.CoolingKW); err != nil {
		return err
	}
	if math.IsNaN(r.Cooling.PUE) || r.Cooling.PUE < 1.0 {
		return rangeErrorf("pue must be >= 1.0, got %v", r.Cooling.PUE)
	}
	if r.ITLoad.FlexKW < 0 || r.ITLoad.FlexKW > flexCapacityKW {
		return rangeErrorf("flex_kw %v outside [0, %v]", r.ITLoad.FlexKW, flexCapacityKW)
	}
	if r.ITLoad.BaseKW > baseCapacityKW {
		return rangeErrorf("base_kw %v exceeds base capacity %v", r.ITLoad.BaseKW, baseCapacityKW)
	}
	if err := checkFraction("flex_fraction", r.Decision.FlexFraction); err != nil {
		return err
	}
	if err := checkNonNegative("cost", r.Cost); err != nil {
		return err
	}
	return checkNonNegative("carbon_g", r.CarbonG)
}
