package sim

import (
	"fmt"
	"math"
)

// CoolingMode is the active heat-rejection strategy.
type CoolingMode string

const (
	// ModeFreeCooling rejects heat with outdoor air; only fans and pumps run.
	ModeFreeCooling CoolingMode = "free_cooling"
	// ModeHybrid runs a partial economizer alongside the chillers.
	ModeHybrid CoolingMode = "hybrid"
	// ModeMechanical runs the chillers at full duty.
	ModeMechanical CoolingMode = "mechanical"
)

// CoolingModes lists every mode in order of increasing outdoor temperature.
var CoolingModes = []CoolingMode{ModeFreeCooling, ModeHybrid, ModeMechanical}

// CoolingState is the facility overhead for one step.
type CoolingState struct {
	Mode       CoolingMode `json:"mode"`
	CoolingKW  float64     `json:"cooling_kw"`
	OverheadKW float64     `json:"overhead_kw"` // lighting and UPS losses
	FacilityKW float64     `json:"facility_kw"`
	PUE        float64     `json:"pue"`
}

// CoolingModel maps IT power and outdoor temperature to cooling power and PUE.
//
// Mode selection is a three-band threshold on outdoor temperature with no
// memory across steps. Values sitting on a band edge may switch mode every
// step; no hysteresis is applied.
type CoolingModel struct {
	cfg CoolingConfig
}

// NewCoolingModel creates a CoolingModel.
func NewCoolingModel(cfg CoolingConfig) *CoolingModel {
	return &CoolingModel{cfg: cfg}
}

// ModeFor returns the cooling mode for an outdoor temperature.
func (m *CoolingModel) ModeFor(outdoorTempC float64) CoolingMode {
	switch {
	case outdoorTempC < m.cfg.FreeCoolingThresholdC:
		return ModeFreeCooling
	case outdoorTempC < m.cfg.MechanicalThresholdC:
		return ModeHybrid
	default:
		return ModeMechanical
	}
}

// freeRate and mechanicalRate are cooling kW per IT kW at the band ends.
func (m *CoolingModel) freeRate() float64 { return m.cfg.FreeCoolingOverhead }

func (m *CoolingModel) mechanicalRate() float64 {
	return 1/m.cfg.ChillerCOP + m.cfg.FanPumpOverhead
}

// Cool computes cooling power, facility power and PUE. PUE is computed from
// the exact power split, never looked up. With zero IT load PUE is 1.0.
func (m *CoolingModel) Cool(totalITKW, outdoorTempC float64) (CoolingState, error) {
	if err := checkNonNegative("total_it_kw", totalITKW); err != nil {
		return CoolingState{}, err
	}
	if math.IsNaN(outdoorTempC) || math.IsInf(outdoorTempC, 0) {
		return CoolingState{}, rangeErrorf("outdoor_temp_c must be finite, got %v", outdoorTempC)
	}

	mode := m.ModeFor(outdoorTempC)
	var rate float64
	switch mode {
	case ModeFreeCooling:
		rate = m.freeRate()
	case ModeHybrid:
		pos := (outdoorTempC - m.cfg.FreeCoolingThresholdC) /
			(m.cfg.MechanicalThresholdC - m.cfg.FreeCoolingThresholdC)
		rate = m.freeRate() + (m.mechanicalRate()-m.freeRate())*pos
	case ModeMechanical:
		rate = m.mechanicalRate()
	default:
		panic(fmt.Sprintf("unknown cooling mode %q", mode))
	}

	st := CoolingState{
		Mode:       mode,
		CoolingKW:  totalITKW * rate,
		OverheadKW: totalITKW * m.cfg.AuxOverheadFraction,
	}
	st.FacilityKW = totalITKW + st.CoolingKW + st.OverheadKW
	st.PUE = PUE(totalITKW, st.FacilityKW)
	return st, nil
}

// PUE returns facility power over IT power, or 1.0 when IT power is zero.
func PUE(itKW, facilityKW float64) float64 {
	if itKW <= 0 {
		return 1.0
	}
	return facilityKW / itKW
}
