package sim

import (
	"math"
)

// GridState is the grid signal observed at one step. Immutable once produced.
type GridState struct {
	Step              int     `json:"step"`
	Hour              float64 `json:"hour"`               // fractional hour of day in [0,24)
	RenewableFraction float64 `json:"renewable_fraction"` // [0,1]
	Price             float64 `json:"price_per_kwh"`      // currency/kWh, > 0
	CarbonIntensity   float64 `json:"carbon_g_per_kwh"`   // gCO2/kWh, >= 0
	Stress            float64 `json:"stress"`             // [0,1]
	OutdoorTempC      float64 `json:"outdoor_temp_c"`
}

// Validate checks the state against its documented domains.
func (g GridState) Validate() error {
	if err := checkFraction("renewable_fraction", g.RenewableFraction); err != nil {
		return err
	}
	if math.IsNaN(g.Price) || math.IsInf(g.Price, 0) || g.Price <= 0 {
		return rangeErrorf("price must be finite and positive, got %v", g.Price)
	}
	if err := checkNonNegative("carbon_intensity", g.CarbonIntensity); err != nil {
		return err
	}
	if err := checkFraction("stress", g.Stress); err != nil {
		return err
	}
	if math.IsNaN(g.OutdoorTempC) || math.IsInf(g.OutdoorTempC, 0) {
		return rangeErrorf("outdoor_temp_c must be finite, got %v", g.OutdoorTempC)
	}
	return nil
}

// SignalSource produces the grid signal for a step index.
// Implementations must be deterministic in the step index.
type SignalSource interface {
	SignalAt(step int) (GridState, error)
}

// Tariff bands by hour of day.
const (
	peakStartHour     = 16
	peakEndHour       = 21
	shoulderStartHour = 12
	lateShoulderEnd   = 23

	peakDemandStress     = 0.7
	shoulderDemandStress = 0.4
	offPeakDemandStress  = 0.2
)

// GridMonitor synthesizes a daily grid profile: a diurnal solar bump plus a
// noisy wind component, a peak/shoulder/off-peak tariff, carbon intensity
// falling with renewable share, and demand-driven stress with optional
// scripted stress events.
type GridMonitor struct {
	cfg       GridConfig
	startHour float64
	dtHours   float64
	rng       *PartitionedRNG
}

// NewGridMonitor creates a GridMonitor owning its own seeded RNG.
func NewGridMonitor(cfg GridConfig, simCfg SimulationConfig) *GridMonitor {
	return &GridMonitor{
		cfg:       cfg,
		startHour: simCfg.StartHour,
		dtHours:   simCfg.DtHours,
		rng:       NewPartitionedRNG(NewSimulationKey(simCfg.Seed)),
	}
}

// HourAt returns the fractional hour of day for a step.
func (m *GridMonitor) HourAt(step int) float64 {
	return math.Mod(m.startHour+float64(step)*m.dtHours, 24)
}

// SignalAt returns the grid state for a step. Noise is drawn from a
// generator keyed by (seed, subsystem, step), so the result does not depend
// on call order.
func (m *GridMonitor) SignalAt(step int) (GridState, error) {
	if step < 0 {
		return GridState{}, rangeErrorf("step index must be non-negative, got %d", step)
	}
	hour := m.HourAt(step)
	renewable := m.renewableAt(step, hour)
	g := GridState{
		Step:              step,
		Hour:              hour,
		RenewableFraction: renewable,
		Price:             m.priceAt(hour),
		CarbonIntensity:   m.carbonFor(renewable),
		Stress:            m.stressAt(step, hour, renewable),
		OutdoorTempC:      m.outdoorTempAt(hour),
	}
	if err := g.Validate(); err != nil {
		return GridState{}, err
	}
	return g, nil
}

// solarAt is zero at night and peaks at local noon.
func solarAt(hour float64) float64 {
	return math.Max(0, math.Sin((hour-6)*math.Pi/12))
}

func (m *GridMonitor) renewableAt(step int, hour float64) float64 {
	wind := m.cfg.WindBase + m.cfg.WindAmplitude*math.Sin(hour*math.Pi/12+math.Pi)
	if m.cfg.WindNoise > 0 {
		wind += uniform(m.rng.ForStep(SubsystemWind, step).Float64(), m.cfg.WindNoise)
	}
	wind = math.Max(0, wind)
	return clamp(m.cfg.SolarWeight*solarAt(hour)+m.cfg.WindWeight*wind, 0, 1)
}

func (m *GridMonitor) priceAt(hour float64) float64 {
	switch band(hour) {
	case bandPeak:
		return m.cfg.BasePricePerKWh * m.cfg.PeakMultiplier
	case bandShoulder:
		return m.cfg.BasePricePerKWh * m.cfg.ShoulderMultiplier
	default:
		return m.cfg.BasePricePerKWh
	}
}

func (m *GridMonitor) carbonFor(renewable float64) float64 {
	c := m.cfg.CarbonCeiling - (m.cfg.CarbonCeiling-m.cfg.CarbonFloor)*renewable
	return clamp(c, m.cfg.CarbonFloor, m.cfg.CarbonCeiling)
}

func (m *GridMonitor) stressAt(step int, hour, renewable float64) float64 {
	var demand float64
	switch band(hour) {
	case bandPeak:
		demand = peakDemandStress
	case bandShoulder:
		demand = shoulderDemandStress
	default:
		demand = offPeakDemandStress
	}
	stress := demand * (0.5 + 0.5*(1-renewable))
	if m.cfg.StressNoise > 0 {
		stress += uniform(m.rng.ForStep(SubsystemStress, step).Float64(), m.cfg.StressNoise)
	}
	for _, ev := range m.cfg.StressEvents {
		if hour >= ev.StartHour && hour < ev.EndHour {
			stress = math.Max(stress, ev.Level)
		}
	}
	return clamp(stress, 0, 1)
}

func (m *GridMonitor) outdoorTempAt(hour float64) float64 {
	return m.cfg.TempMeanC + m.cfg.TempAmplitudeC*math.Sin((hour-6)*math.Pi/12)
}

type tariffBand int

const (
	bandOffPeak tariffBand = iota
	bandShoulder
	bandPeak
)

func band(hour float64) tariffBand {
	switch {
	case hour >= peakStartHour && hour < peakEndHour:
		return bandPeak
	case hour >= shoulderStartHour && hour < peakStartHour,
		hour >= peakEndHour && hour < lateShoulderEnd:
		return bandShoulder
	default:
		return bandOffPeak
	}
}

// uniform maps u in [0,1) to [-width, +width).
func uniform(u, width float64) float64 {
	return (2*u - 1) * width
}
