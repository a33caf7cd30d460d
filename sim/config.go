package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gridaware/dcsim/sim/trace"
)

// ITLoadConfig groups IT capacity parameters.
type ITLoadConfig struct {
	BaseCapacityKW  float64 `yaml:"base_capacity_kw"` // always-on critical capacity (must be > 0)
	FlexCapacityKW  float64 `yaml:"flex_capacity_kw"` // deferrable capacity the controller may activate
	NumServers      int     `yaml:"num_servers"`      // used for per-server power reporting
	BaseUtilization float64 `yaml:"base_utilization"` // fixed fraction of base capacity always drawn (default 0.7)
}

// CoolingConfig groups cooling plant parameters.
type CoolingConfig struct {
	ChillerCOP            float64 `yaml:"chiller_cop"`
	FreeCoolingThresholdC float64 `yaml:"free_cooling_threshold_c"`
	MechanicalThresholdC  float64 `yaml:"mechanical_threshold_c"`
	FreeCoolingOverhead   float64 `yaml:"free_cooling_overhead"` // fan/pump draw per IT kW in free cooling (default 0.03)
	FanPumpOverhead       float64 `yaml:"fan_pump_overhead"`     // fan/pump draw per IT kW alongside the chiller (default 0.10)
	AuxOverheadFraction   float64 `yaml:"aux_overhead_fraction"` // lighting and UPS losses per IT kW (default 0.05)
}

// ControllerConfig groups the decision-rule thresholds and step sizes.
type ControllerConfig struct {
	RenewableThresholdHigh float64 `yaml:"renewable_threshold_high"`
	RenewableThresholdLow  float64 `yaml:"renewable_threshold_low"`
	StressThresholdHigh    float64 `yaml:"stress_threshold_high"`
	StepUp                 float64 `yaml:"step_up"`
	StepDown               float64 `yaml:"step_down"`
}

// StressEvent scripts a grid stress floor over an hour-of-day window [StartHour, EndHour).
type StressEvent struct {
	StartHour float64 `yaml:"start_hour"`
	EndHour   float64 `yaml:"end_hour"`
	Level     float64 `yaml:"level"`
}

// GridConfig groups the daily grid profile parameters. Every field is optional.
type GridConfig struct {
	BasePricePerKWh    float64       `yaml:"base_price_per_kwh"`
	PeakMultiplier     float64       `yaml:"peak_multiplier"`
	ShoulderMultiplier float64       `yaml:"shoulder_multiplier"`
	CarbonCeiling      float64       `yaml:"carbon_ceiling_g_per_kwh"`
	CarbonFloor        float64       `yaml:"carbon_floor_g_per_kwh"`
	SolarWeight        float64       `yaml:"solar_weight"`
	WindWeight         float64       `yaml:"wind_weight"`
	WindBase           float64       `yaml:"wind_base"`
	WindAmplitude      float64       `yaml:"wind_amplitude"`
	WindNoise          float64       `yaml:"wind_noise"`
	StressNoise        float64       `yaml:"stress_noise"`
	TempMeanC          float64       `yaml:"temp_mean_c"`
	TempAmplitudeC     float64       `yaml:"temp_amplitude_c"`
	StressEvents       []StressEvent `yaml:"stress_events,omitempty"`
}

// SimulationConfig groups the time axis and reproducibility parameters.
type SimulationConfig struct {
	HorizonSteps        int     `yaml:"horizon_steps"`
	DtHours             float64 `yaml:"dt_hours"`
	Seed                int64   `yaml:"seed"`
	StartHour           float64 `yaml:"start_hour"`            // hour of day at step 0
	StartDate           string  `yaml:"start_date,omitempty"`  // YYYY-MM-DD stamped on record timestamps
	InitialFlexFraction float64 `yaml:"initial_flex_fraction"` // decision before step 0
	TraceLevel          string  `yaml:"trace_level,omitempty"` // "none" (default) or "decisions"
}

// Config is the full, validated simulation configuration.
// Held immutable by the Simulator once constructed.
type Config struct {
	ITLoad     ITLoadConfig     `yaml:"it_load"`
	Cooling    CoolingConfig    `yaml:"cooling"`
	Controller ControllerConfig `yaml:"controller"`
	Grid       GridConfig       `yaml:"grid"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// requiredKeys lists the keys that must appear in a configuration file.
var requiredKeys = map[string][]string{
	"it_load":    {"base_capacity_kw", "flex_capacity_kw", "num_servers"},
	"cooling":    {"chiller_cop", "free_cooling_threshold_c", "mechanical_threshold_c"},
	"controller": {"renewable_threshold_high", "renewable_threshold_low", "stress_threshold_high", "step_up", "step_down"},
	"simulation": {"horizon_steps", "dt_hours", "seed"},
}

const defaultStartDate = "2024-06-21"

// DefaultConfig returns the reference 24-hour, 5-minute-step configuration.
func DefaultConfig() Config {
	return Config{
		ITLoad: ITLoadConfig{
			BaseCapacityKW:  500,
			FlexCapacityKW:  500,
			NumServers:      1000,
			BaseUtilization: 0.7,
		},
		Cooling: CoolingConfig{
			ChillerCOP:            3.5,
			FreeCoolingThresholdC: 15,
			MechanicalThresholdC:  25,
			FreeCoolingOverhead:   0.03,
			FanPumpOverhead:       0.10,
			AuxOverheadFraction:   0.05,
		},
		Controller: ControllerConfig{
			RenewableThresholdHigh: 0.6,
			RenewableThresholdLow:  0.3,
			StressThresholdHigh:    0.7,
			StepUp:                 0.2,
			StepDown:               0.2,
		},
		Grid: GridConfig{
			BasePricePerKWh:    0.12,
			PeakMultiplier:     2.0,
			ShoulderMultiplier: 1.3,
			CarbonCeiling:      500,
			CarbonFloor:        50,
			SolarWeight:        0.6,
			WindWeight:         0.4,
			WindBase:           0.4,
			WindAmplitude:      0.2,
			WindNoise:          0.05,
			StressNoise:        0.1,
			TempMeanC:          15,
			TempAmplitudeC:     10,
		},
		Simulation: SimulationConfig{
			HorizonSteps:        288,
			DtHours:             5.0 / 60.0,
			Seed:                42,
			StartHour:           0,
			StartDate:           defaultStartDate,
			InitialFlexFraction: 0.3,
			TraceLevel:          string(trace.TraceLevelNone),
		},
	}
}

// LoadConfig reads a YAML configuration file. Unrecognized keys (typos) and
// missing required keys are rejected; optional keys keep DefaultConfig values.
// The returned config has already passed Validate.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, configErrorf("reading config %s: %v", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates YAML configuration bytes.
func ParseConfig(data []byte) (Config, error) {
	if err := checkRequiredKeys(data); err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, configErrorf("parsing config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func checkRequiredKeys(data []byte) error {
	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return configErrorf("parsing config: %v", err)
	}
	groups := make([]string, 0, len(requiredKeys))
	for g := range requiredKeys {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var missing []string
	for _, g := range groups {
		for _, k := range requiredKeys[g] {
			if _, ok := raw[g][k]; !ok {
				missing = append(missing, g+"."+k)
			}
		}
	}
	if len(missing) > 0 {
		return configErrorf("missing required keys: %v", missing)
	}
	return nil
}

// Validate checks every parameter's range. All errors wrap ErrConfiguration.
func (c Config) Validate() error {
	checks := []func() error{
		c.ITLoad.validate,
		c.Cooling.validate,
		c.Controller.validate,
		c.Grid.validate,
		c.Simulation.validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c ITLoadConfig) validate() error {
	if err := finitePositive("it_load.base_capacity_kw", c.BaseCapacityKW); err != nil {
		return err
	}
	if err := finiteNonNegative("it_load.flex_capacity_kw", c.FlexCapacityKW); err != nil {
		return err
	}
	if c.NumServers <= 0 {
		return configErrorf("it_load.num_servers must be positive, got %d", c.NumServers)
	}
	return unitInterval("it_load.base_utilization", c.BaseUtilization)
}

func (c CoolingConfig) validate() error {
	if err := finitePositive("cooling.chiller_cop", c.ChillerCOP); err != nil {
		return err
	}
	if math.IsNaN(c.FreeCoolingThresholdC) || math.IsInf(c.FreeCoolingThresholdC, 0) {
		return configErrorf("cooling.free_cooling_threshold_c must be finite, got %v", c.FreeCoolingThresholdC)
	}
	if math.IsNaN(c.MechanicalThresholdC) || math.IsInf(c.MechanicalThresholdC, 0) {
		return configErrorf("cooling.mechanical_threshold_c must be finite, got %v", c.MechanicalThresholdC)
	}
	if c.FreeCoolingThresholdC >= c.MechanicalThresholdC {
		return configErrorf("cooling.free_cooling_threshold_c (%v) must be below mechanical_threshold_c (%v)",
			c.FreeCoolingThresholdC, c.MechanicalThresholdC)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"cooling.free_cooling_overhead", c.FreeCoolingOverhead},
		{"cooling.fan_pump_overhead", c.FanPumpOverhead},
		{"cooling.aux_overhead_fraction", c.AuxOverheadFraction},
	} {
		if err := finiteNonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	// PUE must not fall as the plant moves from free to mechanical cooling.
	if mech := 1/c.ChillerCOP + c.FanPumpOverhead; mech < c.FreeCoolingOverhead {
		return configErrorf("cooling: mechanical draw per IT kW (%v) is below free_cooling_overhead (%v)",
			mech, c.FreeCoolingOverhead)
	}
	return nil
}

func (c ControllerConfig) validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"controller.renewable_threshold_high", c.RenewableThresholdHigh},
		{"controller.renewable_threshold_low", c.RenewableThresholdLow},
		{"controller.stress_threshold_high", c.StressThresholdHigh},
	} {
		if err := unitInterval(f.name, f.v); err != nil {
			return err
		}
	}
	if c.RenewableThresholdLow > c.RenewableThresholdHigh {
		return configErrorf("controller.renewable_threshold_low (%v) must not exceed renewable_threshold_high (%v)",
			c.RenewableThresholdLow, c.RenewableThresholdHigh)
	}
	if c.StepUp <= 0 || c.StepUp > 1 {
		return configErrorf("controller.step_up must be in (0,1], got %v", c.StepUp)
	}
	if c.StepDown <= 0 || c.StepDown > 1 {
		return configErrorf("controller.step_down must be in (0,1], got %v", c.StepDown)
	}
	return nil
}

func (c GridConfig) validate() error {
	if err := finitePositive("grid.base_price_per_kwh", c.BasePricePerKWh); err != nil {
		return err
	}
	if err := finitePositive("grid.peak_multiplier", c.PeakMultiplier); err != nil {
		return err
	}
	if err := finitePositive("grid.shoulder_multiplier", c.ShoulderMultiplier); err != nil {
		return err
	}
	if err := finiteNonNegative("grid.carbon_floor_g_per_kwh", c.CarbonFloor); err != nil {
		return err
	}
	if c.CarbonCeiling < c.CarbonFloor || math.IsInf(c.CarbonCeiling, 0) {
		return configErrorf("grid.carbon_ceiling_g_per_kwh (%v) must be finite and >= carbon_floor_g_per_kwh (%v)",
			c.CarbonCeiling, c.CarbonFloor)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"grid.solar_weight", c.SolarWeight},
		{"grid.wind_weight", c.WindWeight},
		{"grid.wind_base", c.WindBase},
		{"grid.wind_amplitude", c.WindAmplitude},
		{"grid.wind_noise", c.WindNoise},
		{"grid.stress_noise", c.StressNoise},
		{"grid.temp_amplitude_c", c.TempAmplitudeC},
	} {
		if err := finiteNonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	if math.IsNaN(c.TempMeanC) || math.IsInf(c.TempMeanC, 0) {
		return configErrorf("grid.temp_mean_c must be finite, got %v", c.TempMeanC)
	}
	for i, ev := range c.StressEvents {
		prefix := fmt.Sprintf("grid.stress_events[%d]", i)
		if ev.StartHour < 0 || ev.EndHour > 24 || ev.StartHour >= ev.EndHour {
			return configErrorf("%s: window [%v, %v) must satisfy 0 <= start < end <= 24", prefix, ev.StartHour, ev.EndHour)
		}
		if err := unitInterval(prefix+".level", ev.Level); err != nil {
			return err
		}
	}
	return nil
}

func (c SimulationConfig) validate() error {
	if c.HorizonSteps <= 0 {
		return configErrorf("simulation.horizon_steps must be positive, got %d", c.HorizonSteps)
	}
	if err := finitePositive("simulation.dt_hours", c.DtHours); err != nil {
		return err
	}
	if c.DtHours > 24 {
		return configErrorf("simulation.dt_hours must not exceed 24, got %v", c.DtHours)
	}
	if c.StartHour < 0 || c.StartHour >= 24 {
		return configErrorf("simulation.start_hour must be in [0,24), got %v", c.StartHour)
	}
	if err := unitInterval("simulation.initial_flex_fraction", c.InitialFlexFraction); err != nil {
		return err
	}
	if c.StartDate != "" {
		if _, err := time.Parse(time.DateOnly, c.StartDate); err != nil {
			return configErrorf("simulation.start_date %q is not YYYY-MM-DD", c.StartDate)
		}
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return configErrorf("simulation.trace_level %q unknown; valid: none, decisions", c.TraceLevel)
	}
	return nil
}

// StartTime returns the wall-clock instant of step 0 (UTC).
func (c SimulationConfig) StartTime() time.Time {
	date := c.StartDate
	if date == "" {
		date = defaultStartDate
	}
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		day, _ = time.Parse(time.DateOnly, defaultStartDate)
	}
	return day.Add(time.Duration(c.StartHour * float64(time.Hour)))
}

// Canonical returns a stable YAML encoding of the config, used for run ids.
func (c Config) Canonical() []byte {
	data, err := yaml.Marshal(c)
	if err != nil {
		// Config only holds scalars and slices of scalars.
		panic(fmt.Sprintf("marshal config: %v", err))
	}
	return data
}

func finitePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return configErrorf("%s must be a finite positive number, got %v", name, v)
	}
	return nil
}

func finiteNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return configErrorf("%s must be a finite non-negative number, got %v", name, v)
	}
	return nil
}

func unitInterval(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return configErrorf("%s must be in [0,1], got %v", name, v)
	}
	return nil
}
