// sim/simulator.go
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gridaware/dcsim/sim/trace"
)

// Result bundles all outputs of a simulation run.
type Result struct {
	RunID        uuid.UUID              `json:"run_id"`
	Config       Config                 `json:"config"`
	Records      []SimulationRecord     `json:"records"`
	Summary      *Summary               `json:"summary"`
	Trace        *trace.SimulationTrace `json:"trace,omitempty"`         // nil if trace level is "none"
	TraceSummary *trace.TraceSummary    `json:"trace_summary,omitempty"` // nil if trace level is "none"

	WallTime time.Duration `json:"-"` // wall-clock duration of Run(); excluded to keep output reproducible
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithSignalSource replaces the synthetic GridMonitor, e.g. with a replayed trace.
func WithSignalSource(src SignalSource) Option {
	return func(s *Simulator) { s.source = src }
}

// Simulator is the orchestrator: it owns the time axis and drives
// GridMonitor → Controller → ITLoadModel → CoolingModel → metrics each step.
//
// Latency convention: the decision computed from step t's grid signal and
// step t-1's decision is applied within step t.
type Simulator struct {
	cfg        Config
	source     SignalSource // nil = GridMonitor built from cfg per run
	controller *Controller
	itLoad     *ITLoadModel
	cooling    *CoolingModel
}

// NewSimulator validates cfg and builds the components. The config is held
// by value and never mutated afterwards.
func NewSimulator(cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:        cfg,
		controller: NewController(cfg.Controller),
		itLoad:     NewITLoadModel(cfg.ITLoad),
		cooling:    NewCoolingModel(cfg.Cooling),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns a copy of the simulator's configuration.
func (s *Simulator) Config() Config { return s.cfg }

// RunConfigured runs with the horizon, step size and initial decision from the config.
func (s *Simulator) RunConfigured() (*Result, error) {
	sc := s.cfg.Simulation
	return s.Run(sc.HorizonSteps, sc.DtHours, InitialDecision(sc.InitialFlexFraction))
}

// Run executes a single forward pass of horizonSteps steps of dtHours each.
// There is no early termination: the run either completes every step or
// aborts on the first error, which is a *StepError naming step and component.
func (s *Simulator) Run(horizonSteps int, dtHours float64, initial Decision) (*Result, error) {
	if horizonSteps <= 0 {
		return nil, configErrorf("horizon_steps must be positive, got %d", horizonSteps)
	}
	if math.IsNaN(dtHours) || math.IsInf(dtHours, 0) || dtHours <= 0 {
		return nil, configErrorf("dt_hours must be a finite positive number, got %v", dtHours)
	}
	if err := checkFraction("initial flex_fraction", initial.FlexFraction); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	simCfg := s.cfg.Simulation
	simCfg.DtHours = dtHours
	source := s.source
	if source == nil {
		source = NewGridMonitor(s.cfg.Grid, simCfg)
	}

	var st *trace.SimulationTrace
	if tc := (trace.TraceConfig{Level: trace.TraceLevel(simCfg.TraceLevel)}); tc.Enabled() {
		st = trace.NewSimulationTrace(tc)
	}

	logrus.Infof("Starting simulation: %d steps of %.4f h, seed=%d, initial flex=%.2f",
		horizonSteps, dtHours, simCfg.Seed, initial.FlexFraction)

	wallStart := time.Now()
	start := simCfg.StartTime()
	stepsPerHour := int(math.Round(1 / dtHours))
	records := make([]SimulationRecord, 0, horizonSteps)
	decision := initial

	for step := 0; step < horizonSteps; step++ {
		rec, err := s.step(source, step, dtHours, decision)
		if err != nil {
			logrus.Errorf("Simulation aborted: %v", err)
			return nil, err
		}
		rec.Timestamp = start.Add(time.Duration(math.Round(float64(step) * dtHours * float64(time.Hour))))

		if st != nil {
			st.RecordDecision(trace.DecisionRecord{
				Step:              step,
				Rule:              string(rec.Decision.Rule),
				RenewableFraction: rec.Grid.RenewableFraction,
				Stress:            rec.Grid.Stress,
				PreviousFraction:  decision.FlexFraction,
				AppliedFraction:   rec.Decision.FlexFraction,
				StepsInState:      rec.Decision.StepsInState,
			})
		}
		records = append(records, rec)
		decision = rec.Decision

		logrus.Debugf("[step %04d] hour=%05.2f renew=%.3f stress=%.3f flex=%.2f (%s) it=%.1fkW mode=%s pue=%.3f",
			step, rec.Grid.Hour, rec.Grid.RenewableFraction, rec.Grid.Stress, rec.Decision.FlexFraction,
			rec.Decision.Rule, rec.ITLoad.TotalITKW, rec.Cooling.Mode, rec.Cooling.PUE)
		if stepsPerHour > 0 && step%stepsPerHour == 0 {
			logrus.Infof("Hour %5.1f | Power: %7.1f kW | PUE: %.2f | Renewable: %5.1f%% | Flex Load: %5.1f%%",
				float64(step)*dtHours, rec.Cooling.FacilityKW, rec.Cooling.PUE,
				rec.Grid.RenewableFraction*100, rec.Decision.FlexFraction*100)
		}
	}

	res := &Result{
		RunID:   RunID(s.cfg, horizonSteps, dtHours, initial),
		Config:  s.cfg,
		Records: records,
		Summary: Summarize(records, dtHours),
	}
	if st != nil {
		res.Trace = st
		res.TraceSummary = trace.Summarize(st)
	}
	res.WallTime = time.Since(wallStart)
	logrus.Infof("Simulation complete: %d steps in %v", len(records), res.WallTime)
	return res, nil
}

// step runs one iteration of the control loop in the fixed component order.
func (s *Simulator) step(source SignalSource, step int, dtHours float64, prev Decision) (SimulationRecord, error) {
	fail := func(component string, err error) (SimulationRecord, error) {
		return SimulationRecord{}, &StepError{Step: step, Component: component, Err: err}
	}

	g, err := source.SignalAt(step)
	if err != nil {
		return fail(ComponentGrid, err)
	}

	decision, err := s.controller.Decide(g, prev)
	if err != nil {
		return fail(ComponentController, err)
	}
	if clamped := clamp(decision.FlexFraction, 0, 1); clamped != decision.FlexFraction {
		logrus.Warnf("[step %04d] controller output %v clamped to %v", step, decision.FlexFraction, clamped)
		decision.FlexFraction = clamped
	}

	load, err := s.itLoad.PowerFor(decision.FlexFraction)
	if err != nil {
		return fail(ComponentITLoad, err)
	}

	cooling, err := s.cooling.Cool(load.TotalITKW, g.OutdoorTempC)
	if err != nil {
		return fail(ComponentCooling, err)
	}

	rec := SimulationRecord{
		Step:      step,
		Grid:      g,
		Decision:  decision,
		ITLoad:    load,
		Cooling:   cooling,
		EnergyKWh: cooling.FacilityKW * dtHours,
		Cost:      cooling.FacilityKW * g.Price * dtHours,
		CarbonG:   cooling.FacilityKW * g.CarbonIntensity * dtHours,
	}
	if err := rec.checkInvariants(s.itLoad.BaseCapacityKW(), s.itLoad.FlexCapacityKW()); err != nil {
		return fail(ComponentMetrics, err)
	}
	return rec, nil
}

// runNamespace scopes run ids generated by this simulator.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/gridaware/dcsim/run"))

// RunID derives a deterministic identifier from the configuration and run
// parameters: identical inputs always yield the same id.
func RunID(cfg Config, horizonSteps int, dtHours float64, initial Decision) uuid.UUID {
	params := fmt.Sprintf("\nhorizon=%d dt=%v initial=%v", horizonSteps, dtHours, initial.FlexFraction)
	return uuid.NewSHA1(runNamespace, append(cfg.Canonical(), params...))
}
