package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSV column headers for grid signal traces.
var gridTraceColumns = []string{
	"step", "hour", "renewable_fraction", "price_per_kwh",
	"carbon_g_per_kwh", "stress", "outdoor_temp_c",
}

// TraceSource replays a recorded grid signal trace, one row per step.
type TraceSource struct {
	states []GridState
}

// NewTraceSource wraps already-parsed grid states. Row i serves step i.
func NewTraceSource(states []GridState) *TraceSource {
	return &TraceSource{states: states}
}

// Len returns the number of steps the trace covers.
func (t *TraceSource) Len() int { return len(t.states) }

// SignalAt returns row step of the trace. Stepping past the end is a range violation.
func (t *TraceSource) SignalAt(step int) (GridState, error) {
	if step < 0 || step >= len(t.states) {
		return GridState{}, rangeErrorf("step %d outside grid trace of %d rows", step, len(t.states))
	}
	g := t.states[step]
	g.Step = step
	if err := g.Validate(); err != nil {
		return GridState{}, err
	}
	return g, nil
}

// LoadGridTrace reads a grid signal trace CSV written by ExportGridTrace.
func LoadGridTrace(path string) (*TraceSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening grid trace: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ReadGridTrace(file)
}

// ReadGridTrace parses a grid signal trace CSV with a header row.
func ReadGridTrace(r io.Reader) (*TraceSource, error) {
	reader := csv.NewReader(r)

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var states []GridState
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if len(row) < len(gridTraceColumns) {
			return nil, fmt.Errorf("CSV line %d has %d columns, expected %d", line, len(row), len(gridTraceColumns))
		}
		g, err := parseGridRow(row)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		states = append(states, g)
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("empty grid trace")
	}
	return NewTraceSource(states), nil
}

func parseGridRow(row []string) (GridState, error) {
	step, err := strconv.Atoi(row[0])
	if err != nil {
		return GridState{}, fmt.Errorf("step: %w", err)
	}
	vals := make([]float64, len(gridTraceColumns)-1)
	for i := range vals {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return GridState{}, fmt.Errorf("%s: %w", gridTraceColumns[i+1], err)
		}
		vals[i] = v
	}
	return GridState{
		Step:              step,
		Hour:              vals[0],
		RenewableFraction: vals[1],
		Price:             vals[2],
		CarbonIntensity:   vals[3],
		Stress:            vals[4],
		OutdoorTempC:      vals[5],
	}, nil
}

// ExportGridTrace writes grid states as CSV. Floats use the shortest
// representation that round-trips exactly.
func ExportGridTrace(w io.Writer, states []GridState) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(gridTraceColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, g := range states {
		row := []string{
			strconv.Itoa(g.Step),
			formatFloat(g.Hour),
			formatFloat(g.RenewableFraction),
			formatFloat(g.Price),
			formatFloat(g.CarbonIntensity),
			formatFloat(g.Stress),
			formatFloat(g.OutdoorTempC),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", g.Step, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// SignalTrace samples n consecutive steps from a source.
func SignalTrace(src SignalSource, n int) ([]GridState, error) {
	states := make([]GridState, 0, n)
	for step := 0; step < n; step++ {
		g, err := src.SignalAt(step)
		if err != nil {
			return nil, &StepError{Step: step, Component: ComponentGrid, Err: err}
		}
		states = append(states, g)
	}
	return states, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
