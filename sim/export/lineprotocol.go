package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/gridaware/dcsim/sim"
)

// Measurement is the line protocol measurement name for per-step records.
const Measurement = "dc_step"

// RecordPoint converts one record into an InfluxDB point tagged with the run
// id, cooling mode and controller rule.
func RecordPoint(runID string, r sim.SimulationRecord) *write.Point {
	tags := map[string]string{
		"run_id": runID,
		"mode":   string(r.Cooling.Mode),
		"rule":   string(r.Decision.Rule),
	}
	fields := map[string]interface{}{
		"step":               int64(r.Step),
		"hour":               r.Grid.Hour,
		"renewable_fraction": r.Grid.RenewableFraction,
		"price_per_kwh":      r.Grid.Price,
		"carbon_g_per_kwh":   r.Grid.CarbonIntensity,
		"stress":             r.Grid.Stress,
		"outdoor_temp_c":     r.Grid.OutdoorTempC,
		"flex_fraction":      r.Decision.FlexFraction,
		"steps_in_state":     int64(r.Decision.StepsInState),
		"base_kw":            r.ITLoad.BaseKW,
		"flex_kw":            r.ITLoad.FlexKW,
		"total_it_kw":        r.ITLoad.TotalITKW,
		"utilization":        r.ITLoad.Utilization,
		"per_server_w":       r.ITLoad.PerServerW,
		"heat_btu_per_hour":  r.ITLoad.HeatBTUPerHour,
		"cooling_kw":         r.Cooling.CoolingKW,
		"overhead_kw":        r.Cooling.OverheadKW,
		"facility_kw":        r.Cooling.FacilityKW,
		"pue":                r.Cooling.PUE,
		"energy_kwh":         r.EnergyKWh,
		"cost":               r.Cost,
		"carbon_g":           r.CarbonG,
	}
	return write.NewPoint(Measurement, tags, fields, r.Timestamp)
}

// WriteLineProtocol writes one line per record with nanosecond timestamps.
// Nothing is sent over the network; the output is meant for offline import.
func WriteLineProtocol(w io.Writer, res *sim.Result) error {
	runID := res.RunID.String()
	for _, r := range res.Records {
		line := write.PointToLineProtocol(RecordPoint(runID, r), time.Nanosecond)
		if _, err := io.WriteString(w, strings.TrimRight(line, "\n")+"\n"); err != nil {
			return fmt.Errorf("writing line protocol step %d: %w", r.Step, err)
		}
	}
	return nil
}
