package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gridaware/dcsim/sim"
)

// CSV column headers for the per-step record table.
var recordColumns = []string{
	"step", "timestamp",
	"hour", "renewable_fraction", "price_per_kwh", "carbon_g_per_kwh", "stress", "outdoor_temp_c",
	"flex_fraction", "rule", "steps_in_state",
	"base_kw", "flex_kw", "total_it_kw", "utilization", "per_server_w", "heat_btu_per_hour",
	"mode", "cooling_kw", "overhead_kw", "facility_kw", "pue",
	"energy_kwh", "cost", "carbon_g",
}

// WriteCSV writes one row per record.
func WriteCSV(w io.Writer, records []sim.SimulationRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(recordColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Step),
			r.Timestamp.Format(time.RFC3339Nano),
			ff(r.Grid.Hour), ff(r.Grid.RenewableFraction), ff(r.Grid.Price),
			ff(r.Grid.CarbonIntensity), ff(r.Grid.Stress), ff(r.Grid.OutdoorTempC),
			ff(r.Decision.FlexFraction), string(r.Decision.Rule), strconv.Itoa(r.Decision.StepsInState),
			ff(r.ITLoad.BaseKW), ff(r.ITLoad.FlexKW), ff(r.ITLoad.TotalITKW),
			ff(r.ITLoad.Utilization), ff(r.ITLoad.PerServerW), ff(r.ITLoad.HeatBTUPerHour),
			string(r.Cooling.Mode), ff(r.Cooling.CoolingKW), ff(r.Cooling.OverheadKW),
			ff(r.Cooling.FacilityKW), ff(r.Cooling.PUE),
			ff(r.EnergyKWh), ff(r.Cost), ff(r.CarbonG),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", r.Step, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a record table written by WriteCSV.
func ReadCSV(r io.Reader) ([]sim.SimulationRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(recordColumns)

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var records []sim.SimulationRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("CSV row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(row []string) (sim.SimulationRecord, error) {
	p := &rowParser{row: row}
	rec := sim.SimulationRecord{}
	rec.Step = p.int(0)
	rec.Timestamp = p.time(1)
	rec.Grid = sim.GridState{
		Step:              rec.Step,
		Hour:              p.float(2),
		RenewableFraction: p.float(3),
		Price:             p.float(4),
		CarbonIntensity:   p.float(5),
		Stress:            p.float(6),
		OutdoorTempC:      p.float(7),
	}
	rec.Decision = sim.Decision{
		FlexFraction: p.float(8),
		Rule:         sim.Rule(row[9]),
		StepsInState: p.int(10),
	}
	rec.ITLoad = sim.ITLoadState{
		BaseKW:         p.float(11),
		FlexKW:         p.float(12),
		TotalITKW:      p.float(13),
		Utilization:    p.float(14),
		PerServerW:     p.float(15),
		HeatBTUPerHour: p.float(16),
	}
	rec.Cooling = sim.CoolingState{
		Mode:       sim.CoolingMode(row[17]),
		CoolingKW:  p.float(18),
		OverheadKW: p.float(19),
		FacilityKW: p.float(20),
		PUE:        p.float(21),
	}
	rec.EnergyKWh = p.float(22)
	rec.Cost = p.float(23)
	rec.CarbonG = p.float(24)
	return rec, p.err
}

// rowParser keeps the first conversion error so parseRecord reads linearly.
type rowParser struct {
	row []string
	err error
}

func (p *rowParser) float(i int) float64 {
	v, err := strconv.ParseFloat(p.row[i], 64)
	p.keep(i, err)
	return v
}

func (p *rowParser) int(i int) int {
	v, err := strconv.Atoi(p.row[i])
	p.keep(i, err)
	return v
}

func (p *rowParser) time(i int) time.Time {
	v, err := time.Parse(time.RFC3339Nano, p.row[i])
	p.keep(i, err)
	return v
}

func (p *rowParser) keep(i int, err error) {
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", recordColumns[i], err)
	}
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
