package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridaware/dcsim/sim"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

// runDay runs a short default simulation for export tests.
func runDay(t *testing.T, steps int) *sim.Result {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Simulation.HorizonSteps = steps
	s, err := sim.NewSimulator(cfg)
	require.NoError(t, err)
	res, err := s.RunConfigured()
	require.NoError(t, err)
	return res
}

func TestCSV_RoundTripIsLossless(t *testing.T) {
	// GIVEN a run of 36 steps
	res := runDay(t, 36)

	// WHEN written as CSV and parsed back
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res.Records))
	got, err := ReadCSV(&buf)

	// THEN every field survives exactly
	require.NoError(t, err)
	require.Len(t, got, len(res.Records))
	for i := range got {
		assert.True(t, res.Records[i].Timestamp.Equal(got[i].Timestamp), "step %d timestamp", i)
		got[i].Timestamp = res.Records[i].Timestamp
		assert.Equal(t, res.Records[i], got[i], "step %d", i)
	}
}

func TestCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	header := strings.TrimSpace(buf.String())
	assert.Equal(t, strings.Join(recordColumns, ","), header)
}

func TestReadCSV_WrongColumnCount(t *testing.T) {
	input := strings.Join(recordColumns, ",") + "\n0,2024-06-21T00:00:00Z,1\n"
	_, err := ReadCSV(strings.NewReader(input))
	assert.Error(t, err)
}

func TestReadCSV_BadValueNamesColumn(t *testing.T) {
	res := runDay(t, 1)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res.Records))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	fields := strings.Split(lines[1], ",")
	fields[21] = "not-a-number" // pue
	input := lines[0] + "\n" + strings.Join(fields, ",") + "\n"

	_, err := ReadCSV(strings.NewReader(input))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pue")
}

func TestJSON_RoundTrip(t *testing.T) {
	res := runDay(t, 24)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))
	got, err := ReadJSON(&buf)

	require.NoError(t, err)
	assert.Equal(t, res.RunID, got.RunID)
	require.Len(t, got.Records, len(res.Records))
	for i := range got.Records {
		assert.Equal(t, res.Records[i].Cooling, got.Records[i].Cooling)
		assert.Equal(t, res.Records[i].Decision, got.Records[i].Decision)
		assert.Equal(t, res.Records[i].Grid, got.Records[i].Grid)
	}
	assert.True(t, res.Summary.TotalCost.Equal(got.Summary.TotalCost))
}

func TestJSON_ExcludesWallTime(t *testing.T) {
	res := runDay(t, 2)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))
	assert.NotContains(t, buf.String(), "WallTime")
}

func TestLineProtocol_OneLinePerRecord(t *testing.T) {
	res := runDay(t, 12)

	var buf bytes.Buffer
	require.NoError(t, WriteLineProtocol(&buf, res))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 12)
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, Measurement+","), "line %d: %s", i, line)
		assert.Contains(t, line, "run_id="+res.RunID.String())
		assert.Contains(t, line, "mode="+string(res.Records[i].Cooling.Mode))
		assert.Contains(t, line, "steps_in_state=")
		assert.True(t, strings.HasSuffix(line, " "+
			strconv.FormatInt(res.Records[i].Timestamp.UnixNano(), 10)), "line %d timestamp: %s", i, line)
	}
}

func TestRecordPoint_IntegerFields(t *testing.T) {
	res := runDay(t, 1)

	p := RecordPoint("run", res.Records[0])

	assert.Equal(t, Measurement, p.Name())
	for _, f := range p.FieldList() {
		if f.Key == "step" || f.Key == "steps_in_state" {
			assert.IsType(t, int64(0), f.Value, f.Key)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatCSV, FormatForPath("out/results.CSV"))
	assert.Equal(t, FormatLineProtocol, FormatForPath("results.lp"))
	assert.Equal(t, FormatJSON, FormatForPath("results.json"))
	assert.Equal(t, FormatJSON, FormatForPath("results"))
}

func TestIsValidFormat(t *testing.T) {
	for _, name := range []string{"json", "csv", "lp"} {
		assert.True(t, IsValidFormat(name), name)
	}
	assert.False(t, IsValidFormat("parquet"))
	assert.False(t, IsValidFormat(""))
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, runDay(t, 1), Format("xml"))
	assert.Error(t, err)
}

func TestSaveResults_WritesFile(t *testing.T) {
	res := runDay(t, 6)
	path := filepath.Join(t.TempDir(), "results.csv")

	require.NoError(t, SaveResults(path, res, FormatForPath(path)))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	got, err := ReadCSV(file)
	require.NoError(t, err)
	assert.Len(t, got, 6)
}
