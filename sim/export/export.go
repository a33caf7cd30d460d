// Package export serializes simulation results for downstream visualization.
//
// Every format is lossless with respect to sim.SimulationRecord: floats are
// written with the shortest representation that parses back to the same
// float64, and timestamps keep nanosecond precision.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridaware/dcsim/sim"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON         Format = "json"
	FormatCSV          Format = "csv"
	FormatLineProtocol Format = "lp"
)

// validFormats maps accepted format strings.
var validFormats = map[Format]bool{
	FormatJSON:         true,
	FormatCSV:          true,
	FormatLineProtocol: true,
}

// IsValidFormat reports whether name is a recognized output format.
func IsValidFormat(name string) bool {
	return validFormats[Format(name)]
}

// FormatForPath infers a format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".lp", ".line":
		return FormatLineProtocol
	default:
		return FormatJSON
	}
}

// Write encodes res to w in the given format.
func Write(w io.Writer, res *sim.Result, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatCSV:
		return WriteCSV(w, res.Records)
	case FormatLineProtocol:
		return WriteLineProtocol(w, res)
	default:
		return fmt.Errorf("unknown output format %q; valid: json, csv, lp", format)
	}
}

// SaveResults writes res to path, creating or truncating the file.
func SaveResults(path string, res *sim.Result, format Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	if err := Write(file, res, format); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing results file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing results file %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes the full result envelope as indented JSON.
func WriteJSON(w io.Writer, res *sim.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding results JSON: %w", err)
	}
	return nil
}

// ReadJSON decodes a result envelope written by WriteJSON.
func ReadJSON(r io.Reader) (*sim.Result, error) {
	var res sim.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding results JSON: %w", err)
	}
	return &res, nil
}
