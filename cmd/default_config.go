package cmd

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridaware/dcsim/sim"
)

// defaultsFilePath is the configuration read when --config is not given.
const defaultsFilePath = "defaults.yaml"

// loadConfig resolves the run configuration: the --config file if set,
// otherwise defaults.yaml if present, otherwise the built-in defaults.
// Flags the user explicitly set override file values (cmd.Flags().Changed),
// and the merged result is validated before any step runs.
func loadConfig(cmd *cobra.Command, path string) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	switch {
	case cmd.Flags().Changed("config"):
		loaded, err := sim.LoadConfig(path)
		if err != nil {
			return sim.Config{}, err
		}
		cfg = loaded
	default:
		if _, err := os.Stat(path); err == nil {
			loaded, err := sim.LoadConfig(path)
			if err != nil {
				return sim.Config{}, err
			}
			cfg = loaded
		} else if errors.Is(err, os.ErrNotExist) {
			logrus.Infof("%s not found, using built-in defaults", path)
		} else {
			return sim.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if flags.Changed("horizon") {
		cfg.Simulation.HorizonSteps = horizonSteps
	}
	if flags.Changed("dt-hours") {
		cfg.Simulation.DtHours = dtHours
	}
	if flags.Changed("initial-flex") {
		cfg.Simulation.InitialFlexFraction = initialFlex
	}
	if flags.Changed("trace-level") {
		cfg.Simulation.TraceLevel = traceLevel
	}
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, err
	}
	return cfg, nil
}

// setLogLevel applies the --log flag.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}
