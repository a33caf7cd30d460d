package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridaware/dcsim/sim"
)

// newFlagCmd returns a command carrying the run flags, parsed from args.
func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addSimulationFlags(c)
	c.Flags().Float64Var(&initialFlex, "initial-flex", 0.3, "")
	c.Flags().StringVar(&traceLevel, "trace-level", "none", "")
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestLoadConfig_ExplicitFileWithSeedOverride(t *testing.T) {
	// GIVEN the repository defaults file and an explicit --seed
	c := newFlagCmd(t, "--config", "../defaults.yaml", "--seed", "7")

	// WHEN the configuration is resolved
	cfg, err := loadConfig(c, configPath)

	// THEN the file is read and only the changed flag overrides it
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Simulation.Seed)
	assert.Equal(t, 288, cfg.Simulation.HorizonSteps)
	assert.Equal(t, 3.5, cfg.Cooling.ChillerCOP)
}

func TestLoadConfig_UnchangedFlagsKeepFileValues(t *testing.T) {
	// GIVEN a file whose seed differs from the flag default
	path := filepath.Join(t.TempDir(), "dcsim.yaml")
	cfg := sim.DefaultConfig()
	cfg.Simulation.Seed = 99
	require.NoError(t, os.WriteFile(path, cfg.Canonical(), 0644))
	c := newFlagCmd(t, "--config", path)

	got, err := loadConfig(c, configPath)

	// THEN the file's seed survives because --seed was not given
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Simulation.Seed)
}

func TestLoadConfig_MissingDefaultsFallsBackToBuiltins(t *testing.T) {
	c := newFlagCmd(t, "--horizon", "24", "--trace-level", "decisions")

	cfg, err := loadConfig(c, filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Simulation.HorizonSteps)
	assert.Equal(t, "decisions", cfg.Simulation.TraceLevel)
	assert.Equal(t, sim.DefaultConfig().ITLoad, cfg.ITLoad)
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	c := newFlagCmd(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := loadConfig(c, configPath)

	assert.ErrorIs(t, err, sim.ErrConfiguration)
}

func TestLoadConfig_InvalidOverrideRejected(t *testing.T) {
	c := newFlagCmd(t, "--horizon", "0")

	_, err := loadConfig(c, filepath.Join(t.TempDir(), "absent.yaml"))

	assert.ErrorIs(t, err, sim.ErrConfiguration)
}
