package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridaware/dcsim/sim"
	"github.com/gridaware/dcsim/sim/export"
)

var (
	// CLI flags shared by run, sweep and signals
	configPath   string  // Path to YAML configuration
	seed         int64   // Seed for grid signal noise
	horizonSteps int     // Number of simulation steps
	dtHours      float64 // Step length in hours
	initialFlex  float64 // Flex fraction in force before step 0
	traceLevel   string  // Controller decision trace level
	logLevel     string  // Log verbosity level

	// CLI flags for run
	outputPath     string // Results file ("" = no file)
	outputFormat   string // json, csv or lp ("" = infer from extension)
	gridTracePath  string // Replay grid signals from CSV instead of synthesizing
	printSummary   bool   // Print the run summary to stdout
	summarizeTrace bool   // Print the decision trace summary
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dcsim",
	Short: "Closed-loop simulator for grid-aware data center load shifting",
}

// runCmd executes the simulation using parameters from the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the 24-hour closed-loop simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if outputFormat != "" && !export.IsValidFormat(outputFormat) {
			logrus.Fatalf("Unknown output format %q; valid: json, csv, lp", outputFormat)
		}

		cfg, err := loadConfig(cmd, configPath)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		var opts []sim.Option
		if gridTracePath != "" {
			src, err := sim.LoadGridTrace(gridTracePath)
			if err != nil {
				logrus.Fatalf("Failed to load grid trace: %v", err)
			}
			if !cmd.Flags().Changed("horizon") && src.Len() < cfg.Simulation.HorizonSteps {
				logrus.Warnf("Grid trace has %d rows; shortening horizon from %d", src.Len(), cfg.Simulation.HorizonSteps)
				cfg.Simulation.HorizonSteps = src.Len()
			}
			opts = append(opts, sim.WithSignalSource(src))
		}

		s, err := sim.NewSimulator(cfg, opts...)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		res, err := s.RunConfigured()
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if printSummary {
			res.Summary.Print(os.Stdout)
		}
		if summarizeTrace && res.TraceSummary != nil {
			ts := res.TraceSummary
			logrus.Infof("Decision trace: %d decisions, %d changes, longest hold %d steps, rules=%v",
				ts.TotalDecisions, ts.Changes, ts.LongestHold, ts.RuleDistribution)
		}

		if outputPath != "" {
			format := export.Format(outputFormat)
			if outputFormat == "" {
				format = export.FormatForPath(outputPath)
			}
			if err := export.SaveResults(outputPath, res, format); err != nil {
				logrus.Fatalf("Failed to save results: %v", err)
			}
			logrus.Infof("Results saved to %s (%s, run %s)", outputPath, format, res.RunID)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addSimulationFlags registers the flags every simulating command accepts.
func addSimulationFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", defaultsFilePath, "Path to YAML configuration")
	c.Flags().Int64Var(&seed, "seed", 42, "Seed for grid signal noise")
	c.Flags().IntVar(&horizonSteps, "horizon", 288, "Number of simulation steps")
	c.Flags().Float64Var(&dtHours, "dt-hours", 5.0/60.0, "Step length in hours")
	c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// init sets up CLI flags and subcommands
func init() {
	addSimulationFlags(runCmd)
	runCmd.Flags().Float64Var(&initialFlex, "initial-flex", 0.3, "Flex fraction in force before the first step")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Controller decision trace level (none, decisions)")
	runCmd.Flags().BoolVar(&summarizeTrace, "summarize-trace", false, "Log a summary of the decision trace")
	runCmd.Flags().StringVar(&outputPath, "output", "", "Write per-step results to this file")
	runCmd.Flags().StringVar(&outputFormat, "output-format", "", "Results format: json, csv or lp (default: from --output extension)")
	runCmd.Flags().StringVar(&gridTracePath, "grid-trace", "", "Replay grid signals from a CSV trace (see 'dcsim signals')")
	runCmd.Flags().BoolVar(&printSummary, "summary", true, "Print the run summary to stdout")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
