package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridaware/dcsim/sim"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Print the synthetic grid signal trace as CSV",
	Long:  "Generate the grid signals (renewables, price, carbon, stress, outdoor temperature) for the configured horizon without running the control loop. Output is written to stdout and can be replayed with 'dcsim run --grid-trace'.",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := loadConfig(cmd, configPath)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		monitor := sim.NewGridMonitor(cfg.Grid, cfg.Simulation)
		states, err := sim.SignalTrace(monitor, cfg.Simulation.HorizonSteps)
		if err != nil {
			logrus.Fatalf("Signal generation failed: %v", err)
		}
		if err := sim.ExportGridTrace(os.Stdout, states); err != nil {
			logrus.Fatalf("Writing signals failed: %v", err)
		}
	},
}

func init() {
	addSimulationFlags(signalsCmd)
	rootCmd.AddCommand(signalsCmd)
}
