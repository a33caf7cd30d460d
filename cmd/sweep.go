package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridaware/dcsim/sim/sweep"
)

var (
	sweepSeeds       []int64 // Explicit seeds
	sweepRuns        int     // Number of derived seeds when --seeds is not given
	sweepParallelism int     // Max concurrent runs
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run independent simulations over many noise seeds",
	Long:  "Run the simulation once per seed, concurrently, and report the spread of cost, carbon and PUE. Seeds come from --seeds, or are derived from --seed when only --runs is given.",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := loadConfig(cmd, configPath)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		seeds := sweepSeeds
		if len(seeds) == 0 {
			if sweepRuns <= 0 {
				logrus.Fatalf("--runs must be positive, got %d", sweepRuns)
			}
			seeds = sweep.Seeds(cfg.Simulation.Seed, sweepRuns)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		outcomes, err := sweep.Run(ctx, cfg, seeds, sweepParallelism)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		sweep.Print(os.Stdout, outcomes)
	},
}

func init() {
	addSimulationFlags(sweepCmd)
	sweepCmd.Flags().Int64SliceVar(&sweepSeeds, "seeds", nil, "Comma-separated list of seeds")
	sweepCmd.Flags().IntVar(&sweepRuns, "runs", 8, "Number of seeds to derive from --seed when --seeds is not given")
	sweepCmd.Flags().IntVar(&sweepParallelism, "parallelism", 4, "Maximum concurrent runs (0 = unlimited)")

	rootCmd.AddCommand(sweepCmd)
}
