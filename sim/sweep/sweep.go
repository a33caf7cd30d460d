// Package sweep runs independent simulations concurrently, one per seed.
//
// A single run is strictly sequential; parallelism exists only across runs.
// Each run builds its own Simulator and therefore its own seeded RNG, so the
// outcome for a seed is identical whether it runs alone or in a sweep.
package sweep

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/gridaware/dcsim/sim"
)

// SubsystemSweep is the RNG subsystem used to derive per-run seeds.
const SubsystemSweep = "sweep"

// Outcome is the result of one run in a sweep.
type Outcome struct {
	Seed   int64
	Result *sim.Result
}

// Seeds derives n run seeds from a master seed. The same master seed always
// yields the same list.
func Seeds(master int64, n int) []int64 {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(master)).ForSubsystem(SubsystemSweep)
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	return seeds
}

// Run simulates cfg once per seed with at most parallelism runs in flight
// (parallelism <= 0 means one run per seed at once). Outcomes are returned
// in seed order. The first failing run cancels the runs not yet started.
func Run(ctx context.Context, cfg sim.Config, seeds []int64, parallelism int) ([]Outcome, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: sweep needs at least one seed", sim.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, seed := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			runCfg := cfg
			runCfg.Simulation.Seed = seed
			s, err := sim.NewSimulator(runCfg)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			res, err := s.RunConfigured()
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			logrus.Debugf("sweep: seed %d done, cost=%s", seed, res.Summary.TotalCost.StringFixed(2))
			outcomes[i] = Outcome{Seed: seed, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Stats is the across-seed distribution of the headline metrics.
type Stats struct {
	Runs          int
	MeanCost      float64
	StdCost       float64
	MeanCarbonKg  float64
	StdCarbonKg   float64
	MeanPUE       float64
	MeanFlexShare float64
}

// Aggregate computes across-seed statistics. Safe for empty input.
func Aggregate(outcomes []Outcome) Stats {
	st := Stats{Runs: len(outcomes)}
	if len(outcomes) == 0 {
		return st
	}
	cost := make([]float64, len(outcomes))
	carbon := make([]float64, len(outcomes))
	pue := make([]float64, len(outcomes))
	flex := make([]float64, len(outcomes))
	for i, o := range outcomes {
		cost[i] = o.Result.Summary.TotalCost.InexactFloat64()
		carbon[i] = o.Result.Summary.TotalCarbonKg
		pue[i] = o.Result.Summary.AvgPUE
		flex[i] = o.Result.Summary.AvgFlexFraction
	}
	st.MeanCost, st.StdCost = meanStd(cost)
	st.MeanCarbonKg, st.StdCarbonKg = meanStd(carbon)
	st.MeanPUE = stat.Mean(pue, nil)
	st.MeanFlexShare = stat.Mean(flex, nil)
	return st
}

// meanStd returns the mean and sample standard deviation; the deviation is
// zero for a single value.
func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

// Print writes one row per run followed by the aggregate.
func Print(w io.Writer, outcomes []Outcome) {
	_, _ = fmt.Fprintln(w, "=== Sweep Results ===")
	_, _ = fmt.Fprintf(w, "%-20s %12s %12s %8s %8s\n", "seed", "cost", "carbon_kg", "avg_pue", "flex")
	for _, o := range outcomes {
		s := o.Result.Summary
		_, _ = fmt.Fprintf(w, "%-20d %12s %12.2f %8.3f %7.1f%%\n",
			o.Seed, s.TotalCost.StringFixed(2), s.TotalCarbonKg, s.AvgPUE, s.AvgFlexFraction*100)
	}
	st := Aggregate(outcomes)
	_, _ = fmt.Fprintf(w, "runs=%d cost=%.2f±%.2f carbon_kg=%.2f±%.2f avg_pue=%.3f flex=%.1f%%\n",
		st.Runs, st.MeanCost, st.StdCost, st.MeanCarbonKg, st.StdCarbonKg, st.MeanPUE, st.MeanFlexShare*100)
}
