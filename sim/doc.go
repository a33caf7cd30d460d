// Package sim provides the closed-loop simulation engine for dcsim.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - grid.go: GridMonitor and the GridState signal (renewables, price, carbon, stress, temperature)
//   - controller.go: the rule-based flexible-load controller and its Decision value
//   - simulator.go: the per-step loop and the Result it produces
//
// # Step order
//
// Each step runs, strictly in order:
//
//	GridMonitor.SignalAt → Controller.Decide → ITLoadModel.PowerFor → CoolingModel.Cool → record
//
// The decision computed from step t's signal and step t-1's decision is
// applied within step t. Every component is a pure function of its inputs and
// static configuration; the only mutable state is the Result Log built inside
// Run, which is handed to the caller once the run completes.
//
// # Determinism
//
// Grid noise is drawn from a PartitionedRNG keyed by (seed, subsystem, step),
// so a given seed and configuration reproduce bit-identical records, and
// independent simulators may run concurrently (see sim/sweep).
//
// # Sub-packages
//   - sim/trace/: controller decision trace recording
//   - sim/export/: JSON, CSV and line protocol serialization of results
//   - sim/sweep/: concurrent multi-seed runs
package sim
