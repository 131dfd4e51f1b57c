package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/cloudsim/pkg/log"
	"github.com/cuemby/cloudsim/pkg/metrics"
	"github.com/cuemby/cloudsim/pkg/simulator"
	"github.com/cuemby/cloudsim/pkg/trace"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation from a scenario file and print its results",
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarioPath, _ := cmd.Flags().GetString("scenario")

		sc, err := loadScenario(scenarioPath)
		if err != nil {
			return err
		}

		sim, err := buildSimulator(sc)
		if err != nil {
			return err
		}

		if err := submitTraces(sim, sc); err != nil {
			return err
		}

		collector := sim.Run()
		printResults(collector)
		return nil
	},
}

// buildSimulator opens catalog and constructs a simulator.Simulator for
// the scenario's policy and tuning knobs.
func buildSimulator(sc *scenario) (*simulator.Simulator, error) {
	catalogFile, err := os.Open(sc.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("run: open catalog: %w", err)
	}
	defer catalogFile.Close()

	cfg, err := sc.toConfig()
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	return simulator.New(sc.policy(), catalogFile, cfg, log.Logger)
}

// submitTraces parses every trace file named in the scenario and
// submits the resulting workflow at simulation time 0.
func submitTraces(sim *simulator.Simulator, sc *scenario) error {
	for _, path := range sc.TracePaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("run: open trace %s: %w", path, err)
		}
		wf, err := trace.Parse(f, 0, sc.DeadlineS, sc.Budget)
		f.Close()
		if err != nil {
			return fmt.Errorf("run: parse trace %s: %w", path, err)
		}
		sim.Submit(wf)
	}
	return nil
}

// printResults prints a one-line summary per workflow plus the run-wide
// totals, in the style of warren's CLI status lines.
func printResults(c *metrics.Collector) {
	fmt.Printf("Scheduler: %s\n", c.SchedulerName)
	for id, s := range c.Workflows {
		constraint := "deadline"
		if s.Budget != nil {
			constraint = "budget"
		}
		status := "MET"
		if !s.ConstraintMet {
			status = "MISSED"
		}
		fmt.Printf("  workflow %s: finish=%.1fs cost=$%.2f %s=%s (overflow=%.1f%%)\n",
			id, s.FinishTime, s.Cost, constraint, status, s.ConstraintOverflow*100)
	}
	fmt.Println()
	fmt.Printf("Workflows: %d, constraints met: %d\n", len(c.Workflows), c.ConstraintsMet)
	fmt.Printf("VMs initialized: %d, left at shutdown: %d\n", c.InitializedVMs, c.VMsLeft)
	fmt.Printf("Total cost: $%.2f\n", c.Cost)
}
