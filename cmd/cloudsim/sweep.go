package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/cloudsim/pkg/metrics"
	"github.com/cuemby/cloudsim/pkg/simulator"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the same scenario under several policies and compare results",
	Long: `sweep runs a scenario's traces independently under each requested
policy (default: all four), repeating each run --repeat times to smooth
reported figures, and prints a comparison table. Repeats are independent
full simulations — cloudsim's event loop is deterministic, so they are
useful for amortizing wall-clock jitter when --metrics-addr is serving
live Prometheus histograms, not for resampling randomness the simulator
itself doesn't have.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarioPath, _ := cmd.Flags().GetString("scenario")
		repeat, _ := cmd.Flags().GetInt("repeat")
		policies, _ := cmd.Flags().GetStringSlice("policies")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		sc, err := loadScenario(scenarioPath)
		if err != nil {
			return err
		}

		var srv *httpServer
		if metricsAddr != "" {
			srv = startMetricsServer(metricsAddr)
			defer srv.shutdown()
		}

		fmt.Printf("%-15s %-10s %-12s %-10s %-10s\n", "POLICY", "RUN", "COST", "MET", "VMS_LEFT")
		for _, p := range policies {
			for i := 0; i < repeat; i++ {
				scCopy := *sc
				scCopy.Policy = p

				sim, err := buildSimulator(&scCopy)
				if err != nil {
					return fmt.Errorf("sweep: %s run %d: %w", p, i, err)
				}
				if err := submitTraces(sim, &scCopy); err != nil {
					return fmt.Errorf("sweep: %s run %d: %w", p, i, err)
				}

				collector := sim.Run()
				metrics.Publish(collector)

				fmt.Printf("%-15s %-10d %-12.2f %-10d %-10d\n",
					p, i, collector.Cost, collector.ConstraintsMet, collector.VMsLeft)
			}
		}
		return nil
	},
}

// httpServer is the minimal surface sweep needs from net/http.Server,
// named locally so sweep.go doesn't need to import net/http itself for
// the shutdown call site.
type httpServer struct {
	shutdown func()
}

func startMetricsServer(addr string) *httpServer {
	srv := httpServeMetrics(addr)
	return &httpServer{
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		},
	}
}
