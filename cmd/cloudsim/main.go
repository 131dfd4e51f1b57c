package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/cloudsim/pkg/log"
	"github.com/cuemby/cloudsim/pkg/metrics"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cloudsim",
	Short: "Discrete-event simulator for cost/deadline-aware workflow scheduling",
	Long: `cloudsim replays WfCommons-style scientific workflow traces against a
catalog of cloud VM types under one of four scheduling policies — EPSM,
EBPSM, DynaNS, Min-MinBUDG — and reports cost, makespan and constraint
outcomes without provisioning anything real.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(catalogCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func init() {
	runCmd.Flags().String("scenario", "", "Path to a scenario YAML file (required)")
	runCmd.MarkFlagRequired("scenario")

	sweepCmd.Flags().String("scenario", "", "Path to a scenario YAML file (required)")
	sweepCmd.Flags().Int("repeat", 1, "Number of repeated runs per policy, to smooth reported figures")
	sweepCmd.Flags().StringSlice("policies", []string{"EPSM", "EBPSM", "DynaNS", "Min-MinBUDG"}, "Policies to compare")
	sweepCmd.Flags().String("metrics-addr", "", "If set, serve Prometheus /metrics on this address for the duration of the sweep")
	sweepCmd.MarkFlagRequired("scenario")

	catalogCmd.AddCommand(catalogValidateCmd)
	catalogValidateCmd.Flags().String("catalog", "", "Path to a VM type catalog JSON file (required)")
	catalogValidateCmd.MarkFlagRequired("catalog")
}

// httpServeMetrics starts a Prometheus /metrics endpoint in the
// background, used by `cloudsim sweep --metrics-addr` to expose live
// scheduler-comparison histograms while a sweep runs.
func httpServeMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Warn().Err(err).Msg("metrics server stopped")
		}
	}()
	return srv
}
