package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cuemby/cloudsim/pkg/vm"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate VM type catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load a VM catalog and report its parsed, sorted VM types",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("catalog")

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("catalog validate: open %s: %w", path, err)
		}
		defer f.Close()

		manager := vm.NewManager(zerolog.Nop())
		if err := manager.LoadCatalog(f); err != nil {
			return fmt.Errorf("catalog validate: %w", err)
		}

		fmt.Printf("%-15s %-6s %-8s %-10s %-15s %-14s\n", "NAME", "CPU", "MEM_GB", "PRICE", "BILLING_S", "IO_MBPS")
		for _, t := range manager.Catalog() {
			fmt.Printf("%-15s %-6d %-8d %-10.4f %-15d %-14.1f\n",
				t.Name, t.CPU, t.MemoryGB, t.PricePerPeriod, t.BillingPeriodS, t.IOBandwidthMbps)
		}
		fmt.Printf("\n%d VM types loaded (ascending price)\n", len(manager.Catalog()))
		return nil
	},
}
