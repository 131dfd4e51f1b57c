// Package vm models the VM type catalog, VM instance lifecycle, and the
// manager that provisions/reserves/releases/shuts down instances.
package vm

// Type is an immutable entry of the VM catalog, loaded once at startup.
// The manager may rescale (PricePerPeriod, BillingPeriodS) to a uniform
// global billing period while preserving price/second (set_billing_period,
// §4.2); every other field never changes after load.
type Type struct {
	Name            string
	CPU             int
	MemoryGB        int
	PricePerPeriod  float64
	BillingPeriodS  int64
	IOBandwidthMbps float64
}

// PricePerSecond is the derived rate set_billing_period preserves when it
// rescales PricePerPeriod/BillingPeriodS.
func (t Type) PricePerSecond() float64 {
	if t.BillingPeriodS == 0 {
		return 0
	}
	return t.PricePerPeriod / float64(t.BillingPeriodS)
}
