// Package config holds the constructor-time defaults shared by every
// simulation run: VM provisioning/billing parameters and the knobs each
// scheduler exposes through scheduler.Interface's setters.
package config

import "github.com/cuemby/cloudsim/pkg/cost"

// Defaults for values spec.md leaves to the driver.
const (
	DefaultVMProvisionDelayS    = 0.0
	DefaultVMDeprovisionPercent   = 0.1
	DefaultBillingPeriodS       = int64(3600)
	DefaultProvisioningInterval = 600.0 // EPSM's manage_resources cadence
	DefaultSchedulingInterval   = 30.0  // EPSM's schedule_task retry cadence
	DefaultEBPSMInterval        = 1.0   // EBPSM's manage_resources cadence
	DefaultOnDemandConfMaxIter  = 1000  // DynaNS search bound
)

// Config is the plain struct a driver fills in and passes to a
// simulator.Simulator, mirroring how the teacher's manager package takes
// a flat Config struct at construction rather than a builder chain.
type Config struct {
	VMProvisionDelayS   float64
	VMDeprovisionPercent  float64
	BillingPeriodS      int64
	PredictModel        cost.Model
	ProvisioningIntervalS float64 // EPSM and EBPSM
	SchedulingIntervalS   float64 // EPSM only
	OnDemandConfMaxIter   int     // DynaNS only
}

// Default returns a Config with every field set to this package's
// defaults and the io_consumption prediction model. ProvisioningIntervalS
// and SchedulingIntervalS are left zero: each policy package already
// carries its own default cadence (EPSM's differs from EBPSM's), and a
// zero value here tells the simulator to leave that default alone
// rather than stomp it with one policy's number.
func Default() Config {
	return Config{
		VMProvisionDelayS:    DefaultVMProvisionDelayS,
		VMDeprovisionPercent: DefaultVMDeprovisionPercent,
		BillingPeriodS:       DefaultBillingPeriodS,
		PredictModel:         cost.IOConsumption,
		OnDemandConfMaxIter:  DefaultOnDemandConfMaxIter,
	}
}
