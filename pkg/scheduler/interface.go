// Package scheduler declares the shared contract every scheduling
// policy (EPSM, EBPSM, DynaNS, Min-MinBUDG) implements, plus shared
// helpers used by EPSM and EBPSM: DAG-level assignment, EFT/makespan
// computation and EEOQ construction (§4.4, §9).
//
// Each policy lives in its own subpackage (pkg/scheduler/epsm, .../ebpsm,
// .../dynans, .../minminbudg) and embeds a pointer to the core
// workflow.Workflow (not a copy of it) within its own algorithm-specific
// workflow wrapper, per §9's
// "prefer composition over inheritance" guidance — there is no shared
// base class here, only shared free functions and a common interface.
package scheduler

import (
	"github.com/cuemby/cloudsim/pkg/cost"
	"github.com/cuemby/cloudsim/pkg/event"
	"github.com/cuemby/cloudsim/pkg/metrics"
)

// Interface is the capability set every scheduling policy implements
// (§9). event.Scheduler covers the loop-facing dispatch methods;
// the rest are driver-facing configuration setters.
type Interface interface {
	event.Scheduler

	Name() string
	SetMetricCollector(c *metrics.Collector)
	SetVMProvisionDelay(seconds float64)
	SetBillingPeriod(seconds int64) error
	SetPredictFunction(model cost.Model)
	SetVMDeprovision(percent float64)
}
