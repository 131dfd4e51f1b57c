// Package simulator is the top-level driver: it wires a chosen
// scheduling policy, the VM catalog, storage parameters and the event
// loop into one runnable simulation and exposes the finished metrics
// ledger, playing the role the teacher's pkg/manager.Manager plays for
// a cluster — except here there is exactly one consumer of the loop,
// run to completion rather than kept alive.
package simulator

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/cuemby/cloudsim/pkg/config"
	"github.com/cuemby/cloudsim/pkg/cost"
	"github.com/cuemby/cloudsim/pkg/event"
	"github.com/cuemby/cloudsim/pkg/log"
	"github.com/cuemby/cloudsim/pkg/metrics"
	"github.com/cuemby/cloudsim/pkg/scheduler"
	"github.com/cuemby/cloudsim/pkg/scheduler/dynans"
	"github.com/cuemby/cloudsim/pkg/scheduler/ebpsm"
	"github.com/cuemby/cloudsim/pkg/scheduler/epsm"
	"github.com/cuemby/cloudsim/pkg/scheduler/minminbudg"
	"github.com/cuemby/cloudsim/pkg/storage"
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// Policy names one of the four scheduling policies a Simulator can run.
type Policy string

const (
	EPSM       Policy = "EPSM"
	EBPSM      Policy = "EBPSM"
	DynaNS     Policy = "DynaNS"
	MinMinBUDG Policy = "Min-MinBUDG"
)

func newScheduler(p Policy, vmManager *vm.Manager, store *storage.Storage) (scheduler.Interface, error) {
	switch p {
	case EPSM:
		return epsm.New(vmManager, store), nil
	case EBPSM:
		return ebpsm.New(vmManager, store), nil
	case DynaNS:
		return dynans.New(vmManager, store), nil
	case MinMinBUDG:
		return minminbudg.New(vmManager, store), nil
	default:
		return nil, fmt.Errorf("simulator: unknown policy %q", p)
	}
}

// Simulator bundles the VM manager, storage model, metrics collector,
// scheduling policy and event loop needed to run one simulation from a
// loaded catalog and a set of submitted workflows through to completion.
type Simulator struct {
	Policy    Policy
	VMManager *vm.Manager
	Storage   *storage.Storage
	Collector *metrics.Collector
	Scheduler scheduler.Interface
	Loop      *event.Loop

	logger zerolog.Logger
}

// New loads catalog into a fresh VM manager, constructs the chosen
// policy's scheduler, and wires both into a new event loop. Call Submit
// for each workflow, then Run.
func New(p Policy, catalog io.Reader, cfg config.Config, logger zerolog.Logger) (*Simulator, error) {
	vmManager := vm.NewManager(logger)
	if err := vmManager.LoadCatalog(catalog); err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	vmManager.SetCostFunc(cost.CalculateCost)
	vmManager.SetProvisionDelay(cfg.VMProvisionDelayS)

	if cfg.BillingPeriodS != 0 {
		if err := vmManager.SetBillingPeriod(cfg.BillingPeriodS); err != nil {
			return nil, fmt.Errorf("simulator: %w", err)
		}
	}

	store := storage.New()
	collector := metrics.NewCollector(string(p))
	vmManager.SetMetricCollector(collector)

	sched, err := newScheduler(p, vmManager, store)
	if err != nil {
		return nil, err
	}
	sched.SetMetricCollector(collector)
	sched.SetVMProvisionDelay(cfg.VMProvisionDelayS)
	sched.SetPredictFunction(cfg.PredictModel)
	sched.SetVMDeprovision(cfg.VMDeprovisionPercent)
	applyPolicyTuning(sched, cfg)

	loop := event.NewLoop(sched, collector, vmManager, logger)
	setLoop(sched, loop)

	return &Simulator{
		Policy:    p,
		VMManager: vmManager,
		Storage:   store,
		Collector: collector,
		Scheduler: sched,
		Loop:      loop,
		logger:    log.WithComponent("simulator"),
	}, nil
}

// These setters live outside scheduler.Interface. maxIterSetter is
// satisfied by DynaNS only, provisioningIntervalSetter by EPSM and EBPSM,
// schedulingIntervalSetter by EPSM only; loopSetter is satisfied by every
// concrete scheduler type, but SetLoop's two-phase construction
// (scheduler first, then the loop that references it) isn't part of the
// shared contract.
type maxIterSetter interface {
	SetMaxIter(n int)
}

type provisioningIntervalSetter interface {
	SetProvisioningInterval(seconds float64)
}

type schedulingIntervalSetter interface {
	SetSchedulingInterval(seconds float64)
}

type loopSetter interface {
	SetLoop(loop *event.Loop)
}

func applyPolicyTuning(sched scheduler.Interface, cfg config.Config) {
	if s, ok := sched.(maxIterSetter); ok && cfg.OnDemandConfMaxIter > 0 {
		s.SetMaxIter(cfg.OnDemandConfMaxIter)
	}
	if s, ok := sched.(provisioningIntervalSetter); ok && cfg.ProvisioningIntervalS > 0 {
		s.SetProvisioningInterval(cfg.ProvisioningIntervalS)
	}
	if s, ok := sched.(schedulingIntervalSetter); ok && cfg.SchedulingIntervalS > 0 {
		s.SetSchedulingInterval(cfg.SchedulingIntervalS)
	}
}

func setLoop(sched scheduler.Interface, loop *event.Loop) {
	sched.(loopSetter).SetLoop(loop)
}

// Submit enqueues wf's SUBMIT_WORKFLOW event at its own submit time.
func (s *Simulator) Submit(wf *workflow.Workflow) {
	s.Loop.Enqueue(event.NewSubmitWorkflow(wf))
}

// Run drains the event loop and evaluates every workflow's constraint
// outcome. Call after every workflow has been Submit-ed.
func (s *Simulator) Run() *metrics.Collector {
	s.logger.Info().Str("policy", string(s.Policy)).Msg("starting simulation")
	s.Loop.Run()
	s.Collector.EvaluateConstraints()
	s.logger.Info().
		Int("workflows", len(s.Collector.Workflows)).
		Int("constraints_met", s.Collector.ConstraintsMet).
		Float64("cost", s.Collector.Cost).
		Msg("simulation finished")
	return s.Collector
}
