package epsm

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cuemby/cloudsim/pkg/cost"
	"github.com/cuemby/cloudsim/pkg/event"
	"github.com/cuemby/cloudsim/pkg/log"
	"github.com/cuemby/cloudsim/pkg/metrics"
	"github.com/cuemby/cloudsim/pkg/scheduler"
	"github.com/cuemby/cloudsim/pkg/storage"
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

const (
	defaultProvisioningIntervalS = 600
	defaultSchedulingIntervalS   = 30
	defaultDeprovisionFraction   = 0.1
)

// Scheduler implements scheduler.Interface for the EPSM policy.
type Scheduler struct {
	logger    zerolog.Logger
	vmManager *vm.Manager
	store     *storage.Storage
	collector *metrics.Collector
	loop      *event.Loop

	model          cost.Model
	provisionDelay float64

	provisioningIntervalS float64
	schedulingIntervalS   float64
	deprovisionFraction   float64

	workflows map[string]*Workflow
	active    int // workflows with at least one unfinished task
}

// New constructs an EPSM scheduler. Call SetLoop once the event.Loop
// that will dispatch to it exists (construction is necessarily
// two-phase: the loop needs the scheduler and the scheduler needs the
// loop to self-enqueue MANAGE_RESOURCES).
func New(vmManager *vm.Manager, store *storage.Storage) *Scheduler {
	return &Scheduler{
		logger:                log.WithComponent("epsm"),
		vmManager:             vmManager,
		store:                 store,
		model:                 cost.IOConsumption,
		provisioningIntervalS: defaultProvisioningIntervalS,
		schedulingIntervalS:   defaultSchedulingIntervalS,
		deprovisionFraction:   defaultDeprovisionFraction,
		workflows:             make(map[string]*Workflow),
	}
}

// SetLoop wires the event loop this scheduler enqueues onto.
func (s *Scheduler) SetLoop(loop *event.Loop) { s.loop = loop }

func (s *Scheduler) Name() string { return "EPSM" }

func (s *Scheduler) SetMetricCollector(c *metrics.Collector) { s.collector = c }

func (s *Scheduler) SetVMProvisionDelay(seconds float64) {
	s.provisionDelay = seconds
	s.vmManager.SetProvisionDelay(seconds)
}

func (s *Scheduler) SetBillingPeriod(seconds int64) error {
	return s.vmManager.SetBillingPeriod(seconds)
}

func (s *Scheduler) SetPredictFunction(model cost.Model) { s.model = model }

// SetVMDeprovision sets the fraction of a billing period that defines
// time_to_shutdown_vm: an idle VM with less than this much time left in
// its paid-for period is shut down by manage_resources.
func (s *Scheduler) SetVMDeprovision(percent float64) { s.deprovisionFraction = percent }

// SetProvisioningInterval overrides manage_resources's re-arm cadence.
func (s *Scheduler) SetProvisioningInterval(seconds float64) { s.provisioningIntervalS = seconds }

// SetSchedulingInterval overrides schedule_task's retry-on-busy cadence.
func (s *Scheduler) SetSchedulingInterval(seconds float64) { s.schedulingIntervalS = seconds }

func (s *Scheduler) timeToShutdownVM() float64 {
	period := float64(s.vmManager.GetSlowestVMType().BillingPeriodS)
	return s.deprovisionFraction * period
}

// SubmitWorkflow preprocesses wf (EFT/makespan across the catalog,
// slow-to-fast; spare-time distribution into per-task deadlines) and
// enqueues its SCHEDULE_WORKFLOW plus an initial MANAGE_RESOURCES.
func (s *Scheduler) SubmitWorkflow(e *event.Event) error {
	wf := e.Workflow
	now := s.loop.CurrentTime()

	wrap := newWorkflow(wf)
	s.workflows[wf.UUID] = wrap
	s.active++
	s.collector.RegisterWorkflow(wf.UUID, wf.Deadline, wf.Budget)

	var chosenType vm.Type
	var eft []float64
	var execTime []float64
	var makespan float64
	found := false

	for _, typ := range s.vmManager.GetVMTypes(nil) {
		e2, x2, ms := scheduler.ComputeEFTs(wf, typ, s.store, s.model)
		if now+ms <= *wf.Deadline {
			chosenType, eft, execTime, makespan, found = typ, e2, x2, ms, true
			break
		}
	}

	var retErr error
	if !found {
		chosenType = s.vmManager.GetFastestVMType()
		eft, execTime, makespan = scheduler.ComputeEFTs(wf, chosenType, s.store, s.model)
		wrap.Failed = true
		retErr = fmt.Errorf("%w: workflow %s makespan %f exceeds deadline", scheduler.ErrInfeasibleDeadline, wf.Name, makespan)
	}

	wrap.VMTypeUsed = chosenType
	wrap.EFT = eft

	spareTime := (*wf.Deadline - now) - makespan
	for _, t := range wf.Tasks {
		var spare float64
		if makespan > 0 {
			spare = execTime[t.ID] / makespan * spareTime
		}
		wrap.Deadlines[t.ID] = wf.SubmitTime + eft[t.ID] + spare
	}

	s.loop.Enqueue(event.NewScheduleWorkflow(now, wf.UUID))
	s.loop.Enqueue(event.NewManageResources(now + s.provisioningIntervalS))

	return retErr
}

// ScheduleWorkflow enqueues SCHEDULE_TASK for every root task, marking
// each SCHEDULED.
func (s *Scheduler) ScheduleWorkflow(workflowID string) {
	wf := s.workflows[workflowID]
	now := s.loop.CurrentTime()
	for _, id := range wf.RootTasks() {
		wf.MarkTaskScheduled(id, now)
		s.loop.Enqueue(event.NewScheduleTask(now, workflowID, id))
	}
}

// ScheduleTask runs EPSM's three-tier candidate search (§4.5).
func (s *Scheduler) ScheduleTask(workflowID string, taskID int) {
	wf := s.workflows[workflowID]
	task := wf.Task(taskID)
	now := s.loop.CurrentTime()
	deadline := wf.Deadlines[taskID]

	if inst := s.bestCandidate(s.vmManager.GetIdleVMs(task, nil), task, now, deadline); inst != nil {
		s.scheduleOnInstance(wf, task, inst, now)
		return
	}
	container := task.Container
	if inst := s.bestCandidate(s.vmManager.GetIdleVMs(nil, &container), task, now, deadline); inst != nil {
		s.scheduleOnInstance(wf, task, inst, now)
		return
	}
	if inst := s.bestCandidate(s.vmManager.GetIdleVMs(nil, nil), task, now, deadline); inst != nil {
		s.scheduleOnInstance(wf, task, inst, now)
		return
	}

	refExec := cost.PredictExecutionTime(s.model, task, wrapOrFastest(wf, s.vmManager), s.store, nil, float64(task.Container.ProvisionTime), s.provisionDelay)
	timeLeft := deadline - now

	if timeLeft-refExec-s.schedulingIntervalS <= 0 || len(task.Parents) == 0 {
		typ, ok := s.cheapestTypeMeetingDeadline(task, now, deadline)
		if !ok {
			typ = s.vmManager.GetFastestVMType()
		}
		inst := s.vmManager.InitVM(typ)
		s.collector.RecordVMInitialized(workflowID, metrics.VMRef{UUID: inst.UUID, TypeName: typ.Name})
		s.vmManager.ProvisionVM(inst, now)
		s.scheduleOnInstance(wf, task, inst, now)
		return
	}

	s.loop.Enqueue(event.NewScheduleTask(now+s.schedulingIntervalS, workflowID, taskID))
}

func wrapOrFastest(wf *Workflow, m *vm.Manager) vm.Type {
	if wf.VMTypeUsed.Name != "" {
		return wf.VMTypeUsed
	}
	return m.GetFastestVMType()
}

// bestCandidate picks the cheapest candidate whose predicted completion
// meets deadline, or nil if none qualifies.
func (s *Scheduler) bestCandidate(candidates []*vm.Instance, task *workflow.Task, now, deadline float64) *vm.Instance {
	var best *vm.Instance
	var bestPrice float64
	for _, inst := range candidates {
		execTime := cost.PredictExecutionTime(s.model, task, inst.Type, s.store, inst, float64(task.Container.ProvisionTime), s.provisionDelay)
		if now+execTime > deadline {
			continue
		}
		price := cost.PriceForVM(now, execTime, inst)
		if best == nil || price < bestPrice {
			best, bestPrice = inst, price
		}
	}
	return best
}

// cheapestTypeMeetingDeadline scans the catalog ascending by price (the
// manager's natural order) and returns the first type whose fresh
// provisioning-and-run still meets deadline.
func (s *Scheduler) cheapestTypeMeetingDeadline(task *workflow.Task, now, deadline float64) (vm.Type, bool) {
	for _, typ := range s.vmManager.GetVMTypes(nil) {
		execTime := cost.PredictExecutionTime(s.model, task, typ, s.store, nil, float64(task.Container.ProvisionTime), s.provisionDelay)
		if now+execTime <= deadline {
			return typ, true
		}
	}
	return vm.Type{}, false
}

func (s *Scheduler) scheduleOnInstance(wf *Workflow, task *workflow.Task, inst *vm.Instance, now float64) {
	execTime := cost.PredictExecutionTime(s.model, task, inst.Type, s.store, inst, float64(task.Container.ProvisionTime), s.provisionDelay)

	for _, f := range task.InputFiles {
		inst.AddFile(f)
	}
	for _, f := range task.OutputFiles {
		inst.AddFile(f)
	}
	inst.AddContainer(task.Container)

	s.vmManager.ReserveVM(inst, vm.TaskRef{WorkflowID: wf.UUID, TaskID: task.ID})
	wf.TaskVM[task.ID] = inst
	s.collector.RecordVMUsed(wf.UUID, metrics.VMRef{UUID: inst.UUID, TypeName: inst.Type.Name})
	s.collector.AddWorkflowCost(wf.UUID, cost.PriceForVM(now, execTime, inst))

	s.loop.Enqueue(event.NewFinishTask(now+execTime, wf.UUID, task.ID, inst))
}

// FinishTask releases the VM, recomputes makespan/spare-time over the
// remaining unscheduled tasks, and enqueues ready children.
func (s *Scheduler) FinishTask(workflowID string, taskID int, inst *vm.Instance) {
	wf := s.workflows[workflowID]
	task := wf.Task(taskID)
	now := s.loop.CurrentTime()

	task.MarkFinished(now)
	s.vmManager.ReleaseVM(inst, now)
	delete(wf.TaskVM, taskID)
	wf.remaining--

	if wf.remaining > 0 {
		s.recomputeDeadlines(wf, now)
	} else {
		s.active--
	}

	for _, cid := range wf.ReadyChildren(taskID) {
		wf.MarkTaskScheduled(cid, now)
		s.loop.Enqueue(event.NewScheduleTask(now, workflowID, cid))
	}
}

// recomputeDeadlines recomputes EFTs for every not-yet-finished task
// using already-known finish times for finished parents, then
// redistributes spare time over those tasks (§4.5 "Finish").
func (s *Scheduler) recomputeDeadlines(wf *Workflow, now float64) {
	eft := make([]float64, len(wf.Tasks))
	execTime := make([]float64, len(wf.Tasks))
	var makespan float64

	for _, t := range wf.Tasks {
		if t.State == workflow.TaskFinished {
			eft[t.ID] = t.FinishTime
			continue
		}
		execTime[t.ID] = cost.PredictExecutionTime(s.model, t, wf.VMTypeUsed, s.store, nil, float64(t.Container.ProvisionTime), s.provisionDelay)
		parentMax := now
		for _, pid := range t.Parents {
			if eft[pid] > parentMax {
				parentMax = eft[pid]
			}
		}
		eft[t.ID] = parentMax + execTime[t.ID]
		if eft[t.ID] > makespan {
			makespan = eft[t.ID]
		}
	}

	denom := makespan - now
	spareTotal := *wf.Workflow.Deadline - makespan
	for _, t := range wf.Tasks {
		if t.State == workflow.TaskFinished {
			continue
		}
		if denom > 0 {
			wf.Deadlines[t.ID] = eft[t.ID] + execTime[t.ID]/denom*spareTotal
		} else {
			wf.Deadlines[t.ID] = eft[t.ID]
		}
	}
	wf.EFT = eft
}

// ManageResources shuts down idle VMs past the deprovisioning threshold
// and re-arms itself unless another MANAGE_RESOURCES is already queued.
func (s *Scheduler) ManageResources(next *event.Event) {
	now := s.loop.CurrentTime()
	threshold := s.timeToShutdownVM()

	for _, inst := range s.vmManager.GetIdleVMs(nil, nil) {
		if cost.TimeUntilNextBillingPeriod(now, inst) < threshold {
			s.vmManager.ShutdownVM(now, inst)
		}
	}

	if s.active > 0 && (next == nil || next.Kind != event.ManageResources) {
		s.loop.Enqueue(event.NewManageResources(now + s.provisioningIntervalS))
	}
}

var _ scheduler.Interface = (*Scheduler)(nil)
