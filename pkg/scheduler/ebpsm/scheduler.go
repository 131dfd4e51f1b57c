package ebpsm

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
	defaultProvisioningIntervalS = 1
)

// Scheduler implements scheduler.Interface for the EBPSM policy.
type Scheduler struct {
	logger    zerolog.Logger
	vmManager *vm.Manager
	store     *storage.Storage
	collector *metrics.Collector
	loop      *event.Loop

	model               cost.Model
	provisionDelay      float64
	deprovisionFraction float64

	provisioningIntervalS float64

	workflows map[string]*Workflow
	active    int
}

// New constructs an EBPSM scheduler. Call SetLoop before use.
func New(vmManager *vm.Manager, store *storage.Storage) *Scheduler {
	return &Scheduler{
		logger:                log.WithComponent("ebpsm"),
		vmManager:             vmManager,
		store:                 store,
		model:                 cost.IOConsumption,
		deprovisionFraction:   0.1,
		provisioningIntervalS: defaultProvisioningIntervalS,
		workflows:             make(map[string]*Workflow),
	}
}

func (s *Scheduler) SetLoop(loop *event.Loop) { s.loop = loop }

func (s *Scheduler) Name() string { return "EBPSM" }

func (s *Scheduler) SetMetricCollector(c *metrics.Collector) { s.collector = c }

func (s *Scheduler) SetVMProvisionDelay(seconds float64) {
	s.provisionDelay = seconds
	s.vmManager.SetProvisionDelay(seconds)
}

func (s *Scheduler) SetBillingPeriod(seconds int64) error {
	return s.vmManager.SetBillingPeriod(seconds)
}

func (s *Scheduler) SetPredictFunction(model cost.Model) { s.model = model }

func (s *Scheduler) SetVMDeprovision(percent float64) { s.deprovisionFraction = percent }

// SetProvisioningInterval overrides manage_resources's re-arm cadence.
func (s *Scheduler) SetProvisioningInterval(seconds float64) { s.provisioningIntervalS = seconds }

// idleThreshold is the idle-time cutoff past which manage_resources shuts
// a VM down: (1 - deprov_percent) * billing_period (§4.6).
func (s *Scheduler) idleThreshold() float64 {
	period := float64(s.vmManager.GetSlowestVMType().BillingPeriodS)
	return (1 - s.deprovisionFraction) * period
}

// SubmitWorkflow preprocesses wf: BFS levels, EFT on the slowest VM type,
// EEOQ construction, and an initial FFTD pass distributing the whole
// workflow budget.
func (s *Scheduler) SubmitWorkflow(e *event.Event) error {
	wf := e.Workflow
	now := s.loop.CurrentTime()

	wrap := newWorkflow(wf)
	s.workflows[wf.UUID] = wrap
	s.active++
	s.collector.RegisterWorkflow(wf.UUID, wf.Deadline, wf.Budget)

	slowest := s.vmManager.GetSlowestVMType()
	levels := scheduler.BFSLevels(wf)
	eft, execTime, _ := scheduler.ComputeEFTs(wf, slowest, s.store, s.model)
	wrap.Levels = levels
	wrap.EEOQ = scheduler.BuildEEOQ(wf, levels, eft)
	wrap.ExecTime = execTime

	var retErr error
	if !s.runFFTD(wrap, wrap.EEOQ, *wf.Budget) {
		retErr = fmt.Errorf("%w: workflow %s budget %f insufficient for slowest VM", scheduler.ErrInfeasibleBudget, wf.Name, *wf.Budget)
	}

	s.loop.Enqueue(event.NewScheduleWorkflow(now, wf.UUID))
	s.loop.Enqueue(event.NewManageResources(now + s.provisioningIntervalS))

	return retErr
}

// runFFTD distributes total across ids in order: each task gets the
// price of the fastest VM type it can afford out of what remains; if
// even the slowest type is unaffordable, the task absorbs the residual
// and distribution stops there (§4.6 step 4). Returns false if it had
// to stop early (a feasibility failure).
func (s *Scheduler) runFFTD(wf *Workflow, ids []int, total float64) bool {
	remaining := total
	ok := true
	for i, id := range ids {
		task := wf.Task(id)
		price, found := s.fastestAffordable(task, remaining)
		if !found {
			wf.TaskBudget[id] = remaining
			for _, rest := range ids[i+1:] {
				wf.TaskBudget[rest] = 0
			}
			ok = false
			remaining = 0
			break
		}
		wf.TaskBudget[id] = price
		remaining -= price
	}
	wf.SpareBudget = remaining
	return ok
}

// fastestAffordable scans the catalog fastest-first for the first type
// whose single-run price fits within budget.
func (s *Scheduler) fastestAffordable(task *workflow.Task, budget float64) (float64, bool) {
	catalog := s.vmManager.GetVMTypes(nil)
	for i := len(catalog) - 1; i >= 0; i-- {
		typ := catalog[i]
		execTime := cost.PredictExecutionTime(s.model, task, typ, s.store, nil, float64(task.Container.ProvisionTime), s.provisionDelay)
		price := cost.EstimatePriceForVMType(execTime, typ)
		if price <= budget {
			return price, true
		}
	}
	return 0, false
}

func (s *Scheduler) ScheduleWorkflow(workflowID string) {
	wf := s.workflows[workflowID]
	now := s.loop.CurrentTime()
	for _, id := range wf.RootTasks() {
		wf.MarkTaskScheduled(id, now)
		s.loop.Enqueue(event.NewScheduleTask(now, workflowID, id))
	}
}

// ScheduleTask picks the idle VM with the smallest predicted completion
// whose realized cost still fits the task's budget; failing that,
// provisions the fastest affordable type, or the slowest as last resort.
func (s *Scheduler) ScheduleTask(workflowID string, taskID int) {
	wf := s.workflows[workflowID]
	task := wf.Task(taskID)
	now := s.loop.CurrentTime()
	budget := wf.TaskBudget[taskID]

	var best *vm.Instance
	var bestExec float64
	for _, inst := range s.vmManager.GetIdleVMs(nil, nil) {
		execTime := cost.PredictExecutionTime(s.model, task, inst.Type, s.store, inst, float64(task.Container.ProvisionTime), s.provisionDelay)
		price := cost.PriceForVM(now, execTime, inst)
		if price > budget {
			continue
		}
		if best == nil || execTime < bestExec {
			best, bestExec = inst, execTime
		}
	}

	if best != nil {
		s.scheduleOnInstance(wf, task, best, bestExec, now, cost.PriceForVM(now, bestExec, best))
		return
	}

	typ, found := s.fastestTypeMeetingBudget(task, budget)
	if !found {
		typ = s.vmManager.GetSlowestVMType()
	}
	inst := s.vmManager.InitVM(typ)
	s.collector.RecordVMInitialized(workflowID, metrics.VMRef{UUID: inst.UUID, TypeName: typ.Name})
	s.vmManager.ProvisionVM(inst, now)
	execTime := cost.PredictExecutionTime(s.model, task, typ, s.store, inst, float64(task.Container.ProvisionTime), s.provisionDelay)
	s.scheduleOnInstance(wf, task, inst, execTime, now, cost.PriceForVM(now, execTime, inst))
}

func (s *Scheduler) fastestTypeMeetingBudget(task *workflow.Task, budget float64) (vm.Type, bool) {
	catalog := s.vmManager.GetVMTypes(nil)
	for i := len(catalog) - 1; i >= 0; i-- {
		typ := catalog[i]
		execTime := cost.PredictExecutionTime(s.model, task, typ, s.store, nil, float64(task.Container.ProvisionTime), s.provisionDelay)
		if cost.EstimatePriceForVMType(execTime, typ) <= budget {
			return typ, true
		}
	}
	return vm.Type{}, false
}

func (s *Scheduler) scheduleOnInstance(wf *Workflow, task *workflow.Task, inst *vm.Instance, execTime, now, price float64) {
	for _, f := range task.InputFiles {
		inst.AddFile(f)
	}
	for _, f := range task.OutputFiles {
		inst.AddFile(f)
	}
	inst.AddContainer(task.Container)

	s.vmManager.ReserveVM(inst, vm.TaskRef{WorkflowID: wf.UUID, TaskID: task.ID})
	wf.TaskVM[task.ID] = inst
	wf.TaskSpent[task.ID] = price
	s.collector.RecordVMUsed(wf.UUID, metrics.VMRef{UUID: inst.UUID, TypeName: inst.Type.Name})

	s.loop.Enqueue(event.NewFinishTask(now+execTime, wf.UUID, task.ID, inst))
}

// FinishTask releases the VM, rebalances the budget pool, reruns FFTD
// over the remaining unscheduled tasks, and enqueues ready children.
func (s *Scheduler) FinishTask(workflowID string, taskID int, inst *vm.Instance) {
	wf := s.workflows[workflowID]
	task := wf.Task(taskID)
	now := s.loop.CurrentTime()

	task.MarkFinished(now)
	s.vmManager.ReleaseVM(inst, now)
	delete(wf.TaskVM, taskID)
	s.collector.AddWorkflowCost(workflowID, wf.TaskSpent[taskID])
	wf.remaining--

	if wf.remaining > 0 {
		s.rebalance(wf, taskID)
	} else {
		s.active--
	}

	for _, cid := range wf.ReadyChildren(taskID) {
		wf.MarkTaskScheduled(cid, now)
		s.loop.Enqueue(event.NewScheduleTask(now, workflowID, cid))
	}
}

func (s *Scheduler) rebalance(wf *Workflow, taskID int) {
	realized := wf.TaskSpent[taskID]
	pool := wf.TaskBudget[taskID] + wf.SpareBudget
	if realized < pool {
		wf.SpareBudget = pool - realized
	} else {
		wf.SpareBudget = 0
	}

	var unscheduled []int
	for _, id := range wf.EEOQ {
		if wf.Task(id).State == workflow.TaskCreated {
			unscheduled = append(unscheduled, id)
		}
	}
	var total float64
	for _, id := range unscheduled {
		total += wf.TaskBudget[id]
	}
	if realized >= pool {
		total -= realized - pool
		if total < 0 {
			total = 0
		}
	}
	s.runFFTD(wf, unscheduled, total)
}

// ManageResources shuts down idle VMs past idle_vm_threshold and re-arms
// at provisioning_interval while any workflow is still active, unless the
// next queued event is already a MANAGE_RESOURCES.
func (s *Scheduler) ManageResources(next *event.Event) {
	now := s.loop.CurrentTime()
	threshold := s.idleThreshold()

	for _, inst := range s.vmManager.GetIdleVMs(nil, nil) {
		if now-inst.IdleSince() > threshold {
			s.vmManager.ShutdownVM(now, inst)
		}
	}

	if s.active > 0 && (next == nil || next.Kind != event.ManageResources) {
		s.loop.Enqueue(event.NewManageResources(now + s.provisioningIntervalS))
	}
}

var _ scheduler.Interface = (*Scheduler)(nil)
