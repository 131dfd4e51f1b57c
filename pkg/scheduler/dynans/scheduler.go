package dynans

import (
	"github.com/rs/zerolog"

	"github.com/cuemby/cloudsim/pkg/cost"
	"github.com/cuemby/cloudsim/pkg/event"
	"github.com/cuemby/cloudsim/pkg/log"
	"github.com/cuemby/cloudsim/pkg/metrics"
	"github.com/cuemby/cloudsim/pkg/scheduler"
	"github.com/cuemby/cloudsim/pkg/storage"
	"github.com/cuemby/cloudsim/pkg/vm"
)

// DefaultMaxIter bounds the A* search (on_demand_conf_max_iter, §4.7).
const DefaultMaxIter = 1000

// Scheduler implements scheduler.Interface for the DynaNS policy.
type Scheduler struct {
	logger    zerolog.Logger
	vmManager *vm.Manager
	store     *storage.Storage
	collector *metrics.Collector
	loop      *event.Loop

	model               cost.Model
	provisionDelay      float64
	deprovisionFraction float64
	maxIter             int

	workflows map[string]*Workflow
}

// New constructs a DynaNS scheduler. Call SetLoop before use.
func New(vmManager *vm.Manager, store *storage.Storage) *Scheduler {
	return &Scheduler{
		logger:              log.WithComponent("dynans"),
		vmManager:           vmManager,
		store:               store,
		model:               cost.IOConsumption,
		deprovisionFraction: 0.1,
		maxIter:             DefaultMaxIter,
		workflows:           make(map[string]*Workflow),
	}
}

func (s *Scheduler) SetLoop(loop *event.Loop) { s.loop = loop }

func (s *Scheduler) Name() string { return "DynaNS" }

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

// SetMaxIter overrides on_demand_conf_max_iter; 0 leaves DefaultMaxIter.
func (s *Scheduler) SetMaxIter(n int) {
	if n > 0 {
		s.maxIter = n
	}
}

func (s *Scheduler) timeToShutdownVM() float64 {
	period := float64(s.vmManager.GetSlowestVMType().BillingPeriodS)
	return s.deprovisionFraction * period
}

// SubmitWorkflow runs the bounded A* search for the cheapest
// configuration plan meeting the deadline and records it on the
// workflow. DynaNS has no periodic MANAGE_RESOURCES arm: idle
// deprovisioning happens inline in FinishTask.
func (s *Scheduler) SubmitWorkflow(e *event.Event) error {
	wf := e.Workflow
	now := s.loop.CurrentTime()

	wrap := newWorkflow(wf)
	s.workflows[wf.UUID] = wrap
	s.collector.RegisterWorkflow(wf.UUID, wf.Deadline, wf.Budget)

	catalog := s.vmManager.GetVMTypes(nil)
	wrap.Plan = search(wf, catalog, s.store, s.model, s.provisionDelay, now, *wf.Deadline, s.maxIter)

	s.loop.Enqueue(event.NewScheduleWorkflow(now, wf.UUID))
	return nil
}

func (s *Scheduler) ScheduleWorkflow(workflowID string) {
	wf := s.workflows[workflowID]
	now := s.loop.CurrentTime()
	for _, id := range wf.RootTasks() {
		wf.MarkTaskScheduled(id, now)
		s.loop.Enqueue(event.NewScheduleTask(now, workflowID, id))
	}
}

// ScheduleTask picks any idle VM of the task's planned type, or inits
// one, then provisions/reserves it and enqueues FINISH_TASK.
func (s *Scheduler) ScheduleTask(workflowID string, taskID int) {
	wf := s.workflows[workflowID]
	task := wf.Task(taskID)
	now := s.loop.CurrentTime()
	typ := wrapPlanType(wf, taskID)

	var inst *vm.Instance
	for _, idle := range s.vmManager.GetIdleVMs(nil, nil) {
		if idle.Type.Name == typ.Name {
			inst = idle
			break
		}
	}
	if inst == nil {
		inst = s.vmManager.InitVM(typ)
		s.collector.RecordVMInitialized(workflowID, metrics.VMRef{UUID: inst.UUID, TypeName: typ.Name})
		s.vmManager.ProvisionVM(inst, now)
	}

	execTime := cost.PredictExecutionTime(s.model, task, typ, s.store, inst, float64(task.Container.ProvisionTime), s.provisionDelay)

	for _, f := range task.InputFiles {
		inst.AddFile(f)
	}
	for _, f := range task.OutputFiles {
		inst.AddFile(f)
	}
	inst.AddContainer(task.Container)

	s.vmManager.ReserveVM(inst, vm.TaskRef{WorkflowID: workflowID, TaskID: taskID})
	wf.TaskVM[taskID] = inst
	s.collector.RecordVMUsed(workflowID, metrics.VMRef{UUID: inst.UUID, TypeName: inst.Type.Name})
	s.collector.AddWorkflowCost(workflowID, cost.PriceForVM(now, execTime, inst))

	s.loop.Enqueue(event.NewFinishTask(now+execTime, workflowID, taskID, inst))
}

func wrapPlanType(wf *Workflow, taskID int) vm.Type { return wf.Plan[taskID] }

// FinishTask releases the VM, sweeps idle VMs past the deprovisioning
// threshold, and enqueues ready children.
func (s *Scheduler) FinishTask(workflowID string, taskID int, inst *vm.Instance) {
	wf := s.workflows[workflowID]
	task := wf.Task(taskID)
	now := s.loop.CurrentTime()

	task.MarkFinished(now)
	s.vmManager.ReleaseVM(inst, now)
	delete(wf.TaskVM, taskID)

	threshold := s.timeToShutdownVM()
	for _, idle := range s.vmManager.GetIdleVMs(nil, nil) {
		if cost.TimeUntilNextBillingPeriod(now, idle) < threshold {
			s.vmManager.ShutdownVM(now, idle)
		}
	}

	for _, cid := range wf.ReadyChildren(taskID) {
		wf.MarkTaskScheduled(cid, now)
		s.loop.Enqueue(event.NewScheduleTask(now, workflowID, cid))
	}
}

// ManageResources is never self-armed by DynaNS (idle shutdown happens
// inline in FinishTask) but is still implemented to satisfy
// scheduler.Interface; a driver that enqueues one explicitly still gets
// a correct idle sweep.
func (s *Scheduler) ManageResources(next *event.Event) {
	now := s.loop.CurrentTime()
	threshold := s.timeToShutdownVM()
	for _, idle := range s.vmManager.GetIdleVMs(nil, nil) {
		if cost.TimeUntilNextBillingPeriod(now, idle) < threshold {
			s.vmManager.ShutdownVM(now, idle)
		}
	}
}

var _ scheduler.Interface = (*Scheduler)(nil)
