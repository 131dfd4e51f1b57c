package minminbudg

import (
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

// Scheduler implements scheduler.Interface for the Min-MinBUDG policy.
type Scheduler struct {
	logger    zerolog.Logger
	vmManager *vm.Manager
	store     *storage.Storage
	collector *metrics.Collector
	loop      *event.Loop

	model               cost.Model
	provisionDelay      float64
	deprovisionFraction float64

	workflows map[string]*Workflow
}

// New constructs a Min-MinBUDG scheduler. Call SetLoop before use.
func New(vmManager *vm.Manager, store *storage.Storage) *Scheduler {
	return &Scheduler{
		logger:              log.WithComponent("minminbudg"),
		vmManager:           vmManager,
		store:               store,
		model:               cost.IOConsumption,
		deprovisionFraction: 0.1,
		workflows:           make(map[string]*Workflow),
	}
}

func (s *Scheduler) SetLoop(loop *event.Loop) { s.loop = loop }

func (s *Scheduler) Name() string { return "Min-MinBUDG" }

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

func (s *Scheduler) timeToShutdownVM() float64 {
	period := float64(s.vmManager.GetSlowestVMType().BillingPeriodS)
	return s.deprovisionFraction * period
}

// SubmitWorkflow estimates a makespan as the sum (not critical path) of
// execution times on the synthetic average VM type, then distributes
// budget proportionally to each task's share of it (§4.8).
func (s *Scheduler) SubmitWorkflow(e *event.Event) error {
	wf := e.Workflow
	now := s.loop.CurrentTime()

	wrap := newWorkflow(wf)
	s.workflows[wf.UUID] = wrap
	s.collector.RegisterWorkflow(wf.UUID, wf.Deadline, wf.Budget)

	avg := s.vmManager.GetAverageVMType()
	var makespan float64
	execTimes := make([]float64, len(wf.Tasks))
	for _, t := range wf.Tasks {
		execTimes[t.ID] = cost.PredictExecutionTime(s.model, t, avg, s.store, nil, float64(t.Container.ProvisionTime), s.provisionDelay)
		makespan += execTimes[t.ID]
	}
	for _, t := range wf.Tasks {
		if makespan > 0 {
			wrap.TaskBudget[t.ID] = execTimes[t.ID] / makespan * *wf.Budget
		}
	}

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

// candidate is one host Min-Min considers for a task: either a fresh
// catalog type (instance nil) or a specific idle VM.
type candidate struct {
	execTime float64
	price    float64
	instance *vm.Instance
	typ      vm.Type
}

// pickBest seeds the search with the slowest catalog type (so a
// candidate always exists even if nothing fits the budget), then keeps
// whichever affordable option has the smallest execution time.
func (s *Scheduler) pickBest(task *workflow.Task, now, available float64) candidate {
	slowest := s.vmManager.GetSlowestVMType()
	seedExec := cost.PredictExecutionTime(s.model, task, slowest, s.store, nil, float64(task.Container.ProvisionTime), s.provisionDelay)
	best := candidate{
		execTime: seedExec,
		price:    cost.EstimatePriceForVMType(seedExec, slowest),
		typ:      slowest,
	}

	for _, typ := range s.vmManager.GetVMTypes(nil) {
		execTime := cost.PredictExecutionTime(s.model, task, typ, s.store, nil, float64(task.Container.ProvisionTime), s.provisionDelay)
		price := cost.EstimatePriceForVMType(execTime, typ)
		if price <= available && execTime < best.execTime {
			best = candidate{execTime: execTime, price: price, typ: typ}
		}
	}
	for _, inst := range s.vmManager.GetIdleVMs(nil, nil) {
		execTime := cost.PredictExecutionTime(s.model, task, inst.Type, s.store, inst, float64(task.Container.ProvisionTime), s.provisionDelay)
		price := cost.PriceForVM(now, execTime, inst)
		if price <= available && execTime < best.execTime {
			best = candidate{execTime: execTime, price: price, instance: inst, typ: inst.Type}
		}
	}
	return best
}

// ScheduleTask greedily picks the fastest host affordable out of the
// task's budget share plus the carried-forward pot, reserves it, and
// enqueues FINISH_TASK using the already-estimated execution time —
// never recomputed against the concrete instance, since provisioning
// time was already baked into that estimate for a fresh type (§9 Open
// Question #4).
func (s *Scheduler) ScheduleTask(workflowID string, taskID int) {
	wf := s.workflows[workflowID]
	task := wf.Task(taskID)
	now := s.loop.CurrentTime()

	available := wf.TaskBudget[taskID] + wf.Pot
	best := s.pickBest(task, now, available)
	if best.price > available {
		s.logger.Warn().Str("workflow_id", workflowID).Int("task_id", taskID).
			Float64("price", best.price).Float64("available", available).
			Msg("task may overflow its budget")
	}

	inst := best.instance
	if inst == nil {
		inst = s.vmManager.InitVM(best.typ)
		s.collector.RecordVMInitialized(workflowID, metrics.VMRef{UUID: inst.UUID, TypeName: best.typ.Name})
		s.vmManager.ProvisionVM(inst, now)
	}

	for _, f := range task.InputFiles {
		inst.AddFile(f)
	}
	for _, f := range task.OutputFiles {
		inst.AddFile(f)
	}
	inst.AddContainer(task.Container)

	s.vmManager.ReserveVM(inst, vm.TaskRef{WorkflowID: workflowID, TaskID: taskID})
	wf.TaskVM[taskID] = inst
	wf.Pot = available - best.price
	s.collector.RecordVMUsed(workflowID, metrics.VMRef{UUID: inst.UUID, TypeName: inst.Type.Name})
	s.collector.AddWorkflowCost(workflowID, best.price)

	s.loop.Enqueue(event.NewFinishTask(now+best.execTime, workflowID, taskID, inst))
}

// FinishTask releases the VM, deprovisions idle VMs past threshold, and
// enqueues ready children.
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

// ManageResources is never self-armed by Min-MinBUDG (idle shutdown
// happens inline in FinishTask) but is implemented to satisfy
// scheduler.Interface.
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
