package event

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cuemby/cloudsim/pkg/metrics"
	"github.com/cuemby/cloudsim/pkg/vm"
)

// Scheduler is the subset of the scheduler contract (§4.4) the loop
// dispatches to. Every policy in pkg/scheduler/{epsm,ebpsm,dynans,minminbudg}
// satisfies this alongside the richer pkg/scheduler.Interface.
type Scheduler interface {
	SubmitWorkflow(e *Event) error
	ScheduleWorkflow(workflowID string)
	ScheduleTask(workflowID string, taskID int)
	FinishTask(workflowID string, taskID int, inst *vm.Instance)
	ManageResources(next *Event)
	Name() string
}

// Collector is the subset of metrics.Collector the loop mutates directly.
type Collector interface {
	SetLoopStartOnce(t float64)
	SetWorkflowStart(workflowID string, t float64)
	SetWorkflowFinish(workflowID string, t float64)
	AddWorkflowsTotalTasks(n int)
	IncScheduledTasks()
	IncFinishedTasks()
	SetLoopFinish(t float64)
}

// VMShutdowner is the subset of vm.Manager the loop calls at termination.
type VMShutdowner interface {
	ShutdownVMs(now float64)
}

// Loop is the event-driven simulation kernel (C5): pop earliest event,
// advance virtual time, dispatch, repeat until empty.
type Loop struct {
	queue     *Queue
	scheduler Scheduler
	collector Collector
	vmManager VMShutdowner
	logger    zerolog.Logger

	currentTime float64
	started     bool
}

// NewLoop wires a fresh event loop around a scheduler, collector and VM
// manager. The queue starts empty; call Enqueue for each workflow's
// SUBMIT_WORKFLOW event before Run.
func NewLoop(scheduler Scheduler, collector Collector, vmManager VMShutdowner, logger zerolog.Logger) *Loop {
	return &Loop{
		queue:     NewQueue(),
		scheduler: scheduler,
		collector: collector,
		vmManager: vmManager,
		logger:    logger,
	}
}

// Enqueue adds e to the queue. Per §4.1, handlers may only enqueue
// events at start_time >= current_time; this is enforced once the loop
// has begun dispatching.
func (l *Loop) Enqueue(e *Event) {
	if l.started && e.StartTime < l.currentTime {
		panic(fmt.Sprintf("event: enqueued %s at %f before current_time %f", e.Kind, e.StartTime, l.currentTime))
	}
	l.queue.Enqueue(e)
}

// PeekNext returns the next event without popping it — used by
// MANAGE_RESOURCES handlers to decide whether to re-arm themselves.
func (l *Loop) PeekNext() *Event {
	return l.queue.Peek()
}

// CurrentTime returns the virtual time of the event most recently dispatched.
func (l *Loop) CurrentTime() float64 { return l.currentTime }

// Run drains the queue, dispatching events in non-decreasing virtual
// time order, until it empties; it then shuts down remaining idle VMs
// and finalizes the collector.
func (l *Loop) Run() {
	for {
		e := l.queue.Dequeue()
		if e == nil {
			break
		}
		if e.StartTime < l.currentTime {
			panic(fmt.Sprintf("event: virtual time went backwards: %f < %f", e.StartTime, l.currentTime))
		}
		l.currentTime = e.StartTime
		if !l.started {
			l.collector.SetLoopStartOnce(l.currentTime)
			l.started = true
		}

		switch e.Kind {
		case SubmitWorkflow:
			if err := l.scheduler.SubmitWorkflow(e); err != nil {
				l.logger.Warn().Err(err).Str("workflow_id", e.WorkflowID).Msg("workflow submission failed")
			}
			l.collector.SetWorkflowStart(e.WorkflowID, l.currentTime)
			l.collector.AddWorkflowsTotalTasks(len(e.Workflow.Tasks))
		case ScheduleWorkflow:
			l.scheduler.ScheduleWorkflow(e.WorkflowID)
		case ScheduleTask:
			l.collector.IncScheduledTasks()
			timer := metrics.NewTimer()
			l.scheduler.ScheduleTask(e.WorkflowID, e.TaskID)
			timer.ObserveDurationVec(metrics.SchedulingLatency, l.scheduler.Name())
		case FinishTask:
			l.collector.IncFinishedTasks()
			l.scheduler.FinishTask(e.WorkflowID, e.TaskID, e.VM)
			l.collector.SetWorkflowFinish(e.WorkflowID, l.currentTime)
		case ManageResources:
			l.scheduler.ManageResources(l.PeekNext())
		}
	}

	l.vmManager.ShutdownVMs(l.currentTime)
	l.collector.SetLoopFinish(l.currentTime)
}
