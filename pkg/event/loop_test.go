package event

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// fakeScheduler records every call the loop makes so tests can assert on
// dispatch order and arguments without any real scheduling logic.
type fakeScheduler struct {
	calls          []string
	submitErr      error
	onManageResources func(next *Event)
	onScheduleTask func(l *fakeScheduler, workflowID string, taskID int)
}

func (f *fakeScheduler) SubmitWorkflow(e *Event) error {
	f.calls = append(f.calls, "SubmitWorkflow:"+e.WorkflowID)
	return f.submitErr
}

func (f *fakeScheduler) ScheduleWorkflow(workflowID string) {
	f.calls = append(f.calls, "ScheduleWorkflow:"+workflowID)
}

func (f *fakeScheduler) ScheduleTask(workflowID string, taskID int) {
	f.calls = append(f.calls, "ScheduleTask")
	if f.onScheduleTask != nil {
		f.onScheduleTask(f, workflowID, taskID)
	}
}

func (f *fakeScheduler) FinishTask(workflowID string, taskID int, inst *vm.Instance) {
	f.calls = append(f.calls, "FinishTask")
}

func (f *fakeScheduler) ManageResources(next *Event) {
	f.calls = append(f.calls, "ManageResources")
	if f.onManageResources != nil {
		f.onManageResources(next)
	}
}

func (f *fakeScheduler) Name() string { return "fake" }

// fakeCollector records the calls the loop makes directly, mirroring the
// subset of metrics.Collector the Collector interface exposes.
type fakeCollector struct {
	loopStart      float64
	loopStartSet   bool
	workflowStarts map[string]float64
	workflowFinish map[string]float64
	totalTasks     int
	scheduled      int
	finished       int
	loopFinish     float64
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{
		workflowStarts: map[string]float64{},
		workflowFinish: map[string]float64{},
	}
}

func (f *fakeCollector) SetLoopStartOnce(t float64) {
	if !f.loopStartSet {
		f.loopStart = t
		f.loopStartSet = true
	}
}

func (f *fakeCollector) SetWorkflowStart(workflowID string, t float64) {
	f.workflowStarts[workflowID] = t
}

func (f *fakeCollector) SetWorkflowFinish(workflowID string, t float64) {
	f.workflowFinish[workflowID] = t
}

func (f *fakeCollector) AddWorkflowsTotalTasks(n int) { f.totalTasks += n }
func (f *fakeCollector) IncScheduledTasks()           { f.scheduled++ }
func (f *fakeCollector) IncFinishedTasks()            { f.finished++ }
func (f *fakeCollector) SetLoopFinish(t float64)      { f.loopFinish = t }

type fakeVMShutdowner struct {
	shutdownAt float64
	called     bool
}

func (f *fakeVMShutdowner) ShutdownVMs(now float64) {
	f.shutdownAt = now
	f.called = true
}

func newTestWorkflow(t *testing.T, submitTime float64) *workflow.Workflow {
	t.Helper()
	tasks := []*workflow.Task{{ID: 0, RuntimeS: 10}}
	deadline := 100.0
	wf, err := workflow.New("wf", "", tasks, workflow.Container{}, submitTime, &deadline, nil)
	require.NoError(t, err)
	return wf
}

func TestLoop_DispatchesInTimeOrder(t *testing.T) {
	sched := &fakeScheduler{}
	coll := newFakeCollector()
	vms := &fakeVMShutdowner{}
	loop := NewLoop(sched, coll, vms, zerolog.Nop())

	wf := newTestWorkflow(t, 5)
	loop.Enqueue(NewSubmitWorkflow(wf))
	loop.Enqueue(NewScheduleWorkflow(10, wf.UUID))
	loop.Enqueue(NewScheduleTask(15, wf.UUID, 0))
	loop.Enqueue(NewFinishTask(20, wf.UUID, 0, nil))

	loop.Run()

	assert.Equal(t, []string{
		"SubmitWorkflow:" + wf.UUID,
		"ScheduleWorkflow:" + wf.UUID,
		"ScheduleTask",
		"FinishTask",
	}, sched.calls)
	assert.Equal(t, 5.0, coll.loopStart)
	assert.Equal(t, 5.0, coll.workflowStarts[wf.UUID])
	assert.Equal(t, 20.0, coll.workflowFinish[wf.UUID])
	assert.Equal(t, 1, coll.totalTasks)
	assert.Equal(t, 1, coll.scheduled)
	assert.Equal(t, 1, coll.finished)
	assert.True(t, vms.called)
	assert.Equal(t, 20.0, vms.shutdownAt)
	assert.Equal(t, 20.0, coll.loopFinish)
}

func TestLoop_SubmitErrorIsLoggedNotFatal(t *testing.T) {
	sched := &fakeScheduler{submitErr: errors.New("infeasible")}
	coll := newFakeCollector()
	vms := &fakeVMShutdowner{}
	loop := NewLoop(sched, coll, vms, zerolog.Nop())

	wf := newTestWorkflow(t, 0)
	loop.Enqueue(NewSubmitWorkflow(wf))

	require.NotPanics(t, func() { loop.Run() })
	assert.Equal(t, []string{"SubmitWorkflow:" + wf.UUID}, sched.calls)
}

func TestLoop_ManageResourcesSeesPendingEventViaPeek(t *testing.T) {
	sched := &fakeScheduler{}
	coll := newFakeCollector()
	vms := &fakeVMShutdowner{}
	loop := NewLoop(sched, coll, vms, zerolog.Nop())

	var sawNext *Event
	sched.onManageResources = func(next *Event) {
		if sawNext == nil {
			sawNext = next
		}
	}

	loop.Enqueue(NewManageResources(1))
	loop.Enqueue(NewManageResources(2))

	loop.Run()

	require.NotNil(t, sawNext)
	assert.Equal(t, 2.0, sawNext.StartTime)
}

func TestLoop_ManageResourcesCanReArmItself(t *testing.T) {
	sched := &fakeScheduler{}
	coll := newFakeCollector()
	vms := &fakeVMShutdowner{}
	loop := NewLoop(sched, coll, vms, zerolog.Nop())

	rearmed := 0
	sched.onManageResources = func(next *Event) {
		if next == nil && rearmed < 2 {
			rearmed++
			loop.Enqueue(NewManageResources(loop.CurrentTime() + 1))
		}
	}

	loop.Enqueue(NewManageResources(1))
	loop.Run()

	assert.Equal(t, 2, rearmed)
	assert.Equal(t, 3.0, coll.loopFinish)
}

func TestLoop_EnqueueBeforeCurrentTimePanicsOnceStarted(t *testing.T) {
	sched := &fakeScheduler{}
	coll := newFakeCollector()
	vms := &fakeVMShutdowner{}
	loop := NewLoop(sched, coll, vms, zerolog.Nop())

	sched.onManageResources = func(next *Event) {
		assert.Panics(t, func() { loop.Enqueue(NewManageResources(loop.CurrentTime() - 1)) })
	}

	loop.Enqueue(NewManageResources(10))
	loop.Run()
}

func TestLoop_EmptyQueueShutsDownAtZero(t *testing.T) {
	sched := &fakeScheduler{}
	coll := newFakeCollector()
	vms := &fakeVMShutdowner{}
	loop := NewLoop(sched, coll, vms, zerolog.Nop())

	loop.Run()

	assert.True(t, vms.called)
	assert.Equal(t, 0.0, vms.shutdownAt)
	assert.False(t, coll.loopStartSet)
}
