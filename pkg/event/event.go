// Package event implements the discrete-event simulation kernel: a
// min-heap of timestamped events and the loop that dispatches them to a
// scheduler, driving VM and task lifecycles in virtual time (C5).
package event

import (
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// Kind names the five event types the loop understands (§3).
type Kind int

const (
	SubmitWorkflow Kind = iota
	ScheduleWorkflow
	ScheduleTask
	FinishTask
	ManageResources
)

func (k Kind) String() string {
	switch k {
	case SubmitWorkflow:
		return "SUBMIT_WORKFLOW"
	case ScheduleWorkflow:
		return "SCHEDULE_WORKFLOW"
	case ScheduleTask:
		return "SCHEDULE_TASK"
	case FinishTask:
		return "FINISH_TASK"
	case ManageResources:
		return "MANAGE_RESOURCES"
	default:
		return "UNKNOWN"
	}
}

// Event is one entry in the virtual-time queue. Ordering key is
// (StartTime, seq): seq is assigned at enqueue time and breaks ties
// FIFO, which the heap needs for reproducible runs (§9).
type Event struct {
	StartTime float64
	Kind      Kind

	Workflow   *workflow.Workflow // set on SUBMIT_WORKFLOW
	WorkflowID string
	TaskID     int // -1 when not applicable
	VM         *vm.Instance // set on FINISH_TASK

	seq uint64
}

// NewSubmitWorkflow builds a SUBMIT_WORKFLOW event for wf at its submit_time.
func NewSubmitWorkflow(wf *workflow.Workflow) *Event {
	return &Event{StartTime: wf.SubmitTime, Kind: SubmitWorkflow, Workflow: wf, WorkflowID: wf.UUID, TaskID: -1}
}

// NewScheduleWorkflow builds a SCHEDULE_WORKFLOW event.
func NewScheduleWorkflow(at float64, workflowID string) *Event {
	return &Event{StartTime: at, Kind: ScheduleWorkflow, WorkflowID: workflowID, TaskID: -1}
}

// NewScheduleTask builds a SCHEDULE_TASK event.
func NewScheduleTask(at float64, workflowID string, taskID int) *Event {
	return &Event{StartTime: at, Kind: ScheduleTask, WorkflowID: workflowID, TaskID: taskID}
}

// NewFinishTask builds a FINISH_TASK event.
func NewFinishTask(at float64, workflowID string, taskID int, inst *vm.Instance) *Event {
	return &Event{StartTime: at, Kind: FinishTask, WorkflowID: workflowID, TaskID: taskID, VM: inst}
}

// NewManageResources builds a MANAGE_RESOURCES event.
func NewManageResources(at float64) *Event {
	return &Event{StartTime: at, Kind: ManageResources, TaskID: -1}
}
