package workflow

import "fmt"

// TaskState is the monotone lifecycle a task moves through.
type TaskState int

const (
	TaskCreated TaskState = iota
	TaskScheduled
	TaskFinished
)

func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "CREATED"
	case TaskScheduled:
		return "SCHEDULED"
	case TaskFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Task is one node of a workflow's DAG. Parents are stored as ids rather
// than owning references: a task never outlives the workflow that holds
// it, and ids avoid any possibility of reference cycles.
type Task struct {
	WorkflowID  string
	ID          int // dense 0..N-1, assigned in trace file order
	Name        string
	Parents     []int
	InputFiles  []File
	OutputFiles []File
	RuntimeS    float64

	Container Container
	State     TaskState

	StartTime  float64
	FinishTime float64
	hasStart   bool
	hasFinish  bool
}

// HasStarted reports whether StartTime has been set.
func (t *Task) HasStarted() bool { return t.hasStart }

// HasFinished reports whether FinishTime has been set.
func (t *Task) HasFinished() bool { return t.hasFinish }

// MarkScheduled transitions CREATED -> SCHEDULED, recording start_time.
// It panics on an illegal source state: a STATE_VIOLATION is a
// programming error, never a recoverable condition.
func (t *Task) MarkScheduled(startTime float64) {
	if t.State != TaskCreated {
		panic(fmt.Sprintf("task %s/%d: MarkScheduled from state %s", t.WorkflowID, t.ID, t.State))
	}
	t.State = TaskScheduled
	t.StartTime = startTime
	t.hasStart = true
}

// MarkFinished transitions SCHEDULED -> FINISHED, recording finish_time.
func (t *Task) MarkFinished(finishTime float64) {
	if t.State != TaskScheduled {
		panic(fmt.Sprintf("task %s/%d: MarkFinished from state %s", t.WorkflowID, t.ID, t.State))
	}
	if t.hasStart && finishTime < t.StartTime {
		panic(fmt.Sprintf("task %s/%d: finish_time %f before start_time %f", t.WorkflowID, t.ID, finishTime, t.StartTime))
	}
	t.State = TaskFinished
	t.FinishTime = finishTime
	t.hasFinish = true
}

// ParentsReady reports whether every parent (looked up by id in tasks)
// has already reached FINISHED.
func (t *Task) ParentsReady(tasks []*Task) bool {
	for _, pid := range t.Parents {
		if tasks[pid].State != TaskFinished {
			return false
		}
	}
	return true
}
