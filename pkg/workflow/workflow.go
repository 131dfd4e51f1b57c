package workflow

import (
	"fmt"

	"github.com/google/uuid"
)

// Workflow is a DAG of tasks submitted as a unit, constrained by exactly
// one of a deadline or a budget. Tasks are stored in the topological
// order assigned by the trace parser; Unscheduled shrinks monotonically
// as tasks leave the CREATED state.
type Workflow struct {
	UUID        string
	Name        string
	Description string

	Tasks     []*Task // ordered by id, index == Task.ID
	Container Container

	SubmitTime float64
	Deadline   *float64
	Budget     *float64

	unscheduled map[int]struct{}
	children    map[int][]int // forward adjacency, derived from Tasks[i].Parents
}

// New builds a Workflow from a pre-sorted task slice (id == index,
// parents already resolved to smaller ids — the trace parser in
// pkg/trace is responsible for that invariant). Exactly one of
// deadline/budget must be non-nil.
func New(name, description string, tasks []*Task, container Container, submitTime float64, deadline, budget *float64) (*Workflow, error) {
	if (deadline == nil) == (budget == nil) {
		return nil, fmt.Errorf("workflow %s: exactly one of deadline or budget must be set", name)
	}
	id := uuid.New().String()
	container.WorkflowID = id
	unscheduled := make(map[int]struct{}, len(tasks))
	children := make(map[int][]int, len(tasks))
	for i, t := range tasks {
		if t.ID != i {
			return nil, fmt.Errorf("workflow %s: task at index %d has id %d, want dense ids", name, i, t.ID)
		}
		t.WorkflowID = id
		t.Container = container
		unscheduled[t.ID] = struct{}{}
		for _, pid := range t.Parents {
			if pid >= t.ID {
				return nil, fmt.Errorf("workflow %s: task %d lists parent %d with id >= its own", name, t.ID, pid)
			}
			children[pid] = append(children[pid], t.ID)
		}
	}
	return &Workflow{
		UUID:        id,
		Name:        name,
		Description: description,
		Tasks:       tasks,
		Container:   container,
		SubmitTime:  submitTime,
		Deadline:    deadline,
		Budget:      budget,
		unscheduled: unscheduled,
		children:    children,
	}, nil
}

// IsDeadlineDriven reports whether this workflow is constrained by a deadline.
func (w *Workflow) IsDeadlineDriven() bool { return w.Deadline != nil }

// IsBudgetDriven reports whether this workflow is constrained by a budget.
func (w *Workflow) IsBudgetDriven() bool { return w.Budget != nil }

// Task looks up a task by id.
func (w *Workflow) Task(id int) *Task { return w.Tasks[id] }

// RootTasks returns the ids of every task with no parents.
func (w *Workflow) RootTasks() []int {
	var roots []int
	for _, t := range w.Tasks {
		if len(t.Parents) == 0 {
			roots = append(roots, t.ID)
		}
	}
	return roots
}

// Children returns the ids of tasks that list id as a parent.
func (w *Workflow) Children(id int) []int { return w.children[id] }

// UnscheduledIDs returns the ids still in the CREATED state, in
// ascending id order for deterministic iteration.
func (w *Workflow) UnscheduledIDs() []int {
	ids := make([]int, 0, len(w.unscheduled))
	for _, t := range w.Tasks {
		if _, ok := w.unscheduled[t.ID]; ok {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// UnscheduledCount reports how many tasks have not yet left CREATED.
func (w *Workflow) UnscheduledCount() int { return len(w.unscheduled) }

// MarkTaskScheduled transitions a task to SCHEDULED and removes it from
// the unscheduled set.
func (w *Workflow) MarkTaskScheduled(id int, startTime float64) {
	w.Tasks[id].MarkScheduled(startTime)
	delete(w.unscheduled, id)
}

// ReadyChildren returns the children of id whose parents are all
// FINISHED and which have not yet been scheduled.
func (w *Workflow) ReadyChildren(id int) []int {
	var ready []int
	for _, cid := range w.children[id] {
		child := w.Tasks[cid]
		if child.State != TaskCreated {
			continue
		}
		if child.ParentsReady(w.Tasks) {
			ready = append(ready, cid)
		}
	}
	return ready
}
