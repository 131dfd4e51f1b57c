// Package epsm implements EPSM, the deadline-driven scheduling policy
// (C7): earliest-finish-time estimates pick a catalog-wide reference VM
// type, spare time is distributed into per-task deadlines, and each task
// searches for the cheapest VM that still meets its own deadline.
package epsm

import (
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// Workflow wraps a core workflow.Workflow with EPSM-specific state,
// embedding a pointer to it (not a copy) rather than subclassing it (§9): the reference
// VM type EFTs were computed against, per-task deadlines, and the VM
// instance each in-flight task is running on.
type Workflow struct {
	*workflow.Workflow

	VMTypeUsed vm.Type
	EFT        []float64
	Deadlines  []float64
	TaskVM     map[int]*vm.Instance

	// Failed is set when preprocessing could not find any VM type
	// meeting the deadline and fell back to the fastest type
	// (INFEASIBLE_DEADLINE, §7).
	Failed bool

	// remaining counts tasks not yet FINISHED; the scheduler uses this
	// to know when a workflow can no longer generate new events, so it
	// can stop re-arming MANAGE_RESOURCES once nothing is left to do.
	remaining int
}

func newWorkflow(wf *workflow.Workflow) *Workflow {
	return &Workflow{
		Workflow:  wf,
		Deadlines: make([]float64, len(wf.Tasks)),
		TaskVM:    make(map[int]*vm.Instance),
		remaining: len(wf.Tasks),
	}
}

// Done reports whether every task in the workflow has finished.
func (w *Workflow) Done() bool { return w.remaining == 0 }
