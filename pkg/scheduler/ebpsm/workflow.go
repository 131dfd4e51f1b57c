// Package ebpsm implements EBPSM, the budget-driven scheduling policy
// (C8): tasks are leveled and ordered into an EEOQ, a budget is
// distributed across them front-to-back (FFTD), and each task picks the
// fastest VM it can afford.
package ebpsm

import (
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// Workflow wraps a core workflow.Workflow with EBPSM-specific state.
type Workflow struct {
	*workflow.Workflow

	Levels   []int
	EEOQ     []int
	ExecTime []float64 // per-task exec time on the slowest VM type, from preprocessing

	TaskBudget map[int]float64
	TaskSpent  map[int]float64 // realized price charged when each task was scheduled
	SpareBudget float64

	TaskVM map[int]*vm.Instance

	remaining int
}

func newWorkflow(wf *workflow.Workflow) *Workflow {
	return &Workflow{
		Workflow:   wf,
		TaskBudget: make(map[int]float64, len(wf.Tasks)),
		TaskSpent:  make(map[int]float64, len(wf.Tasks)),
		TaskVM:     make(map[int]*vm.Instance),
		remaining:  len(wf.Tasks),
	}
}

// Done reports whether every task in the workflow has finished.
func (w *Workflow) Done() bool { return w.remaining == 0 }
