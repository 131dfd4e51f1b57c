// Package minminbudg implements Min-MinBUDG, the greedy budget-driven
// scheduling policy (C10): budget is distributed proportionally to each
// task's share of a makespan estimated on a synthetic average VM type,
// then each task greedily picks whichever host — idle instance or fresh
// catalog type — minimizes execution time within its available budget.
package minminbudg

import (
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// Workflow wraps a core workflow.Workflow with Min-MinBUDG state: each
// task's proportional budget share and the running pot of unspent
// budget carried forward from earlier tasks.
type Workflow struct {
	*workflow.Workflow

	TaskBudget map[int]float64
	Pot        float64

	TaskVM map[int]*vm.Instance
}

func newWorkflow(wf *workflow.Workflow) *Workflow {
	return &Workflow{
		Workflow:   wf,
		TaskBudget: make(map[int]float64, len(wf.Tasks)),
		TaskVM:     make(map[int]*vm.Instance),
	}
}
