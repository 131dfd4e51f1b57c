// Package dynans implements DynaNS, the A*-search configuration-plan
// scheduling policy (C9): preprocessing searches the space of
// per-task VM-type assignments for the cheapest one whose estimated
// performance still meets the deadline, then every task runs on its
// planned type.
package dynans

import (
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// Workflow wraps a core workflow.Workflow with DynaNS-specific state:
// the winning configuration plan and the VM each in-flight task runs on.
type Workflow struct {
	*workflow.Workflow

	Plan   []vm.Type
	TaskVM map[int]*vm.Instance
}

func newWorkflow(wf *workflow.Workflow) *Workflow {
	return &Workflow{
		Workflow: wf,
		Plan:     make([]vm.Type, len(wf.Tasks)),
		TaskVM:   make(map[int]*vm.Instance),
	}
}
