package scheduler

import (
	"sort"

	"github.com/cuemby/cloudsim/pkg/cost"
	"github.com/cuemby/cloudsim/pkg/storage"
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// ComputeEFTs computes each task's earliest finish time and the
// workflow's makespan under the assumption that every task runs on a
// single VM type typ with no provisioning overhead (§4.5/§4.6): tasks
// are visited in id order, which the trace parser guarantees is a valid
// topological order (every parent id is smaller than its children's).
func ComputeEFTs(wf *workflow.Workflow, typ vm.Type, store *storage.Storage, model cost.Model) (eft []float64, execTime []float64, makespan float64) {
	eft = make([]float64, len(wf.Tasks))
	execTime = make([]float64, len(wf.Tasks))

	for _, t := range wf.Tasks {
		execTime[t.ID] = cost.PredictExecutionTime(model, t, typ, store, nil, 0, 0)

		var parentMax float64
		for _, pid := range t.Parents {
			if eft[pid] > parentMax {
				parentMax = eft[pid]
			}
		}
		eft[t.ID] = parentMax + execTime[t.ID]
		if eft[t.ID] > makespan {
			makespan = eft[t.ID]
		}
	}
	return eft, execTime, makespan
}

// BFSLevels assigns each task its shortest-path distance from any root
// (§4.6 step 1): tasks are visited in id order, so every parent's level
// is already final by the time a child is reached. A task with multiple
// parents takes the nearest one, matching single_source_shortest_path_length
// BFS rather than a longest-path/critical-depth assignment.
func BFSLevels(wf *workflow.Workflow) []int {
	levels := make([]int, len(wf.Tasks))
	for _, t := range wf.Tasks {
		min := -1
		for _, pid := range t.Parents {
			if min == -1 || levels[pid] < min {
				min = levels[pid]
			}
		}
		levels[t.ID] = min + 1
	}
	return levels
}

// BuildEEOQ concatenates levels in ascending order and, within a level,
// sorts by EFT ascending (§4.6 step 3).
func BuildEEOQ(wf *workflow.Workflow, levels []int, eft []float64) []int {
	ids := make([]int, len(wf.Tasks))
	for i := range ids {
		ids[i] = i
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if levels[a] != levels[b] {
			return levels[a] < levels[b]
		}
		return eft[a] < eft[b]
	})
	return ids
}
