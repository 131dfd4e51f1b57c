package dynans

import (
	"container/heap"

	"github.com/cuemby/cloudsim/pkg/cost"
	"github.com/cuemby/cloudsim/pkg/storage"
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// configPlan is a candidate assignment of a VM type to every task
// (§4.7). level is one-based: it names the next task position the
// search will branch on to produce children. g/h/f all equal the
// plan's estimated cost (per spec.md §9 Open Question #3, estimated_time
// is computed fresh per plan rather than shared/mutated across plans).
type configPlan struct {
	assignment []vm.Type
	level      int
	f          float64
}

func (p *configPlan) clone() *configPlan {
	assignment := make([]vm.Type, len(p.assignment))
	copy(assignment, p.assignment)
	return &configPlan{assignment: assignment, level: p.level, f: p.f}
}

// planHeap is a min-heap of *configPlan ordered by f, used only inside
// this package's search; it satisfies container/heap.Interface.
type planHeap []*configPlan

func (h planHeap) Len() int            { return len(h) }
func (h planHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h planHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *planHeap) Push(x interface{}) { *h = append(*h, x.(*configPlan)) }
func (h *planHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// estimateCost sums estimate_price_for_vm_type over every task under p.
func estimateCost(wf *workflow.Workflow, p *configPlan, store *storage.Storage, model cost.Model, provDelay float64) float64 {
	var total float64
	for _, t := range wf.Tasks {
		typ := p.assignment[t.ID]
		execTime := cost.PredictExecutionTime(model, t, typ, store, nil, float64(t.Container.ProvisionTime), provDelay)
		total += cost.EstimatePriceForVMType(execTime, typ)
	}
	return total
}

// estimatePerformance returns the plan's makespan: longest path through
// the DAG using each task's own per-plan execution time estimate.
func estimatePerformance(wf *workflow.Workflow, p *configPlan, store *storage.Storage, model cost.Model, provDelay float64) float64 {
	finish := make([]float64, len(wf.Tasks))
	var makespan float64
	for _, t := range wf.Tasks {
		typ := p.assignment[t.ID]
		execTime := cost.PredictExecutionTime(model, t, typ, store, nil, float64(t.Container.ProvisionTime), provDelay)
		var parentMax float64
		for _, pid := range t.Parents {
			if finish[pid] > parentMax {
				parentMax = finish[pid]
			}
		}
		finish[t.ID] = parentMax + execTime
		if finish[t.ID] > makespan {
			makespan = finish[t.ID]
		}
	}
	return makespan
}

// search runs the bounded A*-style exploration described in §4.7 and
// returns the cheapest plan found whose estimated performance meets the
// deadline (current_time + perf ≤ deadline), or the slowest-everywhere
// plan if nothing feasible was found within maxIter iterations.
func search(
	wf *workflow.Workflow,
	catalog []vm.Type,
	store *storage.Storage,
	model cost.Model,
	provDelay float64,
	now, deadline float64,
	maxIter int,
) []vm.Type {
	slowest := catalog[0]
	root := &configPlan{assignment: make([]vm.Type, len(wf.Tasks)), level: 1}
	for i := range root.assignment {
		root.assignment[i] = slowest
	}
	root.f = estimateCost(wf, root, store, model, provDelay)

	h := &planHeap{root}
	heap.Init(h)

	var best []vm.Type
	var upperBound float64
	haveUpperBound := false

	for iter := 0; iter < maxIter && h.Len() > 0; iter++ {
		p := heap.Pop(h).(*configPlan)

		perf := estimatePerformance(wf, p, store, model, provDelay)
		feasible := now+perf <= deadline

		if feasible || !haveUpperBound {
			c := estimateCost(wf, p, store, model, provDelay)
			if !haveUpperBound || c < upperBound {
				upperBound = c
				haveUpperBound = true
				best = p.assignment
			}
		}

		if p.level <= len(wf.Tasks) {
			idx := p.level - 1
			for _, typ := range fasterThan(catalog, p.assignment[idx]) {
				child := p.clone()
				child.assignment[idx] = typ
				child.level = p.level + 1
				child.f = estimateCost(wf, child, store, model, provDelay)
				if !haveUpperBound || child.f < upperBound {
					heap.Push(h, child)
				}
			}
		}
	}

	if best == nil {
		best = root.assignment
	}
	return best
}

// fasterThan returns every catalog entry strictly after typ's position
// (catalog is ascending by price, i.e. slow-to-fast).
func fasterThan(catalog []vm.Type, typ vm.Type) []vm.Type {
	for i, t := range catalog {
		if t.Name == typ.Name {
			return catalog[i+1:]
		}
	}
	return nil
}
