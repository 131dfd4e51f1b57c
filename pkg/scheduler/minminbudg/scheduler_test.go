package minminbudg

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cloudsim/pkg/cost"
	"github.com/cuemby/cloudsim/pkg/event"
	"github.com/cuemby/cloudsim/pkg/metrics"
	"github.com/cuemby/cloudsim/pkg/storage"
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

const twoTierCatalog = `{"vms":[
  {"name":"slow","cpu":1,"memory":4,"price":1,"billingPeriod":3600,"IOBandwidth":100,"enable":true},
  {"name":"fast","cpu":4,"memory":16,"price":4,"billingPeriod":3600,"IOBandwidth":200,"enable":true}
]}`

func newHarness(t *testing.T) (*Scheduler, *vm.Manager, *metrics.Collector, *event.Loop) {
	t.Helper()
	vmManager := vm.NewManager(zerolog.Nop())
	require.NoError(t, vmManager.LoadCatalog(strings.NewReader(twoTierCatalog)))
	vmManager.SetCostFunc(func(inst *vm.Instance, at *float64) float64 { return cost.CalculateCost(inst, at) })

	store := storage.New()
	collector := metrics.NewCollector("Min-MinBUDG")
	vmManager.SetMetricCollector(collector)

	sched := New(vmManager, store)
	sched.SetMetricCollector(collector)
	sched.SetPredictFunction(cost.IOAndRuntime)

	loop := event.NewLoop(sched, collector, vmManager, zerolog.Nop())
	sched.SetLoop(loop)

	return sched, vmManager, collector, loop
}

// Two equal-runtime independent tasks split a budget 50/50 against the
// synthetic average VM type's makespan estimate, then each greedily
// picks the fastest host it can afford.
func TestMinMinBUDG_ProportionalSplitAndGreedyPick(t *testing.T) {
	sched, _, collector, loop := newHarness(t)

	tasks := []*workflow.Task{
		{ID: 0, Name: "a", RuntimeS: 3600},
		{ID: 1, Name: "b", RuntimeS: 3600},
	}
	budget := 10.0
	wf, err := workflow.New("pair", "", tasks, workflow.Container{}, 0, nil, &budget)
	require.NoError(t, err)

	loop.Enqueue(event.NewSubmitWorkflow(wf))
	loop.Run()
	collector.EvaluateConstraints()

	wrap := sched.workflows[wf.UUID]
	require.NotNil(t, wrap)
	assert.InDelta(t, 5.0, wrap.TaskBudget[0], 1e-9)
	assert.InDelta(t, 5.0, wrap.TaskBudget[1], 1e-9)

	stats := collector.Workflow(wf.UUID)
	require.NotNil(t, stats)
	assert.Len(t, stats.InitializedVMs, 2)
}
