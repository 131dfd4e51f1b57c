package ebpsm

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

const oneTypeCatalog = `{"vms":[
  {"name":"avg","cpu":1,"memory":4,"price":5,"billingPeriod":3600,"IOBandwidth":100,"enable":true}
]}`

func newHarness(t *testing.T) (*Scheduler, *vm.Manager, *metrics.Collector, *event.Loop) {
	t.Helper()
	vmManager := vm.NewManager(zerolog.Nop())
	require.NoError(t, vmManager.LoadCatalog(strings.NewReader(oneTypeCatalog)))
	vmManager.SetCostFunc(func(inst *vm.Instance, at *float64) float64 { return cost.CalculateCost(inst, at) })

	store := storage.New()
	collector := metrics.NewCollector("EBPSM")
	vmManager.SetMetricCollector(collector)

	sched := New(vmManager, store)
	sched.SetMetricCollector(collector)
	sched.SetPredictFunction(cost.IOAndRuntime)

	loop := event.NewLoop(sched, collector, vmManager, zerolog.Nop())
	sched.SetLoop(loop)

	return sched, vmManager, collector, loop
}

// S3 — two independent, equal-runtime tasks and a budget of 10 split
// evenly since only one VM type exists, priced at exactly 5/run.
func TestEBPSM_S3_BudgetProportionalSplit(t *testing.T) {
	sched, _, collector, loop := newHarness(t)

	t0 := &workflow.Task{ID: 0, Name: "a", RuntimeS: 3600}
	t1 := &workflow.Task{ID: 1, Name: "b", RuntimeS: 3600}
	budget := 10.0
	wf, err := workflow.New("pair", "", []*workflow.Task{t0, t1}, workflow.Container{}, 0, nil, &budget)
	require.NoError(t, err)

	loop.Enqueue(event.NewSubmitWorkflow(wf))
	loop.Run()
	collector.EvaluateConstraints()

	wrap := sched.workflows[wf.UUID]
	require.NotNil(t, wrap)
	assert.InDelta(t, 5.0, wrap.TaskBudget[0], 1e-9)
	assert.InDelta(t, 5.0, wrap.TaskBudget[1], 1e-9)
	assert.InDelta(t, 0.0, wrap.SpareBudget, 1e-9)

	stats := collector.Workflow(wf.UUID)
	require.NotNil(t, stats)
	assert.True(t, stats.ConstraintMet)
	assert.InDelta(t, 10.0, stats.Cost, 1e-9)
}
