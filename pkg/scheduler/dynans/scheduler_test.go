package dynans

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

const threeTierCatalog = `{"vms":[
  {"name":"slow","cpu":1,"memory":4,"price":1,"billingPeriod":3600,"IOBandwidth":100,"enable":true},
  {"name":"mid","cpu":2,"memory":8,"price":2,"billingPeriod":3600,"IOBandwidth":150,"enable":true},
  {"name":"fast","cpu":4,"memory":16,"price":4,"billingPeriod":3600,"IOBandwidth":200,"enable":true}
]}`

func newHarness(t *testing.T) (*Scheduler, *vm.Manager, *metrics.Collector, *event.Loop) {
	t.Helper()
	vmManager := vm.NewManager(zerolog.Nop())
	require.NoError(t, vmManager.LoadCatalog(strings.NewReader(threeTierCatalog)))
	vmManager.SetCostFunc(func(inst *vm.Instance, at *float64) float64 { return cost.CalculateCost(inst, at) })

	store := storage.New()
	collector := metrics.NewCollector("DynaNS")
	vmManager.SetMetricCollector(collector)

	sched := New(vmManager, store)
	sched.SetMetricCollector(collector)
	sched.SetPredictFunction(cost.IOAndRuntime)

	loop := event.NewLoop(sched, collector, vmManager, zerolog.Nop())
	sched.SetLoop(loop)

	return sched, vmManager, collector, loop
}

// S4 — three independent, short-runtime tasks with a generous deadline:
// every type fits within one billing period, so cost is monotone in
// price and the all-slow plan is never beaten.
func TestDynaNS_S4_PrefersCheaperConfiguration(t *testing.T) {
	sched, _, collector, loop := newHarness(t)

	tasks := []*workflow.Task{
		{ID: 0, Name: "a", RuntimeS: 100},
		{ID: 1, Name: "b", RuntimeS: 100},
		{ID: 2, Name: "c", RuntimeS: 100},
	}
	deadline := 1000.0
	wf, err := workflow.New("triple", "", tasks, workflow.Container{}, 0, &deadline, nil)
	require.NoError(t, err)

	loop.Enqueue(event.NewSubmitWorkflow(wf))
	loop.Run()
	collector.EvaluateConstraints()

	wrap := sched.workflows[wf.UUID]
	require.NotNil(t, wrap)
	for i, typ := range wrap.Plan {
		assert.Equal(t, "slow", typ.Name, "task %d", i)
	}

	stats := collector.Workflow(wf.UUID)
	require.NotNil(t, stats)
	assert.True(t, stats.ConstraintMet)
}
