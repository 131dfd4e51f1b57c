package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cloudsim/pkg/storage"
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

func TestParseModel(t *testing.T) {
	m, err := ParseModel("io_consumption")
	require.NoError(t, err)
	assert.Equal(t, IOConsumption, m)

	m, err = ParseModel("io_and_runtime")
	require.NoError(t, err)
	assert.Equal(t, IOAndRuntime, m)

	_, err = ParseModel("bogus")
	assert.ErrorIs(t, err, ErrInvalidPredictModel)
}

// S1: single task, runtime 3600s, no files, zero provisioning, io_and_runtime
// on a cpu=1 VM type predicts exactly 3600s.
func TestPredictExecutionTime_S1NoFilesIOAndRuntime(t *testing.T) {
	task := &workflow.Task{RuntimeS: 3600}
	typ := vm.Type{CPU: 1, IOBandwidthMbps: 100}
	store := storage.New()

	got := PredictExecutionTime(IOAndRuntime, task, typ, store, nil, 0, 0)
	assert.InDelta(t, 3600.0, got, 1e-9)
}

func TestPredictExecutionTime_SkipsTransferForCachedFile(t *testing.T) {
	f := workflow.File{Name: "a", SizeKB: 125000} // 1000 megabits
	task := &workflow.Task{RuntimeS: 0, InputFiles: []workflow.File{f}}
	typ := vm.Type{CPU: 1, IOBandwidthMbps: 100}
	store := storage.New()

	inst := vm.NewInstance(typ)
	inst.Provision(0)
	inst.AddFile(f)

	got := PredictExecutionTime(IOConsumption, task, typ, store, inst, 0, 0)
	// only VM-side read (1000/100=10s), no network fetch since cached.
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestPredictExecutionTime_NilVMAlwaysFetchesFromStorage(t *testing.T) {
	f := workflow.File{Name: "a", SizeKB: 125000}
	task := &workflow.Task{InputFiles: []workflow.File{f}}
	typ := vm.Type{CPU: 1, IOBandwidthMbps: 100}
	store := storage.New()

	got := PredictExecutionTime(IOConsumption, task, typ, store, nil, 0, 0)
	// VM-side read 10s + network fetch 1000/1000=1s
	assert.InDelta(t, 11.0, got, 1e-9)
}

func TestPredictExecutionTime_AddsProvisioningWhenNoInstance(t *testing.T) {
	task := &workflow.Task{}
	typ := vm.Type{CPU: 1, IOBandwidthMbps: 100}
	store := storage.New()

	got := PredictExecutionTime(IOConsumption, task, typ, store, nil, 5, 30)
	assert.InDelta(t, 35.0, got, 1e-9)
}
