package cost

import (
	"fmt"

	"github.com/cuemby/cloudsim/pkg/storage"
	"github.com/cuemby/cloudsim/pkg/vm"
	"github.com/cuemby/cloudsim/pkg/workflow"
)

// Model selects which execution-time predictor a scheduler uses.
type Model int

const (
	// IOConsumption accounts only for data movement: VM-side I/O plus
	// network transfer to/from shared storage.
	IOConsumption Model = iota
	// IOAndRuntime additionally adds task.RuntimeS/vmType.CPU.
	IOAndRuntime
)

// ParseModel maps the driver-facing model name to a Model, returning
// ErrInvalidPredictModel for anything else (§7 INVALID_PREDICT_MODEL).
func ParseModel(name string) (Model, error) {
	switch name {
	case "io_consumption":
		return IOConsumption, nil
	case "io_and_runtime":
		return IOAndRuntime, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPredictModel, name)
	}
}

// PredictExecutionTime estimates, in seconds, how long task would take to
// run on vmType with the given storage backend. inst, if non-nil, is the
// concrete VM instance being considered — its current file/container
// cache lets the predictor skip transfers that have already happened.
// containerProvS and vmProvS default to 0 when the caller has none to
// supply.
func PredictExecutionTime(
	model Model,
	task *workflow.Task,
	vmType vm.Type,
	store *storage.Storage,
	inst *vm.Instance,
	containerProvS, vmProvS float64,
) float64 {
	total := 0.0

	switch {
	case inst == nil:
		total += vmProvS + containerProvS
	default:
		if inst.State == vm.NotProvisioned {
			total += vmProvS
		}
		if !inst.HasContainer(task.Container) {
			total += containerProvS
		}
	}

	for _, f := range task.InputFiles {
		total += f.SizeMegabits() / vmType.IOBandwidthMbps
		if inst == nil || !inst.HasFile(f) {
			total += f.SizeMegabits() / store.ReadRateMbps
		}
	}

	for _, f := range task.OutputFiles {
		total += f.SizeMegabits() / vmType.IOBandwidthMbps
		total += f.SizeMegabits() / store.WriteRateMbps
	}

	if model == IOAndRuntime {
		total += task.RuntimeS / float64(vmType.CPU)
	}

	return total
}
