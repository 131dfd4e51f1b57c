// Package cost implements the billing-period pricing arithmetic (§4.3)
// and the task execution-time predictors (io_consumption, io_and_runtime)
// that every scheduler calls to turn a (task, VM type, storage) tuple
// into seconds and dollars.
package cost

import (
	"math"

	"github.com/cuemby/cloudsim/pkg/vm"
)

// PriceForVM answers "what would it cost, right now, to keep using this
// already-provisioned VM for an additional useTime seconds". If useTime
// is no longer than the remainder of the elapsed time (elapsed mod
// billing period), it is free; otherwise the excess over that remainder
// is charged in whole periods, rounded up.
//
// The source this spec is grounded on computes the period count with a
// mixed boolean/arithmetic expression that looks like it intended a
// ceiling but does not reliably produce one; this implementation uses an
// explicit ceil, per spec.md §9 Open Question #1.
func PriceForVM(now, useTimeS float64, v *vm.Instance) float64 {
	period := float64(v.Type.BillingPeriodS)
	elapsed := now - v.StartTime
	remainder := math.Mod(elapsed, period)

	if useTimeS <= remainder {
		return 0.0
	}
	leftover := useTimeS - remainder
	periods := math.Ceil(leftover / period)
	return periods * v.Type.PricePerPeriod
}

// EstimatePriceForVMType answers the same question for a VM type that is
// not yet provisioned: how much would useTime seconds of fresh use cost.
func EstimatePriceForVMType(useTimeS float64, t vm.Type) float64 {
	period := float64(t.BillingPeriodS)
	if period <= 0 {
		return 0
	}
	periods := math.Ceil(useTimeS / period)
	return periods * t.PricePerPeriod
}

// TimeUntilNextBillingPeriod returns the seconds remaining in the
// instance's currently-paid-for billing period.
func TimeUntilNextBillingPeriod(now float64, v *vm.Instance) float64 {
	period := float64(v.Type.BillingPeriodS)
	elapsed := now - v.StartTime
	return period - math.Mod(elapsed, period)
}

// CalculateCost charges every billing period begun between the VM's
// StartTime and either the supplied time or, if time is nil, its
// FinishTime; a partly used period is charged in full.
func CalculateCost(v *vm.Instance, at *float64) float64 {
	end := v.FinishTime
	if at != nil {
		end = *at
	}
	elapsed := end - v.StartTime
	if elapsed <= 0 {
		return 0
	}
	period := float64(v.Type.BillingPeriodS)
	periods := math.Ceil(elapsed / period)
	return periods * v.Type.PricePerPeriod
}
