package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/cloudsim/pkg/vm"
)

func slowType() vm.Type {
	return vm.Type{Name: "slow", CPU: 1, PricePerPeriod: 1, BillingPeriodS: 3600, IOBandwidthMbps: 100}
}

// S6 — VM started at t=0, billing_period=3600, price=1. Shutdown at t=3601: cost = 2.
func TestCalculateCost_BillingBoundary(t *testing.T) {
	inst := vm.NewInstance(slowType())
	inst.Provision(0)
	inst.ShutdownAt(3601)

	assert.Equal(t, 2.0, CalculateCost(inst, nil))
}

func TestCalculateCost_ExactlyOnePeriod(t *testing.T) {
	inst := vm.NewInstance(slowType())
	inst.Provision(0)
	inst.ShutdownAt(3600)

	assert.Equal(t, 1.0, CalculateCost(inst, nil))
}

// Invariant 10: calculate_price_for_vm(t, 0, vm) == 0 for any t >= start_time.
func TestPriceForVM_ZeroUseTimeIsFree(t *testing.T) {
	inst := vm.NewInstance(slowType())
	inst.Provision(0)

	assert.Equal(t, 0.0, PriceForVM(0, 0, inst))
	assert.Equal(t, 0.0, PriceForVM(1800, 0, inst))
	assert.Equal(t, 0.0, PriceForVM(7200, 0, inst))
}

func TestPriceForVM_FitsInRemainderOfPaidPeriod(t *testing.T) {
	inst := vm.NewInstance(slowType())
	inst.Provision(0)

	// at now=1000, the remainder (elapsed mod period) is 1000s; a use no
	// longer than that is not charged
	assert.Equal(t, 0.0, PriceForVM(1000, 1000, inst))
}

func TestPriceForVM_ChargesCeiledLeftover(t *testing.T) {
	inst := vm.NewInstance(slowType())
	inst.Provision(0)

	// at now=1000, remainder = 1000; using 2700s exceeds it by 1700s
	// -> one more full period.
	assert.Equal(t, 1.0, PriceForVM(1000, 2700, inst))
}

func TestEstimatePriceForVMType(t *testing.T) {
	typ := slowType()
	assert.Equal(t, 1.0, EstimatePriceForVMType(3600, typ))
	assert.Equal(t, 2.0, EstimatePriceForVMType(3601, typ))
	assert.Equal(t, 1.0, EstimatePriceForVMType(1, typ))
}

func TestTimeUntilNextBillingPeriod(t *testing.T) {
	inst := vm.NewInstance(slowType())
	inst.Provision(0)

	assert.Equal(t, 3600.0, TimeUntilNextBillingPeriod(0, inst))
	assert.Equal(t, 1800.0, TimeUntilNextBillingPeriod(1800, inst))
	assert.Equal(t, 3599.0, TimeUntilNextBillingPeriod(1, inst))
}
