package vm

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/cuemby/cloudsim/pkg/workflow"
)

type rawCatalog struct {
	VMs []rawType `json:"vms"`
}

type rawType struct {
	Name          string  `json:"name"`
	CPU           int     `json:"cpu"`
	Memory        int     `json:"memory"`
	Price         float64 `json:"price"`
	BillingPeriod int64   `json:"billingPeriod"`
	IOBandwidth   float64 `json:"IOBandwidth"`
	Enable        bool    `json:"enable"`
}

// CostFunc computes the dollar cost of an instance as of `at` (or, if
// nil, its FinishTime). The manager takes this as an injected function
// rather than importing pkg/cost directly, since pkg/cost itself needs
// to see vm.Instance/vm.Type — importing it back here would cycle.
type CostFunc func(inst *Instance, at *float64) float64

// Manager owns the VM type catalog and every VM instance ever created,
// plus the idle index schedulers draw from (C3).
type Manager struct {
	logger zerolog.Logger

	catalog []Type // sorted ascending by price
	average Type

	instances []*Instance
	idle      []*Instance // PROVISIONED only, insertion order

	provisionDelaySeconds float64
	billingSet            bool

	costFunc  CostFunc
	collector metricsSink
}

// metricsSink is the minimal surface the manager needs from a metrics
// collector, kept local to avoid pkg/vm depending on pkg/metrics for
// anything beyond these three calls.
type metricsSink interface {
	AddGlobalCost(amount float64)
	RecordVMRemoved()
	RecordVMLeft()
}

// NewManager constructs an empty manager. Call LoadCatalog before use.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{logger: logger}
}

// SetCostFunc wires in the cost calculation used by ShutdownVM/ShutdownVMs.
func (m *Manager) SetCostFunc(fn CostFunc) { m.costFunc = fn }

// SetMetricCollector wires in where shutdown accounting is reported.
func (m *Manager) SetMetricCollector(c metricsSink) { m.collector = c }

// SetProvisionDelay sets the uniform provisioning delay applied to every VM.
func (m *Manager) SetProvisionDelay(s float64) { m.provisionDelaySeconds = s }

// ProvisionDelay returns the currently configured provisioning delay.
func (m *Manager) ProvisionDelay() float64 { return m.provisionDelaySeconds }

// LoadCatalog reads the VM type catalog (§6), keeping only enabled
// entries and sorting ascending by price.
func (m *Manager) LoadCatalog(r io.Reader) error {
	var raw rawCatalog
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("vm: decode catalog: %w", err)
	}

	catalog := make([]Type, 0, len(raw.VMs))
	for _, rt := range raw.VMs {
		if !rt.Enable {
			continue
		}
		catalog = append(catalog, Type{
			Name:            rt.Name,
			CPU:             rt.CPU,
			MemoryGB:        rt.Memory,
			PricePerPeriod:  rt.Price,
			BillingPeriodS:  rt.BillingPeriod,
			IOBandwidthMbps: rt.IOBandwidth,
		})
	}
	if len(catalog) == 0 {
		return fmt.Errorf("vm: catalog has no enabled VM types")
	}

	for i := 0; i < len(catalog); i++ {
		for j := i + 1; j < len(catalog); j++ {
			if catalog[j].PricePerPeriod < catalog[i].PricePerPeriod {
				catalog[i], catalog[j] = catalog[j], catalog[i]
			}
		}
	}

	m.catalog = catalog
	m.average = computeAverage(catalog)
	return nil
}

func computeAverage(catalog []Type) Type {
	var avg Type
	avg.Name = "average"
	n := float64(len(catalog))
	for _, t := range catalog {
		avg.CPU += t.CPU
		avg.MemoryGB += t.MemoryGB
		avg.PricePerPeriod += t.PricePerPeriod
		avg.BillingPeriodS += t.BillingPeriodS
		avg.IOBandwidthMbps += t.IOBandwidthMbps
	}
	avg.CPU = int(float64(avg.CPU) / n)
	avg.MemoryGB = int(float64(avg.MemoryGB) / n)
	avg.PricePerPeriod /= n
	avg.BillingPeriodS = int64(float64(avg.BillingPeriodS) / n)
	avg.IOBandwidthMbps /= n
	return avg
}

// Catalog returns the full, ordered VM type catalog.
func (m *Manager) Catalog() []Type { return m.catalog }

// GetSlowestVMType returns the cheapest (by convention, lowest-CPU)
// catalog entry.
func (m *Manager) GetSlowestVMType() Type { return m.catalog[0] }

// GetFastestVMType returns the most expensive catalog entry.
func (m *Manager) GetFastestVMType() Type { return m.catalog[len(m.catalog)-1] }

// GetAverageVMType returns the synthetic type used only for heuristics
// (Min-MinBUDG's makespan estimate) — never leased.
func (m *Manager) GetAverageVMType() Type { return m.average }

// GetVMTypes returns the whole catalog, or — if fasterThan is non-nil —
// the suffix strictly after that type's catalog index.
func (m *Manager) GetVMTypes(fasterThan *Type) []Type {
	if fasterThan == nil {
		return m.catalog
	}
	for i, t := range m.catalog {
		if t.Name == fasterThan.Name {
			if i+1 >= len(m.catalog) {
				return nil
			}
			return m.catalog[i+1:]
		}
	}
	return nil
}

// InitVM creates a NOT_PROVISIONED instance of the given type and starts
// tracking it.
func (m *Manager) InitVM(t Type) *Instance {
	inst := NewInstance(t)
	m.instances = append(m.instances, inst)
	return inst
}

// ProvisionVM transitions inst to PROVISIONED and adds it to the idle index.
func (m *Manager) ProvisionVM(inst *Instance, now float64) {
	inst.Provision(now)
	m.idle = append(m.idle, inst)
}

// ReserveVM transitions inst to BUSY and removes it from the idle index.
func (m *Manager) ReserveVM(inst *Instance, task TaskRef) {
	inst.Reserve(task)
	m.removeFromIdle(inst)
}

// ReleaseVM transitions inst back to PROVISIONED and re-adds it to idle.
func (m *Manager) ReleaseVM(inst *Instance, now float64) {
	inst.Release(now)
	m.idle = append(m.idle, inst)
}

// ShutdownVM transitions inst to SHUTDOWN, finalizes its cost onto the
// collector, and removes it from the idle index.
func (m *Manager) ShutdownVM(now float64, inst *Instance) {
	inst.ShutdownAt(now)
	m.removeFromIdle(inst)
	if m.costFunc != nil && m.collector != nil {
		m.collector.AddGlobalCost(m.costFunc(inst, nil))
		m.collector.RecordVMRemoved()
	}
}

// ShutdownVMs shuts down every remaining idle VM at loop termination,
// each contributing to vms_left and cost.
func (m *Manager) ShutdownVMs(now float64) {
	remaining := append([]*Instance(nil), m.idle...)
	for _, inst := range remaining {
		inst.ShutdownAt(now)
		if m.costFunc != nil && m.collector != nil {
			m.collector.AddGlobalCost(m.costFunc(inst, nil))
			m.collector.RecordVMLeft()
		}
	}
	m.idle = nil
}

func (m *Manager) removeFromIdle(inst *Instance) {
	for i, other := range m.idle {
		if other == inst {
			m.idle = append(m.idle[:i], m.idle[i+1:]...)
			return
		}
	}
}

// GetIdleVMs returns the idle set, optionally filtered to VMs whose
// files include all of task's input files, or whose containers include
// the given container. When both are provided, returns the union.
func (m *Manager) GetIdleVMs(task *workflow.Task, container *workflow.Container) []*Instance {
	if task == nil && container == nil {
		return append([]*Instance(nil), m.idle...)
	}

	seen := make(map[string]struct{})
	var out []*Instance
	add := func(inst *Instance) {
		if _, ok := seen[inst.UUID]; !ok {
			seen[inst.UUID] = struct{}{}
			out = append(out, inst)
		}
	}

	if task != nil {
		for _, inst := range m.idle {
			if inst.HasInputFiles(task.InputFiles) {
				add(inst)
			}
		}
	}
	if container != nil {
		for _, inst := range m.idle {
			if inst.HasContainer(*container) {
				add(inst)
			}
		}
	}
	return out
}

// SetBillingPeriod uniformly rescales every catalog entry to a new
// global billing period while preserving price/second. Must be called
// before any provisioning.
func (m *Manager) SetBillingPeriod(period int64) error {
	for _, inst := range m.instances {
		if inst.State != NotProvisioned {
			return fmt.Errorf("vm: set_billing_period called after VM %s was provisioned", inst.UUID)
		}
	}
	for i := range m.catalog {
		old := m.catalog[i]
		m.catalog[i].PricePerPeriod = old.PricePerPeriod * float64(period) / float64(old.BillingPeriodS)
		m.catalog[i].BillingPeriodS = period
	}
	m.average = computeAverage(m.catalog)
	m.billingSet = true
	return nil
}
