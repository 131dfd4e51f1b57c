// Package metrics holds the simulation's result surface: a per-workflow
// Stats ledger and a global Collector tallying totals across workflows,
// VMs and tasks (§3). The core event loop and every scheduler mutate a
// Collector directly; metrics.go in this package is the Prometheus-facing
// layer that publishes a finished Collector's numbers. The event loop
// also observes that layer's SchedulingLatency histogram, so importing
// this package brings in prometheus.
package metrics

// VMRef is a borrowed, read-only reference to a VM instance: enough to
// identify it in a Stats ledger without the collector owning (or even
// importing) the VM package — VMs belong to the VM manager.
type VMRef struct {
	UUID     string
	TypeName string
}

// Stats tracks one workflow's run against its deadline or budget.
type Stats struct {
	WorkflowID string

	StartTime  float64
	FinishTime float64
	hasStart   bool
	hasFinish  bool

	Cost float64

	InitializedVMs []VMRef
	UsedVMs        map[string]VMRef // keyed by VMRef.UUID, set semantics

	Deadline *float64
	Budget   *float64

	ConstraintMet      bool
	ConstraintOverflow float64
}

func newStats(workflowID string, deadline, budget *float64) *Stats {
	return &Stats{
		WorkflowID: workflowID,
		UsedVMs:    make(map[string]VMRef),
		Deadline:   deadline,
		Budget:     budget,
	}
}

// HasStarted reports whether this workflow's StartTime has been recorded.
func (s *Stats) HasStarted() bool { return s.hasStart }

// HasFinished reports whether this workflow's FinishTime has been recorded.
func (s *Stats) HasFinished() bool { return s.hasFinish }

// Collector is the global, per-run ledger (§3 "Metric Collector").
// It is mutated only from inside the event loop's handlers and the
// final shutdown pass — never concurrently (§5) — so it carries no
// internal locking.
type Collector struct {
	SchedulerName string

	Workflows map[string]*Stats

	Cost float64

	StartTime float64
	FinishTime float64
	hasStart   bool
	hasFinish  bool

	InitializedVMs int
	RemovedVMs     int
	VMsLeft        int
	UsedVMs        map[string]VMRef

	WorkflowsTotalTasks int
	ScheduledTasks      int
	FinishedTasks       int
	ConstraintsMet      int
}

// NewCollector creates an empty ledger for a run of the named scheduler.
func NewCollector(schedulerName string) *Collector {
	return &Collector{
		SchedulerName: schedulerName,
		Workflows:     make(map[string]*Stats),
		UsedVMs:       make(map[string]VMRef),
	}
}

// SetLoopStartOnce records the event loop's first dispatch time, only on
// the first call (the loop itself is responsible for calling this
// exactly once, at the first pop).
func (c *Collector) SetLoopStartOnce(t float64) {
	if !c.hasStart {
		c.StartTime = t
		c.hasStart = true
	}
}

// SetLoopFinish records the time the event queue emptied.
func (c *Collector) SetLoopFinish(t float64) {
	c.FinishTime = t
	c.hasFinish = true
}

// RegisterWorkflow creates the Stats entry for a newly submitted workflow.
func (c *Collector) RegisterWorkflow(workflowID string, deadline, budget *float64) *Stats {
	s := newStats(workflowID, deadline, budget)
	c.Workflows[workflowID] = s
	return s
}

// Workflow looks up a workflow's Stats, or nil if unregistered.
func (c *Collector) Workflow(workflowID string) *Stats {
	return c.Workflows[workflowID]
}

// SetWorkflowStart records a workflow's first dispatch time.
func (c *Collector) SetWorkflowStart(workflowID string, t float64) {
	if s, ok := c.Workflows[workflowID]; ok && !s.hasStart {
		s.StartTime = t
		s.hasStart = true
	}
}

// SetWorkflowFinish records a workflow's completion time.
func (c *Collector) SetWorkflowFinish(workflowID string, t float64) {
	if s, ok := c.Workflows[workflowID]; ok {
		s.FinishTime = t
		s.hasFinish = true
	}
}

// AddWorkflowsTotalTasks increments the global task count when a
// workflow is submitted.
func (c *Collector) AddWorkflowsTotalTasks(n int) { c.WorkflowsTotalTasks += n }

// IncScheduledTasks increments the global scheduled-task count.
func (c *Collector) IncScheduledTasks() { c.ScheduledTasks++ }

// IncFinishedTasks increments the global finished-task count.
func (c *Collector) IncFinishedTasks() { c.FinishedTasks++ }

// RecordVMInitialized attributes a freshly init'd VM to workflowID and
// bumps the global initialized-VM counter.
func (c *Collector) RecordVMInitialized(workflowID string, ref VMRef) {
	c.InitializedVMs++
	if s, ok := c.Workflows[workflowID]; ok {
		s.InitializedVMs = append(s.InitializedVMs, ref)
	}
}

// RecordVMUsed adds ref to both the workflow's and the global used-VM
// sets (idempotent: a VM reused across tasks is recorded once).
func (c *Collector) RecordVMUsed(workflowID string, ref VMRef) {
	c.UsedVMs[ref.UUID] = ref
	if s, ok := c.Workflows[workflowID]; ok {
		s.UsedVMs[ref.UUID] = ref
	}
}

// AddWorkflowCost attributes realized dollar cost to a workflow's stats.
func (c *Collector) AddWorkflowCost(workflowID string, amount float64) {
	if s, ok := c.Workflows[workflowID]; ok {
		s.Cost += amount
	}
}

// AddGlobalCost adds amount to the run-wide cost total — called by the
// VM manager at shutdown_vm/shutdown_vms, per §4.2.
func (c *Collector) AddGlobalCost(amount float64) { c.Cost += amount }

// RecordVMRemoved increments the count of VMs explicitly shut down
// mid-run.
func (c *Collector) RecordVMRemoved() { c.RemovedVMs++ }

// RecordVMLeft increments the count of VMs still idle (and shut down) at
// loop termination.
func (c *Collector) RecordVMLeft() { c.VMsLeft++ }

// EvaluateConstraints computes ConstraintMet/ConstraintOverflow for
// every registered workflow, per §7. Call once, after the event loop
// drains.
func (c *Collector) EvaluateConstraints() {
	for _, s := range c.Workflows {
		switch {
		case s.Deadline != nil:
			span := *s.Deadline - s.StartTime
			s.ConstraintMet = s.FinishTime <= *s.Deadline
			if !s.ConstraintMet && span > 0 {
				s.ConstraintOverflow = (s.FinishTime - *s.Deadline) / span
			}
		case s.Budget != nil:
			s.ConstraintMet = s.Cost <= *s.Budget
			if !s.ConstraintMet && *s.Budget > 0 {
				s.ConstraintOverflow = (s.Cost - *s.Budget) / *s.Budget
			}
		}
		if s.ConstraintMet {
			c.ConstraintsMet++
		}
	}
}
