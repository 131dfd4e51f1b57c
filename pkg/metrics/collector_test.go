package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ConstraintEvaluationDeadline(t *testing.T) {
	c := NewCollector("epsm")
	deadline := 100.0
	c.RegisterWorkflow("wf-1", &deadline, nil)
	c.SetWorkflowStart("wf-1", 0)
	c.SetWorkflowFinish("wf-1", 90)

	c.EvaluateConstraints()

	s := c.Workflow("wf-1")
	require.NotNil(t, s)
	assert.True(t, s.ConstraintMet)
	assert.Equal(t, 1, c.ConstraintsMet)
}

func TestCollector_ConstraintEvaluationDeadlineMissed(t *testing.T) {
	c := NewCollector("epsm")
	deadline := 100.0
	c.RegisterWorkflow("wf-1", &deadline, nil)
	c.SetWorkflowStart("wf-1", 0)
	c.SetWorkflowFinish("wf-1", 150)

	c.EvaluateConstraints()

	s := c.Workflow("wf-1")
	assert.False(t, s.ConstraintMet)
	assert.InDelta(t, 0.5, s.ConstraintOverflow, 1e-9)
}

func TestCollector_ConstraintEvaluationBudget(t *testing.T) {
	c := NewCollector("ebpsm")
	budget := 10.0
	c.RegisterWorkflow("wf-1", nil, &budget)
	c.AddWorkflowCost("wf-1", 12.0)

	c.EvaluateConstraints()

	s := c.Workflow("wf-1")
	assert.False(t, s.ConstraintMet)
	assert.InDelta(t, 0.2, s.ConstraintOverflow, 1e-9)
}

func TestCollector_UsedVMsAreASet(t *testing.T) {
	c := NewCollector("epsm")
	deadline := 100.0
	c.RegisterWorkflow("wf-1", &deadline, nil)

	ref := VMRef{UUID: "vm-1", TypeName: "slow"}
	c.RecordVMUsed("wf-1", ref)
	c.RecordVMUsed("wf-1", ref)

	assert.Len(t, c.Workflow("wf-1").UsedVMs, 1)
	assert.Len(t, c.UsedVMs, 1)
}

func TestCollector_GlobalCostAggregatesAcrossVMs(t *testing.T) {
	c := NewCollector("epsm")
	c.AddGlobalCost(1.0)
	c.AddGlobalCost(2.5)

	assert.Equal(t, 3.5, c.Cost)
}
