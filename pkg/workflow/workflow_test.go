package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamondTasks() []*Task {
	return []*Task{
		{ID: 0, Name: "a", RuntimeS: 10},
		{ID: 1, Name: "b", Parents: []int{0}, RuntimeS: 10},
		{ID: 2, Name: "c", Parents: []int{0}, RuntimeS: 10},
		{ID: 3, Name: "d", Parents: []int{1, 2}, RuntimeS: 10},
	}
}

func TestNew_RequiresExactlyOneConstraint(t *testing.T) {
	deadline := 100.0
	budget := 10.0

	tests := []struct {
		name     string
		deadline *float64
		budget   *float64
		wantErr  bool
	}{
		{"neither set", nil, nil, true},
		{"both set", &deadline, &budget, true},
		{"deadline only", &deadline, nil, false},
		{"budget only", nil, &budget, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("wf", "", diamondTasks(), Container{}, 0, tt.deadline, tt.budget)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_RejectsOutOfOrderParent(t *testing.T) {
	tasks := []*Task{
		{ID: 0, Name: "a", Parents: []int{1}},
		{ID: 1, Name: "b"},
	}
	deadline := 100.0
	_, err := New("wf", "", tasks, Container{}, 0, &deadline, nil)
	assert.Error(t, err)
}

func TestWorkflow_RootsAndChildren(t *testing.T) {
	deadline := 1000.0
	wf, err := New("diamond", "", diamondTasks(), Container{}, 0, &deadline, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, wf.RootTasks())
	assert.ElementsMatch(t, []int{1, 2}, wf.Children(0))
	assert.ElementsMatch(t, []int{3}, wf.Children(1))
}

func TestWorkflow_ReadyChildrenRequiresAllParentsFinished(t *testing.T) {
	deadline := 1000.0
	wf, err := New("diamond", "", diamondTasks(), Container{}, 0, &deadline, nil)
	require.NoError(t, err)

	wf.MarkTaskScheduled(0, 0)
	wf.Tasks[0].MarkFinished(10)

	assert.ElementsMatch(t, []int{1, 2}, wf.ReadyChildren(0))
	assert.Empty(t, wf.ReadyChildren(1), "d requires both b and c finished")

	wf.MarkTaskScheduled(1, 10)
	wf.Tasks[1].MarkFinished(20)
	assert.Empty(t, wf.ReadyChildren(1), "c has not finished yet")

	wf.MarkTaskScheduled(2, 10)
	wf.Tasks[2].MarkFinished(25)
	assert.ElementsMatch(t, []int{3}, wf.ReadyChildren(2))
}

func TestWorkflow_UnscheduledShrinksMonotonically(t *testing.T) {
	deadline := 1000.0
	wf, err := New("diamond", "", diamondTasks(), Container{}, 0, &deadline, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, wf.UnscheduledCount())
	wf.MarkTaskScheduled(0, 0)
	assert.Equal(t, 3, wf.UnscheduledCount())
	assert.NotContains(t, wf.UnscheduledIDs(), 0)
}

func TestTask_StateMachineViolationPanics(t *testing.T) {
	task := &Task{ID: 0}
	assert.Panics(t, func() { task.MarkFinished(1) }, "cannot finish a CREATED task")
}

func TestFile_SizeMegabits(t *testing.T) {
	f := File{Name: "in.dat", SizeKB: 250}
	assert.InDelta(t, 2.0, f.SizeMegabits(), 1e-9)
}
