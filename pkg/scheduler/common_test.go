package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cloudsim/pkg/workflow"
)

// A diamond: 0 -> 1, 0 -> 2, {1,2} -> 3. Task 3 has two parents at the
// same depth, so shortest- and longest-path levels agree here; the
// fan-in case that actually distinguishes them is the chain below.
func TestBFSLevels_Diamond(t *testing.T) {
	tasks := []*workflow.Task{
		{ID: 0},
		{ID: 1, Parents: []int{0}},
		{ID: 2, Parents: []int{0}},
		{ID: 3, Parents: []int{1, 2}},
	}
	wf, err := workflow.New("diamond", "", tasks, workflow.Container{}, 0, floatPtr(1), nil)
	require.NoError(t, err)

	levels := BFSLevels(wf)
	assert.Equal(t, []int{0, 1, 1, 2}, levels)
}

// Task 3 has two parents reachable at different depths: task 2 via a
// three-hop chain (0->1->2), and task 0 directly. Shortest-path BFS
// gives task 3 level 1 (nearest parent, task 0, is at level 0);
// longest-path/critical-depth would wrongly give it level 3 (via task 2
// at level 2).
func TestBFSLevels_FanInTakesNearestParent(t *testing.T) {
	tasks := []*workflow.Task{
		{ID: 0},
		{ID: 1, Parents: []int{0}},
		{ID: 2, Parents: []int{1}},
		{ID: 3, Parents: []int{0, 2}},
	}
	wf, err := workflow.New("fanin", "", tasks, workflow.Container{}, 0, floatPtr(1), nil)
	require.NoError(t, err)

	levels := BFSLevels(wf)
	assert.Equal(t, []int{0, 1, 2, 1}, levels)
}

func floatPtr(f float64) *float64 { return &f }
