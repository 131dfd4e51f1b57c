package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_OrdersByStartTime(t *testing.T) {
	q := NewQueue()
	q.Enqueue(NewManageResources(30))
	q.Enqueue(NewManageResources(10))
	q.Enqueue(NewManageResources(20))

	require.Equal(t, 3, q.Len())
	assert.Equal(t, 10.0, q.Dequeue().StartTime)
	assert.Equal(t, 20.0, q.Dequeue().StartTime)
	assert.Equal(t, 30.0, q.Dequeue().StartTime)
	assert.Nil(t, q.Dequeue())
}

func TestQueue_TiesBreakFIFO(t *testing.T) {
	q := NewQueue()
	first := NewScheduleTask(5, "wf", 0)
	second := NewScheduleTask(5, "wf", 1)
	third := NewScheduleTask(5, "wf", 2)

	q.Enqueue(first)
	q.Enqueue(second)
	q.Enqueue(third)

	assert.Equal(t, 0, q.Dequeue().TaskID)
	assert.Equal(t, 1, q.Dequeue().TaskID)
	assert.Equal(t, 2, q.Dequeue().TaskID)
}

func TestQueue_PeekDoesNotRemove(t *testing.T) {
	q := NewQueue()
	q.Enqueue(NewManageResources(1))

	assert.Equal(t, 1.0, q.Peek().StartTime)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 1.0, q.Dequeue().StartTime)
	assert.Nil(t, q.Peek())
}
