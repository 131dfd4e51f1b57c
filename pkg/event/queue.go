package event

import "container/heap"

// Queue is a min-heap of *Event ordered by (StartTime, insertion_seq).
// The insertion counter is what makes equal-timestamp dispatch
// deterministic and reproducible across platforms (§9). Queue
// implements container/heap.Interface; use Enqueue/Dequeue/Peek rather
// than the heap package directly.
type Queue struct {
	items   []*Event
	nextSeq uint64
}

// NewQueue returns an empty, ready-to-use queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue assigns the next insertion sequence number to e and pushes it.
func (q *Queue) Enqueue(e *Event) {
	e.seq = q.nextSeq
	q.nextSeq++
	heap.Push(q, e)
}

// Dequeue removes and returns the earliest event, or nil if the queue is empty.
func (q *Queue) Dequeue() *Event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*Event)
}

// Peek returns the earliest event without removing it, or nil if empty.
func (q *Queue) Peek() *Event {
	if q.Len() == 0 {
		return nil
	}
	return q.items[0]
}

// Len, Less, Swap, Push and Pop implement container/heap.Interface.

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	return a.seq < b.seq
}

func (q *Queue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *Queue) Push(x interface{}) { q.items = append(q.items, x.(*Event)) }

func (q *Queue) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}
