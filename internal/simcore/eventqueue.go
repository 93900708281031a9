package simcore

import "container/heap"

// EventQueue orders events by time.
type EventQueue interface {
	Push(e Event)
	Pop() Event
	Len() int
	Peek() Event
}

type eventHeap []Event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].Time() < h[j].Time() }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(Event)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// eventQueueImpl is a binary-heap backed EventQueue.
type eventQueueImpl struct {
	events eventHeap
}

// NewEventQueue creates an empty EventQueue.
func NewEventQueue() EventQueue {
	q := &eventQueueImpl{events: make(eventHeap, 0)}
	heap.Init(&q.events)
	return q
}

func (q *eventQueueImpl) Push(e Event) { heap.Push(&q.events, e) }
func (q *eventQueueImpl) Pop() Event   { return heap.Pop(&q.events).(Event) }
func (q *eventQueueImpl) Len() int     { return q.events.Len() }
func (q *eventQueueImpl) Peek() Event  { return q.events[0] }
