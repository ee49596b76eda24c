package trace

import "container/heap"

// Merge combines streams that are each ordered by cycle into one stream
// ordered by cycle. Events with the same cycle keep the order of their
// streams, and within a stream their original order.
func Merge(streams ...[]Event) []Event {
	total := 0
	q := make(cursorHeap, 0, len(streams))

	for i, s := range streams {
		total += len(s)

		if len(s) > 0 {
			q = append(q, &cursor{stream: i, events: s})
		}
	}

	heap.Init(&q)

	merged := make([]Event, 0, total)
	for q.Len() > 0 {
		c := q[0]
		merged = append(merged, c.events[c.pos])
		c.pos++

		if c.pos == len(c.events) {
			heap.Pop(&q)
		} else {
			heap.Fix(&q, 0)
		}
	}

	return merged
}

type cursor struct {
	stream int
	events []Event
	pos    int
}

func (c *cursor) cycle() int64 {
	return c.events[c.pos].Cycle
}

type cursorHeap []*cursor

// Len returns the number of streams that still have events
func (h cursorHeap) Len() int {
	return len(h)
}

// Less orders streams by their next cycle, breaking ties by stream order.
func (h cursorHeap) Less(i, j int) bool {
	if h[i].cycle() != h[j].cycle() {
		return h[i].cycle() < h[j].cycle()
	}

	return h[i].stream < h[j].stream
}

// Swap changes the position of two streams in the heap
func (h cursorHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

// Push adds a stream into the heap
func (h *cursorHeap) Push(x interface{}) {
	*h = append(*h, x.(*cursor))
}

// Pop removes and returns the last stream of the heap
func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[0 : n-1]

	return c
}
