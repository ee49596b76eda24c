package reusedistance

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Strategy selects how a StackDistanceTracker finds the depth of an address
// in the recency order. All strategies report identical distances.
type Strategy int

// Supported strategies.
const (
	// StrategyOrderStatistics counts more recent addresses with a Fenwick tree
	// over access timestamps in O(log N).
	StrategyOrderStatistics Strategy = iota

	// StrategyLinearScan walks the recency list from the most recent address.
	StrategyLinearScan
)

func (s Strategy) String() string {
	switch s {
	case StrategyOrderStatistics:
		return "order-statistics"
	case StrategyLinearScan:
		return "linear-scan"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts a strategy name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "order-statistics", "fenwick", "":
		return StrategyOrderStatistics, nil
	case "linear-scan", "linear":
		return StrategyLinearScan, nil
	default:
		return 0, errors.Newf("unknown strategy %q", name)
	}
}

const nilNode = int32(-1)

// StackDistanceTracker maintains the recency order of line addresses and
// reports the temporal reuse distance of each access.
//
// Addresses are mapped to dense node ids on first sight. The recency order is
// a doubly linked list over those ids, so moving an address to the front is
// O(1) once its id is known.
type StackDistanceTracker struct {
	strategy Strategy

	ids      map[uint64]int32
	lines    []uint64
	prev     []int32
	next     []int32
	lastTime []int
	head     int32

	now      int
	accesses *timeline
}

// NewStackDistanceTracker creates an empty tracker. The expected number of
// accesses is only a sizing hint.
func NewStackDistanceTracker(
	strategy Strategy,
	expectedAccesses int,
) *StackDistanceTracker {
	t := &StackDistanceTracker{
		strategy: strategy,
		ids:      make(map[uint64]int32),
		head:     nilNode,
	}

	if strategy == StrategyOrderStatistics {
		t.accesses = newTimeline(expectedAccesses)
	}

	return t
}

// Len returns the number of distinct addresses seen.
func (t *StackDistanceTracker) Len() int {
	return len(t.lines)
}

// Access returns the temporal distance of addr and moves it to the front of
// the recency order. A cold reference returns DMax.
func (t *StackDistanceTracker) Access(addr uint64) uint64 {
	now := t.now
	t.now++

	id, found := t.lookup(addr)
	if !found {
		id = t.insert(addr, now)
		t.pushFront(id)

		return DMax
	}

	depth := t.depth(id)

	if t.accesses != nil {
		t.accesses.unmark(t.lastTime[id])
		t.accesses.mark(now)
	}

	t.lastTime[id] = now

	if t.head != id {
		t.detach(id)
		t.pushFront(id)
	}

	if depth >= DMax {
		return DMax
	}

	return uint64(depth)
}

// Order returns the addresses from the most to the least recently accessed.
func (t *StackDistanceTracker) Order() []uint64 {
	order := make([]uint64, 0, len(t.lines))
	for id := t.head; id != nilNode; id = t.next[id] {
		order = append(order, t.lines[id])
	}

	return order
}

func (t *StackDistanceTracker) lookup(addr uint64) (int32, bool) {
	id, ok := t.ids[addr]
	return id, ok
}

func (t *StackDistanceTracker) insert(addr uint64, now int) int32 {
	id := int32(len(t.lines))

	t.ids[addr] = id
	t.lines = append(t.lines, addr)
	t.prev = append(t.prev, nilNode)
	t.next = append(t.next, nilNode)
	t.lastTime = append(t.lastTime, now)

	if t.accesses != nil {
		t.accesses.mark(now)
	}

	return id
}

// depth counts the distinct addresses accessed more recently than id.
func (t *StackDistanceTracker) depth(id int32) int {
	if t.strategy == StrategyOrderStatistics {
		return t.accesses.countAfter(t.lastTime[id])
	}

	depth := 0
	for cur := t.head; cur != id; cur = t.next[cur] {
		depth++
	}

	return depth
}

func (t *StackDistanceTracker) detach(id int32) {
	p, n := t.prev[id], t.next[id]

	if p != nilNode {
		t.next[p] = n
	} else {
		t.head = n
	}

	if n != nilNode {
		t.prev[n] = p
	}

	t.prev[id] = nilNode
	t.next[id] = nilNode
}

func (t *StackDistanceTracker) pushFront(id int32) {
	t.prev[id] = nilNode
	t.next[id] = t.head

	if t.head != nilNode {
		t.prev[t.head] = id
	}

	t.head = id
}
