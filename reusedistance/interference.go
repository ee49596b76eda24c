package reusedistance

// SpatialTracker reports, for each access, how many distinct PE rows have
// issued accesses since the accessed line was last touched.
//
// The value equals the size of a per-line interference set that is reset to
// the accessing row on every access to the line and joined with the accessing
// row on every access to any other tracked line. Instead of fanning out to
// every line, the tracker remembers when each line and each row was last seen.
// The rows in a line's set are then exactly the rows last seen at or after the
// line's own last access, which a timeline counts in O(log N).
type SpatialTracker struct {
	lineLast map[uint64]int
	rowLast  map[uint64]int
	rows     *timeline
	now      int
}

// NewSpatialTracker creates an empty tracker. The expected number of accesses
// is only a sizing hint.
func NewSpatialTracker(expectedAccesses int) *SpatialTracker {
	return &SpatialTracker{
		lineLast: make(map[uint64]int),
		rowLast:  make(map[uint64]int),
		rows:     newTimeline(expectedAccesses),
	}
}

// Access returns the spatial distance of addr and records that row accessed
// it.
func (t *SpatialTracker) Access(row, addr uint64) uint64 {
	now := t.now
	t.now++

	var dist uint64

	if last, found := t.lineLast[addr]; found {
		dist = uint64(t.rows.countFrom(last))
	}

	t.lineLast[addr] = now

	if last, found := t.rowLast[row]; found {
		t.rows.unmark(last)
	}

	t.rowLast[row] = now
	t.rows.mark(now)

	return dist
}

// NumRows returns the number of distinct rows seen, the upper bound of any
// spatial distance.
func (t *SpatialTracker) NumRows() int {
	return len(t.rowLast)
}
