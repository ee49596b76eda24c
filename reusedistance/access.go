package reusedistance

// An Access is one line-granular memory reference issued by a PE row.
type Access struct {
	Row  uint64
	Line uint64
}

// A Source materializes an ordered access sequence.
type Source interface {
	// Name identifies the source in records and logs.
	Name() string

	// Load returns the complete sequence in issue order.
	Load() ([]Access, error)
}

// AccessesFromTable converts a two-column table of (row, line) pairs.
func AccessesFromTable(table [][]int64) ([]Access, error) {
	accesses := make([]Access, len(table))

	for i, pair := range table {
		if len(pair) != 2 {
			return nil, NewInputShapeError(
				"row %d has %d columns, want 2", i, len(pair))
		}

		if pair[0] < 0 || pair[1] < 0 {
			return nil, NewInputShapeError(
				"row %d holds negative values (%d, %d)", i, pair[0], pair[1])
		}

		accesses[i] = Access{Row: uint64(pair[0]), Line: uint64(pair[1])}
	}

	return accesses, nil
}

// SliceSource serves an in-memory sequence.
type SliceSource struct {
	SourceName string
	Accesses   []Access
}

// Name returns the name of the source.
func (s SliceSource) Name() string {
	return s.SourceName
}

// Load returns the sequence.
func (s SliceSource) Load() ([]Access, error) {
	return s.Accesses, nil
}
