package trace

import "github.com/azaharalam/PPT-TPU-MEM/reusedistance"

// Interleave groups the line addresses by PE row and emits them round-robin,
// one address per row per round, until every row is drained. Events outside
// the grid's rows and negative lines are dropped.
func Interleave(events []Event, arrayHeight int) []reusedistance.Access {
	buckets := make([][]uint64, arrayHeight)
	total := 0

	for _, e := range events {
		if e.Line < 0 || e.Row < 0 || e.Row >= int64(arrayHeight) {
			continue
		}

		buckets[e.Row] = append(buckets[e.Row], uint64(e.Line))
		total++
	}

	accesses := make([]reusedistance.Access, 0, total)
	for round := 0; len(accesses) < total; round++ {
		for row, lines := range buckets {
			if round < len(lines) {
				accesses = append(accesses, reusedistance.Access{
					Row:  uint64(row),
					Line: lines[round],
				})
			}
		}
	}

	return accesses
}
