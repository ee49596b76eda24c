package reusedistance

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// referenceSpatialDistances keeps one explicit row set per line and fans every
// access out to all other lines.
func referenceSpatialDistances(accesses []Access) []uint64 {
	sets := make(map[uint64]map[uint64]bool)

	distances := make([]uint64, len(accesses))
	for i, a := range accesses {
		if set, ok := sets[a.Line]; ok {
			distances[i] = uint64(len(set))
		}

		sets[a.Line] = map[uint64]bool{a.Row: true}

		for line, set := range sets {
			if line != a.Line {
				set[a.Row] = true
			}
		}
	}

	return distances
}

func randomAccesses(seed int64, n, rows, distinct int) []Access {
	r := rand.New(rand.NewSource(seed))

	accesses := make([]Access, n)
	for i := range accesses {
		accesses[i] = Access{
			Row:  uint64(r.Intn(rows)),
			Line: uint64(r.Intn(distinct)),
		}
	}

	return accesses
}

var _ = Describe("SpatialTracker", func() {
	var t *SpatialTracker

	BeforeEach(func() {
		t = NewSpatialTracker(0)
	})

	It("should report zero for new lines", func() {
		Expect(t.Access(0, 5)).To(Equal(uint64(0)))
		Expect(t.Access(1, 6)).To(Equal(uint64(0)))
	})

	It("should count the rows seen since the last access", func() {
		Expect(t.Access(0, 5)).To(Equal(uint64(0)))
		Expect(t.Access(1, 6)).To(Equal(uint64(0)))
		Expect(t.Access(2, 7)).To(Equal(uint64(0)))
		Expect(t.Access(1, 6)).To(Equal(uint64(2)))
		Expect(t.Access(0, 5)).To(Equal(uint64(3)))
		Expect(t.NumRows()).To(Equal(3))
	})

	It("should count the accessing row after a reset", func() {
		t.Access(4, 1)
		Expect(t.Access(4, 1)).To(Equal(uint64(1)))
	})

	It("should count a row once however often it interleaves", func() {
		t.Access(0, 1)
		t.Access(3, 2)
		t.Access(3, 4)
		t.Access(3, 2)

		Expect(t.Access(0, 1)).To(Equal(uint64(2)))
	})

	It("should agree with explicit interference sets", func() {
		accesses := randomAccesses(7, 3000, 12, 200)
		want := referenceSpatialDistances(accesses)

		got := make([]uint64, len(accesses))
		for i, a := range accesses {
			got[i] = t.Access(a.Row, a.Line)
		}

		Expect(got).To(Equal(want))
	})

	It("should never exceed the number of rows", func() {
		accesses := randomAccesses(8, 2000, 5, 40)

		for _, a := range accesses {
			Expect(t.Access(a.Row, a.Line)).To(BeNumerically("<=", 5))
		}
	})
})
