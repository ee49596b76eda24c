package reusedistance

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Histogram counts accesses by temporal distance. Index DMax holds cold and
// saturated accesses.
type Histogram []uint64

// NewHistogram creates an all-zero histogram of DMax+1 buckets.
func NewHistogram() Histogram {
	return make(Histogram, DMax+1)
}

// Total returns the number of accesses counted.
func (h Histogram) Total() uint64 {
	var total uint64
	for _, c := range h {
		total += c
	}

	return total
}

// Cold returns the number of cold or saturated accesses.
func (h Histogram) Cold() uint64 {
	if len(h) <= DMax {
		return 0
	}

	return h[DMax]
}

// ForEachNonZero calls f for every non-empty bucket in increasing distance.
func (h Histogram) ForEachNonZero(f func(distance int, count uint64)) {
	for d, c := range h {
		if c != 0 {
			f(d, c)
		}
	}
}

// finite returns the non-empty finite buckets as sorted values with weights.
func (h Histogram) finite() (distances, weights []float64) {
	h.ForEachNonZero(func(d int, c uint64) {
		if d >= DMax {
			return
		}

		distances = append(distances, float64(d))
		weights = append(weights, float64(c))
	})

	return distances, weights
}

// MeanFinite returns the mean temporal distance of reuses that are not
// saturated. It is 0 if there are none.
func (h Histogram) MeanFinite() float64 {
	distances, weights := h.finite()
	if len(distances) == 0 {
		return 0
	}

	return stat.Mean(distances, weights)
}

// Quantile returns the p-quantile of the non-saturated temporal distances.
// The second return value is false if there are none.
func (h Histogram) Quantile(p float64) (float64, bool) {
	distances, weights := h.finite()
	if len(distances) == 0 {
		return 0, false
	}

	return stat.Quantile(p, stat.Empirical, distances, weights), true
}

// Summary is the outcome of one estimation run. It is not modified after it
// is returned.
type Summary struct {
	TotalAccesses int
	HitRate       float64
	MissCount     float64
	ExpectedHits  float64
	BWCycles      uint64
	AMAT          float64
	Histogram     Histogram
}

// Aggregator accumulates per-access hit probabilities and distances.
type Aggregator struct {
	histogram  Histogram
	n          int
	sumHit     float64
	sumMiss    float64
	lineSize   float64
	busWidth   float64
	tSRAM      float64
	tDRAM      float64
	summarized bool
}

// NewAggregator creates an empty aggregator for the hardware described by c.
func NewAggregator(c Config) *Aggregator {
	return &Aggregator{
		histogram: NewHistogram(),
		lineSize:  float64(c.LineSize),
		busWidth:  c.BusWidth(),
		tSRAM:     c.TSRAM,
		tDRAM:     c.TDRAM,
	}
}

// Add accounts for one access.
func (a *Aggregator) Add(temporal uint64, pHit float64) {
	if a.summarized {
		panic("aggregator already summarized")
	}

	if temporal > DMax {
		temporal = DMax
	}

	a.histogram[temporal]++
	a.n++
	a.sumHit += pHit
	a.sumMiss += 1 - pHit
}

// Summary derives the final record. The aggregator hands over its histogram
// and must not be used afterwards.
func (a *Aggregator) Summary() Summary {
	a.summarized = true

	s := Summary{
		TotalAccesses: a.n,
		Histogram:     a.histogram,
	}

	if a.n == 0 {
		return s
	}

	n := float64(a.n)
	bytesToDRAM := a.sumMiss * a.lineSize
	transferCycles := bytesToDRAM / a.busWidth

	s.ExpectedHits = a.sumHit
	s.HitRate = a.sumHit / n
	s.MissCount = a.sumMiss
	s.BWCycles = uint64(math.Ceil(transferCycles))
	s.AMAT = s.HitRate*a.tSRAM + (1-s.HitRate)*a.tDRAM + transferCycles/n

	return s
}
