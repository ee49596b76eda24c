package datarecording

import (
	"context"

	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
	"github.com/cockroachdb/errors"
)

// Tables written by the estimation layers.
const (
	SummaryTable   = "summary"
	HistogramTable = "histogram"
	AccessTable    = "access_trace"
)

// SummaryEntry is the outcome of estimating one layer.
type SummaryEntry struct {
	Run           string
	Layer         string
	TotalAccesses int
	HitRate       float64
	ExpectedHits  float64
	MissCount     float64
	BWCycles      uint64
	AMAT          float64
	MeanDistance  float64
	P50Distance   float64
	P90Distance   float64
	ColdAccesses  uint64
}

// HistogramEntry is one non-empty temporal distance bucket of a layer.
type HistogramEntry struct {
	Run      string
	Layer    string
	Distance int
	Count    uint64
}

// AccessEntry is how one access of a layer was scored.
type AccessEntry struct {
	Run               string
	Layer             string
	Index             int
	Row               uint64
	Line              uint64
	Temporal          uint64
	Spatial           uint64
	EffectiveDistance float64
	HitProbability    float64
}

// NewSummaryEntry condenses a Summary into a row.
func NewSummaryEntry(run, layer string, s reusedistance.Summary) SummaryEntry {
	p50, _ := s.Histogram.Quantile(0.5)
	p90, _ := s.Histogram.Quantile(0.9)

	return SummaryEntry{
		Run:           run,
		Layer:         layer,
		TotalAccesses: s.TotalAccesses,
		HitRate:       s.HitRate,
		ExpectedHits:  s.ExpectedHits,
		MissCount:     s.MissCount,
		BWCycles:      s.BWCycles,
		AMAT:          s.AMAT,
		MeanDistance:  s.Histogram.MeanFinite(),
		P50Distance:   p50,
		P90Distance:   p90,
		ColdAccesses:  s.Histogram.Cold(),
	}
}

// RecordSummary writes the summary and the non-empty histogram buckets of a
// layer, creating the tables if needed.
func RecordSummary(
	rec DataRecorder,
	run, layer string,
	s reusedistance.Summary,
) {
	rec.CreateTable(SummaryTable, SummaryEntry{})
	rec.CreateTable(HistogramTable, HistogramEntry{})

	rec.InsertData(SummaryTable, NewSummaryEntry(run, layer, s))

	s.Histogram.ForEachNonZero(func(distance int, count uint64) {
		rec.InsertData(HistogramTable, HistogramEntry{
			Run:      run,
			Layer:    layer,
			Distance: distance,
			Count:    count,
		})
	})
}

// ReadSummaries returns the summaries stored in a database, ordered by run
// and layer. A database without summaries yields no entries.
func ReadSummaries(ctx context.Context, r DataReader) ([]SummaryEntry, error) {
	exists, err := r.HasTable(ctx, SummaryTable)
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}

	if !exists {
		return nil, nil
	}

	r.MapTable(SummaryTable, SummaryEntry{})

	results, _, err := r.Query(ctx, SummaryTable, QueryParams{
		OrderBy: "Run ASC, Layer ASC",
	})
	if err != nil {
		return nil, err
	}

	entries := make([]SummaryEntry, 0, len(results))
	for _, res := range results {
		entries = append(entries, *res.(*SummaryEntry))
	}

	return entries, nil
}

// ReadHistogram returns the stored buckets of one layer of one run in
// increasing distance.
func ReadHistogram(
	ctx context.Context,
	r DataReader,
	run, layer string,
) ([]HistogramEntry, error) {
	r.MapTable(HistogramTable, HistogramEntry{})

	results, _, err := r.Query(ctx, HistogramTable, QueryParams{
		Where:   "Run = ? AND Layer = ?",
		Args:    []any{run, layer},
		OrderBy: "Distance ASC",
	})
	if err != nil {
		return nil, err
	}

	entries := make([]HistogramEntry, 0, len(results))
	for _, res := range results {
		entries = append(entries, *res.(*HistogramEntry))
	}

	return entries, nil
}
