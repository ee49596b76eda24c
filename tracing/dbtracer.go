package tracing

import (
	"github.com/azaharalam/PPT-TPU-MEM/datarecording"
	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
)

// DBAccessTracer stores access records into a data recorder. It is safe to
// share among engines that run concurrently, as long as the recorder is.
type DBAccessTracer struct {
	backend datarecording.DataRecorder
	run     string
	every   int
}

// NewDBAccessTracer creates a tracer that keeps one access out of every
// (all accesses if every is 1 or less) and labels the rows with run.
func NewDBAccessTracer(
	backend datarecording.DataRecorder,
	run string,
	every int,
) *DBAccessTracer {
	backend.CreateTable(datarecording.AccessTable, datarecording.AccessEntry{})

	return &DBAccessTracer{
		backend: backend,
		run:     run,
		every:   every,
	}
}

// TraceAccess buffers a sampled access.
func (t *DBAccessTracer) TraceAccess(rec reusedistance.AccessRecord) {
	if !sampled(rec.Index, t.every) {
		return
	}

	t.backend.InsertData(datarecording.AccessTable, datarecording.AccessEntry{
		Run:               t.run,
		Layer:             rec.Run,
		Index:             rec.Index,
		Row:               rec.Row,
		Line:              rec.Line,
		Temporal:          rec.Temporal,
		Spatial:           rec.Spatial,
		EffectiveDistance: rec.EffectiveDistance,
		HitProbability:    rec.HitProbability,
	})
}

// EndRun does nothing. The recorder flushes in batches.
func (t *DBAccessTracer) EndRun(_ reusedistance.SummaryRecord) {
}
