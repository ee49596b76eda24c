package tracing

import (
	"log"

	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
)

// LogAccessTracer writes one line per sampled access and one line per run.
type LogAccessTracer struct {
	logger *log.Logger
	every  int
}

// NewLogAccessTracer creates a tracer that writes to logger, keeping one
// access out of every.
func NewLogAccessTracer(logger *log.Logger, every int) *LogAccessTracer {
	return &LogAccessTracer{logger: logger, every: every}
}

// TraceAccess prints a sampled access.
func (t *LogAccessTracer) TraceAccess(rec reusedistance.AccessRecord) {
	if !sampled(rec.Index, t.every) {
		return
	}

	t.logger.Printf("access, %s, %d, %d, %d, %d, %d, %.6f, %.6f\n",
		rec.Run,
		rec.Index,
		rec.Row,
		rec.Line,
		rec.Temporal,
		rec.Spatial,
		rec.EffectiveDistance,
		rec.HitProbability,
	)
}

// EndRun prints the headline numbers of the run.
func (t *LogAccessTracer) EndRun(rec reusedistance.SummaryRecord) {
	s := rec.Summary

	t.logger.Printf("summary, %s, %d, %.6f, %.6f, %d, %.6f\n",
		rec.Run,
		s.TotalAccesses,
		s.HitRate,
		s.MissCount,
		s.BWCycles,
		s.AMAT,
	)
}
