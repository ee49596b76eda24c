// Package reusedistance estimates the behavior of an accelerator's on-chip
// buffer from a line-granular access trace.
//
// Rather than simulating tags and replacement, the Engine computes the
// temporal reuse distance and the cross-row interference of every access and
// maps them to a hit probability with a logistic curve centered at the buffer
// capacity. The probabilities are aggregated into an expected hit rate, miss
// count, DRAM transfer cycles, and average memory access time.
package reusedistance

import (
	"github.com/azaharalam/PPT-TPU-MEM/hooking"
)

// Engine runs estimations. All state of a run is created by Compute and
// dropped when it returns, so an Engine may serve concurrent runs. Hooks must
// be registered before the first run.
type Engine struct {
	hooking.HookableBase

	config   Config
	model    HitModel
	strategy Strategy
}

// Config returns the configuration of the engine.
func (e *Engine) Config() Config {
	return e.config
}

// Model returns the hit-probability model of the engine.
func (e *Engine) Model() HitModel {
	return e.model
}

// Compute estimates the memory behavior of an access sequence.
func (e *Engine) Compute(accesses []Access) Summary {
	return e.run("", accesses)
}

// ComputeTable validates a two-column (row, line) table and estimates it.
func (e *Engine) ComputeTable(table [][]int64) (Summary, error) {
	accesses, err := AccessesFromTable(table)
	if err != nil {
		return Summary{}, err
	}

	return e.run("", accesses), nil
}

// ComputeFrom loads the sequence from src and estimates it. Load failures
// that are not shape errors are reported as input I/O errors.
func (e *Engine) ComputeFrom(src Source) (Summary, error) {
	accesses, err := src.Load()
	if err != nil {
		if IsInputShapeError(err) || IsInputIOError(err) {
			return Summary{}, err
		}

		return Summary{}, NewInputIOError(err, "loading %s", src.Name())
	}

	return e.run(src.Name(), accesses), nil
}

func (e *Engine) run(name string, accesses []Access) Summary {
	stack := NewStackDistanceTracker(e.strategy, len(accesses))
	spatial := NewSpatialTracker(len(accesses))
	agg := NewAggregator(e.config)
	traced := e.NumHooks() > 0

	for i, a := range accesses {
		temporal := stack.Access(a.Line)
		dist := spatial.Access(a.Row, a.Line)
		pHit := e.model.HitProbability(temporal, dist)

		agg.Add(temporal, pHit)

		if traced {
			e.publishAccess(name, i, a, temporal, dist, pHit)
		}
	}

	summary := agg.Summary()

	if traced {
		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    HookPosSummary,
			Item:   SummaryRecord{Run: name, Summary: summary},
		})
	}

	return summary
}

func (e *Engine) publishAccess(
	name string,
	index int,
	a Access,
	temporal, spatial uint64,
	pHit float64,
) {
	rdEff, _ := e.model.EffectiveDistance(temporal, spatial)

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosAccess,
		Item: AccessRecord{
			Run:               name,
			Index:             index,
			Row:               a.Row,
			Line:              a.Line,
			Temporal:          temporal,
			Spatial:           spatial,
			EffectiveDistance: rdEff,
			HitProbability:    pHit,
		},
	})
}
