// Package tracing provides hooks that export how every access of an
// estimation run was scored.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/azaharalam/PPT-TPU-MEM/hooking"
	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
)

// AccessTracer receives the records that an engine publishes.
type AccessTracer interface {
	// TraceAccess is called after every access, in access order.
	TraceAccess(rec reusedistance.AccessRecord)

	// EndRun is called once the run has been summarized.
	EndRun(rec reusedistance.SummaryRecord)
}

// CollectAccesses lets the tracer receive the records of every run of the
// engine. It panics if the tracer is already attached.
func CollectAccesses(domain hooking.Hookable, tracer AccessTracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*accessHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf("engine already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&accessHook{t: tracer})
}

// An accessHook forwards engine records to a tracer.
type accessHook struct {
	t AccessTracer
}

// Func calls the tracer interfaces when the hook is triggered
func (h *accessHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case reusedistance.HookPosAccess:
		h.t.TraceAccess(ctx.Item.(reusedistance.AccessRecord))
	case reusedistance.HookPosSummary:
		h.t.EndRun(ctx.Item.(reusedistance.SummaryRecord))
	}
}

// sampled tells if the access at index is kept when keeping one access out
// of every.
func sampled(index, every int) bool {
	return every <= 1 || index%every == 0
}
