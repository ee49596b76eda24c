// Package hooking lets estimators and batch runners publish what they are
// doing to externally registered hooks.
package hooking

// HookPos names a point at which a Hookable publishes records, such as the
// end of an access or the start of a layer task.
type HookPos struct {
	Name string
}

// HookCtx is what a hook receives. Domain is the publisher. Item is the record
// published at Pos, whose type is fixed by the position.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
}

// Hookable is implemented by everything that publishes records to hooks.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// Hook receives published records. Hooks run synchronously on the
// publisher's goroutine.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase implements Hookable. Embedders call InvokeHook to publish.
// Hooks must be registered before the embedder starts publishing.
type HookableBase struct {
	hooks []Hook
}

// NumHooks returns the number of registered hooks. Publishers check it to
// avoid building records nobody reads.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns the registered hooks in registration order.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, registered := range h.hooks {
		if registered == hook {
			panic("hook registered twice")
		}
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook passes ctx to every hook in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
