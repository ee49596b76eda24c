package hooking

import "sync"

// TaskDuration is how long one task ran.
type TaskDuration struct {
	Task     TaskStart
	Duration float64
}

// TaskTimeTracer measures every task on its own. Tasks that overlap are all
// counted in full, so Total can exceed the wall time of a parallel run.
type TaskTimeTracer struct {
	clock  TimeTeller
	filter TaskFilter

	lock     sync.Mutex
	inflight map[string]inflightTask
	total    float64
	count    uint64
	slowest  TaskDuration
}

type inflightTask struct {
	start TaskStart
	at    float64
}

// NewTaskTimeTracer creates a tracer that measures the tasks accepted by
// filter, or every task if filter is nil.
func NewTaskTimeTracer(clock TimeTeller, filter TaskFilter) *TaskTimeTracer {
	return &TaskTimeTracer{
		clock:    clock,
		filter:   filter,
		inflight: make(map[string]inflightTask),
	}
}

// Func dispatches task hooks.
func (t *TaskTimeTracer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		t.StartTask(ctx.Item.(TaskStart))
	case HookPosTaskEnd:
		t.EndTask(ctx.Item.(TaskEnd))
	}
}

// StartTask starts the clock of a task.
func (t *TaskTimeTracer) StartTask(start TaskStart) {
	if t.filter != nil && !t.filter(start) {
		return
	}

	now := t.clock.Now()

	t.lock.Lock()
	t.inflight[start.ID] = inflightTask{start: start, at: now}
	t.lock.Unlock()
}

// EndTask stops the clock of a task. Tasks that were filtered out or never
// started are ignored.
func (t *TaskTimeTracer) EndTask(end TaskEnd) {
	now := t.clock.Now()

	t.lock.Lock()
	defer t.lock.Unlock()

	running, ok := t.inflight[end.ID]
	if !ok {
		return
	}

	delete(t.inflight, end.ID)

	d := now - running.at
	t.total += d
	t.count++

	if t.count == 1 || d > t.slowest.Duration {
		t.slowest = TaskDuration{Task: running.start, Duration: d}
	}
}

// Count returns the number of completed tasks.
func (t *TaskTimeTracer) Count() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count
}

// Total returns the summed duration of the completed tasks.
func (t *TaskTimeTracer) Total() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total
}

// Average returns the mean duration of the completed tasks, 0 if none.
func (t *TaskTimeTracer) Average() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.count == 0 {
		return 0
	}

	return t.total / float64(t.count)
}

// Slowest returns the longest completed task. The second value is false if
// no task has completed.
func (t *TaskTimeTracer) Slowest() (TaskDuration, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.slowest, t.count > 0
}
