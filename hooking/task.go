package hooking

import "time"

// A list of hook poses for the hooks to apply to
var (
	HookPosTaskStart = &HookPos{Name: "HookPosTaskStart"}
	HookPosTaskEnd   = &HookPos{Name: "HookPosTaskEnd"}
)

// TaskStart is data that is passed to the hook when a task starts.
type TaskStart struct {
	ID    string
	Kind  string
	What  string
	Where string
}

// TaskEnd is data that is passed to the hook when a task ends.
type TaskEnd struct {
	ID string
}

type task struct {
	ID        string
	StartTime float64
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t TaskStart) bool

// A TimeTeller can tell the current time in seconds.
type TimeTeller interface {
	Now() float64
}

// WallClock tells the seconds elapsed since it was created.
type WallClock struct {
	origin time.Time
}

// NewWallClock creates a WallClock that starts counting now.
func NewWallClock() *WallClock {
	return &WallClock{origin: time.Now()}
}

// Now returns the elapsed seconds.
func (c *WallClock) Now() float64 {
	return time.Since(c.origin).Seconds()
}
