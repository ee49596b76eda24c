package reusedistance

import "github.com/azaharalam/PPT-TPU-MEM/hooking"

// Hook positions published by an Engine.
var (
	// HookPosAccess is triggered after every access with an AccessRecord.
	HookPosAccess = &hooking.HookPos{Name: "HookPosAccess"}

	// HookPosSummary is triggered at the end of a run with the Summary.
	HookPosSummary = &hooking.HookPos{Name: "HookPosSummary"}
)

// AccessRecord describes how one access was scored.
type AccessRecord struct {
	Run               string
	Index             int
	Row               uint64
	Line              uint64
	Temporal          uint64
	Spatial           uint64
	EffectiveDistance float64
	HitProbability    float64
}

// SummaryRecord carries a finished Summary to hooks.
type SummaryRecord struct {
	Run     string
	Summary Summary
}
