package pipeline

import "time"

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Found       int
	ProbeFailed int
	Compliant   int
	NeedsWork   int
	Planned     int // Dry-run commands logged instead of executed.
	Succeeded   int
	Failed      int

	TotalInputBytes  int64
	TotalOutputBytes int64
	Duration         time.Duration
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}
