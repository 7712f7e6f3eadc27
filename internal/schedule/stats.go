package schedule

import (
	"sync"
	"time"

	"github.com/mrz1836/autosync/internal/syncer"
)

// Stats counts runs by outcome. It satisfies syncer.Metrics so the watch
// command can hand it to the syncer and print a tally on exit.
type Stats struct {
	mu        sync.Mutex
	runs      int
	outcomes  map[syncer.Outcome]int
	stepFails map[syncer.Step]int
	total     time.Duration
	last      time.Time
}

var _ syncer.Metrics = (*Stats)(nil)

// NewStats returns an empty counter.
func NewStats() *Stats {
	return &Stats{
		outcomes:  make(map[syncer.Outcome]int),
		stepFails: make(map[syncer.Step]int),
	}
}

// RunStarted implements syncer.Metrics.
func (s *Stats) RunStarted(string) {}

// RunCompleted implements syncer.Metrics.
func (s *Stats) RunCompleted(_ string, duration time.Duration, outcome syncer.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.outcomes[outcome]++
	s.total += duration
	s.last = time.Now()
}

// StepExecuted implements syncer.Metrics.
func (s *Stats) StepExecuted(_ string, step syncer.Step, _ time.Duration, success bool) {
	if success {
		return
	}
	s.mu.Lock()
	s.stepFails[step]++
	s.mu.Unlock()
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Runs         int                    `json:"runs"`
	Outcomes     map[syncer.Outcome]int `json:"outcomes"`
	StepFailures map[syncer.Step]int    `json:"step_failures,omitempty"`
	AvgDuration  time.Duration          `json:"avg_duration"`
	LastRun      time.Time              `json:"last_run,omitzero"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Runs:         s.runs,
		Outcomes:     make(map[syncer.Outcome]int, len(s.outcomes)),
		StepFailures: make(map[syncer.Step]int, len(s.stepFails)),
		LastRun:      s.last,
	}
	for k, v := range s.outcomes {
		snap.Outcomes[k] = v
	}
	for k, v := range s.stepFails {
		snap.StepFailures[k] = v
	}
	if s.runs > 0 {
		snap.AvgDuration = s.total / time.Duration(s.runs)
	}
	return snap
}

// Successes returns how many runs ended in a success outcome.
func (snap Snapshot) Successes() int {
	n := 0
	for outcome, count := range snap.Outcomes {
		if outcome.Success() {
			n += count
		}
	}
	return n
}
