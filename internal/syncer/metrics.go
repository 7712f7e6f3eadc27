package syncer

import "time"

// Metrics collects run and step timings. The watch command plugs in a
// counter; one-shot runs use NoopMetrics.
type Metrics interface {
	// RunStarted is called when a run begins.
	RunStarted(runID string)

	// RunCompleted is called once per run with its final outcome.
	RunCompleted(runID string, duration time.Duration, outcome Outcome)

	// StepExecuted is called after each step.
	StepExecuted(runID string, step Step, duration time.Duration, success bool)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Metrics interface.
var _ Metrics = (*NoopMetrics)(nil)

// RunStarted implements Metrics.
func (NoopMetrics) RunStarted(string) {}

// RunCompleted implements Metrics.
func (NoopMetrics) RunCompleted(string, time.Duration, Outcome) {}

// StepExecuted implements Metrics.
func (NoopMetrics) StepExecuted(string, Step, time.Duration, bool) {}
