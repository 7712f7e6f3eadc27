package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/autosync/internal/syncer"
)

func TestStats(t *testing.T) {
	s := NewStats()

	s.RunStarted("a")
	s.StepExecuted("a", syncer.StepPush, time.Millisecond, false)
	s.StepExecuted("a", syncer.StepStage, time.Millisecond, true)
	s.RunCompleted("a", 30*time.Millisecond, syncer.OutcomeCommittedOnly)

	s.RunStarted("b")
	s.RunCompleted("b", 10*time.Millisecond, syncer.OutcomeCommittedAndPushed)

	s.RunStarted("c")
	s.RunCompleted("c", 20*time.Millisecond, syncer.OutcomeNoOp)

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Runs)
	assert.Equal(t, 2, snap.Successes())
	assert.Equal(t, 1, snap.Outcomes[syncer.OutcomeCommittedOnly])
	assert.Equal(t, map[syncer.Step]int{syncer.StepPush: 1}, snap.StepFailures)
	assert.Equal(t, 20*time.Millisecond, snap.AvgDuration)
	assert.False(t, snap.LastRun.IsZero())

	// snapshot is a copy
	snap.Outcomes[syncer.OutcomeNoOp] = 99
	assert.Equal(t, 1, s.Snapshot().Outcomes[syncer.OutcomeNoOp])
}

func TestStats_Empty(t *testing.T) {
	snap := NewStats().Snapshot()
	assert.Zero(t, snap.Runs)
	assert.Zero(t, snap.AvgDuration)
	assert.Zero(t, snap.Successes())
	assert.True(t, snap.LastRun.IsZero())
}
