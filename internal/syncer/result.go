package syncer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mrz1836/autosync/internal/git"
)

// Outcome is the structured result of one run.
type Outcome string

const (
	// OutcomeNoOp means nothing was committed and the remote was already up to date.
	OutcomeNoOp Outcome = "no_op"

	// OutcomePushed means nothing was committed but existing local commits were pushed.
	OutcomePushed Outcome = "pushed"

	// OutcomeCommittedAndPushed means a new commit was created and pushed.
	OutcomeCommittedAndPushed Outcome = "committed_and_pushed"

	// OutcomeCommittedOnly means a new commit was created but the push failed.
	OutcomeCommittedOnly Outcome = "committed_only"

	// OutcomePushRejected means the remote refused a non-fast-forward update.
	OutcomePushRejected Outcome = "push_rejected"

	// OutcomeAbortedConflict means a rebase stopped on conflicts and is left in progress.
	OutcomeAbortedConflict Outcome = "aborted_conflict"

	// OutcomeFailed means a step failed before anything could be pushed.
	OutcomeFailed Outcome = "failed"
)

// String returns the outcome name.
func (o Outcome) String() string {
	return string(o)
}

// Success reports whether the remote now holds everything that was committed.
func (o Outcome) Success() bool {
	switch o {
	case OutcomeNoOp, OutcomePushed, OutcomeCommittedAndPushed:
		return true
	case OutcomeCommittedOnly, OutcomePushRejected, OutcomeAbortedConflict, OutcomeFailed:
		return false
	}
	return false
}

// Step names a stage of the procedure.
type Step string

// Steps in execution order.
const (
	StepLock      Step = "lock"
	StepPreflight Step = "preflight"
	StepRemote    Step = "remote"
	StepBranch    Step = "branch"
	StepRebase    Step = "rebase"
	StepStage     Step = "stage"
	StepCommit    Step = "commit"
	StepPush      Step = "push"
)

// StepRecord is the timing and error of one executed step.
type StepRecord struct {
	Step       Step   `json:"step"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Result describes one run.
type Result struct {
	RunID   string  `json:"run_id"`
	Outcome Outcome `json:"outcome"`
	WorkDir string  `json:"work_dir"`
	Remote  string  `json:"remote"`

	// Branch is the branch that was committed on and pushed.
	Branch string `json:"branch,omitempty"`
	// BranchFallback is set when HEAD was detached and DefaultBranch was used.
	BranchFallback bool `json:"branch_fallback,omitempty"`

	RemoteURLChanged bool `json:"remote_url_changed,omitempty"`

	// RebaseOnto is the remote-tracking ref the run rebased (or tried to rebase) onto.
	RebaseOnto string `json:"rebase_onto,omitempty"`
	// RebasedAfterReject is set when the rebase policy replayed a rejected push.
	RebasedAfterReject bool `json:"rebased_after_reject,omitempty"`

	Committed bool   `json:"committed"`
	CommitSHA string `json:"commit_sha,omitempty"`
	Message   string `json:"message,omitempty"`

	// Head is the local commit that was pushed.
	Head         string          `json:"head,omitempty"`
	PushSkipped  bool            `json:"push_skipped,omitempty"`
	Push         *git.PushReport `json:"push,omitempty"`
	PushAttempts int             `json:"push_attempts,omitempty"`

	// Ahead is how many local commits the remote is missing after the run,
	// -1 when unknown.
	Ahead int `json:"ahead"`

	Steps      []StepRecord `json:"steps"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`

	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// MarshalJSON adds the duration in milliseconds.
func (r *Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		*alias
		DurationMs int64 `json:"duration_ms"`
	}{alias: (*alias)(r), DurationMs: r.Duration().Milliseconds()})
}

// Summary is the single human-readable line describing the run, stamped
// with the finish time in layout.
func (r *Result) Summary(layout string) string {
	ts := r.FinishedAt.Format(layout)
	target := r.Remote + "/" + r.Branch

	switch r.Outcome {
	case OutcomeNoOp:
		if r.PushSkipped {
			return fmt.Sprintf("Auto-sync complete at %s: nothing to commit on unborn branch %s", ts, r.Branch)
		}
		return fmt.Sprintf("Auto-sync complete at %s: nothing to commit, %s up to date", ts, target)
	case OutcomePushed:
		return fmt.Sprintf("Auto-sync complete at %s: pushed existing commits to %s", ts, target)
	case OutcomeCommittedAndPushed:
		return fmt.Sprintf("Auto-sync complete at %s: committed %s and pushed to %s", ts, shortSHA(r.CommitSHA), target)
	case OutcomeCommittedOnly:
		return fmt.Sprintf("Auto-sync at %s: committed %s but push to %s failed: %s", ts, shortSHA(r.CommitSHA), target, r.Error)
	case OutcomePushRejected:
		return fmt.Sprintf("Auto-sync at %s: push to %s rejected, remote has commits this checkout lacks", ts, target)
	case OutcomeAbortedConflict:
		if r.RebaseOnto == "" {
			return fmt.Sprintf("Auto-sync stopped at %s: a rebase or merge is unfinished; resolve it manually (git status), then run again", ts)
		}
		return fmt.Sprintf("Auto-sync stopped at %s: rebase onto %s hit conflicts; resolve them manually (git status), then run again", ts, r.RebaseOnto)
	case OutcomeFailed:
		return fmt.Sprintf("Auto-sync failed at %s: %s", ts, r.Error)
	}
	return fmt.Sprintf("Auto-sync finished at %s: %s", ts, r.Outcome)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
