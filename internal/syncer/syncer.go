// Package syncer implements the auto-sync procedure: pin the remote URL,
// optionally rebase onto the remote branch, stage everything, commit when
// the index changed, push, and report a single structured outcome.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/autosync/internal/clock"
	"github.com/mrz1836/autosync/internal/config"
	"github.com/mrz1836/autosync/internal/ctxutil"
	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/flock"
	"github.com/mrz1836/autosync/internal/git"
	"github.com/mrz1836/autosync/internal/logging"
)

// InspectFunc reads the repository state without running git. It matches git.Inspect.
type InspectFunc func(path, remote string) (*git.Snapshot, error)

// Syncer runs the procedure against one checkout. A Syncer is safe to reuse
// for consecutive runs; concurrent runs are serialized only when a lock path is set.
type Syncer struct {
	opts     Options
	message  *MessageTemplate
	runner   git.Runner
	pusher   git.PushService
	clock    clock.Clock
	logger   zerolog.Logger
	metrics  Metrics
	out      io.Writer
	diag     io.Writer
	lockPath string
	inspect  InspectFunc
	hostname func() (string, error)
	newRunID func() string
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger for the syncer.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// WithClock sets the clock used for commit messages and the completion line.
func WithClock(c clock.Clock) Option {
	return func(s *Syncer) {
		s.clock = c
	}
}

// WithPusher replaces the default retrying pusher.
func WithPusher(p git.PushService) Option {
	return func(s *Syncer) {
		s.pusher = p
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Syncer) {
		s.metrics = m
	}
}

// WithOutput sets where the completion line is written.
func WithOutput(w io.Writer) Option {
	return func(s *Syncer) {
		s.out = w
	}
}

// WithDiagnostics sets where the conflict diagnostic is written.
func WithDiagnostics(w io.Writer) Option {
	return func(s *Syncer) {
		s.diag = w
	}
}

// WithLockPath serializes runs through an exclusive lock file at path.
func WithLockPath(path string) Option {
	return func(s *Syncer) {
		s.lockPath = path
	}
}

// WithInspector enables the post-run ahead count.
func WithInspector(fn InspectFunc) Option {
	return func(s *Syncer) {
		s.inspect = fn
	}
}

// WithHostname overrides how {{.Host}} is resolved.
func WithHostname(fn func() (string, error)) Option {
	return func(s *Syncer) {
		s.hostname = fn
	}
}

// WithRunIDFunc overrides run ID generation.
func WithRunIDFunc(fn func() string) Option {
	return func(s *Syncer) {
		s.newRunID = fn
	}
}

// New creates a Syncer over runner. Options are defaulted and validated;
// an unusable message template fails here rather than mid-run.
func New(opts Options, runner git.Runner, options ...Option) (*Syncer, error) {
	if runner == nil {
		return nil, fmt.Errorf("git runner cannot be nil: %w", autosyncerrors.ErrEmptyValue)
	}

	s := &Syncer{
		runner:   runner,
		clock:    clock.RealClock{},
		logger:   zerolog.Nop(),
		metrics:  NoopMetrics{},
		out:      io.Discard,
		diag:     io.Discard,
		hostname: os.Hostname,
		newRunID: uuid.NewString,
	}
	for _, opt := range options {
		opt(s)
	}

	s.opts = opts.withDefaults(runner.WorkDir())
	if err := s.opts.validate(); err != nil {
		return nil, err
	}

	msg, err := ParseMessageTemplate(s.opts.MessageTemplate)
	if err != nil {
		return nil, err
	}
	s.message = msg

	if s.pusher == nil {
		s.pusher = git.NewPushRunner(runner, git.WithPushLogger(s.logger))
	}

	return s, nil
}

// Open detects the repository containing workDir and wires a git CLI runner,
// a retrying pusher, the go-git inspector and the run lock from cfg.
func Open(ctx context.Context, workDir string, cfg *config.Config, logger zerolog.Logger, options ...Option) (*Syncer, error) {
	if cfg == nil {
		return nil, autosyncerrors.ErrConfigNil
	}

	info, err := git.DetectRepo(ctx, workDir)
	if err != nil {
		return nil, err
	}

	lockRetry := git.DefaultLockRetryConfig()
	lockRetry.MaxAttempts = cfg.Git.LockRetryAttempts

	runner, err := git.NewRunner(ctx, info.WorktreePath,
		git.WithCommandTimeout(cfg.Git.CommandTimeout),
		git.WithLockRetryConfig(lockRetry),
		git.WithRunnerLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	pusher := git.NewPushRunner(runner,
		git.WithPushLogger(logger),
		git.WithPushRetryConfig(git.RetryConfig{
			MaxAttempts:  cfg.Push.MaxAttempts,
			InitialDelay: cfg.Push.InitialDelay,
			MaxDelay:     cfg.Push.MaxDelay,
			Multiplier:   cfg.Push.Multiplier,
		}),
	)

	base := []Option{
		WithLogger(logger),
		WithPusher(pusher),
		WithInspector(git.Inspect),
		WithLockPath(filepath.Join(info.GitDir, flock.LockFileName)),
	}

	return New(OptionsFromConfig(info.WorktreePath, cfg), runner, append(base, options...)...)
}

// Options returns the effective, defaulted options.
func (s *Syncer) Options() Options {
	return s.opts
}

// Run executes the procedure once. The returned Result is non-nil unless
// ctx was already done. err is nil exactly when Result.Outcome.Success().
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     s.newRunID(),
		Outcome:   OutcomeFailed,
		WorkDir:   s.opts.WorkDir,
		Remote:    s.opts.Remote,
		Ahead:     -1,
		StartedAt: s.clock.Now(),
	}

	logger := s.logger.With().
		Str("run_id", res.RunID).
		Str("work_dir", s.opts.WorkDir).
		Logger()
	ctx = logger.WithContext(ctx)

	s.metrics.RunStarted(res.RunID)
	logger.Debug().
		Str("remote", s.opts.Remote).
		Bool("sync_before_commit", s.opts.SyncBeforeCommit).
		Msg("sync run started")

	err := s.run(ctx, res)

	res.FinishedAt = s.clock.Now()
	if err != nil {
		res.Err = err
		res.Error = err.Error()
	}
	s.measureAhead(ctx, res)
	s.metrics.RunCompleted(res.RunID, res.Duration(), res.Outcome)
	s.report(res)

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.
		Str("outcome", res.Outcome.String()).
		Str("branch", res.Branch).
		Str("commit", res.CommitSHA).
		Int64("duration_ms", res.Duration().Milliseconds()).
		Msg("sync run finished")

	return res, err
}

func (s *Syncer) run(ctx context.Context, res *Result) error {
	var lock *flock.Lock
	if s.lockPath != "" {
		if err := s.step(ctx, res, StepLock, func(context.Context) error {
			var err error
			lock, err = flock.Acquire(s.lockPath)
			return err
		}); err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to release run lock")
			}
		}()
	}

	if err := s.step(ctx, res, StepPreflight, s.preflight); err != nil {
		if errors.Is(err, autosyncerrors.ErrRebaseConflict) {
			res.Outcome = OutcomeAbortedConflict
		}
		return err
	}

	if err := s.step(ctx, res, StepRemote, func(ctx context.Context) error {
		return s.pinRemote(ctx, res)
	}); err != nil {
		return err
	}

	if err := s.step(ctx, res, StepBranch, func(ctx context.Context) error {
		return s.detectBranch(ctx, res)
	}); err != nil {
		return err
	}

	if s.opts.SyncBeforeCommit {
		if err := s.step(ctx, res, StepRebase, func(ctx context.Context) error {
			return s.rebaseOntoRemote(ctx, res)
		}); err != nil {
			if errors.Is(err, autosyncerrors.ErrRebaseConflict) {
				res.Outcome = OutcomeAbortedConflict
			}
			return err
		}
	}

	if err := s.step(ctx, res, StepStage, func(ctx context.Context) error {
		return s.runner.Add(ctx, nil)
	}); err != nil {
		return err
	}

	if err := s.step(ctx, res, StepCommit, func(ctx context.Context) error {
		return s.commit(ctx, res)
	}); err != nil {
		return err
	}

	pushErr := s.step(ctx, res, StepPush, func(ctx context.Context) error {
		return s.push(ctx, res)
	})
	res.Outcome = pushOutcome(res, pushErr)
	return pushErr
}

// step runs fn, logging and timing it as one named stage of the run.
func (s *Syncer) step(ctx context.Context, res *Result, name Step, fn func(context.Context) error) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("step", string(name)).Msg("executing step")

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	record := StepRecord{Step: name, DurationMs: duration.Milliseconds()}
	if err != nil {
		record.Error = err.Error()
		logger.Debug().
			Err(err).
			Str("step", string(name)).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("step failed")
	}
	res.Steps = append(res.Steps, record)
	s.metrics.StepExecuted(res.RunID, name, duration, err == nil)

	return err
}

// preflight refuses to stage on top of a stopped rebase or unresolved merge.
func (s *Syncer) preflight(ctx context.Context) error {
	inProgress, err := s.runner.IsRebaseInProgress(ctx)
	if err != nil {
		return err
	}
	if inProgress {
		return fmt.Errorf("a rebase is already in progress: %w", autosyncerrors.ErrRebaseConflict)
	}
	return s.checkUnmerged(ctx)
}

func (s *Syncer) checkUnmerged(ctx context.Context) error {
	status, err := s.runner.Status(ctx)
	if err != nil {
		return err
	}
	if status.HasConflicts() {
		return fmt.Errorf("%d paths have unresolved conflicts: %w", len(status.Unmerged), autosyncerrors.ErrRebaseConflict)
	}
	return nil
}

func (s *Syncer) pinRemote(ctx context.Context, res *Result) error {
	if s.opts.RemoteURL == "" {
		return nil
	}

	changed, err := s.runner.SetRemoteURL(ctx, s.opts.Remote, s.opts.RemoteURL)
	if err != nil {
		return err
	}
	res.RemoteURLChanged = changed
	if changed {
		zerolog.Ctx(ctx).Info().
			Str("remote", s.opts.Remote).
			Str("url", logging.RedactURL(s.opts.RemoteURL)).
			Msg("remote URL updated")
	}
	return nil
}

func (s *Syncer) detectBranch(ctx context.Context, res *Result) error {
	branch, err := s.runner.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if branch == "" {
		branch = s.opts.DefaultBranch
		res.BranchFallback = true
		zerolog.Ctx(ctx).Warn().
			Str("branch", branch).
			Msg("HEAD is detached, pushing to the default branch")
	}
	res.Branch = branch
	return nil
}

// rebaseOntoRemote fetches and replays local commits onto <remote>/<branch>.
// A missing remote branch (first push) skips the rebase. On conflict the
// rebase is left in progress for the operator.
func (s *Syncer) rebaseOntoRemote(ctx context.Context, res *Result) error {
	if err := s.runner.Fetch(ctx, s.opts.Remote); err != nil {
		return err
	}

	exists, err := s.runner.RemoteBranchExists(ctx, s.opts.Remote, res.Branch)
	if err != nil {
		return err
	}
	if !exists {
		zerolog.Ctx(ctx).Debug().
			Str("remote", s.opts.Remote).
			Str("branch", res.Branch).
			Msg("remote branch does not exist yet, skipping rebase")
		return nil
	}

	res.RebaseOnto = s.opts.Remote + "/" + res.Branch
	if err := s.runner.Rebase(ctx, res.RebaseOnto); err != nil {
		return err
	}

	// --autostash can reapply local edits with conflicts after a clean rebase.
	return s.checkUnmerged(ctx)
}

func (s *Syncer) commit(ctx context.Context, res *Result) error {
	staged, err := s.runner.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		zerolog.Ctx(ctx).Debug().Msg("nothing to commit")
		return nil
	}

	msg, err := s.message.Render(MessageData{
		Timestamp: s.clock.Now().Format(s.opts.TimestampFormat),
		Branch:    res.Branch,
		Host:      s.host(),
	})
	if err != nil {
		return err
	}

	if err := s.runner.Commit(ctx, msg); err != nil {
		return err
	}
	res.Committed = true
	res.Message = msg

	sha, err := s.runner.HeadSHA(ctx)
	if err != nil {
		return err
	}
	res.CommitSHA = sha
	return nil
}

func (s *Syncer) push(ctx context.Context, res *Result) error {
	head, err := s.runner.HeadSHA(ctx)
	if err != nil {
		return err
	}
	if head == "" {
		res.PushSkipped = true
		zerolog.Ctx(ctx).Debug().Str("branch", res.Branch).Msg("branch has no commits, nothing to push")
		return nil
	}
	res.Head = head

	err = s.pushOnce(ctx, res)
	if err == nil || !errors.Is(err, autosyncerrors.ErrPushRejected) || s.opts.OnPushRejected != PushRejectedRebase {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("remote", s.opts.Remote).
		Str("branch", res.Branch).
		Msg("push rejected, rebasing onto remote and retrying once")

	if err := s.rebaseOntoRemote(ctx, res); err != nil {
		return err
	}
	res.RebasedAfterReject = true

	if res.Head, err = s.runner.HeadSHA(ctx); err != nil {
		return err
	}
	if res.Committed {
		res.CommitSHA = res.Head
	}
	return s.pushOnce(ctx, res)
}

func (s *Syncer) pushOnce(ctx context.Context, res *Result) error {
	exists, err := s.runner.RemoteBranchExists(ctx, s.opts.Remote, res.Branch)
	if err != nil {
		return err
	}

	result, err := s.pusher.Push(ctx, git.PushOptions{
		Remote:      s.opts.Remote,
		Branch:      res.Branch,
		SetUpstream: !exists,
	})
	if result != nil {
		res.Push = result.Report
		res.PushAttempts += result.Attempts
	}
	return err
}

// pushOutcome maps the state after the push step to an Outcome.
func pushOutcome(res *Result, err error) Outcome {
	switch {
	case err == nil && res.Committed:
		return OutcomeCommittedAndPushed
	case err == nil && (res.PushSkipped || res.Push.UpToDate()):
		return OutcomeNoOp
	case err == nil:
		return OutcomePushed
	case errors.Is(err, autosyncerrors.ErrRebaseConflict):
		return OutcomeAbortedConflict
	case errors.Is(err, autosyncerrors.ErrPushRejected):
		return OutcomePushRejected
	case res.Committed:
		return OutcomeCommittedOnly
	default:
		return OutcomeFailed
	}
}

func (s *Syncer) host() string {
	if s.hostname == nil {
		return ""
	}
	h, err := s.hostname()
	if err != nil {
		return ""
	}
	return h
}

// measureAhead records how far the remote lags when a run could not push everything.
func (s *Syncer) measureAhead(ctx context.Context, res *Result) {
	if res.Outcome.Success() {
		if !res.PushSkipped {
			res.Ahead = 0
		}
		return
	}
	if s.inspect == nil {
		return
	}
	snap, err := s.inspect(s.opts.WorkDir, s.opts.Remote)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("could not inspect repository after run")
		return
	}
	res.Ahead = snap.Ahead
}

func (s *Syncer) report(res *Result) {
	switch res.Outcome {
	case OutcomeNoOp, OutcomePushed, OutcomeCommittedAndPushed:
		_, _ = fmt.Fprintln(s.out, res.Summary(s.opts.TimestampFormat))
	case OutcomeAbortedConflict:
		_, _ = fmt.Fprintln(s.diag, res.Summary(s.opts.TimestampFormat))
	case OutcomeCommittedOnly, OutcomePushRejected, OutcomeFailed:
		// reported by the caller through the returned error
	}
}
