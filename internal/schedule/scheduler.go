package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mrz1836/autosync/internal/config"
	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/syncer"
)

// Runner performs one sync run. *syncer.Syncer satisfies it.
type Runner interface {
	Run(ctx context.Context) (*syncer.Result, error)
}

// ResultFunc receives the result of every run the scheduler starts.
type ResultFunc func(result *syncer.Result, err error)

// Trigger names what caused a run.
type Trigger string

// Trigger sources.
const (
	TriggerStart    Trigger = "start"
	TriggerInterval Trigger = "interval"
	TriggerFiles    Trigger = "files"
)

const flightKey = "sync"

// Scheduler runs a Runner repeatedly until its context ends or a run stops
// on a rebase conflict.
type Scheduler struct {
	runner   Runner
	cfg      config.ScheduleConfig
	root     string
	logger   zerolog.Logger
	onResult ResultFunc

	group     singleflight.Group
	started   atomic.Int64
	coalesced atomic.Int64

	// closed once the file watcher covers the tree
	watchReady chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithResultHandler registers fn to be called after each run.
func WithResultHandler(fn ResultFunc) Option {
	return func(s *Scheduler) {
		s.onResult = fn
	}
}

// WithWatchRoot sets the directory watched when file watching is enabled.
func WithWatchRoot(root string) Option {
	return func(s *Scheduler) {
		s.root = root
	}
}

// New creates a Scheduler for runner.
func New(runner Runner, cfg config.ScheduleConfig, options ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("scheduler runner: %w", autosyncerrors.ErrEmptyValue)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", autosyncerrors.ErrConfigInvalidSchedule, cfg.Interval)
	}
	if cfg.Debounce < 0 {
		return nil, fmt.Errorf("%w: debounce must not be negative, got %s", autosyncerrors.ErrConfigInvalidSchedule, cfg.Debounce)
	}

	s := &Scheduler{
		runner:     runner,
		cfg:        cfg,
		logger:     zerolog.Nop(),
		onResult:   func(*syncer.Result, error) {},
		watchReady: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}

	if cfg.WatchFiles && s.root == "" {
		return nil, fmt.Errorf("watch root: %w", autosyncerrors.ErrEmptyValue)
	}
	return s, nil
}

// Run blocks until ctx is canceled, returning nil, or until a run ends in
// aborted_conflict, returning an error wrapping ErrRebaseConflict.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Bool("watch_files", s.cfg.WatchFiles).
		Bool("run_on_start", s.cfg.RunOnStart).
		Msg("scheduler started")

	var watcher *fsnotify.Watcher
	if s.cfg.WatchFiles {
		var err error
		if watcher, err = fsnotify.NewWatcher(); err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.tickLoop(gctx)
	})

	if watcher != nil {
		g.Go(func() error {
			return s.watchLoop(gctx, watcher)
		})
	}

	err := g.Wait()

	s.logger.Info().
		Int64("runs", s.started.Load()).
		Int64("coalesced", s.coalesced.Load()).
		Err(err).
		Msg("scheduler stopped")

	return err
}

// Trigger starts a run now, or joins the one already in flight.
func (s *Scheduler) Trigger(ctx context.Context, reason Trigger) error {
	v, _, shared := s.group.Do(flightKey, func() (any, error) {
		n := s.started.Add(1)
		s.logger.Debug().
			Str("trigger", string(reason)).
			Int64("run", n).
			Msg("starting sync run")

		result, err := s.runner.Run(ctx)
		s.onResult(result, err)
		return runReturn{result: result, err: err}, nil
	})
	if shared {
		s.coalesced.Add(1)
		s.logger.Debug().Str("trigger", string(reason)).Msg("trigger joined in-flight run")
	}

	r, _ := v.(runReturn)
	return s.settle(ctx, r.result, r.err)
}

type runReturn struct {
	result *syncer.Result
	err    error
}

// settle decides whether the scheduler keeps going after a run.
func (s *Scheduler) settle(ctx context.Context, result *syncer.Result, err error) error {
	if ctx.Err() != nil {
		return nil
	}

	if result != nil && result.Outcome == syncer.OutcomeAbortedConflict {
		if err == nil {
			err = autosyncerrors.ErrRebaseConflict
		}
		return fmt.Errorf("scheduler stopped, manual resolution required: %w", err)
	}

	if err != nil {
		event := s.logger.Warn().Err(err)
		if result != nil {
			event = event.Str("outcome", result.Outcome.String()).Str("run_id", result.RunID)
		}
		event.Msg("sync run failed, retrying on next trigger")
	}
	return nil
}

func (s *Scheduler) tickLoop(ctx context.Context) error {
	if s.cfg.RunOnStart {
		if err := s.Trigger(ctx, TriggerStart); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Trigger(ctx, TriggerInterval); err != nil {
				return err
			}
		}
	}
}

func (s *Scheduler) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) error {
	defer func() { _ = watcher.Close() }()

	if err := watchTree(watcher, s.root); err != nil {
		return err
	}
	close(s.watchReady)

	debounce := time.NewTimer(s.cfg.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, event.Name); err != nil {
						s.logger.Warn().Err(err).Str("path", event.Name).Msg("cannot watch new directory")
					}
				}
			}
			debounce.Reset(s.cfg.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("file watcher error")

		case <-debounce.C:
			if err := s.Trigger(ctx, TriggerFiles); err != nil {
				return err
			}
		}
	}
}

// relevant drops chmod-only events and anything inside .git, which every
// run itself modifies.
func (s *Scheduler) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !insideGitDir(s.root, event.Name)
}

func insideGitDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == ".git" {
			return true
		}
	}
	return false
}

// watchTree adds dir and its subdirectories, skipping .git. fsnotify does
// not recurse on its own.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
