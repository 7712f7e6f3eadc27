// Package schedule repeats sync runs for 'autosync watch'.
//
// A Scheduler fires on a fixed interval and, when file watching is on,
// shortly after the work tree changes. Triggers that arrive while a run is
// in flight share that run's result instead of queueing another.
//
// Import rules:
//   - CAN import: internal/config, internal/syncer, internal/errors, std lib
//   - MUST NOT import: internal/cli
package schedule
