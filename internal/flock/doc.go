// Package flock provides cross-platform file locking utilities.
//
// autosync holds an exclusive, non-blocking lock on a file inside the
// repository's git directory for the duration of each sync run, so a
// scheduled run and a manual run never operate on the same checkout at once.
//
// Usage:
//
//	lock, err := flock.Acquire(filepath.Join(gitDir, "autosync.lock"))
//	if errors.Is(err, autosyncerrors.ErrLockHeld) {
//	    // another run owns the checkout
//	}
//	defer lock.Release()
package flock
