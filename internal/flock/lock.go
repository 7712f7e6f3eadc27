package flock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

// LockFileName is the name of the lock file created inside the git directory.
const LockFileName = "autosync.lock"

// Lock is a held exclusive file lock. The zero value is not usable; obtain one with Acquire.
type Lock struct {
	path string
	file *os.File
	once sync.Once
}

// Acquire takes the exclusive lock at path without blocking and records the
// current PID in the file. If another process (or another open handle in this
// process) holds the lock, the returned error wraps ErrLockHeld.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- path is derived from the repository git dir
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := tryLock(f.Fd()); err != nil {
		holder := readPID(f)
		_ = f.Close()
		if holder > 0 {
			return nil, fmt.Errorf("%s held by pid %d: %w", path, holder, autosyncerrors.ErrLockHeld)
		}
		return nil, fmt.Errorf("%s: %w", path, autosyncerrors.ErrLockHeld)
	}

	if err := writePID(f); err != nil {
		_ = unlock(f.Fd())
		_ = f.Close()
		return nil, fmt.Errorf("failed to write lock file %s: %w", path, err)
	}

	return &Lock{path: path, file: f}, nil
}

// Holder reports whether another handle holds the lock at path and, when it
// does, the PID recorded in the file (0 if unreadable). A missing file is
// not held.
func Holder(path string) (pid int, held bool, err error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0) // #nosec G304 -- path is derived from the repository git dir
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := tryLock(f.Fd()); err != nil {
		return readPID(f), true, nil
	}
	_ = unlock(f.Fd())
	return 0, false, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
// The file itself is left in place; removing it would race with a waiting opener.
func (l *Lock) Release() error {
	var err error
	l.once.Do(func() {
		_ = l.file.Truncate(0)
		if unlockErr := unlock(l.file.Fd()); unlockErr != nil {
			err = fmt.Errorf("failed to unlock %s: %w", l.path, unlockErr)
		}
		if closeErr := l.file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", l.path, closeErr)
		}
	})
	return err
}

func writePID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		return err
	}
	return f.Sync()
}

func readPID(f *os.File) int {
	buf := make([]byte, 32)
	n, _ := f.ReadAt(buf, 0)
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}
	return pid
}
