//go:build unix

package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

// LockFileName is created inside the data directory and held for the recorder's lifetime.
const LockFileName = ".lock"

// ErrDirLocked is returned when another process holds the data directory.
var ErrDirLocked = errors.New("data directory is locked by another process")

// DirLock is an exclusive advisory lock on a data directory. Two recorders
// appending to the same files would break the per-sensor write ordering.
type DirLock struct {
	f *os.File
}

// LockDataDir takes a non-blocking exclusive flock on <dir>/.lock.
func LockDataDir(dir recorderDomain.DataDir) (*DirLock, error) {
	f, err := os.OpenFile(filepath.Join(string(dir), LockFileName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error on opening lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrDirLocked, dir)
		}
		return nil, fmt.Errorf("error on locking %s: %w", dir, err)
	}
	return &DirLock{f: f}, nil
}

// Unlock releases the lock.
func (l *DirLock) Unlock() error {
	if l.f == nil {
		return nil
	}
	defer func() { l.f = nil }()
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		_ = l.f.Close()
		return fmt.Errorf("error on unlocking: %w", err)
	}
	return l.f.Close()
}
