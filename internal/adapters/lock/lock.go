// Package lock serializes mutating operations across processes with an flock(2) lock file.
package lock

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

var _ ports.Locker = (*FileLock)(nil)

// FileLock is an exclusive, non-blocking lock on a file.
type FileLock struct {
	path string
	mu   sync.Mutex
	fd   int
	held bool
}

// New creates a FileLock on path. The file is created on first use.
func New(path string) *FileLock {
	return &FileLock{path: path, fd: -1}
}

// TryLock takes the lock or fails with domain.ErrLocked without waiting.
func (l *FileLock) TryLock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return zerr.With(zerr.Wrap(domain.ErrLocked, "lock already held by this process"), "path", l.path)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create lock directory"), "path", l.path)
	}
	fd, err := unix.Open(l.path, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, domain.PrivateFilePerm)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open lock file"), "path", l.path)
	}

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = unix.Close(fd)
		if errors.Is(err, unix.EWOULDBLOCK) {
			return zerr.With(zerr.Wrap(domain.ErrLocked, "lock is held by another process"), "path", l.path)
		}
		return zerr.With(zerr.Wrap(err, "failed to lock"), "path", l.path)
	}

	l.fd = fd
	l.held = true
	return nil
}

// Unlock releases the lock. Unlocking a lock that is not held is a no-op.
func (l *FileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}
	l.held = false

	fd := l.fd
	l.fd = -1
	if err := unix.Flock(fd, unix.LOCK_UN); err != nil {
		_ = unix.Close(fd)
		return zerr.With(zerr.Wrap(err, "failed to unlock"), "path", l.path)
	}
	return unix.Close(fd)
}
