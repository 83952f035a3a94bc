//go:build unix

// Package fslock provides advisory locks on open files for guarding
// concurrent writers. Locks are per open file description and released
// on close; platforms without OS support fall back to a no-op locker,
// so holding a lock is never a correctness guarantee on its own.
package fslock

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
)

type flockLocker struct{}

var _ port.FileLocker = flockLocker{}

// New returns the flock-based locker.
func New() port.FileLocker { return flockLocker{} }

func (flockLocker) TryLock(f *os.File) (bool, error) {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, unix.EWOULDBLOCK) {
		return false, nil
	}
	return false, err
}

func (flockLocker) Lock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func (flockLocker) Unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
