//go:build windows

package fslock

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
)

type lockFileLocker struct{}

var _ port.FileLocker = lockFileLocker{}

// New returns the LockFileEx-based locker.
func New() port.FileLocker { return lockFileLocker{} }

func (lockFileLocker) TryLock(f *os.File) (bool, error) {
	err := windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, new(windows.Overlapped),
	)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
		return false, nil
	}
	return false, err
}

func (lockFileLocker) Lock(f *os.File) error {
	return windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK,
		0, 1, 0, new(windows.Overlapped),
	)
}

func (lockFileLocker) Unlock(f *os.File) error {
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, new(windows.Overlapped))
}
