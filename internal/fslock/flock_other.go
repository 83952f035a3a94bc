//go:build !unix && !windows

package fslock

import (
	"os"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
)

type noopLocker struct{}

var _ port.FileLocker = noopLocker{}

// New returns a locker that always succeeds. Platforms without
// advisory locks get best-effort semantics only.
func New() port.FileLocker { return noopLocker{} }

func (noopLocker) TryLock(f *os.File) (bool, error) { return true, nil }

func (noopLocker) Lock(f *os.File) error { return nil }

func (noopLocker) Unlock(f *os.File) error { return nil }
