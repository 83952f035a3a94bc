package port

import "os"

// FileLocker guards an open file against concurrent writers. Adapters
// use OS advisory locks where available; platforms without them get a
// no-op implementation, so callers must treat locking as best effort
// unless their policy says otherwise.
type FileLocker interface {
	// TryLock attempts a non-blocking exclusive lock. It reports false
	// without error when the lock is held elsewhere.
	TryLock(f *os.File) (bool, error)
	// Lock blocks until the exclusive lock is acquired.
	Lock(f *os.File) error
	Unlock(f *os.File) error
}
