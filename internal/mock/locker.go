package mock

import "os"

// Locker implements the file locker interface for tests.
type Locker struct {
	// stored values
	TryLockOut bool

	// errors
	TryLockErr error
	LockErr    error
	UnlockErr  error

	// call flags
	TryLockCalled bool
	LockCalled    bool
	UnlockCalled  bool
}

func (m *Locker) TryLock(f *os.File) (bool, error) {
	m.TryLockCalled = true
	if m.TryLockErr != nil {
		return false, m.TryLockErr
	}
	return m.TryLockOut, nil
}

func (m *Locker) Lock(f *os.File) error {
	m.LockCalled = true
	return m.LockErr
}

func (m *Locker) Unlock(f *os.File) error {
	m.UnlockCalled = true
	return m.UnlockErr
}
