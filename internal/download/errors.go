package download

import "errors"

var (
	// ErrLockUnavailable is returned under the fail lock policy when
	// another process holds the output file.
	ErrLockUnavailable = errors.New("download: output file is locked by another process")
)
