package model

import (
	"fmt"
	"strings"
)

// MediaType classifies a file into its per-creator subfolder.
type MediaType string

const (
	MediaTypeImages MediaType = "Images"
	MediaTypeVideos MediaType = "Videos"
	MediaTypeOther  MediaType = "Other"
)

func (t MediaType) String() string { return string(t) }

// LockPolicy selects how the downloader handles contention on an output
// file that another process may be writing.
type LockPolicy string

const (
	// LockBestEffort tries a non-blocking lock and proceeds either way.
	LockBestEffort LockPolicy = "best_effort"
	// LockBlock waits for an exclusive lock before writing.
	LockBlock LockPolicy = "block"
	// LockFail aborts the single download when the lock is contended.
	LockFail LockPolicy = "fail"
)

func ParseLockPolicy(s string) (LockPolicy, error) {
	switch LockPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case LockBestEffort:
		return LockBestEffort, nil
	case LockBlock:
		return LockBlock, nil
	case LockFail:
		return LockFail, nil
	}
	return "", fmt.Errorf("unknown lock policy %q (want best_effort, block or fail)", s)
}

// InvalidMediaEntry describes one video that failed structural checks.
type InvalidMediaEntry struct {
	Filename string  `json:"filename"`
	Path     string  `json:"path"`
	Frames   int     `json:"frames"`
	Duration float64 `json:"duration"`
}

// Report is the persisted verify→repair bridge. It is either absent or
// the product of one whole verification pass.
type Report struct {
	GeneratedAt string                         `json:"generated_at"`
	Creators    map[string][]InvalidMediaEntry `json:"creators"`
}

func (r *Report) TotalEntries() int {
	n := 0
	for _, entries := range r.Creators {
		n += len(entries)
	}
	return n
}
