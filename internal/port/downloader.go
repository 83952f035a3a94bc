package port

import (
	"context"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
)

// RetryStats summarises the retry queue at a point in time. Successful
// and Failed are monotonic; Pending reflects the current backlog.
type RetryStats struct {
	Pending    int
	Successful int
	Failed     int
}

// Downloader fetches media files into a creator's library tree. The
// dirs map routes each media type to its on-disk folder.
type Downloader interface {
	// DownloadFiles downloads every item in order. One item failing
	// never aborts the rest; only context cancellation does, and then
	// err is non-nil.
	DownloadFiles(ctx context.Context, items []model.MediaItem, creator string, dirs map[model.MediaType]string) (total, images, videos int, err error)
	// DownloadOne is the single-attempt variant used by the retry
	// worker and the repair flow.
	DownloadOne(ctx context.Context, item model.MediaItem, creator string, dirs map[model.MediaType]string) error

	StartRetryQueue()
	StopRetryQueue(wait bool)
	WaitForRetries(timeout time.Duration) bool
	RetryStats() RetryStats
	// DownloadedExtensions counts files written this run, keyed by
	// their final on-disk extension.
	DownloadedExtensions() map[string]int
}
