package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/civitai"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/sniff"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/track"
)

const chunkSize = 8192

// Rate-limit pauses. The long pause spaces out real downloads, the
// short one paces skips over already-present files.
const (
	rateLimitMin = 3 * time.Second
	rateLimitMax = 6 * time.Second
	skipPauseMin = 100 * time.Millisecond
	skipPauseMax = 200 * time.Millisecond
)

// Options carries the settings-derived knobs for a Downloader.
type Options struct {
	DownloadTimeout time.Duration
	MaxRetries      int
	Backoff         time.Duration
	RateLimit       bool
	MemoryThreshold int64
	LockPolicy      model.LockPolicy
	ImageExtensions []string
	VideoExtensions []string
	// DisableRetryQueue turns off background retries; failures are then
	// only logged and counted.
	DisableRetryQueue bool
}

// Downloader fetches media over HTTP into a creator's library tree,
// correcting extensions from magic bytes after each write. Failed
// downloads are handed to the retry queue.
type Downloader struct {
	client  *http.Client
	opts    Options
	tracker *track.Tracker
	locker  port.FileLocker
	sink    port.ProgressSink
	queue   *RetryQueue

	// invalidate, when set, flushes the library's folder cache after a
	// write so later existence scans see the new file.
	invalidate func(dir string)

	mu             sync.Mutex
	downloadedExts map[string]int
}

var _ port.Downloader = (*Downloader)(nil)

func NewDownloader(client *http.Client, opts Options, tracker *track.Tracker, locker port.FileLocker, sink port.ProgressSink) *Downloader {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	d := &Downloader{
		client:         client,
		opts:           opts,
		tracker:        tracker,
		locker:         locker,
		sink:           sink,
		downloadedExts: make(map[string]int),
	}
	d.queue = NewRetryQueue(d.retryDownload, QueueConfig{
		MaxRetries:     opts.MaxRetries,
		RetryDelay:     opts.Backoff,
		AttemptTimeout: opts.DownloadTimeout,
	})
	return d
}

// SetFolderInvalidator wires the library cache invalidation hook.
func (d *Downloader) SetFolderInvalidator(fn func(dir string)) {
	d.invalidate = fn
}

// DownloadFiles downloads every item into the creator's folders. One
// item's failure never aborts the rest; failures go to the retry
// queue. Context cancellation cleans up the in-flight partial and
// aborts the remainder of the batch.
func (d *Downloader) DownloadFiles(ctx context.Context, items []model.MediaItem, creator string, dirs map[model.MediaType]string) (int, int, int, error) {
	var total, images, videos int

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return total, images, videos, err
		}

		url := strings.TrimSpace(item.URL)
		if url == "" {
			d.sink.DownloadTick(total)
			continue
		}
		url = civitai.CanonicalVideoURL(url, d.opts.VideoExtensions)

		ext := civitai.ExtensionFromURL(url)
		mediaType := civitai.MediaTypeForExtension(ext, d.opts.ImageExtensions, d.opts.VideoExtensions)
		logger.Infof(ctx, "preparing %s download for %s", mediaLabel(mediaType), creator)

		outPath, err := outputPath(dirs, mediaType, url)
		if err != nil {
			logger.Errorf(ctx, "no output folder for %s: %v", url, err)
			continue
		}

		if fileExists(outPath) {
			d.sink.DownloadTick(total)
			if d.opts.RateLimit {
				sleepJitter(ctx, skipPauseMin, skipPauseMax)
			}
			continue
		}

		finalPath, err := d.fetchToFile(ctx, url, outPath, d.opts.MaxRetries, true)
		if err != nil {
			removeIfExists(outPath)
			if ctx.Err() != nil {
				logger.Warnf(ctx, "download interrupted for %s", url)
				return total, images, videos, ctx.Err()
			}
			logger.Errorf(ctx, "download failed for %s: %v", url, err)
			if !d.opts.DisableRetryQueue {
				d.queue.Add(item, creator, url, outPath, dirs, err)
			}
			continue
		}

		finalExt := strings.ToLower(filepath.Ext(finalPath))
		switch civitai.MediaTypeForExtension(finalExt, d.opts.ImageExtensions, d.opts.VideoExtensions) {
		case model.MediaTypeImages:
			images++
			d.sink.VerifyTick(model.MediaTypeImages, images, 0, 0)
		case model.MediaTypeVideos:
			videos++
			d.sink.VerifyTick(model.MediaTypeVideos, videos, 0, 0)
		}
		total++
		logger.Infof(ctx, "downloaded %s", finalPath)
		d.sink.DownloadTick(total)

		if d.invalidate != nil {
			d.invalidate(filepath.Dir(finalPath))
		}
		if d.opts.RateLimit && i < len(items)-1 {
			sleepJitter(ctx, rateLimitMin, rateLimitMax)
		}
	}
	return total, images, videos, nil
}

// DownloadOne is the single-attempt variant used by the retry worker
// and the repair flow: one transport attempt, a plain unlocked stream
// to disk and no queue routing or pacing.
func (d *Downloader) DownloadOne(ctx context.Context, item model.MediaItem, creator string, dirs map[model.MediaType]string) error {
	url := strings.TrimSpace(item.URL)
	if url == "" {
		return errors.New("download: item has no url")
	}
	url = civitai.CanonicalVideoURL(url, d.opts.VideoExtensions)

	ext := civitai.ExtensionFromURL(url)
	mediaType := civitai.MediaTypeForExtension(ext, d.opts.ImageExtensions, d.opts.VideoExtensions)
	outPath, err := outputPath(dirs, mediaType, url)
	if err != nil {
		return err
	}

	if _, err := d.fetchToFile(ctx, url, outPath, 1, false); err != nil {
		removeIfExists(outPath)
		return fmt.Errorf("download %s: %w", url, err)
	}
	if d.invalidate != nil {
		d.invalidate(filepath.Dir(outPath))
	}
	return nil
}

func (d *Downloader) StartRetryQueue() { d.queue.Start() }

func (d *Downloader) StopRetryQueue(wait bool) { d.queue.Stop(wait) }

func (d *Downloader) WaitForRetries(timeout time.Duration) bool {
	return d.queue.WaitForCompletion(timeout)
}

func (d *Downloader) RetryStats() port.RetryStats {
	return d.queue.Stats()
}

// PermanentlyFailed exposes the queue's terminal failures for final
// reporting.
func (d *Downloader) PermanentlyFailed() []*FailedDownload {
	return d.queue.PermanentlyFailed()
}

// DownloadedExtensions returns a copy of the per-extension counters
// for files written this run.
func (d *Downloader) DownloadedExtensions() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int, len(d.downloadedExts))
	for k, v := range d.downloadedExts {
		out[k] = v
	}
	return out
}

// retryDownload adapts DownloadOne to the queue's callback shape.
func (d *Downloader) retryDownload(ctx context.Context, fd *FailedDownload) error {
	return d.DownloadOne(ctx, fd.Item, fd.Creator, fd.Dirs)
}

// fetchToFile performs the GET and writes the body to outPath, picking
// between whole-body buffering and locked streaming by Content-Length.
// countExt selects whether the final extension joins the per-run
// counters; only batch downloads count. It returns the final path
// after any extension correction.
func (d *Downloader) fetchToFile(ctx context.Context, url, outPath string, maxRetries int, countExt bool) (string, error) {
	resp, err := civitai.GetWithRetries(ctx, d.client, url, d.headers(), maxRetries, d.opts.Backoff)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}

	if resp.ContentLength >= 0 && resp.ContentLength <= d.opts.MemoryThreshold {
		err = d.writeBuffered(resp.Body, outPath)
	} else {
		err = d.streamToFile(ctx, resp.Body, outPath)
	}
	if err != nil {
		return "", err
	}

	finalPath := d.correctExtension(ctx, outPath)
	if countExt {
		d.countExtension(strings.ToLower(filepath.Ext(finalPath)))
	}
	return finalPath, nil
}

// writeBuffered reads the whole body into memory and lands it with a
// single write. Small files skip locking and fsync.
func (d *Downloader) writeBuffered(body io.Reader, outPath string) error {
	buf, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, buf, 0o644)
}

// streamToFile copies the body to disk chunk by chunk under the
// configured lock policy, then flushes the result to stable storage.
func (d *Downloader) streamToFile(ctx context.Context, body io.Reader, outPath string) error {
	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	locked, err := d.acquireLock(f)
	if err != nil {
		return err
	}
	if locked {
		defer d.locker.Unlock(f)
	}

	if _, err := io.CopyBuffer(f, body, make([]byte, chunkSize)); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		logger.Warnf(ctx, "fsync failed for %s: %v", outPath, err)
	}
	return nil
}

// acquireLock applies the lock policy to an open output file. Under
// fail the contended case is an error; under best_effort it is not.
func (d *Downloader) acquireLock(f *os.File) (bool, error) {
	if d.locker == nil {
		return false, nil
	}
	switch d.opts.LockPolicy {
	case model.LockBlock:
		if err := d.locker.Lock(f); err != nil {
			return false, err
		}
		return true, nil
	case model.LockFail:
		ok, err := d.locker.TryLock(f)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrLockUnavailable, f.Name())
		}
		return true, nil
	default:
		ok, err := d.locker.TryLock(f)
		if err != nil {
			return false, nil
		}
		return ok, nil
	}
}

// correctExtension fixes the on-disk extension from magic bytes and
// records the rename under the pre-rename path.
func (d *Downloader) correctExtension(ctx context.Context, outPath string) string {
	newPath, renamed := sniff.ValidateAndCorrect(outPath, d.opts.ImageExtensions, d.opts.VideoExtensions, nil, true)
	if !renamed {
		return outPath
	}
	oldExt := strings.ToLower(filepath.Ext(outPath))
	newExt := strings.ToLower(filepath.Ext(newPath))
	d.tracker.Record(outPath, oldExt, newExt)
	logger.Infof(ctx, "corrected extension %s -> %s for %s", oldExt, newExt, filepath.Base(newPath))
	return newPath
}

func (d *Downloader) countExtension(ext string) {
	d.mu.Lock()
	d.downloadedExts[ext]++
	d.mu.Unlock()
}

func (d *Downloader) headers() map[string]string {
	return map[string]string{"User-Agent": civitai.UserAgent}
}

func mediaLabel(t model.MediaType) string {
	switch t {
	case model.MediaTypeImages:
		return "image"
	case model.MediaTypeVideos:
		return "video"
	default:
		return "media"
	}
}

func outputPath(dirs map[model.MediaType]string, mediaType model.MediaType, url string) (string, error) {
	dir, ok := dirs[mediaType]
	if !ok || dir == "" {
		return "", fmt.Errorf("download: no folder mapped for %s media", mediaType)
	}
	return filepath.Join(dir, civitai.SafeFilenameFromURL(url)), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func removeIfExists(path string) {
	if fileExists(path) {
		os.Remove(path)
	}
}

// sleepJitter pauses for a random duration in [min, max), waking early
// on cancellation.
func sleepJitter(ctx context.Context, min, max time.Duration) {
	d := min + time.Duration(rand.Int63n(int64(max-min)))
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
