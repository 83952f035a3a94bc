package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/uuid"
)

const (
	// emptyPollDelay is how long the worker naps when the queue is empty.
	emptyPollDelay = 500 * time.Millisecond
	// completionPollDelay paces WaitForCompletion's emptiness checks.
	completionPollDelay = 100 * time.Millisecond
	// stopJoinTimeout bounds how long Stop(wait=true) waits for the
	// worker before giving up silently.
	stopJoinTimeout = 30 * time.Second
)

// Queue defaults, used when QueueConfig leaves a field zero.
const (
	DefaultMaxRetries     = 3
	DefaultRetryDelay     = 5 * time.Second
	DefaultAttemptTimeout = 5 * time.Minute
)

// FailedDownload is one download the queue will retry. RetryCount
// starts at 1: the failed foreground attempt already happened. ID
// correlates the log lines of one item across its attempts.
type FailedDownload struct {
	ID         uuid.UUID
	Item       model.MediaItem
	Creator    string
	URL        string
	OutPath    string
	Dirs       map[model.MediaType]string
	Err        error
	RetryCount int
}

// DownloadFunc performs one retry attempt. The context carries the
// per-attempt timeout.
type DownloadFunc func(ctx context.Context, fd *FailedDownload) error

// QueueConfig tunes the retry worker. The retry delay is fixed per
// attempt, deliberately not exponential; transport-level backoff is a
// separate dimension handled inside the download func.
type QueueConfig struct {
	MaxRetries     int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	return c
}

// RetryQueue re-attempts failed downloads on a single background
// goroutine. Items cycle queued → attempting → success, requeued or
// permanently failed once RetryCount reaches MaxRetries.
type RetryQueue struct {
	downloadFunc DownloadFunc
	cfg          QueueConfig

	mu         sync.Mutex
	queue      []*FailedDownload
	permanent  []*FailedDownload
	successful int
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

func NewRetryQueue(fn DownloadFunc, cfg QueueConfig) *RetryQueue {
	return &RetryQueue{
		downloadFunc: fn,
		cfg:          cfg.withDefaults(),
	}
}

// Start launches the worker goroutine. Calling it on a running queue is
// a no-op.
func (q *RetryQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	q.doneCh = make(chan struct{})
	go q.worker(q.stopCh, q.doneCh)
}

// Stop signals the worker to exit. With wait it joins the goroutine,
// giving up silently after stopJoinTimeout so a wedged download can
// never hang shutdown.
func (q *RetryQueue) Stop(wait bool) {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	done := q.doneCh
	q.mu.Unlock()

	if !wait {
		return
	}
	select {
	case <-done:
	case <-time.After(stopJoinTimeout):
	}
}

// Add enqueues a failed download for retrying. It never blocks.
func (q *RetryQueue) Add(item model.MediaItem, creator, url, outPath string, dirs map[model.MediaType]string, cause error) {
	fd := &FailedDownload{
		ID:         uuid.NewUUID(),
		Item:       item,
		Creator:    creator,
		URL:        url,
		OutPath:    outPath,
		Dirs:       dirs,
		Err:        cause,
		RetryCount: 1,
	}
	q.mu.Lock()
	q.queue = append(q.queue, fd)
	pending := len(q.queue)
	q.mu.Unlock()
	logger.Warnf(context.Background(), "queued %s for retry [%s] (%d pending): %v", fd.URL, fd.ID, pending, cause)
}

// WaitForCompletion polls until the queue drains or the timeout
// expires, reporting whether it drained. An item mid-attempt is not in
// the queue, so completion can be observed one attempt early; callers
// follow up with Stats.
func (q *RetryQueue) WaitForCompletion(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		empty := len(q.queue) == 0
		q.mu.Unlock()
		if empty {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(completionPollDelay)
	}
}

// Stats reports the backlog and the monotonic outcome counters.
func (q *RetryQueue) Stats() port.RetryStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return port.RetryStats{
		Pending:    len(q.queue),
		Successful: q.successful,
		Failed:     len(q.permanent),
	}
}

// PermanentlyFailed returns the downloads that exhausted their retries.
func (q *RetryQueue) PermanentlyFailed() []*FailedDownload {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*FailedDownload, len(q.permanent))
	copy(out, q.permanent)
	return out
}

func (q *RetryQueue) worker(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		fd := q.pop()
		if fd == nil {
			select {
			case <-stopCh:
				return
			case <-time.After(emptyPollDelay):
			}
			continue
		}

		logger.Infof(context.Background(), "retrying %s [%s] (attempt %d/%d)", fd.URL, fd.ID, fd.RetryCount, q.cfg.MaxRetries)
		select {
		case <-stopCh:
			// Put the item back so a later run still sees it pending.
			q.pushFront(fd)
			return
		case <-time.After(q.cfg.RetryDelay):
		}

		if err := q.attempt(fd); err != nil {
			fd.Err = err
			fd.RetryCount++
			if fd.RetryCount >= q.cfg.MaxRetries {
				q.markPermanent(fd)
				logger.Errorf(context.Background(), "giving up on %s after %d attempts: %v", fd.URL, fd.RetryCount, err)
			} else {
				q.pushBack(fd)
			}
			continue
		}
		q.markSuccess()
		logger.Infof(context.Background(), "retry succeeded for %s", fd.URL)
	}
}

// attempt runs one retry with the configured timeout. Panics from the
// download func are contained so the worker survives anything.
func (q *RetryQueue) attempt(fd *FailedDownload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("retry panicked: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.AttemptTimeout)
	defer cancel()
	return q.downloadFunc(ctx, fd)
}

func (q *RetryQueue) pop() *FailedDownload {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return nil
	}
	fd := q.queue[0]
	q.queue = q.queue[1:]
	return fd
}

func (q *RetryQueue) pushBack(fd *FailedDownload) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, fd)
}

func (q *RetryQueue) pushFront(fd *FailedDownload) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append([]*FailedDownload{fd}, q.queue...)
}

func (q *RetryQueue) markPermanent(fd *FailedDownload) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.permanent = append(q.permanent, fd)
}

func (q *RetryQueue) markSuccess() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.successful++
}
