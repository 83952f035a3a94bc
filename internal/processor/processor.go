// Package processor orchestrates creator updates end to end: fetch the
// catalogue, filter it down to what is missing, download, drain the
// retry queue and aggregate the counts the summary needs.
package processor

import (
	"context"
	"errors"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/civitai"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/config"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/library"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/result"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/runctx"
)

// retryDrainTimeout bounds how long a creator waits for their pending
// retries before the queue is stopped.
const retryDrainTimeout = 5 * time.Minute

// CreatorJob pairs a creator with their effective media switchboard.
type CreatorJob struct {
	Username string
	Media    config.MediaTypes
}

// Options steer a processing run.
type Options struct {
	NSFW         bool
	UseIgnore    bool
	SaveMetadata bool
}

// CreatorResult carries one creator's counts.
type CreatorResult struct {
	APIItems   int
	Needed     int
	Downloaded int
	Images     int
	Videos     int
}

// BatchResult aggregates a run across creators.
type BatchResult struct {
	Successful int
	Failed     int

	APIItems   int
	Needed     int
	Downloaded int
	Images     int
	Videos     int

	// Deleted lists creators the API no longer knows.
	Deleted        []string
	FailedCreators []result.FailedCreator
}

// Processor drives the update pipeline for one creator at a time.
type Processor struct {
	fetcher    port.CreatorFetcher
	library    *library.Manager
	downloader port.Downloader
	sink       port.ProgressSink
}

func NewProcessor(fetcher port.CreatorFetcher, lib *library.Manager, downloader port.Downloader, sink port.ProgressSink) *Processor {
	return &Processor{
		fetcher:    fetcher,
		library:    lib,
		downloader: downloader,
		sink:       sink,
	}
}

// ProcessCreator runs the full pipeline for one creator and returns
// their counts. The retry queue is started before the batch and always
// stopped before returning; successful retries that drained within the
// timeout are folded into the downloaded count.
func (p *Processor) ProcessCreator(ctx context.Context, job CreatorJob, opts Options) (CreatorResult, error) {
	ctx = runctx.WithCreator(ctx, job.Username)
	p.sink.StartCreator(job.Username)
	logger.Infof(ctx, "processing creator %s", job.Username)

	dirs, err := p.library.EnsureCreatorDirs(job.Username)
	if err != nil {
		return CreatorResult{}, err
	}

	p.sink.StartFetch()
	items, err := p.fetcher.FetchCreatorItems(ctx, job.Username, opts.NSFW)
	if err != nil {
		return CreatorResult{}, err
	}

	pages := (len(items) + civitai.PageLimit - 1) / civitai.PageLimit
	if pages < 1 {
		pages = 1
	}
	p.sink.FetchDone(pages, len(items))

	if opts.SaveMetadata {
		if err := p.library.ExportCreatorData(job.Username, items); err != nil {
			return CreatorResult{}, err
		}
		logger.Infof(ctx, "exported metadata for %s", job.Username)
	}

	matching := p.library.FilterByMediaType(items, job.Media)
	needed := p.library.FilterExisting(matching, job.Username, opts.UseIgnore)
	existing := len(matching) - len(needed)
	p.sink.PlanReady(existing, len(matching), len(needed))
	logger.Infof(ctx, "matching %d, needing download %d", len(matching), len(needed))

	res := CreatorResult{APIItems: len(items), Needed: len(needed)}
	if len(needed) == 0 {
		return res, nil
	}

	retriesBefore := p.downloader.RetryStats().Successful
	p.downloader.StartRetryQueue()

	total, images, videos, err := p.downloader.DownloadFiles(ctx, needed, job.Username, dirs)
	if err != nil {
		p.downloader.StopRetryQueue(false)
		return res, err
	}

	if stats := p.downloader.RetryStats(); stats.Pending > 0 {
		logger.Infof(ctx, "waiting for %d pending retries", stats.Pending)
		p.downloader.WaitForRetries(retryDrainTimeout)
	}
	p.downloader.StopRetryQueue(false)

	final := p.downloader.RetryStats()
	total += final.Successful - retriesBefore
	if final.Failed > 0 {
		logger.Warnf(ctx, "%d downloads permanently failed", final.Failed)
	}

	res.Downloaded = total
	res.Images = images
	res.Videos = videos
	return res, nil
}

// ProcessCreators runs every job with per-creator error isolation: one
// creator failing never stops the others, only context cancellation
// does. Creators the API reports as unknown land in Deleted.
func (p *Processor) ProcessCreators(ctx context.Context, jobs []CreatorJob, opts Options) BatchResult {
	var batch BatchResult
	if len(jobs) == 0 {
		p.sink.Message("No creators to process.")
		return batch
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}

		res, err := p.ProcessCreator(ctx, job, opts)
		if err != nil {
			batch.Failed++
			switch {
			case errors.Is(err, civitai.ErrUserNotFound):
				batch.Deleted = append(batch.Deleted, job.Username)
				batch.FailedCreators = append(batch.FailedCreators, result.FailedCreator{
					Name:   job.Username,
					Reason: "User not found",
				})
			default:
				batch.FailedCreators = append(batch.FailedCreators, result.FailedCreator{
					Name:   job.Username,
					Reason: err.Error(),
				})
				logger.Errorf(ctx, "failed to process %s: %v", job.Username, err)
			}
			continue
		}

		batch.Successful++
		batch.APIItems += res.APIItems
		batch.Needed += res.Needed
		batch.Downloaded += res.Downloaded
		batch.Images += res.Images
		batch.Videos += res.Videos
		p.sink.CreatorDone(job.Username)
	}

	return batch
}
