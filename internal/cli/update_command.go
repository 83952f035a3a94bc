package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/config"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/processor"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/result"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/track"
)

func runUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	autoPurge := fs.Bool("auto-purge", false, "delete local folders of creators the API no longer knows")
	noIgnore := fs.Bool("no-ignore", false, "download files listed in ignore.txt too")
	saveMetadata := fs.Bool("save-metadata", false, "export each creator's full API payload into their folder")
	yes := fs.Bool("yes", false, "assume yes on confirmation prompts")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*debug)
	if err != nil {
		return err
	}
	defer a.close()

	creators, err := a.creators.Load()
	if err != nil {
		return err
	}
	jobs, warnings := updateJobs(creators, splitCreators(fs.Args()), a.settings.DefaultMediaTypes)
	if len(jobs) == 0 {
		a.printer.PrintSummary(result.UpdateSummary{Stats: result.Stats{Warnings: warnings}})
		return nil
	}

	batch := a.processor.ProcessCreators(ctx, jobs, processor.Options{
		NSFW:         a.settings.NSFW,
		UseIgnore:    !*noIgnore,
		SaveMetadata: *saveMetadata,
	})

	a.printer.PrintSummary(updateSummary(batch, len(jobs), a.tracker.All(), a.downloader.DownloadedExtensions()))

	if *autoPurge && len(batch.Deleted) > 0 {
		a.purgeDeleted(ctx, batch.Deleted, *yes)
	}

	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d creators failed", batch.Failed, len(jobs))
	}
	return ctx.Err()
}

// updateJobs builds the work list for an update run. Named creators
// missing from the list still run on default media types; with no
// names every configured creator runs.
func updateJobs(creators []config.Creator, names []string, defaults config.MediaTypes) ([]processor.CreatorJob, []string) {
	byName := make(map[string]config.Creator, len(creators))
	for _, c := range creators {
		byName[strings.ToLower(c.Username)] = c
	}

	var jobs []processor.CreatorJob
	if len(names) > 0 {
		for _, name := range names {
			if c, ok := byName[strings.ToLower(name)]; ok {
				jobs = append(jobs, processor.CreatorJob{Username: c.Username, Media: config.MediaTypesFor(c, defaults)})
				continue
			}
			jobs = append(jobs, processor.CreatorJob{Username: name, Media: defaults})
		}
		return jobs, nil
	}

	if len(creators) == 0 {
		return nil, []string{"No creators found in configuration"}
	}
	for _, c := range creators {
		jobs = append(jobs, processor.CreatorJob{Username: c.Username, Media: config.MediaTypesFor(c, defaults)})
	}
	return jobs, nil
}

func updateSummary(batch processor.BatchResult, total int, corrections map[string]track.Change, downloadedExts map[string]int) result.UpdateSummary {
	return result.UpdateSummary{
		Stats: result.Stats{
			Successful: batch.Successful,
			Failed:     batch.Failed,
			Total:      total,
		},
		APIItemsTotal:        batch.APIItems,
		FilesNeeded:          batch.Needed,
		FilesDownloaded:      batch.Downloaded,
		ImagesDownloaded:     batch.Images,
		VideosDownloaded:     batch.Videos,
		Corrections:          corrections,
		DownloadedExtensions: downloadedExts,
		DeletedCreators:      batch.Deleted,
		FailedCreators:       batch.FailedCreators,
	}
}

// purgeDeleted removes the local trees of creators the API reported as
// gone, after one confirmation covering the lot.
func (a *app) purgeDeleted(ctx context.Context, deleted []string, autoYes bool) {
	prompt := fmt.Sprintf("Purge local folders for %d deleted creator(s)?", len(deleted))
	if !autoYes && !a.printer.Confirm(prompt) {
		return
	}

	lines := []string{"The following creators were purged:"}
	for _, name := range deleted {
		if err := a.library.RemoveCreatorTree(name); err != nil {
			logger.Warnf(ctx, "purge failed for %s: %v", name, err)
			lines = append(lines, fmt.Sprintf("  - %s (failed: %v)", name, err))
			continue
		}
		lines = append(lines, "  - "+name)
	}
	a.printer.PrintPanel("Maintenance | Completed", lines)
}
