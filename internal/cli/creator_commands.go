package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/config"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/processor"
)

func runAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	images := fs.String("images", "", "download images: on|off")
	videos := fs.String("videos", "", "download videos: on|off")
	other := fs.String("other", "", "download other file types: on|off")
	saveMetadata := fs.Bool("save-metadata", false, "export each creator's full API payload into their folder")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	names := splitCreators(fs.Args())
	if len(names) == 0 {
		return errors.New("no creator names provided")
	}
	overrides, err := mediaOverrides(*images, *videos, *other)
	if err != nil {
		return err
	}

	a, err := newApp(*debug)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.creators.AddCreators(names, overrides, a.settings.DefaultMediaTypes)
	if err != nil {
		return err
	}
	a.printAddResult(res)

	creators, err := a.creators.Load()
	if err != nil {
		return err
	}
	jobs := addedJobs(creators, names, a.settings.DefaultMediaTypes)
	if len(jobs) == 0 {
		return nil
	}

	batch := a.processor.ProcessCreators(ctx, jobs, processor.Options{
		NSFW:         a.settings.NSFW,
		UseIgnore:    true,
		SaveMetadata: *saveMetadata,
	})

	a.printer.PrintSummary(updateSummary(batch, len(jobs), a.tracker.All(), a.downloader.DownloadedExtensions()))

	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d creators failed", batch.Failed, len(jobs))
	}
	return ctx.Err()
}

func (a *app) printAddResult(res config.AddResult) {
	if len(res.Added) > 0 {
		a.printer.PrintOK(fmt.Sprintf("Added %d creator(s): %s", len(res.Added), strings.Join(res.Added, ", ")))
	}
	if len(res.Updated) > 0 {
		a.printer.PrintOK(fmt.Sprintf("Updated media types for %d creator(s): %s", len(res.Updated), strings.Join(res.Updated, ", ")))
	}
	if len(res.Unchanged) > 0 {
		a.printer.PrintMuted(fmt.Sprintf("Settings unchanged for: %s", strings.Join(res.Unchanged, ", ")))
	}
	if len(res.Skipped) > 0 {
		a.printer.PrintMuted(fmt.Sprintf("Already in the list (use media flags to update): %s", strings.Join(res.Skipped, ", ")))
	}
}

// addedJobs resolves the just-added names against the saved list,
// keeping the list's canonical casing and dropping duplicates.
func addedJobs(creators []config.Creator, names []string, defaults config.MediaTypes) []processor.CreatorJob {
	byName := make(map[string]config.Creator, len(creators))
	for _, c := range creators {
		byName[strings.ToLower(c.Username)] = c
	}

	seen := make(map[string]bool, len(names))
	var jobs []processor.CreatorJob
	for _, name := range names {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		c, ok := byName[key]
		if !ok {
			continue
		}
		jobs = append(jobs, processor.CreatorJob{Username: c.Username, Media: config.MediaTypesFor(c, defaults)})
	}
	return jobs
}

func runRemove(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	names := splitCreators(fs.Args())
	if len(names) != 1 {
		return errors.New("remove takes exactly one creator name")
	}

	file := config.NewCreatorsFile(config.DefaultCreatorsFile)
	removed, err := file.RemoveCreator(names[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("creator %q not found in %s", names[0], file.Path)
	}
	fmt.Printf("Removed %q from %s\n", names[0], file.Path)
	return nil
}
