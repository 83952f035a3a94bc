package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/repair"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/result"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/validate"
)

type verifyMode int

const (
	verifyAll verifyMode = iota
	verifyImagesOnly
	verifyVideosOnly
)

func runVerify(ctx context.Context, args []string, mode verifyMode) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	applyCorrections := fs.Bool("repair", false, "rename files whose extension does not match their content")
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

	summary := a.verify(ctx, splitCreators(fs.Args()), mode, *applyCorrections)
	a.printer.PrintSummary(summary)

	if len(summary.Invalids) > 0 {
		saved, err := repair.SaveReport(summary.Invalids, repair.ReportFileName, *yes, a.printer.Confirm)
		if err != nil {
			return err
		}
		if saved {
			a.printer.PrintOK("Report saved to: " + repair.ReportFileName)
			a.printer.PrintMuted("Run the repair command to replace the invalid videos.")
		}
	}

	if summary.CreatorsFailed > 0 {
		return fmt.Errorf("%d creator(s) failed verification", summary.CreatorsFailed)
	}
	return ctx.Err()
}

// verify scans the output tree, not the configured list, so files from
// removed creators still get checked.
func (a *app) verify(ctx context.Context, names []string, mode verifyMode, applyCorrections bool) result.VerifySummary {
	root := a.library.OutputDir()
	targets, err := verifyTargets(root, names)
	if err != nil {
		return result.VerifySummary{Stats: result.Stats{Warnings: []string{"Output folder not found: " + root}}}
	}
	if len(targets) == 0 {
		return result.VerifySummary{Stats: result.Stats{Warnings: []string{"No creators found to verify"}}}
	}

	var s result.VerifySummary
	invalids := make(map[string][]model.InvalidMediaEntry)

	for _, creator := range targets {
		if ctx.Err() != nil {
			break
		}
		a.sink.StartCreator(creator)
		creatorPath := filepath.Join(root, creator)

		if mode != verifyVideosOnly {
			results, invalid, incorrect := a.validator.ScanCreatorImages(ctx, creatorPath, applyCorrections)
			s.ImagesChecked += len(results)
			s.ImagesInvalid += invalid
			s.ImagesIncorrect += incorrect
		}

		if mode != verifyImagesOnly {
			results, invalid, incorrect := a.validator.ScanCreatorVideos(ctx, creatorPath, validate.ScanOptions{
				Media:            model.MediaTypeVideos,
				ApplyCorrections: applyCorrections,
			})
			s.VideosChecked += len(results)
			s.VideosInvalid += invalid
			s.VideosIncorrect += incorrect
			if invalid > 0 {
				if entries := invalidEntries(creatorPath, results); len(entries) > 0 {
					invalids[creator] = entries
				}
			}
		}

		s.CreatorsProcessed++
		a.sink.CreatorDone(creator)
	}

	s.Stats = result.Stats{
		Successful: s.CreatorsProcessed - s.CreatorsFailed,
		Failed:     s.CreatorsFailed,
		Total:      len(targets),
	}
	s.Corrections = a.tracker.All()
	if len(invalids) > 0 {
		s.Invalids = invalids
	}
	return s
}

// verifyTargets lists creator folders under the output root, filtered
// case-insensitively when names are given. ReadDir sorts, so scan
// order is stable.
func verifyTargets(outputDir string, names []string) ([]string, error) {
	dirents, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[strings.ToLower(name)] = true
	}

	var targets []string
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToLower(de.Name())] {
			continue
		}
		targets = append(targets, de.Name())
	}
	return targets, nil
}

// invalidEntries turns a video scan's failures into report entries
// with absolute paths, sorted by filename.
func invalidEntries(creatorPath string, results map[string]validate.FileResult) []model.InvalidMediaEntry {
	names := make([]string, 0, len(results))
	for name, r := range results {
		if !r.Valid {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	entries := make([]model.InvalidMediaEntry, 0, len(names))
	for _, name := range names {
		r := results[name]
		path := filepath.Join(creatorPath, model.MediaTypeVideos.String(), name)
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		entries = append(entries, model.InvalidMediaEntry{
			Filename: name,
			Path:     path,
			Frames:   r.Frames,
			Duration: r.Duration,
		})
	}
	return entries
}
