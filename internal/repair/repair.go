// Package repair drives the verify→repair loop for broken videos: it
// consumes the report produced by verification, deletes the files it
// names and redownloads each one from a URL rebuilt out of nothing but
// the filename.
package repair

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/civitai"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
)

// DirProvider resolves the on-disk folders a creator's media lands in.
// *library.Manager satisfies it.
type DirProvider interface {
	EnsureCreatorDirs(creator string) (map[model.MediaType]string, error)
}

// Manager replaces and redownloads the videos listed in a report.
type Manager struct {
	dirs       DirProvider
	downloader port.Downloader
	sink       port.ProgressSink
	confirm    func(prompt string) bool
}

// NewManager wires a repair manager. confirm may be nil, in which case
// only autoYes runs proceed.
func NewManager(dirs DirProvider, downloader port.Downloader, sink port.ProgressSink, confirm func(prompt string) bool) *Manager {
	return &Manager{
		dirs:       dirs,
		downloader: downloader,
		sink:       sink,
		confirm:    confirm,
	}
}

// RepairVideos loads the report at reportPath, removes every listed
// file and redownloads it at original quality. The report is deleted
// only when every single entry was repaired, so a later run can retry
// the leftovers. Returns how many repairs were attempted and how many
// succeeded.
func (m *Manager) RepairVideos(ctx context.Context, reportPath string, autoYes bool) (int, int, error) {
	report, err := LoadReport(reportPath)
	if err != nil {
		return 0, 0, err
	}
	if len(report.Creators) == 0 {
		m.sink.Message("No invalid videos listed in the report.")
		return 0, 0, nil
	}

	total := report.TotalEntries()
	if !autoYes {
		prompt := fmt.Sprintf("Found %d invalid video(s) across %d creator(s). Delete and redownload them?", total, len(report.Creators))
		if m.confirm == nil || !m.confirm(prompt) {
			m.sink.Message("Repair cancelled.")
			return 0, 0, nil
		}
	}

	names := make([]string, 0, len(report.Creators))
	for name := range report.Creators {
		names = append(names, name)
	}
	sort.Strings(names)

	succeeded := 0
	for _, name := range names {
		entries := report.Creators[name]
		m.sink.StartCreator(name)

		for i, entry := range entries {
			if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
				logger.Warnf(ctx, "could not remove %s: %v", entry.Path, err)
			}
			m.sink.RemoveTick(i+1, len(entries))
		}

		dirs, err := m.dirs.EnsureCreatorDirs(name)
		if err != nil {
			logger.Errorf(ctx, "skipping redownloads for %s: %v", name, err)
			m.sink.CreatorDone(name)
			continue
		}

		for i, entry := range entries {
			item := model.MediaItem{URL: civitai.BuildVideoURL(entry.Filename)}
			if err := m.downloader.DownloadOne(ctx, item, name, dirs); err != nil {
				logger.Errorf(ctx, "repair failed for %s: %v", entry.Filename, err)
			} else {
				succeeded++
			}
			m.sink.RepairTick(i+1, len(entries))
			if ctx.Err() != nil {
				return total, succeeded, ctx.Err()
			}
		}
		m.sink.CreatorDone(name)
	}

	if succeeded == total {
		if err := os.Remove(reportPath); err != nil {
			logger.Warnf(ctx, "could not remove %s: %v", reportPath, err)
		} else {
			m.sink.Message(ReportFileName + " removed, all videos repaired.")
		}
	} else {
		m.sink.Message(fmt.Sprintf("%s kept, %d of %d repairs failed.", ReportFileName, total-succeeded, total))
	}
	return total, succeeded, nil
}
