package repair

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/civitai"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/mock"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
)

type stubDirs struct {
	root string
	err  error
}

func (s stubDirs) EnsureCreatorDirs(creator string) (map[model.MediaType]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	base := filepath.Join(s.root, creator)
	return map[model.MediaType]string{
		model.MediaTypeImages: filepath.Join(base, "images"),
		model.MediaTypeVideos: filepath.Join(base, "videos"),
		model.MediaTypeOther:  filepath.Join(base, "other"),
	}, nil
}

// writeBrokenVideo plants a file standing in for a corrupt download and
// returns its report entry.
func writeBrokenVideo(t *testing.T, root, creator, filename string) model.InvalidMediaEntry {
	t.Helper()
	dir := filepath.Join(root, creator, "videos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte("broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	return model.InvalidMediaEntry{Filename: filename, Path: path, Frames: 1, Duration: 0.04}
}

func writeReport(t *testing.T, root string, invalids map[string][]model.InvalidMediaEntry) string {
	t.Helper()
	path := filepath.Join(root, ReportFileName)
	if _, err := SaveReport(invalids, path, true, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRepairVideosAllSuccessDeletesReport(t *testing.T) {
	root := t.TempDir()
	invalids := map[string][]model.InvalidMediaEntry{
		"alice": {writeBrokenVideo(t, root, "alice", "clip.mp4")},
		"bob": {
			writeBrokenVideo(t, root, "bob", "dance.webm"),
			writeBrokenVideo(t, root, "bob", "loop.mp4"),
		},
	}
	reportPath := writeReport(t, root, invalids)

	dl := &mock.Downloader{}
	sink := &mock.ProgressSink{}
	m := NewManager(stubDirs{root: root}, dl, sink, nil)

	attempted, succeeded, err := m.RepairVideos(context.Background(), reportPath, true)
	if err != nil {
		t.Fatalf("RepairVideos() error = %v", err)
	}
	if attempted != 3 || succeeded != 3 {
		t.Errorf("RepairVideos() = (%d, %d); want (3, 3)", attempted, succeeded)
	}

	for _, entries := range invalids {
		for _, e := range entries {
			if _, err := os.Stat(e.Path); !os.IsNotExist(err) {
				t.Errorf("%s still exists after repair", e.Path)
			}
		}
	}
	if _, err := os.Stat(reportPath); !os.IsNotExist(err) {
		t.Error("report still exists after a fully successful repair")
	}

	if len(dl.OneItems) != 3 {
		t.Fatalf("DownloadOne called %d times; want 3", len(dl.OneItems))
	}
	// Creators are repaired in sorted order and each URL is rebuilt from
	// the filename alone.
	if want := civitai.BuildVideoURL("clip.mp4"); dl.OneItems[0].URL != want {
		t.Errorf("first repair URL = %q; want %q", dl.OneItems[0].URL, want)
	}
	if !sink.RemoveTickCalled || !sink.RepairTickCalled {
		t.Error("expected removal and repair progress ticks")
	}
}

func TestRepairVideosFailureKeepsReport(t *testing.T) {
	root := t.TempDir()
	invalids := map[string][]model.InvalidMediaEntry{
		"bob": {
			writeBrokenVideo(t, root, "bob", "dance.webm"),
			writeBrokenVideo(t, root, "bob", "loop.mp4"),
		},
	}
	reportPath := writeReport(t, root, invalids)

	dl := &mock.Downloader{DownloadOneErrs: []error{nil, errors.New("server hiccup")}}
	sink := &mock.ProgressSink{}
	m := NewManager(stubDirs{root: root}, dl, sink, nil)

	attempted, succeeded, err := m.RepairVideos(context.Background(), reportPath, true)
	if err != nil {
		t.Fatalf("RepairVideos() error = %v", err)
	}
	if attempted != 2 || succeeded != 1 {
		t.Errorf("RepairVideos() = (%d, %d); want (2, 1)", attempted, succeeded)
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Error("report was deleted even though a repair failed")
	}
}

func TestRepairVideosNoReport(t *testing.T) {
	root := t.TempDir()
	dl := &mock.Downloader{}
	m := NewManager(stubDirs{root: root}, dl, &mock.ProgressSink{}, nil)

	_, _, err := m.RepairVideos(context.Background(), filepath.Join(root, ReportFileName), true)
	if !errors.Is(err, ErrNoReport) {
		t.Errorf("RepairVideos() error = %v; want ErrNoReport", err)
	}
	if dl.DownloadOneCalled {
		t.Error("DownloadOne called without a report")
	}
}

func TestRepairVideosEmptyReport(t *testing.T) {
	root := t.TempDir()
	reportPath := writeReport(t, root, map[string][]model.InvalidMediaEntry{})

	dl := &mock.Downloader{}
	m := NewManager(stubDirs{root: root}, dl, &mock.ProgressSink{}, nil)

	attempted, succeeded, err := m.RepairVideos(context.Background(), reportPath, true)
	if err != nil || attempted != 0 || succeeded != 0 {
		t.Errorf("RepairVideos() = (%d, %d, %v); want (0, 0, nil)", attempted, succeeded, err)
	}
	if dl.DownloadOneCalled {
		t.Error("DownloadOne called for an empty report")
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Error("empty report should be left in place")
	}
}

func TestRepairVideosDeclinedConfirmation(t *testing.T) {
	root := t.TempDir()
	entry := writeBrokenVideo(t, root, "alice", "clip.mp4")
	reportPath := writeReport(t, root, map[string][]model.InvalidMediaEntry{"alice": {entry}})

	dl := &mock.Downloader{}
	m := NewManager(stubDirs{root: root}, dl, &mock.ProgressSink{}, func(string) bool { return false })

	attempted, succeeded, err := m.RepairVideos(context.Background(), reportPath, false)
	if err != nil || attempted != 0 || succeeded != 0 {
		t.Errorf("RepairVideos() = (%d, %d, %v); want (0, 0, nil)", attempted, succeeded, err)
	}
	if _, err := os.Stat(entry.Path); err != nil {
		t.Error("file was removed despite declined confirmation")
	}
	if dl.DownloadOneCalled {
		t.Error("DownloadOne called despite declined confirmation")
	}
}

func TestRepairVideosMissingFileStillRedownloaded(t *testing.T) {
	root := t.TempDir()
	entry := model.InvalidMediaEntry{
		Filename: "gone.mp4",
		Path:     filepath.Join(root, "alice", "videos", "gone.mp4"),
		Frames:   0,
		Duration: 0,
	}
	reportPath := writeReport(t, root, map[string][]model.InvalidMediaEntry{"alice": {entry}})

	dl := &mock.Downloader{}
	m := NewManager(stubDirs{root: root}, dl, &mock.ProgressSink{}, nil)

	attempted, succeeded, err := m.RepairVideos(context.Background(), reportPath, true)
	if err != nil {
		t.Fatalf("RepairVideos() error = %v", err)
	}
	if attempted != 1 || succeeded != 1 {
		t.Errorf("RepairVideos() = (%d, %d); want (1, 1)", attempted, succeeded)
	}
}
