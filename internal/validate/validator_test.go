package validate

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/mock"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/track"
)

var (
	testImageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	testVideoExts = []string{".mp4", ".webm", ".mov"}
)

// helper: generate a 2x2 red PNG and return its bytes
func generatePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to generate PNG: %v", err)
	}
	return buf.Bytes()
}

// helper: generate a 2x2 blue WebP and return its bytes
func generateWebP(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := webp.Encode(buf, img, &webp.Options{Quality: 80}); err != nil {
		t.Fatalf("failed to generate WebP: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func newTestValidator(prober port.Prober, tracker *track.Tracker) (*Validator, *mock.ProgressSink) {
	sink := &mock.ProgressSink{}
	if tracker == nil {
		tracker = track.NewTracker()
	}
	return NewValidator(prober, tracker, sink, testImageExts, testVideoExts), sink
}

func TestValidateImage(t *testing.T) {
	dir := t.TempDir()
	v, _ := newTestValidator(&mock.Prober{}, nil)

	pngPath := writeFile(t, dir, "good.png", generatePNG(t))
	got := v.ValidateImage(pngPath)
	want := FileResult{Valid: true, Frames: 1, Duration: 0}
	if got != want {
		t.Errorf("ValidateImage(png) = %+v; want %+v", got, want)
	}

	junkPath := writeFile(t, dir, "junk.png", []byte("not an image"))
	if got := v.ValidateImage(junkPath); got.Valid {
		t.Errorf("ValidateImage(junk) = %+v; want invalid", got)
	}

	if got := v.ValidateImage(filepath.Join(dir, "missing.png")); got.Valid {
		t.Errorf("ValidateImage(missing) = %+v; want invalid", got)
	}
}

func TestValidateVideo_DecisionBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		probeOut  port.MediaProbe
		probeErr  error
		wantValid bool
	}{
		{"single frame", port.MediaProbe{Frames: 1, Duration: 5.0, Codec: "h264"}, nil, false},
		{"two frames", port.MediaProbe{Frames: 2, Duration: 5.0, Codec: "h264"}, nil, true},
		{"vp9 without metadata", port.MediaProbe{Frames: 0, Duration: 0, Codec: "vp9"}, nil, true},
		{"h264 without duration", port.MediaProbe{Frames: 0, Duration: 0, Codec: "h264"}, nil, false},
		{"zero frames", port.MediaProbe{Frames: 0, Duration: 5.0, Codec: "h264"}, nil, false},
		{"image codec in container", port.MediaProbe{Frames: 100, Duration: 5.0, Codec: "webp"}, nil, false},
		{"probe failure", port.MediaProbe{}, errors.New("boom"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, _ := newTestValidator(&mock.Prober{ProbeOut: tc.probeOut, ProbeErr: tc.probeErr}, nil)

			got := v.ValidateVideo(context.Background(), "any.mp4")
			if got.Valid != tc.wantValid {
				t.Errorf("Valid = %v; want %v", got.Valid, tc.wantValid)
			}
			if tc.probeErr != nil && (got.Frames != 0 || got.Duration != 0) {
				t.Errorf("probe failure should zero the result, got %+v", got)
			}
		})
	}
}

func TestScanCreatorVideos(t *testing.T) {
	dir := t.TempDir()
	goodPath := writeFile(t, dir, filepath.Join("Videos", "good.mp4"), []byte("x"))
	badPath := writeFile(t, dir, filepath.Join("Videos", "bad.mp4"), []byte("x"))
	writeFile(t, dir, filepath.Join("Videos", "note.txt"), []byte("not a video"))

	prober := &mock.Prober{
		ProbeOutByPath: map[string]port.MediaProbe{
			goodPath: {Frames: 100, Duration: 4.0, Codec: "h264"},
			badPath:  {Frames: 1, Duration: 4.0, Codec: "h264"},
		},
	}
	tracker := track.NewTracker()
	tracker.Record(badPath, ".webm", ".mp4")
	v, sink := newTestValidator(prober, tracker)

	results, invalid, incorrect := v.ScanCreatorVideos(context.Background(), dir, ScanOptions{})

	if len(results) != 2 {
		t.Fatalf("results has %d entries; want 2 (non-video files skipped)", len(results))
	}
	if !results["good.mp4"].Valid {
		t.Error("good.mp4 should be valid")
	}
	if results["bad.mp4"].Valid {
		t.Error("bad.mp4 should be invalid")
	}
	if invalid != 1 {
		t.Errorf("invalid = %d; want 1", invalid)
	}
	if incorrect != 1 {
		t.Errorf("incorrect = %d; want 1", incorrect)
	}
	if !sink.VerifyTickCalled {
		t.Error("expected verification progress ticks")
	}
}

func TestScanCreatorVideos_MissingFolder(t *testing.T) {
	v, _ := newTestValidator(&mock.Prober{}, nil)

	results, invalid, incorrect := v.ScanCreatorVideos(context.Background(), t.TempDir(), ScanOptions{})
	if len(results) != 0 || invalid != 0 || incorrect != 0 {
		t.Errorf("missing folder should yield empty results, got %d/%d/%d", len(results), invalid, incorrect)
	}
}

func TestScanCreatorImages_AppliesCorrections(t *testing.T) {
	dir := t.TempDir()
	// a WebP hiding under a .jpg name
	writeFile(t, dir, filepath.Join("Images", "photo.jpg"), generateWebP(t))

	tracker := track.NewTracker()
	v, _ := newTestValidator(&mock.Prober{}, tracker)

	results, invalid, incorrect := v.ScanCreatorImages(context.Background(), dir, true)

	if invalid != 0 {
		t.Errorf("invalid = %d; want 0 (the bytes are a real image)", invalid)
	}
	// the correction is fresh, not pre-existing, so it does not count here
	if incorrect != 0 {
		t.Errorf("incorrect = %d; want 0", incorrect)
	}
	if _, ok := results["photo.webp"]; !ok {
		t.Fatalf("results not re-keyed to corrected name, got %v", keys(results))
	}
	if _, ok := results["photo.jpg"]; ok {
		t.Error("old name still present in results after rename")
	}

	oldPath := filepath.Join(dir, "Images", "photo.jpg")
	change, ok := tracker.Correction(oldPath)
	if !ok {
		t.Fatal("expected the rename to be recorded in the tracker")
	}
	if change.Old != ".jpg" || change.New != ".webp" {
		t.Errorf("recorded change = %+v; want .jpg to .webp", change)
	}

	if _, err := os.Stat(filepath.Join(dir, "Images", "photo.webp")); err != nil {
		t.Errorf("corrected file missing on disk: %v", err)
	}
}

func TestScanCreatorVideos_SecondScanCountsPriorCorrection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("Images", "photo.jpg"), generateWebP(t))

	tracker := track.NewTracker()
	v, _ := newTestValidator(&mock.Prober{}, tracker)

	if _, _, incorrect := v.ScanCreatorImages(context.Background(), dir, true); incorrect != 0 {
		t.Fatalf("first scan incorrect = %d; want 0", incorrect)
	}

	// the first scan renamed the file and recorded it under its old
	// path; only a correction recorded for the *current* path counts
	tracker.Record(filepath.Join(dir, "Images", "photo.webp"), ".jpg", ".webp")

	_, _, incorrect := v.ScanCreatorImages(context.Background(), dir, false)
	if incorrect != 1 {
		t.Errorf("second scan incorrect = %d; want 1", incorrect)
	}
}

func TestScanCreatorVideos_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("Videos", "a.mp4"), []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, _ := newTestValidator(&mock.Prober{ProbeOut: port.MediaProbe{Frames: 10, Duration: 2, Codec: "h264"}}, nil)
	results, _, _ := v.ScanCreatorVideos(ctx, dir, ScanOptions{})
	if len(results) != 0 {
		t.Errorf("cancelled scan should stop before validating, got %d results", len(results))
	}
}

func keys(m map[string]FileResult) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
