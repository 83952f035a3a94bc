package validate

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/sniff"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/track"
)

// imageCodecs are codec names that mean a "video" file is actually a
// still image packed in a video container.
var imageCodecs = map[string]struct{}{
	"webp":  {},
	"png":   {},
	"jpeg":  {},
	"mjpeg": {},
	"gif":   {},
	"bmp":   {},
}

// FileResult is the verdict for one checked file.
type FileResult struct {
	Valid    bool
	Frames   int
	Duration float64
}

// ScanOptions steers a creator folder scan.
type ScanOptions struct {
	// Folder is the subfolder under the creator dir, "Videos" when empty.
	Folder string
	// Media picks the validator; Images runs the sniff-based image
	// check, anything else runs the probe-based video check.
	Media model.MediaType
	// ApplyCorrections renames mislabeled files on the spot and records
	// the change in the tracker.
	ApplyCorrections bool
}

// Validator checks downloaded media integrity. Image checks are pure
// magic-byte sniffs; video checks go through the decode prober.
type Validator struct {
	prober    port.Prober
	tracker   *track.Tracker
	sink      port.ProgressSink
	imageExts []string
	videoExts []string
}

func NewValidator(prober port.Prober, tracker *track.Tracker, sink port.ProgressSink, imageExts, videoExts []string) *Validator {
	return &Validator{
		prober:    prober,
		tracker:   tracker,
		sink:      sink,
		imageExts: imageExts,
		videoExts: videoExts,
	}
}

// ValidateImage checks that the bytes on disk actually are an image.
// Frames and duration are fixed sentinels; those dimensions do not
// exist for stills.
func (v *Validator) ValidateImage(path string) FileResult {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return FileResult{}
	}
	res, ok := sniff.Detect(path)
	if !ok {
		return FileResult{}
	}
	return FileResult{Valid: res.Kind == sniff.KindImage, Frames: 1, Duration: 0}
}

// ValidateVideo probes the file and applies the decision policy in
// order: unprobeable files are invalid, image codecs in a video
// container are invalid, vp9 is trusted regardless of its unreliable
// frame and duration metadata, then zero duration and single-frame
// files are rejected.
func (v *Validator) ValidateVideo(ctx context.Context, path string) FileResult {
	info, err := v.prober.Probe(ctx, path)
	if err != nil {
		logger.Debugf(ctx, "probe failed for %s: %v", path, err)
		return FileResult{}
	}

	if _, isImage := imageCodecs[info.Codec]; isImage {
		return FileResult{Valid: false, Frames: info.Frames, Duration: info.Duration}
	}
	if info.Codec == "vp9" {
		return FileResult{Valid: true, Frames: info.Frames, Duration: info.Duration}
	}
	if info.Duration <= 0 {
		return FileResult{Valid: false, Frames: info.Frames, Duration: info.Duration}
	}
	if info.Frames <= 1 {
		return FileResult{Valid: false, Frames: info.Frames, Duration: info.Duration}
	}
	return FileResult{Valid: true, Frames: info.Frames, Duration: info.Duration}
}

// ScanCreatorVideos walks one subfolder of a creator directory and
// validates every file in it. A folder named "videos" (any casing)
// restricts the walk to the configured video extensions; any other
// folder takes every file, which is what lets an image scan catch
// videos hiding under image extensions. Results are keyed by file
// name; renames made with ApplyCorrections re-key the entry so the
// returned map reflects the on-disk names.
func (v *Validator) ScanCreatorVideos(ctx context.Context, creatorPath string, opts ScanOptions) (map[string]FileResult, int, int) {
	results := make(map[string]FileResult)

	folder := opts.Folder
	if folder == "" {
		folder = "Videos"
	}
	if opts.Media == "" {
		opts.Media = model.MediaTypeVideos
	}
	target := filepath.Join(creatorPath, folder)

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return results, 0, 0
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		logger.Warnf(ctx, "failed to scan folder %s: %v", target, err)
		return results, 0, 0
	}

	videosOnly := strings.EqualFold(folder, "videos")

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if videosOnly && !hasExtension(entry.Name(), v.videoExts) {
			continue
		}
		files = append(files, entry.Name())
	}

	invalid := 0
	incorrect := 0

	for idx, name := range files {
		if ctx.Err() != nil {
			return results, invalid, incorrect
		}

		path := filepath.Join(target, name)

		var res FileResult
		if opts.Media == model.MediaTypeImages {
			res = v.ValidateImage(path)
		} else {
			res = v.ValidateVideo(ctx, path)
		}
		results[name] = res

		if !res.Valid {
			invalid++
		}
		if _, ok := v.tracker.Correction(path); ok {
			incorrect++
		}

		if opts.ApplyCorrections {
			newPath, corrected := sniff.ValidateAndCorrect(path, v.imageExts, v.videoExts, nil, true)
			if corrected {
				v.tracker.Record(path,
					strings.ToLower(filepath.Ext(path)),
					strings.ToLower(filepath.Ext(newPath)))
				results[filepath.Base(newPath)] = results[name]
				delete(results, name)
			}
		}

		v.sink.VerifyTick(opts.Media, idx+1, invalid, incorrect)
	}

	return results, invalid, incorrect
}

// ScanCreatorImages is the image-folder variant of ScanCreatorVideos.
func (v *Validator) ScanCreatorImages(ctx context.Context, creatorPath string, applyCorrections bool) (map[string]FileResult, int, int) {
	return v.ScanCreatorVideos(ctx, creatorPath, ScanOptions{
		Folder:           "Images",
		Media:            model.MediaTypeImages,
		ApplyCorrections: applyCorrections,
	})
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
