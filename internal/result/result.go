// Package result defines the outcome types operations hand to the
// display layer. The three summaries form a closed set: the printer
// switches over the concrete types and rejects anything else, so a new
// operation has to be added in both places at once.
package result

import (
	"sort"
	"strings"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/track"
)

// Operation tags a summary with the command that produced it.
type Operation string

const (
	OperationUpdate Operation = "update"
	OperationVerify Operation = "verify"
	OperationRepair Operation = "repair"
)

// FailedCreator pairs a creator with the reason their run failed.
type FailedCreator struct {
	Name   string
	Reason string
}

// Stats is the success accounting shared by every summary. The unit
// counted depends on the operation: creators for update and verify,
// files for repair.
type Stats struct {
	Successful int
	Failed     int
	Total      int
	Warnings   []string
}

// SuccessRate reports successes as a fraction of the total, 0 when
// nothing ran.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total)
}

func (s Stats) HasFailures() bool {
	return s.Failed > 0
}

func (s Stats) HasWarnings() bool {
	return len(s.Warnings) > 0
}

// Summary is the tagged union over operation outcomes.
type Summary interface {
	Operation() Operation
	isSummary()
}

// UpdateSummary is the outcome of an update run across creators.
type UpdateSummary struct {
	Stats

	APIItemsTotal    int
	FilesNeeded      int
	FilesDownloaded  int
	ImagesDownloaded int
	VideosDownloaded int

	// Corrections maps corrected file path to its extension change.
	Corrections map[string]track.Change
	// DownloadedExtensions counts fresh downloads per final extension.
	DownloadedExtensions map[string]int

	DeletedCreators []string
	FailedCreators  []FailedCreator
}

func (UpdateSummary) Operation() Operation { return OperationUpdate }
func (UpdateSummary) isSummary()           {}

func (s UpdateSummary) CorrectionCount() int {
	return len(s.Corrections)
}

// CorrectionTypes groups corrections by their "old → new" pair.
func (s UpdateSummary) CorrectionTypes() map[string]int {
	types := make(map[string]int)
	for _, c := range s.Corrections {
		types[c.Old+" → "+c.New]++
	}
	return types
}

// MediaTypesDownloaded lists the downloaded formats as display labels
// like PNG and MP4, sorted. When no per-extension counts were
// collected it falls back to the corrected extensions.
func (s UpdateSummary) MediaTypesDownloaded() []string {
	if len(s.DownloadedExtensions) > 0 {
		exts := make([]string, 0, len(s.DownloadedExtensions))
		for ext := range s.DownloadedExtensions {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		labels := make([]string, len(exts))
		for i, ext := range exts {
			labels[i] = extLabel(ext)
		}
		return labels
	}

	seen := make(map[string]bool)
	var labels []string
	for _, c := range s.Corrections {
		if c.New == "" || seen[c.New] {
			continue
		}
		seen[c.New] = true
		labels = append(labels, extLabel(c.New))
	}
	sort.Strings(labels)
	return labels
}

func extLabel(ext string) string {
	return strings.ToUpper(strings.TrimPrefix(ext, "."))
}

// VerifySummary is the outcome of a verification scan.
type VerifySummary struct {
	Stats

	CreatorsProcessed int
	CreatorsFailed    int

	ImagesChecked   int
	ImagesInvalid   int
	ImagesIncorrect int
	VideosChecked   int
	VideosInvalid   int
	VideosIncorrect int

	Corrections    map[string]track.Change
	FailedCreators []FailedCreator
	// Invalids carries the broken videos found, keyed by creator, ready
	// to be saved as a repair report.
	Invalids map[string][]model.InvalidMediaEntry
}

func (VerifySummary) Operation() Operation { return OperationVerify }
func (VerifySummary) isSummary()           {}

func (s VerifySummary) CorrectionCount() int {
	return len(s.Corrections)
}

func (s VerifySummary) TotalChecked() int {
	return s.ImagesChecked + s.VideosChecked
}

func (s VerifySummary) TotalIssues() int {
	return s.ImagesInvalid + s.ImagesIncorrect + s.VideosInvalid + s.VideosIncorrect
}

func (s VerifySummary) HasIssues() bool {
	return s.TotalIssues() > 0
}

// RepairSummary is the outcome of a repair pass over the invalid
// videos report.
type RepairSummary struct {
	Stats

	FilesRemoved      int
	FilesRedownloaded int
	// ReportKept is true when some repairs failed and the report was
	// left in place for a future run.
	ReportKept bool
}

func (RepairSummary) Operation() Operation { return OperationRepair }
func (RepairSummary) isSummary()           {}
