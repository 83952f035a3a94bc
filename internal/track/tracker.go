package track

import (
	"path/filepath"
	"sync"
)

// Change is the extension pair recorded for one corrected file.
type Change struct {
	Old string
	New string
}

// Correction is one tracked rename, exported for report output.
type Correction struct {
	Filename string `json:"filename"`
	FullPath string `json:"full_path"`
	OldExt   string `json:"old_extension"`
	NewExt   string `json:"new_extension"`
}

// Tracker is the shared ledger of extension corrections made during a
// run. A single instance is handed to the downloader, the validators
// and the repair manager; Record is safe to call from the download
// loop and the retry worker at the same time.
type Tracker struct {
	mu          sync.Mutex
	corrections map[string]Change
}

func NewTracker() *Tracker {
	return &Tracker{corrections: make(map[string]Change)}
}

// Record upserts the correction for path. A later correction to the
// same path replaces the earlier one.
func (t *Tracker) Record(path, oldExt, newExt string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.corrections[path] = Change{Old: oldExt, New: newExt}
}

// Correction returns the recorded change for path, if any.
func (t *Tracker) Correction(path string) (Change, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.corrections[path]
	return c, ok
}

// All returns a copy of every recorded correction keyed by path.
func (t *Tracker) All() map[string]Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Change, len(t.corrections))
	for path, c := range t.corrections {
		out[path] = c
	}
	return out
}

// List returns every correction in report form.
func (t *Tracker) List() []Correction {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Correction, 0, len(t.corrections))
	for path, c := range t.corrections {
		out = append(out, Correction{
			Filename: filepath.Base(path),
			FullPath: path,
			OldExt:   c.Old,
			NewExt:   c.New,
		})
	}
	return out
}

// Merge unions corrections gathered elsewhere into this tracker.
func (t *Tracker) Merge(other map[string]Change) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, c := range other {
		t.corrections[path] = c
	}
}

// Len reports how many files currently have a recorded correction.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.corrections)
}

// Clear drops every recorded correction.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.corrections = make(map[string]Change)
}

// Summary counts corrections grouped by "old → new" pair.
func (t *Tracker) Summary() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	summary := make(map[string]int)
	for _, c := range t.corrections {
		summary[c.Old+" → "+c.New]++
	}
	return summary
}
