package track

import (
	"fmt"
	"sync"
	"testing"
)

func TestTracker_RecordAndLookup(t *testing.T) {
	tr := NewTracker()

	tr.Record("/out/alice/images/a.png", ".jpg", ".png")

	got, ok := tr.Correction("/out/alice/images/a.png")
	if !ok {
		t.Fatal("expected a correction, got none")
	}
	want := Change{Old: ".jpg", New: ".png"}
	if got != want {
		t.Errorf("correction = %+v; want %+v", got, want)
	}

	if _, ok := tr.Correction("/out/alice/images/other.png"); ok {
		t.Error("expected no correction for an unrecorded path")
	}
}

func TestTracker_LastWriteWins(t *testing.T) {
	tr := NewTracker()

	tr.Record("/out/a.bin", ".jpg", ".png")
	tr.Record("/out/a.bin", ".png", ".webp")

	got, ok := tr.Correction("/out/a.bin")
	if !ok {
		t.Fatal("expected a correction, got none")
	}
	want := Change{Old: ".png", New: ".webp"}
	if got != want {
		t.Errorf("correction = %+v; want %+v", got, want)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d; want 1", tr.Len())
	}
}

func TestTracker_AllReturnsCopy(t *testing.T) {
	tr := NewTracker()
	tr.Record("/out/a.bin", ".jpg", ".png")

	all := tr.All()
	all["/out/b.bin"] = Change{Old: ".x", New: ".y"}

	if tr.Len() != 1 {
		t.Errorf("mutating the returned map changed the tracker: Len() = %d; want 1", tr.Len())
	}
}

func TestTracker_Merge(t *testing.T) {
	tr := NewTracker()
	tr.Record("/out/a.bin", ".jpg", ".png")

	tr.Merge(map[string]Change{
		"/out/a.bin": {Old: ".gif", New: ".webp"},
		"/out/b.bin": {Old: ".mp4", New: ".webm"},
	})

	if tr.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", tr.Len())
	}
	got, _ := tr.Correction("/out/a.bin")
	if got != (Change{Old: ".gif", New: ".webp"}) {
		t.Errorf("merge should overwrite existing entries, got %+v", got)
	}
}

func TestTracker_Clear(t *testing.T) {
	tr := NewTracker()
	tr.Record("/out/a.bin", ".jpg", ".png")

	tr.Clear()

	if tr.Len() != 0 {
		t.Errorf("Len() after Clear = %d; want 0", tr.Len())
	}
}

func TestTracker_Summary(t *testing.T) {
	tr := NewTracker()
	tr.Record("/out/a.bin", ".jpg", ".png")
	tr.Record("/out/b.bin", ".jpg", ".png")
	tr.Record("/out/c.bin", ".mp4", ".webm")

	summary := tr.Summary()
	if summary[".jpg → .png"] != 2 {
		t.Errorf("summary[.jpg → .png] = %d; want 2", summary[".jpg → .png"])
	}
	if summary[".mp4 → .webm"] != 1 {
		t.Errorf("summary[.mp4 → .webm] = %d; want 1", summary[".mp4 → .webm"])
	}
}

func TestTracker_List(t *testing.T) {
	tr := NewTracker()
	tr.Record("/out/alice/images/a.png", ".jpg", ".png")

	list := tr.List()
	if len(list) != 1 {
		t.Fatalf("List() returned %d entries; want 1", len(list))
	}
	if list[0].Filename != "a.png" {
		t.Errorf("Filename = %q; want %q", list[0].Filename, "a.png")
	}
	if list[0].FullPath != "/out/alice/images/a.png" {
		t.Errorf("FullPath = %q; want %q", list[0].FullPath, "/out/alice/images/a.png")
	}
}

func TestTracker_ConcurrentRecords(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				tr.Record(fmt.Sprintf("/out/w%d/f%d.bin", w, i), ".jpg", ".png")
			}
		}(w)
	}
	wg.Wait()

	if tr.Len() != 200 {
		t.Errorf("Len() = %d; want 200", tr.Len())
	}
}
