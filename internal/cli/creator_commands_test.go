package cli

import (
	"testing"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/config"
)

func TestAddedJobs(t *testing.T) {
	creators := []config.Creator{
		{Username: "Alice", MediaTypes: &config.MediaTypes{Images: true}},
		{Username: "bob"},
		{Username: "carol"},
	}

	jobs := addedJobs(creators, []string{"ALICE", "alice", "bob", "stranger"}, testDefaults)
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d; want 2 (dupes and unknowns dropped)", len(jobs))
	}
	if jobs[0].Username != "Alice" {
		t.Errorf("jobs[0].Username = %q; want config casing %q", jobs[0].Username, "Alice")
	}
	if !jobs[0].Media.Images || jobs[0].Media.Videos {
		t.Errorf("jobs[0].Media = %+v; want the creator's own settings", jobs[0].Media)
	}
	if jobs[1].Username != "bob" || jobs[1].Media != testDefaults {
		t.Errorf("jobs[1] = %+v; want defaults for a plain entry", jobs[1])
	}
}

func TestRunRemoveValidation(t *testing.T) {
	if err := runRemove(nil); err == nil {
		t.Error("expected an error when no creator is named")
	}
	if err := runRemove([]string{"alice", "bob"}); err == nil {
		t.Error("expected an error for more than one creator")
	}
}
