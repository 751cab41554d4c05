package catalogue

import (
	"testing"

	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/index"
	"github.com/halverson/repackd/internal/logger"
)

func newTestService(releases []*domain.Release) *Service {
	idx := index.New()
	idx.Rebuild(releases)
	return New(idx, logger.New("error", false, nil))
}

func TestSearchReleasesByTitle(t *testing.T) {
	svc := newTestService([]*domain.Release{
		{ID: 1, Title: "Foo Game [GOG]"},
		{ID: 2, Title: "Bar Game [FitGirl]"},
	})

	results := svc.SearchReleasesByTitle("foo")
	if len(results) != 1 || results[0].ID != 1 {
		t.Errorf("SearchReleasesByTitle(\"foo\") = %d results, want only Foo Game", len(results))
	}

	if got := svc.SearchReleasesByTitle(""); len(got) != 0 {
		t.Errorf("SearchReleasesByTitle(\"\") = %d results, want 0", len(got))
	}
}

func TestAttachReleasesToEntries(t *testing.T) {
	svc := newTestService([]*domain.Release{
		{ID: 1, Title: "FOO_GAME"}, // normalizes to "foo game"
		{ID: 2, Title: "Foo Game 2"},
	})

	entries := []Entry{
		{ID: "steam-1", Title: "Foo Game [GOG]"}, // also normalizes to "foo game"
		{ID: "steam-2", Title: "Unknown Game"},
	}

	joined := svc.AttachReleasesToEntries(entries)
	if len(joined) != 2 {
		t.Fatalf("AttachReleasesToEntries() returned %d entries, want 2", len(joined))
	}

	if len(joined[0].Releases) != 1 || joined[0].Releases[0].ID != 1 {
		t.Errorf("entry %q got %d releases, want exactly the FOO_GAME release", joined[0].Title, len(joined[0].Releases))
	}
	for _, rel := range joined[0].Releases {
		if rel.ID == 2 {
			t.Error("exact join attached the sequel's release, want exact normalized matches only")
		}
	}

	if joined[1].Releases == nil {
		t.Error("entry without matches should get an empty slice, not nil")
	}
	if len(joined[1].Releases) != 0 {
		t.Errorf("entry %q got %d releases, want 0", joined[1].Title, len(joined[1].Releases))
	}
}
