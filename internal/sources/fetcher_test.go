package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/logger"
)

const validBody = `{
	"name": "Test Source",
	"downloads": [
		{"title": "Foo Game [GOG]", "uris": ["http://x/1"], "fileSize": "1 GB", "uploadDate": "2024-01-01"}
	]
}`

func newTestFetcher(timeout time.Duration) *Fetcher {
	return NewFetcher(timeout, 100, 100, logger.New("error", false, nil))
}

func TestFetchUpdated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			t.Error("unconditional fetch should not send If-None-Match")
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(validBody))
	}))
	defer server.Close()

	fetcher := newTestFetcher(5 * time.Second)
	result := fetcher.Fetch(context.Background(), &domain.Source{URL: server.URL})

	if result.Status != StatusUpdated {
		t.Fatalf("Fetch() status = %v, want updated (err = %v)", result.Status, result.Err)
	}
	if result.ETag != `"v1"` {
		t.Errorf("etag = %q, want %q", result.ETag, `"v1"`)
	}
	if result.Name != "Test Source" {
		t.Errorf("name = %q, want %q", result.Name, "Test Source")
	}
	if len(result.Downloads) != 1 || result.Downloads[0].Title != "Foo Game [GOG]" {
		t.Errorf("downloads = %+v, want the single Foo Game entry", result.Downloads)
	}
}

func TestFetchUnchanged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(validBody))
	}))
	defer server.Close()

	fetcher := newTestFetcher(5 * time.Second)
	result := fetcher.Fetch(context.Background(), &domain.Source{URL: server.URL, ETag: `"v1"`})

	if result.Status != StatusUnchanged {
		t.Fatalf("Fetch() status = %v, want unchanged (err = %v)", result.Status, result.Err)
	}
	if len(result.Downloads) != 0 {
		t.Errorf("unchanged fetch returned %d downloads, want 0", len(result.Downloads))
	}
}

func TestFetchMalformedDocument(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>not a source</html>`},
		{name: "missing name", body: `{"downloads": []}`},
		{name: "missing downloads", body: `{"name": "x"}`},
		{name: "download without uris", body: `{"name": "x", "downloads": [{"title": "Foo", "uris": [], "fileSize": "1 GB", "uploadDate": "2024-01-01"}]}`},
		{name: "download without title", body: `{"name": "x", "downloads": [{"uris": ["http://x/1"], "fileSize": "1 GB", "uploadDate": "2024-01-01"}]}`},
		{name: "download without fileSize", body: `{"name": "x", "downloads": [{"title": "Foo Game", "uris": ["http://x/1"], "uploadDate": "2024-01-01"}]}`},
		{name: "download without uploadDate", body: `{"name": "x", "downloads": [{"title": "Foo Game", "uris": ["http://x/1"], "fileSize": "1 GB"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			fetcher := newTestFetcher(5 * time.Second)
			result := fetcher.Fetch(context.Background(), &domain.Source{URL: server.URL})

			if result.Status != StatusErrored {
				t.Errorf("Fetch() status = %v, want errored", result.Status)
			}
			if result.Err == nil {
				t.Error("Fetch() errored result should carry an error")
			}
		})
	}
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := newTestFetcher(5 * time.Second)
	result := fetcher.Fetch(context.Background(), &domain.Source{URL: server.URL})

	if result.Status != StatusErrored {
		t.Errorf("Fetch() status = %v, want errored", result.Status)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	fetcher := newTestFetcher(50 * time.Millisecond)
	result := fetcher.Fetch(context.Background(), &domain.Source{URL: server.URL})

	if result.Status != StatusErrored {
		t.Errorf("Fetch() status = %v, want errored on timeout", result.Status)
	}
}

func TestMapReleases(t *testing.T) {
	src := &domain.Source{ID: 7, Name: "Test Source"}
	downloads := []Download{
		{Title: "Foo Game", URIs: []string{"http://x/1"}, FileSize: "1 GB", UploadDate: "2024-01-01"},
		{Title: "Bar Game", URIs: []string{"http://x/2", "http://x/3"}, FileSize: "2 GB", UploadDate: "2024-02-01"},
	}

	releases := MapReleases(src, downloads)
	if len(releases) != 2 {
		t.Fatalf("MapReleases() returned %d releases, want 2", len(releases))
	}
	for _, rel := range releases {
		if rel.SourceID != src.ID {
			t.Errorf("release %q source id = %d, want %d", rel.Title, rel.SourceID, src.ID)
		}
		if rel.Repacker != "Test Source" {
			t.Errorf("release %q repacker = %q, want source name", rel.Title, rel.Repacker)
		}
	}
	if len(releases[1].URIs) != 2 {
		t.Errorf("release URIs = %v, want both preserved", releases[1].URIs)
	}
}
