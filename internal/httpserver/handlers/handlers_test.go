package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/halverson/repackd/internal/catalogue"
	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/httpserver/deps"
	"github.com/halverson/repackd/internal/index"
	"github.com/halverson/repackd/internal/logger"
	"github.com/halverson/repackd/internal/scheduler"
	"github.com/halverson/repackd/internal/sources"
	"github.com/halverson/repackd/internal/store/sqlite"
)

func newTestDeps(t *testing.T) deps.Deps {
	t.Helper()

	log := logger.New("error", false, nil)

	store, err := sqlite.New(filepath.Join(t.TempDir(), "repackd.db"), log)
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	idx := index.New()
	fetcher := sources.NewFetcher(5*time.Second, 1000, 1000, log)
	trigger := make(chan struct{}, 1)

	return deps.Deps{
		Logger:      log,
		StartTime:   time.Now(),
		Store:       store,
		Index:       idx,
		Catalogue:   catalogue.New(idx, log),
		Syncer:      scheduler.NewSyncer(store, fetcher, idx, log, time.Hour, 4, trigger),
		SyncTrigger: trigger,
	}
}

func seedRelease(t *testing.T, d deps.Deps, title string) {
	t.Helper()
	ctx := context.Background()

	src := &domain.Source{URL: "http://src-" + title, Name: "Seeded", Status: domain.SourceStatusOnline}
	if err := d.Store.InsertSource(ctx, src); err != nil {
		t.Fatalf("InsertSource() error = %v", err)
	}
	releases := []*domain.Release{{
		Title:      title,
		URIs:       []string{"http://x/1"},
		FileSize:   "1 GB",
		Repacker:   "Seeded",
		UploadDate: "2024-01-01",
		SourceID:   src.ID,
	}}
	if err := d.Store.BulkInsertReleases(ctx, releases); err != nil {
		t.Fatalf("BulkInsertReleases() error = %v", err)
	}

	all, err := d.Store.ListReleases(ctx)
	if err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}
	d.Index.Rebuild(all)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestSearchHandler(t *testing.T) {
	d := newTestDeps(t)
	seedRelease(t, d, "Foo Game [GOG]")

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=foo", nil)
	rec := httptest.NewRecorder()
	Search(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp searchResponse
	decodeBody(t, rec, &resp)
	if resp.Count != 1 || len(resp.Results) != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestSearchHandlerEmptyQuery(t *testing.T) {
	d := newTestDeps(t)

	for _, target := range []string{"/api/search", "/api/search?q=%20"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		Search(d)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestReleasesHandler(t *testing.T) {
	d := newTestDeps(t)
	seedRelease(t, d, "Foo Game")

	req := httptest.NewRequest(http.MethodGet, "/api/releases", nil)
	rec := httptest.NewRecorder()
	Releases(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp releasesResponse
	decodeBody(t, rec, &resp)
	if resp.Count != 1 || len(resp.Releases) != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}
	if resp.Releases[0].Title != "Foo Game" {
		t.Errorf("title = %q, want %q", resp.Releases[0].Title, "Foo Game")
	}
}

func TestCatalogueAttachHandler(t *testing.T) {
	d := newTestDeps(t)
	seedRelease(t, d, "FOO_GAME")

	body := `{"entries":[{"id":"steam-1","title":"Foo Game [GOG]"},{"id":"steam-2","title":"Unknown Game"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/catalogue/attach", strings.NewReader(body))
	rec := httptest.NewRecorder()
	CatalogueAttach(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp attachResponse
	decodeBody(t, rec, &resp)
	if len(resp.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(resp.Entries))
	}
	if len(resp.Entries[0].Releases) != 1 {
		t.Errorf("matched entry got %d releases, want 1", len(resp.Entries[0].Releases))
	}
	if resp.Entries[1].Releases == nil || len(resp.Entries[1].Releases) != 0 {
		t.Errorf("unmatched entry should get an empty release list")
	}
}

func TestCatalogueAttachHandlerBadBody(t *testing.T) {
	d := newTestDeps(t)

	req := httptest.NewRequest(http.MethodPost, "/api/catalogue/attach", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	CatalogueAttach(d)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAddSourceHandler(t *testing.T) {
	d := newTestDeps(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(`{"name":"Foo Source","downloads":[{"title":"Foo Game","uris":["http://x/1"],"fileSize":"1 GB","uploadDate":"2024-01-01"}]}`))
	}))
	defer server.Close()

	body := `{"url":"` + server.URL + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(body))
	rec := httptest.NewRecorder()
	AddSource(d)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}
	var src domain.Source
	decodeBody(t, rec, &src)
	if src.Name != "Foo Source" {
		t.Errorf("name = %q, want %q", src.Name, "Foo Source")
	}

	// Same URL again conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(body))
	rec = httptest.NewRecorder()
	AddSource(d)(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestAddSourceHandlerInvalidDocument(t *testing.T) {
	d := newTestDeps(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"downloads":[]}`)) // missing name
	}))
	defer server.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{"url":"`+server.URL+`"}`))
	rec := httptest.NewRecorder()
	AddSource(d)(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestAddSourceHandlerMissingURL(t *testing.T) {
	d := newTestDeps(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{"url":""}`))
	rec := httptest.NewRecorder()
	AddSource(d)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListSourcesHandler(t *testing.T) {
	d := newTestDeps(t)
	seedRelease(t, d, "Foo Game")

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	rec := httptest.NewRecorder()
	ListSources(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp sourcesResponse
	decodeBody(t, rec, &resp)
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestRemoveSourceHandler(t *testing.T) {
	d := newTestDeps(t)
	seedRelease(t, d, "Foo Game")

	srcs, err := d.Store.ListSources(context.Background())
	if err != nil || len(srcs) != 1 {
		t.Fatalf("ListSources() = %v, %v", srcs, err)
	}

	r := chi.NewRouter()
	r.Delete("/api/sources/{id}", RemoveSource(d))

	req := httptest.NewRequest(http.MethodDelete, "/api/sources/99999", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/sources/abc", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/sources/1", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	if got := d.Index.Count(); got != 0 {
		t.Errorf("index count after removal = %d, want 0", got)
	}
}

func TestSyncNowHandler(t *testing.T) {
	d := newTestDeps(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	rec := httptest.NewRecorder()
	SyncNow(d)(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	// Trigger channel is full, nobody is draining it in this test.
	rec = httptest.NewRecorder()
	SyncNow(d)(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestReadyzHandler(t *testing.T) {
	d := newTestDeps(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	Readyz(d)(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before first build = %d, want 503", rec.Code)
	}

	d.Index.Rebuild(nil)

	rec = httptest.NewRecorder()
	Readyz(d)(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status after first build = %d, want 200", rec.Code)
	}
}

func TestHealthzHandler(t *testing.T) {
	d := newTestDeps(t)
	d.Version = "test"

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	Healthz(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthzResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("response = %+v, want status ok and version test", resp)
	}
}
