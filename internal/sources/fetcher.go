// Package sources fetches remote repack listing documents.
//
// A fetch is pure request/response: the fetcher holds no durable state,
// and a failed source is simply retried on the next scheduled sync.
// Remote catalogues can be tens of megabytes, so there is deliberately
// no inline retry.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/logger"
	"github.com/halverson/repackd/internal/utils"
)

// Status is the outcome of fetching one source.
type Status int

const (
	// StatusUnchanged means the stored etag still matches (HTTP 304).
	StatusUnchanged Status = iota
	// StatusUpdated means a new document was fetched and validated.
	StatusUpdated
	// StatusErrored means the fetch or validation failed.
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusUpdated:
		return "updated"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// FetchResult carries the outcome of one conditional fetch.
type FetchResult struct {
	Status    Status
	Name      string     // source name as declared by the document
	ETag      string     // validator from the response, set when Updated
	Downloads []Download // set when Updated
	Err       error      // set when Errored
}

// Fetcher performs conditional HTTP fetches of source documents.
// A shared rate limiter keeps a sync burst over many sources from
// saturating outbound bandwidth.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewFetcher creates a fetcher with the given per-request timeout and
// outbound request rate (requests per second with the given burst).
func NewFetcher(timeout time.Duration, requestsPerSecond float64, burst int, log logger.Logger) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		logger:  log,
	}
}

// Fetch issues a conditional GET for the source document. When the source
// has a stored etag it is sent as If-None-Match, and a 304 response yields
// StatusUnchanged without reading a body. Network failures, non-200
// statuses and schema violations all yield StatusErrored.
func (f *Fetcher) Fetch(ctx context.Context, src *domain.Source) FetchResult {
	if err := f.limiter.Wait(ctx); err != nil {
		return FetchResult{Status: StatusErrored, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, http.NoBody)
	if err != nil {
		return FetchResult{Status: StatusErrored, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	if src.ETag != "" {
		req.Header.Set("If-None-Match", src.ETag)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{Status: StatusErrored, Err: fmt.Errorf("failed to fetch source: %w", err)}
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode == http.StatusNotModified {
		f.logger.Debug("source not modified",
			logger.String("url", src.URL),
			logger.String("etag", src.ETag))
		return FetchResult{Status: StatusUnchanged}
	}

	if resp.StatusCode != http.StatusOK {
		return FetchResult{Status: StatusErrored, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return FetchResult{Status: StatusErrored, Err: fmt.Errorf("failed to decode document: %w", err)}
	}
	if err := doc.Validate(); err != nil {
		return FetchResult{Status: StatusErrored, Err: fmt.Errorf("invalid document: %w", err)}
	}

	return FetchResult{
		Status:    StatusUpdated,
		Name:      doc.Name,
		ETag:      resp.Header.Get("ETag"),
		Downloads: doc.Downloads,
	}
}

// MapReleases converts a fetched download batch into release records owned
// by src. The source's display name becomes the repacker attribution.
func MapReleases(src *domain.Source, downloads []Download) []*domain.Release {
	releases := make([]*domain.Release, 0, len(downloads))
	for _, dl := range downloads {
		releases = append(releases, &domain.Release{
			Title:      dl.Title,
			URIs:       dl.URIs,
			FileSize:   dl.FileSize,
			Repacker:   src.Name,
			UploadDate: dl.UploadDate,
			SourceID:   src.ID,
		})
	}
	return releases
}
