// Package scheduler coordinates sync cycles across all registered sources.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/index"
	"github.com/halverson/repackd/internal/logger"
	"github.com/halverson/repackd/internal/sources"
	"github.com/halverson/repackd/internal/store/sqlite"
)

// SourceOutcome is the result of syncing one source within a cycle.
type SourceOutcome struct {
	Source   *domain.Source
	Status   sources.Status
	Imported int   // releases handed to the store (pre-dedup)
	Err      error // fetch or store error for this source only
}

// Report summarizes one full sync cycle.
type Report struct {
	Outcomes []SourceOutcome
	Indexed  int // releases in the index generation built at the end
	Duration time.Duration
}

// Syncer runs the sync cycle: fetch every source concurrently, apply each
// result to the store in its own transaction, then rebuild the search
// index once everything has settled.
type Syncer struct {
	store         *sqlite.Store
	fetcher       *sources.Fetcher
	index         *index.Index
	logger        logger.Logger
	interval      time.Duration
	workers       int
	stopCh        chan struct{}
	manualTrigger chan struct{}

	// Serializes store mutations and rebuilds: a sync cycle, an add and a
	// removal can otherwise interleave so that a rebuild from a stale
	// store snapshot swaps in last and resurrects deleted releases.
	mu sync.Mutex
}

// NewSyncer creates a syncer. workers bounds how many source fetches run
// concurrently; manualTrigger lets callers request an immediate cycle.
func NewSyncer(
	store *sqlite.Store,
	fetcher *sources.Fetcher,
	idx *index.Index,
	log logger.Logger,
	interval time.Duration,
	workers int,
	manualTrigger chan struct{},
) *Syncer {
	if workers < 1 {
		workers = 1
	}
	return &Syncer{
		store:         store,
		fetcher:       fetcher,
		index:         idx,
		logger:        log,
		interval:      interval,
		workers:       workers,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start warms the index from the store so search works before the first
// cycle completes, then runs an immediate sync and keeps syncing on the
// configured interval and on manual triggers.
func (s *Syncer) Start(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		return fmt.Errorf("initial index build failed: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()

		if _, err := s.SyncAll(ctx); err != nil {
			s.logger.Error("initial sync failed", logger.Error(err))
		}

		for {
			select {
			case <-ticker.C:
				if _, err := s.SyncAll(ctx); err != nil {
					s.logger.Error("scheduled sync failed", logger.Error(err))
				}
			case <-s.manualTrigger:
				s.logger.Info("manual sync triggered")
				if _, err := s.SyncAll(ctx); err != nil {
					s.logger.Error("manual sync failed", logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the periodic sync loop.
func (s *Syncer) Stop() {
	close(s.stopCh)
}

// SyncAll runs one full cycle. Per-source failures are recorded in the
// report and never abort sibling sources; the returned error covers only
// cycle-level failures (listing sources, rebuilding the index).
func (s *Syncer) SyncAll(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	srcs, err := s.store.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	s.logger.Info("sync cycle started",
		logger.Int("sources", len(srcs)),
		logger.Int("workers", s.workers))

	// Fetch all sources through a bounded worker pool. The index rebuild
	// below must not start until every fetch has settled.
	results := make([]sources.FetchResult, len(srcs))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src *domain.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.fetcher.Fetch(ctx, src)
		}(i, src)
	}
	wg.Wait()

	report := &Report{Outcomes: make([]SourceOutcome, 0, len(srcs))}
	for i, src := range srcs {
		report.Outcomes = append(report.Outcomes, s.applyResult(ctx, src, results[i]))
	}

	if err := s.Rebuild(ctx); err != nil {
		return report, fmt.Errorf("index rebuild failed: %w", err)
	}

	report.Indexed = s.index.Count()
	report.Duration = time.Since(start)

	s.logger.Info("sync cycle finished",
		logger.Int("sources", len(srcs)),
		logger.Int("indexed", report.Indexed),
		logger.Duration("duration", report.Duration))

	return report, nil
}

// applyResult commits one source's fetch outcome to the store.
func (s *Syncer) applyResult(ctx context.Context, src *domain.Source, result sources.FetchResult) SourceOutcome {
	outcome := SourceOutcome{Source: src, Status: result.Status}

	switch result.Status {
	case sources.StatusUnchanged:
		// Nothing to persist; the stored etag is still the validator.

	case sources.StatusErrored:
		outcome.Err = result.Err
		s.logger.Warn("source sync failed",
			logger.String("url", src.URL),
			logger.Error(result.Err))
		if err := s.store.MarkSourceErrored(ctx, src.ID); err != nil {
			s.logger.Error("failed to mark source errored",
				logger.String("url", src.URL),
				logger.Error(err))
		}

	case sources.StatusUpdated:
		releases := sources.MapReleases(src, result.Downloads)
		outcome.Imported = len(releases)
		// One transaction per source: the release batch and the new etag
		// commit together or not at all.
		if err := s.store.ApplySyncResult(ctx, src.ID, result.ETag, releases); err != nil {
			outcome.Status = sources.StatusErrored
			outcome.Err = err
			s.logger.Error("failed to apply sync result",
				logger.String("url", src.URL),
				logger.Error(err))
			return outcome
		}
		s.logger.Info("source synced",
			logger.String("url", src.URL),
			logger.Int("downloads", len(releases)))
	}

	return outcome
}

// Rebuild replaces the search index with a fresh generation built from the
// store's current contents.
func (s *Syncer) Rebuild(ctx context.Context) error {
	releases, err := s.store.ListReleases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list releases: %w", err)
	}

	s.index.Rebuild(releases)

	s.logger.Debug("search index rebuilt",
		logger.Int("releases", len(releases)))

	return nil
}

// AddSource validates a candidate source URL by fetching its document,
// registers it and imports its first batch. Returns the stored source.
func (s *Syncer) AddSource(ctx context.Context, url string) (*domain.Source, error) {
	// Preflight fetch runs unlocked; it can take as long as one source
	// download and must not stall a running cycle.
	result := s.fetcher.Fetch(ctx, &domain.Source{URL: url})
	if result.Status != sources.StatusUpdated {
		return nil, fmt.Errorf("source validation failed: %w", result.Err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src := &domain.Source{
		URL:    url,
		Name:   result.Name,
		Status: domain.SourceStatusOnline,
	}
	if err := s.store.InsertSource(ctx, src); err != nil {
		return nil, err
	}

	releases := sources.MapReleases(src, result.Downloads)
	if err := s.store.ApplySyncResult(ctx, src.ID, result.ETag, releases); err != nil {
		return nil, err
	}
	src.ETag = result.ETag
	src.DownloadCount = len(releases)

	if err := s.Rebuild(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("source added",
		logger.String("url", url),
		logger.String("name", src.Name),
		logger.Int("downloads", len(releases)))

	return src, nil
}

// RemoveSource deletes a source, cascading its releases, and rebuilds the
// index so the removed releases stop resolving immediately.
func (s *Syncer) RemoveSource(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteSource(ctx, id); err != nil {
		return err
	}

	if err := s.Rebuild(ctx); err != nil {
		return err
	}

	s.logger.Info("source removed", logger.Int64("source_id", id))
	return nil
}

// ImportSeed registers every source from a seed file. Existing URLs are
// refreshed, not duplicated; the next sync cycle imports their releases.
func (s *Syncer) ImportSeed(ctx context.Context, seed *sources.SeedFile) error {
	for _, entry := range seed.Sources {
		src := &domain.Source{
			URL:    entry.URL,
			Name:   entry.Name,
			Status: domain.SourceStatusOnline,
		}
		if err := s.store.UpsertSource(ctx, src); err != nil {
			return fmt.Errorf("failed to seed source %q: %w", entry.URL, err)
		}
	}

	s.logger.Info("seed sources imported", logger.Int("count", len(seed.Sources)))
	return nil
}
