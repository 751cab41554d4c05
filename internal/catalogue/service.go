// Package catalogue is the public query surface over the merged release set.
package catalogue

import (
	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/index"
	"github.com/halverson/repackd/internal/logger"
)

// Entry is an externally supplied canonical game entry, e.g. from a remote
// game catalogue. Only the title takes part in matching.
type Entry struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

// EntryWithReleases is an entry joined with the releases known for it.
type EntryWithReleases struct {
	Entry
	Releases []*domain.Release `json:"releases"`
}

// Service answers release queries against the current index generation.
type Service struct {
	index  *index.Index
	logger logger.Logger
}

// New creates a catalogue service reading from idx.
func New(idx *index.Index, log logger.Logger) *Service {
	return &Service{
		index:  idx,
		logger: log,
	}
}

// SearchReleasesByTitle returns releases matching the free-text query,
// strongest match first. An empty query yields no matches.
func (s *Service) SearchReleasesByTitle(query string) []*domain.Release {
	results := s.index.Search(query)

	s.logger.Debug("release search",
		logger.String("query", query),
		logger.Int("results", len(results)))

	return results
}

// AttachReleasesToEntries joins each entry with the releases whose
// normalized title equals the entry's normalized title. The join is exact
// on the normalized key, not fuzzy, so a release can never be attached to
// the wrong game.
func (s *Service) AttachReleasesToEntries(entries []Entry) []EntryWithReleases {
	out := make([]EntryWithReleases, 0, len(entries))
	for _, entry := range entries {
		releases := s.index.Lookup(domain.NormalizeTitle(entry.Title))
		if releases == nil {
			releases = []*domain.Release{}
		}
		out = append(out, EntryWithReleases{
			Entry:    entry,
			Releases: releases,
		})
	}
	return out
}
