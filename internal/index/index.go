// Package index maintains the in-memory full-text index over release titles.
package index

import (
	"sort"
	"sync"
	"time"

	"github.com/halverson/repackd/internal/domain"
)

// generation is one complete, internally consistent build of the index.
// Positions in postings and exact always refer to this generation's
// releases slice, never to another build's.
type generation struct {
	releases []*domain.Release
	postings map[string][]int // token -> positions holding it
	exact    map[string][]int // normalized full title -> positions
	builtAt  time.Time
	seq      uint64
}

// Index resolves free-text queries to release records.
//
// Rebuilds replace the whole generation in one pointer swap, so a query
// either sees the previous complete build or the new one, never a
// half-built state. Readers only hold the lock long enough to grab the
// current generation; queries themselves run lock-free on the snapshot.
type Index struct {
	mu  sync.RWMutex
	gen *generation
}

// New creates an empty index.
func New() *Index {
	return &Index{gen: &generation{
		postings: make(map[string][]int),
		exact:    make(map[string][]int),
	}}
}

// Rebuild discards all prior index state and re-indexes the given releases.
// Positions are reassigned from scratch, which is why rebuilds are always
// wholesale: a diff against stale positions would be meaningless.
func (idx *Index) Rebuild(releases []*domain.Release) {
	gen := &generation{
		releases: releases,
		postings: make(map[string][]int),
		exact:    make(map[string][]int),
		builtAt:  time.Now(),
	}

	for pos, rel := range releases {
		normalized := domain.NormalizeTitle(rel.Title)
		if normalized == "" {
			continue
		}
		gen.exact[normalized] = append(gen.exact[normalized], pos)

		seen := make(map[string]bool)
		for _, token := range domain.TitleTokens(normalized) {
			if seen[token] {
				continue
			}
			seen[token] = true
			gen.postings[token] = append(gen.postings[token], pos)
		}
	}

	idx.mu.Lock()
	gen.seq = idx.gen.seq + 1
	idx.gen = gen
	idx.mu.Unlock()
}

// Search returns releases matching the free-text query, strongest match
// first. The query is normalized exactly like titles were at index time.
// An empty query returns no matches.
func (idx *Index) Search(query string) []*domain.Release {
	return idx.current().search(query)
}

// Lookup returns the releases whose normalized title equals the given
// normalized title exactly. Used for joining external catalogue entries
// to releases without fuzzy false positives.
func (idx *Index) Lookup(normalizedTitle string) []*domain.Release {
	gen := idx.current()

	positions := gen.exact[normalizedTitle]
	if len(positions) == 0 {
		return nil
	}
	releases := make([]*domain.Release, 0, len(positions))
	for _, pos := range positions {
		releases = append(releases, gen.releases[pos])
	}
	return releases
}

// Count returns the number of indexed releases.
func (idx *Index) Count() int {
	return len(idx.current().releases)
}

// Generation returns the sequence number of the current build. It is zero
// until the first Rebuild.
func (idx *Index) Generation() uint64 {
	return idx.current().seq
}

// LastRebuild returns when the current generation was built.
func (idx *Index) LastRebuild() time.Time {
	return idx.current().builtAt
}

func (idx *Index) current() *generation {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.gen
}

func (g *generation) search(query string) []*domain.Release {
	queryTokens := domain.TitleTokens(domain.NormalizeTitle(query))
	if len(queryTokens) == 0 {
		return nil
	}

	// Every query token must match some title token (AND semantics).
	// Scores accumulate across tokens; the per-token score for a position
	// is the best score over all of that title's tokens.
	var scores map[int]float64
	for _, queryToken := range queryTokens {
		tokenScores := make(map[int]float64)
		for titleToken, positions := range g.postings {
			score := domain.ScoreToken(queryToken, titleToken)
			if score <= 0 {
				continue
			}
			for _, pos := range positions {
				if score > tokenScores[pos] {
					tokenScores[pos] = score
				}
			}
		}

		if scores == nil {
			scores = tokenScores
			continue
		}
		for pos := range scores {
			tokenScore, ok := tokenScores[pos]
			if !ok {
				delete(scores, pos)
				continue
			}
			scores[pos] += tokenScore
		}
		if len(scores) == 0 {
			return nil
		}
	}

	positions := make([]int, 0, len(scores))
	for pos := range scores {
		positions = append(positions, pos)
	}

	// Exact whole-title matches outrank everything else.
	queryNormalized := domain.NormalizeTitle(query)
	for _, pos := range g.exact[queryNormalized] {
		if _, ok := scores[pos]; ok {
			scores[pos] += domain.ScoreExactTitleBonus
		}
	}

	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		// Equal strength: newer uploads first.
		if g.releases[a].UploadDate != g.releases[b].UploadDate {
			return g.releases[a].UploadDate > g.releases[b].UploadDate
		}
		return a < b
	})

	releases := make([]*domain.Release, 0, len(positions))
	for _, pos := range positions {
		releases = append(releases, g.releases[pos])
	}
	return releases
}
