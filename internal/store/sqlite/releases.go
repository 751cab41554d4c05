package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/logger"
)

// insertChunkSize bounds the number of rows per multi-value INSERT so the
// statement stays well under SQLite's bound-parameter limit.
const insertChunkSize = 800

const releaseColumns = `id, title, uris, file_size, repacker, upload_date, source_id, created_at, updated_at`

// BulkInsertReleases inserts releases in chunks inside one transaction.
// A release whose title already exists anywhere in the store is silently
// skipped: the first stored release for a title wins, which makes repeated
// syncs of unchanged data safe no-ops.
func (s *Store) BulkInsertReleases(ctx context.Context, releases []*domain.Release) error {
	if len(releases) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.insertReleases(ctx, tx, releases); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit releases: %w", err)
	}

	return nil
}

// ApplySyncResult persists one source's successful sync outcome atomically:
// the release batch and the source's new etag/status/count commit together,
// so a crash in between can never advance the etag without the releases.
func (s *Store) ApplySyncResult(ctx context.Context, sourceID int64, etag string, releases []*domain.Release) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.insertReleases(ctx, tx, releases); err != nil {
		return err
	}

	query := `
		UPDATE sources
		SET etag = ?, status = ?, download_count = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, query,
		etag, string(domain.SourceStatusOnline), len(releases), time.Now(), sourceID,
	); err != nil {
		return fmt.Errorf("failed to update source sync result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync result: %w", err)
	}

	s.logger.Debug("applied sync result",
		logger.Int64("source_id", sourceID),
		logger.Int("releases", len(releases)))

	return nil
}

func (s *Store) insertReleases(ctx context.Context, tx *sql.Tx, releases []*domain.Release) error {
	if len(releases) == 0 {
		return nil
	}

	releases, err := s.dedupAgainstStore(ctx, tx, releases)
	if err != nil {
		return err
	}

	now := time.Now()

	for start := 0; start < len(releases); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(releases) {
			end = len(releases)
		}
		chunk := releases[start:end]

		placeholders := strings.TrimSuffix(
			strings.Repeat("(?, ?, ?, ?, ?, ?, ?, ?), ", len(chunk)), ", ")
		query := `
			INSERT OR IGNORE INTO releases
			(title, uris, file_size, repacker, upload_date, source_id, created_at, updated_at)
			VALUES ` + placeholders

		args := make([]any, 0, len(chunk)*8)
		for _, rel := range chunk {
			uris, err := json.Marshal(rel.URIs)
			if err != nil {
				return fmt.Errorf("failed to serialize uris for %q: %w", rel.Title, err)
			}
			args = append(args, rel.Title, string(uris), rel.FileSize, rel.Repacker, rel.UploadDate, rel.SourceID, now, now)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert releases: %w", err)
		}
	}

	return nil
}

// dedupAgainstStore drops batch entries whose normalized title is already
// present, either in the store or earlier in the same batch. The first
// stored release for a normalized title wins; later ones are silently
// ignored. The normalized form is never persisted, so normalization-rule
// changes need no migration; recomputation is amortized by normalizedTitle's
// cache, since most stored titles recur unchanged every cycle.
func (s *Store) dedupAgainstStore(ctx context.Context, tx *sql.Tx, releases []*domain.Release) ([]*domain.Release, error) {
	rows, err := tx.QueryContext(ctx, `SELECT title FROM releases`)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing titles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	taken := make(map[string]bool)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		taken[s.normalizedTitle(title)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate titles: %w", err)
	}

	kept := make([]*domain.Release, 0, len(releases))
	for _, rel := range releases {
		key := s.normalizedTitle(rel.Title)
		if taken[key] {
			continue
		}
		taken[key] = true
		kept = append(kept, rel)
	}
	return kept, nil
}

// normalizedTitle memoizes NormalizeTitle per raw title. Normalization is
// deterministic, so entries never need invalidation; the cache is bounded
// by the number of distinct titles the store has ever seen.
func (s *Store) normalizedTitle(title string) string {
	if cached, ok := s.normTitles.Load(title); ok {
		return cached.(string)
	}
	normalized := domain.NormalizeTitle(title)
	s.normTitles.Store(title, normalized)
	return normalized
}

// ListReleases returns every stored release, most recently uploaded first.
func (s *Store) ListReleases(ctx context.Context) ([]*domain.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases ORDER BY upload_date DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var releases []*domain.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan release: %w", err)
		}
		releases = append(releases, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate releases: %w", err)
	}

	return releases, nil
}

// CountReleases returns the number of stored releases.
func (s *Store) CountReleases(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM releases`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count releases: %w", err)
	}
	return count, nil
}

func scanRelease(row rowScanner) (*domain.Release, error) {
	rel := &domain.Release{}
	var uris string
	err := row.Scan(
		&rel.ID,
		&rel.Title,
		&uris,
		&rel.FileSize,
		&rel.Repacker,
		&rel.UploadDate,
		&rel.SourceID,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(uris), &rel.URIs); err != nil {
		return nil, fmt.Errorf("failed to deserialize uris for %q: %w", rel.Title, err)
	}
	return rel, nil
}
