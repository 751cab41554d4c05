package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/halverson/repackd/internal/domain"
)

// InsertSource registers a new source. Returns ErrURLConflict when the URL
// is already registered to another source.
func (s *Store) InsertSource(ctx context.Context, src *domain.Source) error {
	now := time.Now()
	src.CreatedAt = now
	src.UpdatedAt = now
	if src.Status == "" {
		src.Status = domain.SourceStatusOnline
	}

	query := `
		INSERT INTO sources (url, name, etag, status, download_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		src.URL, src.Name, src.ETag, string(src.Status), src.DownloadCount, src.CreatedAt, src.UpdatedAt,
	).Scan(&src.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrURLConflict
		}
		return fmt.Errorf("failed to insert source: %w", err)
	}

	return nil
}

// UpsertSource inserts a source or, when the URL is already registered,
// refreshes its name. Used by seed imports so repeated startups are no-ops.
func (s *Store) UpsertSource(ctx context.Context, src *domain.Source) error {
	now := time.Now()
	if src.Status == "" {
		src.Status = domain.SourceStatusOnline
	}

	query := `
		INSERT INTO sources (url, name, etag, status, download_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		src.URL, src.Name, src.ETag, string(src.Status), src.DownloadCount, now, now,
	).Scan(&src.ID, &src.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}
	src.UpdatedAt = now

	return nil
}

// GetSource returns a source by id, or ErrNotFound.
func (s *Store) GetSource(ctx context.Context, id int64) (*domain.Source, error) {
	query := `
		SELECT id, url, name, etag, status, download_count, created_at, updated_at
		FROM sources WHERE id = ?
	`
	src, err := scanSource(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return src, nil
}

// ListSources returns all sources ordered by id descending. The order is
// deterministic so sync runs process sources reproducibly.
func (s *Store) ListSources(ctx context.Context) ([]*domain.Source, error) {
	query := `
		SELECT id, url, name, etag, status, download_count, created_at, updated_at
		FROM sources ORDER BY id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []*domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sources: %w", err)
	}

	return sources, nil
}

// DeleteSource removes a source. Its releases are cascade-deleted by the
// foreign key constraint. Returns ErrNotFound when no such source exists.
func (s *Store) DeleteSource(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkSourceErrored records a failed sync attempt. Releases the source
// contributed previously are left untouched.
func (s *Store) MarkSourceErrored(ctx context.Context, id int64) error {
	query := `UPDATE sources SET status = ?, updated_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, string(domain.SourceStatusErrored), time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark source errored: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*domain.Source, error) {
	src := &domain.Source{}
	var status string
	err := row.Scan(
		&src.ID,
		&src.URL,
		&src.Name,
		&src.ETag,
		&status,
		&src.DownloadCount,
		&src.CreatedAt,
		&src.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	src.Status = domain.SourceStatus(status)
	return src, nil
}
