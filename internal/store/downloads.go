package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Download is one tracked handoff of a source to a downloader backend.
type Download struct {
	ID        int64
	SourceID  int64
	Backend   string
	ForeignID string
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InsertDownload tracks a new download. A source may have at most one.
func (s *Store) InsertDownload(ctx context.Context, d *Download) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (source_id, backend, foreign_id, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.SourceID, d.Backend, d.ForeignID, d.State,
		now.Format(timeFormat), now.Format(timeFormat))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: source %d", ErrDuplicateDownload, d.SourceID)
		}
		return fmt.Errorf("insert download: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

// UpdateDownload persists a download's state and foreign id.
func (s *Store) UpdateDownload(ctx context.Context, d *Download) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE downloads SET state = ?, foreign_id = ?, updated_at = ? WHERE id = ?`,
		d.State, d.ForeignID, now.Format(timeFormat), d.ID)
	if err != nil {
		return fmt.Errorf("update download: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNoResults
	}
	d.UpdatedAt = now
	return nil
}

// DownloadBySource returns the download tracked for a source row id, or
// ErrNoResults.
func (s *Store) DownloadBySource(ctx context.Context, sourceID int64) (*Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanDownload(s.db.QueryRowContext(ctx,
		`SELECT id, source_id, backend, foreign_id, state, created_at, updated_at
		   FROM downloads WHERE source_id = ?`, sourceID))
}

// DownloadByID returns a download by row id, or ErrNoResults.
func (s *Store) DownloadByID(ctx context.Context, id int64) (*Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanDownload(s.db.QueryRowContext(ctx,
		`SELECT id, source_id, backend, foreign_id, state, created_at, updated_at
		   FROM downloads WHERE id = ?`, id))
}

// Downloads returns every tracked download, oldest first.
func (s *Store) Downloads(ctx context.Context) ([]*Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_id, backend, foreign_id, state, created_at, updated_at
		   FROM downloads ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var downloads []*Download
	for rows.Next() {
		d, err := s.scanDownloadRows(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	return downloads, nil
}

func (s *Store) scanDownload(row *sql.Row) (*Download, error) {
	var (
		d                    Download
		createdAt, updatedAt string
	)
	err := row.Scan(&d.ID, &d.SourceID, &d.Backend, &d.ForeignID, &d.State, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("scan download: %w", err)
	}
	return finishDownload(&d, createdAt, updatedAt)
}

func (s *Store) scanDownloadRows(rows *sql.Rows) (*Download, error) {
	var (
		d                    Download
		createdAt, updatedAt string
	)
	if err := rows.Scan(&d.ID, &d.SourceID, &d.Backend, &d.ForeignID, &d.State, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scan download: %w", err)
	}
	return finishDownload(&d, createdAt, updatedAt)
}

func finishDownload(d *Download, createdAt, updatedAt string) (*Download, error) {
	var err error
	if d.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return d, nil
}
