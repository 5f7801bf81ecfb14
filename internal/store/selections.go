package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rill/internal/media"
)

// Selection links an entity to its currently chosen source. An entity has
// at most one live selection; choosing again replaces the previous pick.
type Selection struct {
	ID        int64
	Entity    media.Entity
	SourceID  int64
	CreatedAt time.Time
}

// Select records src as the chosen source for the entity, replacing any
// previous selection. Both sides must already be persisted.
func (s *Store) Select(ctx context.Context, entity media.Entity, src *media.Source) (*Selection, error) {
	column, entityID, err := selectionColumn(entity)
	if err != nil {
		return nil, err
	}
	if src == nil || src.ID == 0 {
		return nil, fmt.Errorf("store: select: source is not persisted")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin select: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM selections WHERE `+column+` = ?`, entityID); err != nil {
		return nil, fmt.Errorf("clear selection: %w", err)
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO selections (`+column+`, source_id, created_at) VALUES (?, ?, ?)`,
		entityID, src.ID, now.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("insert selection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit selection: %w", err)
	}
	return &Selection{ID: id, Entity: entity, SourceID: src.ID, CreatedAt: now}, nil
}

// SelectionFor returns the entity's live selection, or ErrNoResults.
func (s *Store) SelectionFor(ctx context.Context, entity media.Entity) (*Selection, error) {
	column, entityID, err := selectionColumn(entity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		sel       Selection
		createdAt string
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT id, source_id, created_at FROM selections WHERE `+column+` = ?`,
		entityID).Scan(&sel.ID, &sel.SourceID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	if sel.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	sel.Entity = entity
	return &sel, nil
}

// Selections returns every live selection, newest first.
func (s *Store) Selections(ctx context.Context) ([]*Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, episode_id, movie_id, source_id, created_at
		   FROM selections ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	defer rows.Close()

	var selections []*Selection
	for rows.Next() {
		var (
			sel                Selection
			episodeID, movieID sql.NullInt64
			createdAt          string
		)
		if err := rows.Scan(&sel.ID, &episodeID, &movieID, &sel.SourceID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		if sel.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		switch {
		case episodeID.Valid:
			if sel.Entity, err = s.episodeByIDLocked(ctx, s.db, episodeID.Int64); err != nil {
				return nil, err
			}
		case movieID.Valid:
			if sel.Entity, err = s.movieByIDLocked(ctx, s.db, movieID.Int64); err != nil {
				return nil, err
			}
		}
		selections = append(selections, &sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return selections, nil
}

func selectionColumn(entity media.Entity) (string, int64, error) {
	switch e := entity.(type) {
	case *media.Episode:
		if e.ID == 0 {
			return "", 0, fmt.Errorf("store: select: episode is not persisted")
		}
		return "episode_id", e.ID, nil
	case *media.Movie:
		if e.ID == 0 {
			return "", 0, fmt.Errorf("store: select: movie is not persisted")
		}
		return "movie_id", e.ID, nil
	default:
		return "", 0, fmt.Errorf("store: select: entity is required")
	}
}
