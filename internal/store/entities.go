package store

import (
	"context"
	"database/sql"
	"fmt"

	"rill/internal/media"
)

// querier abstracts over *sql.DB and *sql.Tx so lookups run inside or
// outside a merge transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetEntity returns the persisted entity matching the candidate's natural
// key, or ErrNoResults. A natural key matching more than one row yields
// ErrMultipleResults.
func (s *Store) GetEntity(ctx context.Context, candidate media.Entity) (media.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEntityLocked(ctx, s.db, candidate)
}

func (s *Store) getEntityLocked(ctx context.Context, q querier, candidate media.Entity) (media.Entity, error) {
	switch e := candidate.(type) {
	case *media.Episode:
		return s.getEpisodeLocked(ctx, q, e)
	case *media.Movie:
		return s.getMovieLocked(ctx, q, e)
	default:
		return nil, fmt.Errorf("store: unsupported entity kind %q", candidate.Kind())
	}
}

func (s *Store) getEpisodeLocked(ctx context.Context, q querier, candidate *media.Episode) (media.Entity, error) {
	if cached, ok := s.episodes[candidate.NaturalKey()]; ok {
		return cached, nil
	}

	id, err := uniqueID(ctx, q,
		`SELECT id FROM episodes WHERE series = ? AND modifier = ? AND season = ? AND number = ?`,
		candidate.Series, candidate.Modifier, candidate.Season, candidate.Number)
	if err != nil {
		return nil, err
	}

	episode, err := media.NewEpisode(candidate.Series, candidate.Modifier, candidate.Season, candidate.Number)
	if err != nil {
		return nil, fmt.Errorf("store: rebuild episode: %w", err)
	}
	episode.ID = id
	s.episodes[episode.NaturalKey()] = episode
	return episode, nil
}

func (s *Store) getMovieLocked(ctx context.Context, q querier, candidate *media.Movie) (media.Entity, error) {
	if cached, ok := s.movies[candidate.NaturalKey()]; ok {
		return cached, nil
	}

	id, err := uniqueID(ctx, q,
		`SELECT id FROM movies WHERE title = ? AND modifier = ?`,
		candidate.Title, candidate.Modifier)
	if err != nil {
		return nil, err
	}

	movie, err := media.NewMovie(candidate.Title, candidate.Modifier)
	if err != nil {
		return nil, fmt.Errorf("store: rebuild movie: %w", err)
	}
	movie.ID = id
	s.movies[movie.NaturalKey()] = movie
	return movie, nil
}

func (s *Store) insertEntityLocked(ctx context.Context, q querier, candidate media.Entity) error {
	switch e := candidate.(type) {
	case *media.Episode:
		res, err := q.ExecContext(ctx,
			`INSERT INTO episodes (series, modifier, season, number) VALUES (?, ?, ?, ?)`,
			e.Series, e.Modifier, e.Season, e.Number)
		if err != nil {
			return fmt.Errorf("insert episode: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		e.ID = id
		s.episodes[e.NaturalKey()] = e
	case *media.Movie:
		res, err := q.ExecContext(ctx,
			`INSERT INTO movies (title, modifier) VALUES (?, ?)`,
			e.Title, e.Modifier)
		if err != nil {
			return fmt.Errorf("insert movie: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		e.ID = id
		s.movies[e.NaturalKey()] = e
	default:
		return fmt.Errorf("store: unsupported entity kind %q", candidate.Kind())
	}
	return nil
}

// episodeByIDLocked loads an episode row, serving pointer-identical
// results through the identity map.
func (s *Store) episodeByIDLocked(ctx context.Context, q querier, id int64) (*media.Episode, error) {
	for _, cached := range s.episodes {
		if cached.ID == id {
			return cached, nil
		}
	}
	var (
		series, modifier string
		season, number   int
	)
	err := q.QueryRowContext(ctx,
		`SELECT series, modifier, season, number FROM episodes WHERE id = ?`, id,
	).Scan(&series, &modifier, &season, &number)
	if err == sql.ErrNoRows {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("load episode %d: %w", id, err)
	}
	episode, err := media.NewEpisode(series, modifier, season, number)
	if err != nil {
		return nil, fmt.Errorf("store: rebuild episode: %w", err)
	}
	episode.ID = id
	s.episodes[episode.NaturalKey()] = episode
	return episode, nil
}

func (s *Store) movieByIDLocked(ctx context.Context, q querier, id int64) (*media.Movie, error) {
	for _, cached := range s.movies {
		if cached.ID == id {
			return cached, nil
		}
	}
	var title, modifier string
	err := q.QueryRowContext(ctx,
		`SELECT title, modifier FROM movies WHERE id = ?`, id,
	).Scan(&title, &modifier)
	if err == sql.ErrNoRows {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("load movie %d: %w", id, err)
	}
	movie, err := media.NewMovie(title, modifier)
	if err != nil {
		return nil, fmt.Errorf("store: rebuild movie: %w", err)
	}
	movie.ID = id
	s.movies[movie.NaturalKey()] = movie
	return movie, nil
}

// uniqueID runs a natural-key lookup expected to match at most one row.
func uniqueID(ctx context.Context, q querier, query string, args ...any) (int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("natural key lookup: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("natural key lookup: %w", err)
	}
	switch len(ids) {
	case 0:
		return 0, ErrNoResults
	case 1:
		return ids[0], nil
	default:
		return 0, fmt.Errorf("%w: %d rows share one natural key", ErrMultipleResults, len(ids))
	}
}
