package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rill/internal/media"
)

const timeFormat = time.RFC3339Nano

// GetSource returns the persisted source with the given URI, or
// ErrNoResults.
func (s *Store) GetSource(ctx context.Context, uri string) (*media.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSourceLocked(ctx, s.db, uri)
}

// SourceByID returns the persisted source with the given row id, or
// ErrNoResults.
func (s *Store) SourceByID(ctx context.Context, id int64) (*media.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cached := range s.sources {
		if cached.ID == id {
			return cached, nil
		}
	}
	var uri string
	err := s.db.QueryRowContext(ctx, `SELECT uri FROM sources WHERE id = ?`, id).Scan(&uri)
	if err == sql.ErrNoRows {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("load source %d: %w", id, err)
	}
	return s.getSourceLocked(ctx, s.db, uri)
}

func (s *Store) getSourceLocked(ctx context.Context, q querier, uri string) (*media.Source, error) {
	if cached, ok := s.sources[uri]; ok {
		return cached, nil
	}

	var (
		id                       int64
		provider, name           string
		urn, typ, language, tags sql.NullString
		createdAt, lastSeen      string
		size                     int64
		seeds, leechers          int
		episodeID, movieID       sql.NullInt64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, provider, name, urn, created_at, last_seen, size, seeds, leechers,
		        type, language, tags_json, episode_id, movie_id
		   FROM sources WHERE uri = ?`, uri,
	).Scan(&id, &provider, &name, &urn, &createdAt, &lastSeen, &size, &seeds, &leechers,
		&typ, &language, &tags, &episodeID, &movieID)
	if err == sql.ErrNoRows {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("load source %q: %w", uri, err)
	}

	src, err := media.NewSource(provider, name, uri)
	if err != nil {
		return nil, fmt.Errorf("store: rebuild source: %w", err)
	}
	src.ID = id
	src.URN = urn.String
	src.Size = size
	src.Seeds = seeds
	src.Leechers = leechers
	if src.Created, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if src.LastSeen, err = time.Parse(timeFormat, lastSeen); err != nil {
		return nil, fmt.Errorf("parse last_seen: %w", err)
	}
	if typ.Valid {
		if err := src.SetType(typ.String); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	if language.Valid {
		if err := src.SetLanguage(language.String); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &src.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}

	switch {
	case episodeID.Valid:
		episode, err := s.episodeByIDLocked(ctx, q, episodeID.Int64)
		if err != nil {
			return nil, err
		}
		if err := src.SetEntity(episode); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	case movieID.Valid:
		movie, err := s.movieByIDLocked(ctx, q, movieID.Int64)
		if err != nil {
			return nil, err
		}
		if err := src.SetEntity(movie); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}

	s.sources[uri] = src
	return src, nil
}

func (s *Store) insertSourceLocked(ctx context.Context, q querier, src *media.Source) error {
	tagsJSON, err := json.Marshal(src.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	var episodeID, movieID any
	switch entity := src.Entity().(type) {
	case *media.Episode:
		episodeID = entity.ID
	case *media.Movie:
		movieID = entity.ID
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO sources (provider, name, uri, urn, created_at, last_seen, size,
		                      seeds, leechers, type, language, tags_json, episode_id, movie_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.Provider, src.Name, src.URI, nullable(src.URN),
		src.Created.UTC().Format(timeFormat), src.LastSeen.UTC().Format(timeFormat),
		src.Size, src.Seeds, src.Leechers,
		nullable(src.Type), nullable(src.Language), string(tagsJSON),
		episodeID, movieID)
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	src.ID = id
	s.sources[src.URI] = src
	return nil
}

// TouchSource refreshes a persisted source's last-seen timestamp and swarm
// numbers from a fresh sighting.
func (s *Store) TouchSource(ctx context.Context, src *media.Source, seeds, leechers int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE sources SET last_seen = ?, seeds = ?, leechers = ? WHERE id = ?`,
		now.Format(timeFormat), seeds, leechers, src.ID)
	if err != nil {
		return fmt.Errorf("touch source: %w", err)
	}
	src.LastSeen = now
	src.Seeds = seeds
	src.Leechers = leechers
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
