package store

import (
	"context"
	"errors"
	"fmt"

	"rill/internal/media"
)

// MergeEntity resolves a candidate entity against storage: an existing row
// with the same natural key wins and the candidate is discarded, otherwise
// the candidate is persisted. Idempotent; merging a persisted entity
// returns the same instance.
func (s *Store) MergeEntity(ctx context.Context, candidate media.Entity) (media.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	merged, err := s.mergeEntityLocked(ctx, tx, candidate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}
	return merged, nil
}

// Merge resolves a candidate source against storage. An existing source
// with the same URI wins. A new source first merges its attached entity,
// depth-first, and is rebound to the merged instance before insertion.
func (s *Store) Merge(ctx context.Context, src *media.Source) (*media.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	persisted, err := s.getSourceLocked(ctx, tx, src.URI)
	if err == nil {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit merge: %w", err)
		}
		return persisted, nil
	}
	if !errors.Is(err, ErrNoResults) {
		return nil, err
	}

	if entity := src.Entity(); entity != nil {
		merged, err := s.mergeEntityLocked(ctx, tx, entity)
		if err != nil {
			return nil, err
		}
		if merged != entity {
			if err := src.SetEntity(merged); err != nil {
				return nil, fmt.Errorf("store: rebind entity: %w", err)
			}
		}
	}

	if err := s.insertSourceLocked(ctx, tx, src); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}
	return src, nil
}

func (s *Store) mergeEntityLocked(ctx context.Context, q querier, candidate media.Entity) (media.Entity, error) {
	existing, err := s.getEntityLocked(ctx, q, candidate)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNoResults) {
		return nil, err
	}
	if err := s.insertEntityLocked(ctx, q, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}
