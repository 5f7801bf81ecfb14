package downloads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rill/internal/logging"
	"rill/internal/media"
	"rill/internal/store"
)

var (
	// ErrDownloadNotFound reports an unknown download id.
	ErrDownloadNotFound = errors.New("download not found")

	// ErrInvalidTransition reports a state change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Downloader is the backend contract.
type Downloader interface {
	// Name identifies the backend in tracked rows and logs.
	Name() string

	// Add hands a source to the backend and returns its foreign id.
	Add(ctx context.Context, src *media.Source) (string, error)

	// Cancel stops and removes the download behind a foreign id.
	Cancel(ctx context.Context, foreignID string) error

	// Archive finalizes a finished download.
	Archive(ctx context.Context, foreignID string) error

	// List returns the foreign ids the backend currently tracks.
	List(ctx context.Context) ([]string, error)

	// State reports the backend's view of a download.
	State(ctx context.Context, foreignID string) (State, error)
}

// Manager drives tracked downloads against one backend.
type Manager struct {
	store   *store.Store
	backend Downloader
	logger  *slog.Logger
}

func NewManager(st *store.Store, backend Downloader, logger *slog.Logger) *Manager {
	return &Manager{
		store:   st,
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "downloads"),
	}
}

// Add hands a persisted source to the backend and starts tracking it. A
// source already tracked yields store.ErrDuplicateDownload.
func (m *Manager) Add(ctx context.Context, src *media.Source) (*store.Download, error) {
	if src.ID == 0 {
		return nil, fmt.Errorf("downloads: source %q is not persisted", src.URI)
	}

	d := &store.Download{
		SourceID: src.ID,
		Backend:  m.backend.Name(),
		State:    string(StateInitializing),
	}
	if err := m.store.InsertDownload(ctx, d); err != nil {
		return nil, err
	}

	foreignID, err := m.backend.Add(ctx, src)
	if err != nil {
		d.State = string(StateCancelled)
		if updateErr := m.store.UpdateDownload(ctx, d); updateErr != nil {
			m.logger.Error("failed to cancel rejected download",
				logging.Int64("download", d.ID), logging.Error(updateErr))
		}
		return nil, fmt.Errorf("downloads: backend add: %w", err)
	}

	d.ForeignID = foreignID
	d.State = string(StateQueued)
	if err := m.store.UpdateDownload(ctx, d); err != nil {
		return nil, err
	}
	m.logger.Info("download queued",
		logging.String("source", src.Name),
		logging.String("foreign_id", foreignID))
	return d, nil
}

// Cancel stops a tracked download.
func (m *Manager) Cancel(ctx context.Context, id int64) error {
	d, err := m.get(ctx, id)
	if err != nil {
		return err
	}
	if !State(d.State).CanTransition(StateCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.State, StateCancelled)
	}
	if d.ForeignID != "" {
		if err := m.backend.Cancel(ctx, d.ForeignID); err != nil {
			return fmt.Errorf("downloads: backend cancel: %w", err)
		}
	}
	return m.transition(ctx, d, StateCancelled)
}

// Archive finalizes a finished download.
func (m *Manager) Archive(ctx context.Context, id int64) error {
	d, err := m.get(ctx, id)
	if err != nil {
		return err
	}
	if !State(d.State).CanTransition(StateArchived) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.State, StateArchived)
	}
	if err := m.backend.Archive(ctx, d.ForeignID); err != nil {
		return fmt.Errorf("downloads: backend archive: %w", err)
	}
	return m.transition(ctx, d, StateArchived)
}

// List returns every tracked download.
func (m *Manager) List(ctx context.Context) ([]*store.Download, error) {
	return m.store.Downloads(ctx)
}

// Get returns one tracked download.
func (m *Manager) Get(ctx context.Context, id int64) (*store.Download, error) {
	return m.get(ctx, id)
}

// StateForSource returns the tracked state of a source's download.
func (m *Manager) StateForSource(ctx context.Context, src *media.Source) (State, bool) {
	if src.ID == 0 {
		return "", false
	}
	d, err := m.store.DownloadBySource(ctx, src.ID)
	if err != nil {
		return "", false
	}
	return State(d.State), true
}

// Sync reconciles tracked downloads against the backend. Downloads the
// backend no longer lists were removed externally: archived when they had
// reached sharing, cancelled otherwise. Listed downloads adopt the
// backend's state when the lifecycle allows the move.
func (m *Manager) Sync(ctx context.Context) error {
	tracked, err := m.store.Downloads(ctx)
	if err != nil {
		return err
	}

	foreign, err := m.backend.List(ctx)
	if err != nil {
		return fmt.Errorf("downloads: backend list: %w", err)
	}
	known := make(map[string]bool, len(foreign))
	for _, id := range foreign {
		known[id] = true
	}

	for _, d := range tracked {
		state := State(d.State)
		if state.Terminal() {
			continue
		}

		if !known[d.ForeignID] {
			next := StateCancelled
			if state.ReachedSharing() {
				next = StateArchived
			}
			m.logger.Info("download removed externally",
				logging.Int64("download", d.ID),
				logging.String("resolution", string(next)))
			if err := m.transition(ctx, d, next); err != nil {
				return err
			}
			continue
		}

		reported, err := m.backend.State(ctx, d.ForeignID)
		if err != nil {
			m.logger.Warn("backend state lookup failed",
				logging.Int64("download", d.ID), logging.Error(err))
			continue
		}
		if reported == state {
			continue
		}
		if !state.CanTransition(reported) {
			m.logger.Warn("backend reported unreachable state",
				logging.Int64("download", d.ID),
				logging.String("from", d.State),
				logging.String("to", string(reported)))
			continue
		}
		if err := m.transition(ctx, d, reported); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) get(ctx context.Context, id int64) (*store.Download, error) {
	d, err := m.store.DownloadByID(ctx, id)
	if errors.Is(err, store.ErrNoResults) {
		return nil, fmt.Errorf("%w: %d", ErrDownloadNotFound, id)
	}
	return d, err
}

func (m *Manager) transition(ctx context.Context, d *store.Download, next State) error {
	d.State = string(next)
	return m.store.UpdateDownload(ctx, d)
}
