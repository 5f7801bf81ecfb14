package downloads

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rill/internal/media"
)

// Mock is an in-memory backend for tests and dry runs. Downloads it
// accepts sit in QUEUED until advanced by hand.
type Mock struct {
	mu     sync.Mutex
	states map[string]State
	uris   map[string]string
}

func NewMock() *Mock {
	return &Mock{
		states: make(map[string]State),
		uris:   make(map[string]string),
	}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Add(ctx context.Context, src *media.Source) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.states[id] = StateQueued
	m.uris[id] = src.URI
	return id, nil
}

// Cancel forgets a download. Unknown ids are fine; the mock loses all
// state on restart, so a stale foreign id is expected.
func (m *Mock) Cancel(ctx context.Context, foreignID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, foreignID)
	delete(m.uris, foreignID)
	return nil
}

// Archive forgets a download. Unknown ids are fine, as with Cancel.
func (m *Mock) Archive(ctx context.Context, foreignID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, foreignID)
	delete(m.uris, foreignID)
	return nil
}

func (m *Mock) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Mock) State(ctx context.Context, foreignID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[foreignID]
	if !ok {
		return "", fmt.Errorf("mock: unknown download %q", foreignID)
	}
	return state, nil
}

// Advance moves a download to the given state, simulating backend
// progress.
func (m *Mock) Advance(foreignID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[foreignID]; !ok {
		return fmt.Errorf("mock: unknown download %q", foreignID)
	}
	m.states[foreignID] = state
	return nil
}

// Drop forgets a download without any state change, simulating external
// removal.
func (m *Mock) Drop(foreignID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, foreignID)
	delete(m.uris, foreignID)
}
