package filter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"rill/internal/logging"
	"rill/internal/media"
	"rill/internal/query"
)

// Filter is the matching primitive for one or more query fields.
type Filter interface {
	// Handles returns the field names this filter owns.
	Handles() []string

	// Match reports whether one source satisfies field=value.
	Match(field, value string, src *media.Source) bool
}

// Applier lets a filter replace the default one-by-one matching with a
// whole-set pass, for predicates that are cheaper in bulk.
type Applier interface {
	Apply(field, value string, sources []*media.Source) []*media.Source
}

// ConflictError reports fields already owned by an earlier registration.
type ConflictError struct {
	Collisions []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("filter: fields already registered: %s", strings.Join(e.Collisions, ", "))
}

// Engine is the field→filter registry. Built once at startup, read-only
// afterwards.
type Engine struct {
	handlers map[string]Filter
	logger   *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		handlers: make(map[string]Filter),
		logger:   logging.NewComponentLogger(logger, "filter"),
	}
}

// Register installs a filter for every field it handles. If any field
// already has an owner the whole registration is rejected with a
// ConflictError naming the collisions.
func (e *Engine) Register(f Filter) error {
	var collisions []string
	for _, field := range f.Handles() {
		if _, taken := e.handlers[field]; taken {
			collisions = append(collisions, field)
		}
	}
	if len(collisions) > 0 {
		sort.Strings(collisions)
		return &ConflictError{Collisions: collisions}
	}
	for _, field := range f.Handles() {
		e.handlers[field] = f
	}
	return nil
}

// Handled returns the registered field names, sorted.
func (e *Engine) Handled() []string {
	fields := make([]string, 0, len(e.handlers))
	for field := range e.handlers {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Filter applies the query's fields to the sources, one filter at a time
// in query field order. Fields without a handler are warned about and
// skipped. An empty surviving set still flows through the remaining
// filters.
func (e *Engine) Filter(sources []*media.Source, q *query.Query) []*media.Source {
	surviving := make([]*media.Source, len(sources))
	copy(surviving, sources)

	var missing []string
	for _, field := range q.Fields() {
		f, ok := e.handlers[field.Key]
		if !ok {
			missing = append(missing, field.Key)
			continue
		}
		if applier, ok := f.(Applier); ok {
			surviving = applier.Apply(field.Key, field.Value, surviving)
			continue
		}
		kept := surviving[:0]
		for _, src := range surviving {
			if f.Match(field.Key, field.Value, src) {
				kept = append(kept, src)
			}
		}
		surviving = kept
	}
	if len(missing) > 0 {
		e.logger.Warn("no filter registered for fields",
			logging.Any("fields", missing))
	}
	return surviving
}
