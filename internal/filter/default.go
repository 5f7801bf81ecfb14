package filter

import (
	"log/slog"

	"rill/internal/media"
)

// DefaultEngine builds an engine with the shipped filter set. lookup
// resolves a source's download state and may be nil, in which case state
// filtering matches nothing.
func DefaultEngine(logger *slog.Logger, lookup func(src *media.Source) (string, bool)) (*Engine, error) {
	e := NewEngine(logger)
	for _, f := range []Filter{
		SourceFilter{},
		EntityFilter{},
		TagFilter{},
		StateFilter{Lookup: lookup},
	} {
		if err := e.Register(f); err != nil {
			return nil, err
		}
	}
	return e, nil
}
