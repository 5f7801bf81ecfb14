package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"rill/internal/downloads"
	"rill/internal/filter"
	"rill/internal/logging"
	"rill/internal/media"
	"rill/internal/nameparse"
	"rill/internal/provider"
	"rill/internal/query"
	"rill/internal/scanner"
	"rill/internal/selector"
	"rill/internal/store"
)

// Pipeline orchestrates one query through every stage.
type Pipeline struct {
	scanner *scanner.Scanner
	parser  *nameparse.Parser
	engine  *filter.Engine
	store   *store.Store
	sorter  selector.Sorter
	manager *downloads.Manager
	logger  *slog.Logger
}

func New(sc *scanner.Scanner, parser *nameparse.Parser, engine *filter.Engine,
	st *store.Store, sorter selector.Sorter, manager *downloads.Manager,
	logger *slog.Logger) *Pipeline {
	return &Pipeline{
		scanner: sc,
		parser:  parser,
		engine:  engine,
		store:   st,
		sorter:  sorter,
		manager: manager,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Result is the outcome of a full query run.
type Result struct {
	// Sources are the merged sources surviving the filter stage.
	Sources []*media.Source

	// Groups are the surviving sources bucketed per entity.
	Groups []selector.Group

	// Selected holds each group's ranked winner, in group order.
	Selected []*media.Source
}

// Search scans, parses and merges one query's listings. Records that
// cannot be parsed or violate source invariants are logged and skipped,
// never fatal.
func (p *Pipeline) Search(ctx context.Context, q *query.Query) ([]*media.Source, error) {
	records, err := p.scanner.Scan(ctx, q)
	if err != nil {
		return nil, err
	}

	sources := make([]*media.Source, 0, len(records))
	for _, rec := range records {
		src, ok := p.resolve(q, rec)
		if !ok {
			continue
		}
		merged, err := p.store.Merge(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("merge %q: %w", src.URI, err)
		}
		if merged != src {
			if err := p.store.TouchSource(ctx, merged, src.Seeds, src.Leechers); err != nil {
				return nil, err
			}
		}
		sources = append(sources, merged)
	}
	return sources, nil
}

// resolve turns one raw record into a transient source with its entity and
// tags attached.
func (p *Pipeline) resolve(q *query.Query, rec provider.Record) (*media.Source, bool) {
	src, err := media.NewSource(rec[provider.KeyProvider], rec[provider.KeyName], rec[provider.KeyURI])
	if err != nil {
		p.logger.Warn("record rejected", logging.Error(err))
		return nil, false
	}
	src.URN = rec[provider.KeyURN]
	src.Size = rec.Int64(provider.KeySize)
	src.Seeds = rec.Int(provider.KeySeeds)
	src.Leechers = rec.Int(provider.KeyLeechers)
	if lang := rec[provider.KeyLanguage]; lang != "" {
		if err := src.SetLanguage(lang); err != nil {
			p.logger.Warn("record language dropped",
				logging.String("name", src.Name), logging.Error(err))
		}
	}

	hint := q.Type()
	if hint != "episode" && hint != "movie" {
		hint = rec[provider.KeyType]
	}

	if hint == "episode" || hint == "movie" {
		entity, tags, err := p.parser.Parse(src.Name, hint, rec.Meta())
		if err != nil {
			p.logger.Warn("record failed to parse",
				logging.String("name", src.Name), logging.Error(err))
			return nil, false
		}
		if err := src.SetEntity(entity); err != nil {
			p.logger.Warn("record entity rejected",
				logging.String("name", src.Name), logging.Error(err))
			return nil, false
		}
		for k, v := range tags {
			src.Tags[k] = v
		}
		return src, true
	}

	if typ := rec[provider.KeyType]; typ != "" {
		if err := src.SetType(typ); err != nil {
			p.logger.Warn("record type dropped",
				logging.String("name", src.Name), logging.Error(err))
		}
	}
	for k, v := range rec.Meta() {
		src.Tags[k] = v
	}
	return src, true
}

// Filter narrows sources against the query.
func (p *Pipeline) Filter(sources []*media.Source, q *query.Query) []*media.Source {
	return p.engine.Filter(sources, q)
}

// Run executes search, filter, group and rank for one query.
func (p *Pipeline) Run(ctx context.Context, q *query.Query) (*Result, error) {
	found, err := p.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	surviving := p.Filter(found, q)
	groups, err := selector.GroupSources(surviving)
	if err != nil {
		return nil, err
	}

	result := &Result{Sources: surviving, Groups: groups}
	for _, g := range groups {
		ranked := p.sorter.Sort(g.Sources)
		if len(ranked) > 0 {
			result.Selected = append(result.Selected, ranked[0])
		}
	}
	return result, nil
}

// Download runs the query and hands the overall best candidate to the
// download manager, recording the selection. A query with no surviving
// candidates returns nil without error.
func (p *Pipeline) Download(ctx context.Context, q *query.Query) (*store.Download, error) {
	result, err := p.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(result.Selected) == 0 {
		p.logger.Info("no candidates for query", logging.String("query", q.CacheKey()))
		return nil, nil
	}
	winner := result.Selected[0]
	if entity := winner.Entity(); entity != nil {
		if _, err := p.store.Select(ctx, entity, winner); err != nil {
			return nil, err
		}
	}
	return p.manager.Add(ctx, winner)
}
