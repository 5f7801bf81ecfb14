package scanner

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"rill/internal/diskcache"
	"rill/internal/logging"
	"rill/internal/provider"
	"rill/internal/query"
)

// Options tune one Scanner instance.
type Options struct {
	// Iterations is the page count requested per origin. Zero means one.
	Iterations int

	// FetchTimeout bounds a single page fetch. Zero means twenty seconds.
	FetchTimeout time.Duration

	// RequestsPerSecond rate-limits fetches per provider. Zero or
	// negative disables limiting.
	RequestsPerSecond float64
}

// Scanner aggregates raw provider records for a query.
type Scanner struct {
	registry *provider.Registry
	cache    *diskcache.Cache
	logger   *slog.Logger
	opts     Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(registry *provider.Registry, cache *diskcache.Cache, logger *slog.Logger, opts Options) *Scanner {
	if opts.Iterations <= 0 {
		opts.Iterations = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 20 * time.Second
	}
	return &Scanner{
		registry: registry,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "scanner"),
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

type task struct {
	origin provider.Provider
	uri    string
}

type fetchResult struct {
	buf []byte
	err error
}

// Scan asks every registered provider for the query's listings and returns
// the flattened records, each stamped with its provider name. Zero
// compatible origins yields an empty result, not an error; the only error
// out of Scan is context cancellation.
func (s *Scanner) Scan(ctx context.Context, q *query.Query) ([]provider.Record, error) {
	key := q.CacheKey()
	if s.cache != nil {
		if buf, ok := s.cache.Get(key); ok {
			var cached []provider.Record
			if err := json.Unmarshal(buf, &cached); err == nil {
				s.logger.Debug("scan served from cache",
					logging.String("query", key), logging.Int("records", len(cached)))
				return cached, nil
			}
		}
	}

	tasks := s.discover(q)
	if len(tasks) == 0 {
		s.logger.Warn("no compatible providers for query", logging.String("query", key))
		return []provider.Record{}, nil
	}

	results := s.fetchAll(ctx, tasks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := s.parseAll(tasks, results)
	if s.cache != nil {
		if buf, err := json.Marshal(records); err == nil {
			if err := s.cache.Set(key, buf); err != nil {
				s.logger.Warn("scan cache write failed",
					logging.String("query", key), logging.Error(err))
			}
		}
	}
	return records, nil
}

// discover expands each compatible origin into up to Iterations page
// fetch tasks. Providers that decline the query are skipped silently;
// a paginator running dry early is routine.
func (s *Scanner) discover(q *query.Query) []task {
	var tasks []task
	for _, p := range s.registry.All() {
		uri, ok := p.QueryURI(q)
		if !ok {
			s.logger.Debug("provider declined query", logging.String("provider", p.Name()))
			continue
		}
		pages := 0
		for page := range p.Paginate(uri) {
			tasks = append(tasks, task{origin: p, uri: page})
			pages++
			if pages >= s.opts.Iterations {
				break
			}
		}
		if pages < s.opts.Iterations {
			s.logger.Debug("paginator exhausted early",
				logging.String("provider", p.Name()),
				logging.Int("pages", pages),
				logging.Int("requested", s.opts.Iterations))
		}
	}
	return tasks
}

// fetchAll runs every page fetch concurrently. Each fetch gets its own
// timeout and passes the provider's rate limiter first; failures are
// captured per slot, never propagated.
func (s *Scanner) fetchAll(ctx context.Context, tasks []task) []fetchResult {
	results := make([]fetchResult, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			if err := s.limiter(t.origin.Name()).Wait(ctx); err != nil {
				results[i].err = err
				return
			}
			fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
			defer cancel()
			results[i].buf, results[i].err = t.origin.Fetch(fetchCtx, t.uri)
		}(i, t)
	}
	wg.Wait()
	return results
}

// parseAll hands each fetched buffer to its origin's parser and flattens
// the records, stamping the provider name. Fetch errors, parse errors, a
// nil record slice and an empty page are all origin-scoped and skipped.
func (s *Scanner) parseAll(tasks []task, results []fetchResult) []provider.Record {
	records := make([]provider.Record, 0)
	for i, res := range results {
		name := tasks[i].origin.Name()
		if res.err != nil {
			s.logger.Warn("fetch failed",
				logging.String("provider", name),
				logging.String("uri", tasks[i].uri),
				logging.Error(res.err))
			continue
		}
		recs, err := tasks[i].origin.Parse(res.buf)
		if err != nil {
			s.logger.Warn("parse failed",
				logging.String("provider", name),
				logging.String("uri", tasks[i].uri),
				logging.Error(err))
			continue
		}
		if recs == nil {
			s.logger.Warn("provider returned nil records, contract violation",
				logging.String("provider", name),
				logging.String("uri", tasks[i].uri))
			continue
		}
		if len(recs) == 0 {
			s.logger.Debug("page held no listings",
				logging.String("provider", name),
				logging.String("uri", tasks[i].uri))
			continue
		}
		for _, rec := range recs {
			rec[provider.KeyProvider] = name
			records = append(records, rec)
		}
	}
	return records
}

func (s *Scanner) limiter(name string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[name]
	if !ok {
		limit := rate.Inf
		if s.opts.RequestsPerSecond > 0 {
			limit = rate.Limit(s.opts.RequestsPerSecond)
		}
		l = rate.NewLimiter(limit, 1)
		s.limiters[name] = l
	}
	return l
}
