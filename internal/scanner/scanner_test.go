package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"rill/internal/diskcache"
	"rill/internal/logging"
	"rill/internal/provider"
	"rill/internal/query"
)

// stubProvider scripts every step of the provider contract.
type stubProvider struct {
	name       string
	declines   bool
	pages      int
	fetchErr   error
	parseErr   error
	nilRecords bool
	records    []provider.Record
	fetches    atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) QueryURI(q *query.Query) (string, bool) {
	if s.declines {
		return "", false
	}
	return "stub://" + s.name, true
}

func (s *stubProvider) Paginate(uri string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 1; i <= s.pages; i++ {
			if !yield(fmt.Sprintf("%s/page/%d", uri, i)) {
				return
			}
		}
	}
}

func (s *stubProvider) Fetch(ctx context.Context, uri string) ([]byte, error) {
	s.fetches.Add(1)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return []byte(uri), nil
}

func (s *stubProvider) Parse(buf []byte) ([]provider.Record, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	if s.nilRecords {
		return nil, nil
	}
	out := make([]provider.Record, 0, len(s.records))
	for _, rec := range s.records {
		clone := provider.Record{}
		for k, v := range rec {
			clone[k] = v
		}
		out = append(out, clone)
	}
	return out, nil
}

func episodeQuery(t *testing.T) *query.Query {
	t.Helper()
	q, err := query.New(
		query.Field{Key: "type", Value: "episode"},
		query.Field{Key: "series", Value: "foo"},
		query.Field{Key: "season", Value: "1"},
		query.Field{Key: "number", Value: "1"},
	)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func newScanner(t *testing.T, reg *provider.Registry, cache *diskcache.Cache, opts Options) *Scanner {
	t.Helper()
	return New(reg, cache, logging.NewNop(), opts)
}

func register(t *testing.T, reg *provider.Registry, providers ...provider.Provider) {
	t.Helper()
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
}

func TestScanAggregatesAndStamps(t *testing.T) {
	reg := provider.NewRegistry()
	register(t, reg,
		&stubProvider{name: "alpha", pages: 1, records: []provider.Record{
			{provider.KeyName: "Foo.S01E01.TeamA.mkv", provider.KeyURI: "magnet:a"},
		}},
		&stubProvider{name: "beta", pages: 1, records: []provider.Record{
			{provider.KeyName: "Foo.S01E01.TeamB.mkv", provider.KeyURI: "magnet:b"},
		}},
	)
	s := newScanner(t, reg, nil, Options{})

	records, err := s.Scan(context.Background(), episodeQuery(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0][provider.KeyProvider] != "alpha" || records[1][provider.KeyProvider] != "beta" {
		t.Errorf("records not stamped with provider names: %v", records)
	}
}

func TestScanSkipsDecliningProviders(t *testing.T) {
	reg := provider.NewRegistry()
	register(t, reg,
		&stubProvider{name: "declines", declines: true},
		&stubProvider{name: "serves", pages: 1, records: []provider.Record{
			{provider.KeyName: "Foo.S01E01.mkv", provider.KeyURI: "magnet:a"},
		}},
	)
	s := newScanner(t, reg, nil, Options{})

	records, err := s.Scan(context.Background(), episodeQuery(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestScanNoCompatibleOrigins(t *testing.T) {
	reg := provider.NewRegistry()
	register(t, reg, &stubProvider{name: "declines", declines: true})
	s := newScanner(t, reg, nil, Options{})

	records, err := s.Scan(context.Background(), episodeQuery(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("want empty non-nil result, got %v", records)
	}
}

func TestScanIsolatesOriginFailures(t *testing.T) {
	reg := provider.NewRegistry()
	register(t, reg,
		&stubProvider{name: "fetchfail", pages: 1, fetchErr: errors.New("connection refused")},
		&stubProvider{name: "parsefail", pages: 1, parseErr: errors.New("bad page")},
		&stubProvider{name: "nilrecs", pages: 1, nilRecords: true},
		&stubProvider{name: "empty", pages: 1},
		&stubProvider{name: "good", pages: 1, records: []provider.Record{
			{provider.KeyName: "Foo.S01E01.mkv", provider.KeyURI: "magnet:a"},
		}},
	)
	s := newScanner(t, reg, nil, Options{})

	records, err := s.Scan(context.Background(), episodeQuery(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 survivor", len(records))
	}
	if records[0][provider.KeyProvider] != "good" {
		t.Errorf("surviving record from %q", records[0][provider.KeyProvider])
	}
}

func TestScanBoundsPagination(t *testing.T) {
	deep := &stubProvider{name: "deep", pages: 50, records: []provider.Record{
		{provider.KeyName: "Foo.S01E01.mkv", provider.KeyURI: "magnet:a"},
	}}
	shallow := &stubProvider{name: "shallow", pages: 1, records: []provider.Record{
		{provider.KeyName: "Foo.S01E01.mkv", provider.KeyURI: "magnet:b"},
	}}
	reg := provider.NewRegistry()
	register(t, reg, deep, shallow)
	s := newScanner(t, reg, nil, Options{Iterations: 3})

	records, err := s.Scan(context.Background(), episodeQuery(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// Three pages from deep, one from the exhausted shallow paginator.
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	if got := deep.fetches.Load(); got != 3 {
		t.Errorf("deep fetched %d pages, want 3", got)
	}
	if got := shallow.fetches.Load(); got != 1 {
		t.Errorf("shallow fetched %d pages, want 1", got)
	}
}

func TestScanCacheRoundTrip(t *testing.T) {
	stub := &stubProvider{name: "alpha", pages: 1, records: []provider.Record{
		{provider.KeyName: "Foo.S01E01.mkv", provider.KeyURI: "magnet:a"},
	}}
	reg := provider.NewRegistry()
	register(t, reg, stub)
	cache := diskcache.New(t.TempDir(), time.Hour, logging.NewNop())
	s := newScanner(t, reg, cache, Options{})

	q := episodeQuery(t)
	first, err := s.Scan(context.Background(), q)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	second, err := s.Scan(context.Background(), q)
	if err != nil {
		t.Fatalf("cached Scan: %v", err)
	}
	if got := stub.fetches.Load(); got != 1 {
		t.Errorf("cached scan should not refetch, got %d fetches", got)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("cached result diverged: %s vs %s", a, b)
	}
}

func TestScanCancelledContext(t *testing.T) {
	reg := provider.NewRegistry()
	register(t, reg, &stubProvider{name: "alpha", pages: 1})
	s := newScanner(t, reg, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Scan(ctx, episodeQuery(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
