package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rill/internal/query"
)

func mustQuery(t *testing.T, fields ...query.Field) *query.Query {
	t.Helper()
	q, err := query.New(fields...)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewFeed("alpha", "http://a.example", FeedOptions{})); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(NewFeed("alpha", "http://b.example", FeedOptions{})); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if got := len(r.All()); got != 1 {
		t.Errorf("All() length = %d, want 1", got)
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := r.Register(NewFeed(name, "http://x.example", FeedOptions{})); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}
	all := r.All()
	if all[0].Name() != "charlie" || all[2].Name() != "bravo" {
		t.Errorf("All() should preserve registration order, got %v", r.Names())
	}
	names := r.Names()
	if names[0] != "alpha" || names[2] != "charlie" {
		t.Errorf("Names() should sort, got %v", names)
	}
}

func TestFeedQueryURI(t *testing.T) {
	f := NewFeed("feed", "http://feed.example", FeedOptions{})
	q := mustQuery(t,
		query.Field{Key: "type", Value: "episode"},
		query.Field{Key: "series", Value: "lost"},
		query.Field{Key: "season", Value: "1"},
	)
	uri, ok := f.QueryURI(q)
	if !ok {
		t.Fatal("feed with a base URL should serve the query")
	}
	if !strings.HasPrefix(uri, "http://feed.example/search?") {
		t.Errorf("unexpected uri %q", uri)
	}
	for _, want := range []string{"series=lost", "season=1", "type=episode"} {
		if !strings.Contains(uri, want) {
			t.Errorf("uri %q missing %q", uri, want)
		}
	}

	unset := NewFeed("unset", "", FeedOptions{})
	if _, ok := unset.QueryURI(q); ok {
		t.Error("a feed without a base URL should decline queries")
	}
}

func TestFeedPaginate(t *testing.T) {
	f := NewFeed("feed", "http://feed.example", FeedOptions{})
	var pages []string
	for uri := range f.Paginate("http://feed.example/search?q=x") {
		pages = append(pages, uri)
		if len(pages) == 3 {
			break
		}
	}
	want := []string{
		"http://feed.example/search?q=x&page=1",
		"http://feed.example/search?q=x&page=2",
		"http://feed.example/search?q=x&page=3",
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("page %d = %q, want %q", i, pages[i], want[i])
		}
	}
}

func TestFeedFetchAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"name":"Lost.S01E01.720p.HDTV.x264-FOV","uri":"magnet:?xt=urn:btih:aaa","seeds":42,"leechers":7,"size":734003200,"tags":{"video.codec":"h264"}},
			{"name":"Lost.S01E01.WEBRip","uri":"magnet:?xt=urn:btih:bbb"}
		]}`))
	}))
	defer srv.Close()

	f := NewFeed("feed", srv.URL, FeedOptions{DefaultType: "episode", DefaultLanguage: "eng"})
	buf, err := f.Fetch(context.Background(), srv.URL+"/search?series=lost&page=1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	records, err := f.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first[KeyName] != "Lost.S01E01.720p.HDTV.x264-FOV" {
		t.Errorf("name = %q", first[KeyName])
	}
	if first.Int(KeySeeds) != 42 || first.Int(KeyLeechers) != 7 {
		t.Errorf("seeds/leechers = %d/%d", first.Int(KeySeeds), first.Int(KeyLeechers))
	}
	if first.Int64(KeySize) != 734003200 {
		t.Errorf("size = %d", first.Int64(KeySize))
	}
	if first[KeyType] != "episode" || first[KeyLanguage] != "eng" {
		t.Errorf("defaults not applied: type=%q language=%q", first[KeyType], first[KeyLanguage])
	}
	meta := first.Meta()
	if meta["video.codec"] != "h264" {
		t.Errorf("meta = %v", meta)
	}
	if records[1].Meta() != nil {
		t.Errorf("record without dotted keys should have nil meta, got %v", records[1].Meta())
	}
}

func TestFeedParseEmptyAndMalformed(t *testing.T) {
	f := NewFeed("feed", "http://feed.example", FeedOptions{})

	records, err := f.Parse([]byte(`{"results":[]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("empty page should parse to an empty non-nil slice, got %v", records)
	}

	if _, err := f.Parse([]byte(`<html>not json</html>`)); err == nil {
		t.Error("malformed page should fail to parse")
	}
}

func TestFeedFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFeed("feed", srv.URL, FeedOptions{})
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Error("non-200 status should be an error")
	}
}
