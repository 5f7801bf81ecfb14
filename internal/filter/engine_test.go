package filter

import (
	"errors"
	"testing"

	"rill/internal/logging"
	"rill/internal/media"
	"rill/internal/query"
)

func testSource(t *testing.T, name, uri string) *media.Source {
	t.Helper()
	src, err := media.NewSource("test", name, uri)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	return src
}

func episodeSource(t *testing.T, name, uri, series string, season, number int) *media.Source {
	t.Helper()
	src := testSource(t, name, uri)
	ep, err := media.NewEpisode(series, "", season, number)
	if err != nil {
		t.Fatalf("NewEpisode: %v", err)
	}
	if err := src.SetEntity(ep); err != nil {
		t.Fatalf("SetEntity: %v", err)
	}
	return src
}

func mustQuery(t *testing.T, fields ...query.Field) *query.Query {
	t.Helper()
	q, err := query.New(fields...)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func newEngine(t *testing.T, filters ...Filter) *Engine {
	t.Helper()
	e := NewEngine(logging.NewNop())
	for _, f := range filters {
		if err := e.Register(f); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return e
}

func TestRegisterConflict(t *testing.T) {
	e := newEngine(t, SourceFilter{})

	err := e.Register(SourceFilter{})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if len(conflict.Collisions) != len(SourceFilter{}.Handles()) {
		t.Errorf("collisions = %v", conflict.Collisions)
	}
}

func TestRegisterAllOrNothing(t *testing.T) {
	e := newEngine(t, StateFilter{})

	// A filter colliding on one field must not claim its other fields.
	overlapping := stubFilter{fields: []string{"state", "brandnew"}}
	if err := e.Register(overlapping); err == nil {
		t.Fatal("expected conflict")
	}
	for _, field := range e.Handled() {
		if field == "brandnew" {
			t.Error("rejected registration should not claim any fields")
		}
	}
}

type stubFilter struct {
	fields []string
}

func (f stubFilter) Handles() []string { return f.fields }

func (f stubFilter) Match(field, value string, src *media.Source) bool { return true }

func TestFilterSequentialNarrowing(t *testing.T) {
	e := newEngine(t, SourceFilter{}, EntityFilter{})
	sources := []*media.Source{
		episodeSource(t, "Foo.S01E01.TeamA.mkv", "magnet:a", "foo", 1, 1),
		episodeSource(t, "Foo.S01E02.TeamA.mkv", "magnet:b", "foo", 1, 2),
		episodeSource(t, "Bar.S01E01.TeamA.mkv", "magnet:c", "bar", 1, 1),
	}

	q := mustQuery(t,
		query.Field{Key: "series", Value: "foo"},
		query.Field{Key: "number", Value: "1"},
	)
	got := e.Filter(sources, q)
	if len(got) != 1 {
		t.Fatalf("got %d sources, want 1", len(got))
	}
	if got[0].URI != "magnet:a" {
		t.Errorf("survivor = %s", got[0].URI)
	}
}

func TestFilterMissingFieldWarnsOnly(t *testing.T) {
	e := newEngine(t, EntityFilter{})
	sources := []*media.Source{
		episodeSource(t, "Foo.S01E01.mkv", "magnet:a", "foo", 1, 1),
	}

	q := mustQuery(t,
		query.Field{Key: "series", Value: "foo"},
		query.Field{Key: "unhandled", Value: "whatever"},
	)
	got := e.Filter(sources, q)
	if len(got) != 1 {
		t.Fatalf("unhandled field must not drop sources, got %d", len(got))
	}
}

func TestFilterEmptySetPassesThrough(t *testing.T) {
	e := newEngine(t, EntityFilter{})
	sources := []*media.Source{
		episodeSource(t, "Foo.S01E01.mkv", "magnet:a", "foo", 1, 1),
	}

	q := mustQuery(t,
		query.Field{Key: "series", Value: "nomatch"},
		query.Field{Key: "season", Value: "1"},
	)
	got := e.Filter(sources, q)
	if len(got) != 0 {
		t.Fatalf("got %d sources, want 0", len(got))
	}
}

func TestSourceFilterGlobs(t *testing.T) {
	src := testSource(t, "Foo.S01E01.720p.HDTV.x264-FOV.mkv", "magnet:?xt=urn:btih:abc")
	f := SourceFilter{}

	cases := []struct {
		field, value string
		want         bool
	}{
		{"name", "foo.s01e01.720p.hdtv.x264-fov.mkv", true},
		{"name", "other", false},
		{"name_glob", "foo.s01e01.*", true},
		{"name_glob", "*.avi", false},
		{"provider", "test", true},
		{"provider", "other", false},
		{"uri_glob", "magnet:*btih*", true},
	}
	for _, tc := range cases {
		if got := f.Match(tc.field, tc.value, src); got != tc.want {
			t.Errorf("Match(%s, %s) = %v, want %v", tc.field, tc.value, got, tc.want)
		}
	}
}

func TestSourceFilterLanguagePrefix(t *testing.T) {
	src := testSource(t, "Dark.S01E05.mkv", "magnet:a")
	if err := src.SetLanguage("swe-sv"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	f := SourceFilter{}
	if !f.Match("language", "swe", src) {
		t.Error("bare code should match compound language")
	}
	if !f.Match("language", "swe-sv", src) {
		t.Error("exact compound should match")
	}
	if f.Match("language", "eng", src) {
		t.Error("different language should not match")
	}
}

func TestEntityFilterKinds(t *testing.T) {
	ep := episodeSource(t, "Foo.S01E01.mkv", "magnet:a", "foo", 1, 1)
	mv := testSource(t, "Dark.City.1998.mkv", "magnet:b")
	movie, err := media.NewMovie("Dark City", "1998")
	if err != nil {
		t.Fatalf("NewMovie: %v", err)
	}
	if err := mv.SetEntity(movie); err != nil {
		t.Fatalf("SetEntity: %v", err)
	}
	untyped := testSource(t, "random.bin", "magnet:c")

	f := EntityFilter{}
	if !f.Match("series", "Foo", ep) {
		t.Error("series should match case-insensitively")
	}
	if f.Match("series", "foo", mv) || f.Match("series", "foo", untyped) {
		t.Error("series must only match episode sources")
	}
	if !f.Match("title", "dark city", mv) {
		t.Error("title should match the movie")
	}
	if !f.Match("modifier", "1998", mv) {
		t.Error("modifier should match either kind")
	}
	if !f.Match("title_year", "1998", mv) || f.Match("title_year", "1998", ep) {
		t.Error("title_year must match the movie modifier only")
	}
	if f.Match("series_year", "2014", ep) {
		t.Error("series_year must not match an empty modifier")
	}
	if f.Match("season", "one", ep) {
		t.Error("non-numeric season value must not match")
	}
}

func TestTagFilter(t *testing.T) {
	src := testSource(t, "Foo.S01E01.720p.HDTV.x264-FOV.mkv", "magnet:a")
	src.Tags["video.screen-size"] = "720p"
	src.Tags["video.codec"] = "h264"
	src.Tags["release.group"] = "FOV"
	src.Tags["release.distributors"] = "eztv,rartv"

	f := TagFilter{}
	if !f.Match("quality", "720p", src) || f.Match("quality", "1080p", src) {
		t.Error("quality matching failed")
	}
	if !f.Match("release_group", "fov", src) {
		t.Error("release group should match case-insensitively")
	}
	if !f.Match("distributor", "rartv", src) || f.Match("distributor", "ethd", src) {
		t.Error("distributor list matching failed")
	}
	if !f.Match("proper", "false", src) {
		t.Error("absent proper tag should match proper=false")
	}
	src.Tags["release.proper"] = "true"
	if !f.Match("proper", "true", src) {
		t.Error("proper tag should match proper=true")
	}
}

func TestStateFilter(t *testing.T) {
	src := testSource(t, "Foo.S01E01.mkv", "magnet:a")
	f := StateFilter{Lookup: func(s *media.Source) (string, bool) {
		if s.URI == "magnet:a" {
			return "DOWNLOADING", true
		}
		return "", false
	}}
	if !f.Match("state", "downloading", src) {
		t.Error("state should match case-insensitively")
	}
	other := testSource(t, "Bar.S01E01.mkv", "magnet:b")
	if f.Match("state", "downloading", other) {
		t.Error("untracked source should not match")
	}
	if (StateFilter{}).Match("state", "downloading", src) {
		t.Error("state filter without lookup should never match")
	}
}
