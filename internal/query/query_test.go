package query

import (
	"errors"
	"testing"
)

func TestNewNormalizesHyphens(t *testing.T) {
	q, err := New(Field{Key: "name-glob", Value: "*"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := q.Get("name_glob"); !ok {
		t.Fatal("hyphenated key was not normalized to underscore form")
	}
}

func TestNewRejectsInvalidKeys(t *testing.T) {
	for _, key := range []string{"00", "a b", "Series", "se4son", ""} {
		if _, err := New(Field{Key: key, Value: "x"}); err == nil {
			t.Errorf("New accepted invalid key %q", key)
		}
	}
}

func TestTypeDefaultsToSource(t *testing.T) {
	q, err := New(Field{Key: "name_glob", Value: "*foo*"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q.Type() != "source" {
		t.Fatalf("type = %q, want source", q.Type())
	}
}

func TestFieldsPreserveOrder(t *testing.T) {
	q, err := New(
		Field{Key: "type", Value: "episode"},
		Field{Key: "series", Value: "lost"},
		Field{Key: "season", Value: "1"},
		Field{Key: "number", Value: "2"},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fields := q.Fields()
	want := []string{"series", "season", "number"}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(fields), len(want))
	}
	for i, key := range want {
		if fields[i].Key != key {
			t.Errorf("fields[%d] = %q, want %q", i, fields[i].Key, key)
		}
	}
}

func TestDisplayString(t *testing.T) {
	cases := []struct {
		name   string
		fields []Field
		want   string
	}{
		{
			"episode with season and number",
			[]Field{{"type", "episode"}, {"series", "lost"}, {"season", "1"}, {"number", "2"}},
			"lost S01E02",
		},
		{
			"episode with year",
			[]Field{{"type", "episode"}, {"series", "fargo"}, {"series_year", "2014"}, {"season", "2"}},
			"fargo (2014) S02",
		},
		{
			"movie",
			[]Field{{"type", "movie"}, {"title", "dark city"}, {"movie_year", "1998"}},
			"dark city (1998)",
		},
		{
			"source from glob",
			[]Field{{"name_glob", "*foo*bar*"}},
			"foo bar",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := New(tc.fields...)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			got, err := q.DisplayString()
			if err != nil {
				t.Fatalf("DisplayString: %v", err)
			}
			if got != tc.want {
				t.Fatalf("DisplayString = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDisplayStringMissingFields(t *testing.T) {
	q, err := New(Field{Key: "type", Value: "episode"}, Field{Key: "season", Value: "1"})
	if err != nil {
		t.Fatalf("construction must not fail on missing render fields: %v", err)
	}
	if _, err := q.DisplayString(); !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	a, _ := New(Field{Key: "series", Value: "lost"}, Field{Key: "season", Value: "1"})
	b, _ := New(Field{Key: "season", Value: "1"}, Field{Key: "series", Value: "lost"})
	if a.CacheKey() != b.CacheKey() {
		t.Fatalf("cache keys differ: %q vs %q", a.CacheKey(), b.CacheKey())
	}
	if a.CacheKey() != "season=1&series=lost&type=source" {
		t.Fatalf("unexpected cache key %q", a.CacheKey())
	}
}
