package media

import (
	"fmt"
	"strings"
)

// Entity is the canonical identity of a release, deduplicated across
// providers. The closed set of implementations is Episode and Movie.
type Entity interface {
	// Kind returns the entity discriminator, "episode" or "movie".
	Kind() string
	// NaturalKey returns the normalized attribute tuple that defines
	// equality and the storage uniqueness constraint.
	NaturalKey() string
	// DisplayString renders the entity for humans.
	DisplayString() string
}

// Episode identifies one episode of a series. The natural key is
// (series, modifier, season, number); series is stored lower-cased and
// modifier defaults to the empty string, never a null.
type Episode struct {
	ID int64

	Series   string
	Modifier string
	Season   int
	Number   int
}

// NewEpisode validates and normalizes the natural-key fields.
func NewEpisode(series, modifier string, season, number int) (*Episode, error) {
	series = strings.ToLower(strings.TrimSpace(series))
	if series == "" {
		return nil, fmt.Errorf("episode: series is required")
	}
	if season < 0 {
		return nil, fmt.Errorf("episode: season %d must not be negative", season)
	}
	if number < 0 {
		return nil, fmt.Errorf("episode: number %d must not be negative", number)
	}
	return &Episode{
		Series:   series,
		Modifier: strings.TrimSpace(modifier),
		Season:   season,
		Number:   number,
	}, nil
}

func (e *Episode) Kind() string { return "episode" }

func (e *Episode) NaturalKey() string {
	return fmt.Sprintf("episode\x00%s\x00%s\x00%d\x00%d", e.Series, e.Modifier, e.Season, e.Number)
}

func (e *Episode) DisplayString() string {
	base := e.Series
	if e.Modifier != "" {
		base += " (" + e.Modifier + ")"
	}
	return fmt.Sprintf("%s S%02dE%02d", base, e.Season, e.Number)
}

// Movie identifies one movie release. The natural key is (title, modifier);
// title is stored lower-cased and modifier defaults to the empty string.
type Movie struct {
	ID int64

	Title    string
	Modifier string
}

// NewMovie validates and normalizes the natural-key fields.
func NewMovie(title, modifier string) (*Movie, error) {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return nil, fmt.Errorf("movie: title is required")
	}
	return &Movie{
		Title:    title,
		Modifier: strings.TrimSpace(modifier),
	}, nil
}

func (m *Movie) Kind() string { return "movie" }

func (m *Movie) NaturalKey() string {
	return fmt.Sprintf("movie\x00%s\x00%s", m.Title, m.Modifier)
}

func (m *Movie) DisplayString() string {
	if m.Modifier != "" {
		return m.Title + " (" + m.Modifier + ")"
	}
	return m.Title
}

// SameEntity reports whether two entities share kind and natural key.
// Either side may be nil.
func SameEntity(a, b Entity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.NaturalKey() == b.NaturalKey()
}
