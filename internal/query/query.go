package query

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrRender reports that a query lacks the fields its type needs for a
// human-readable base string. Rendering failures are deliberate late
// failures; construction only validates field names.
var ErrRender = errors.New("query cannot be rendered")

var keyPartPattern = regexp.MustCompile(`^[a-z]+$`)

// Field is one key/value pair of a query. Order of fields is significant:
// the filter engine applies filters in the order fields were supplied.
type Field struct {
	Key   string
	Value string
}

// Query is an immutable, validated search request. The type discriminator
// is always present; it defaults to "source".
type Query struct {
	typ    string
	keys   []string
	fields map[string]string
}

// New validates the supplied fields and builds a Query. Keys are
// normalized (hyphens become underscores) and every underscore-separated
// part must be purely lowercase letters; anything else rejects the whole
// construction.
func New(fields ...Field) (*Query, error) {
	q := &Query{
		typ:    "source",
		fields: make(map[string]string, len(fields)),
	}

	for _, f := range fields {
		key, err := normalizeKey(f.Key)
		if err != nil {
			return nil, err
		}
		if key == "type" {
			value := strings.ToLower(strings.TrimSpace(f.Value))
			if !keyPartPattern.MatchString(value) {
				return nil, fmt.Errorf("invalid query type %q", f.Value)
			}
			q.typ = value
			continue
		}
		if _, dup := q.fields[key]; dup {
			return nil, fmt.Errorf("duplicate query field %q", key)
		}
		q.keys = append(q.keys, key)
		q.fields[key] = f.Value
	}

	return q, nil
}

func normalizeKey(key string) (string, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), "-", "_")
	if key == "" {
		return "", errors.New("empty query field name")
	}
	for _, part := range strings.Split(key, "_") {
		if !keyPartPattern.MatchString(part) {
			return "", fmt.Errorf("invalid query field name %q", key)
		}
	}
	return key, nil
}

// Type returns the query's type discriminator.
func (q *Query) Type() string {
	return q.typ
}

// Get returns a field value and whether the field is present.
func (q *Query) Get(key string) (string, bool) {
	value, ok := q.fields[key]
	return value, ok
}

// GetInt returns a field parsed as an integer.
func (q *Query) GetInt(key string) (int, bool) {
	raw, ok := q.fields[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Fields returns the query's fields in the order they were supplied,
// excluding the type discriminator.
func (q *Query) Fields() []Field {
	out := make([]Field, 0, len(q.keys))
	for _, key := range q.keys {
		out = append(out, Field{Key: key, Value: q.fields[key]})
	}
	return out
}

// CacheKey encodes the query deterministically: the URL-encoding of its
// sorted (field, value) pairs, type included.
func (q *Query) CacheKey() string {
	values := url.Values{}
	values.Set("type", q.typ)
	for key, value := range q.fields {
		values.Set(key, value)
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(values.Get(key)))
	}
	return b.String()
}

// DisplayString renders the query as a human-readable base string for its
// type, e.g. an episode query becomes "series S01E02". Queries missing
// required fields return ErrRender.
func (q *Query) DisplayString() (string, error) {
	switch q.typ {
	case "source":
		return q.sourceString()
	case "episode":
		return q.episodeString()
	case "movie":
		return q.movieString()
	default:
		return "", fmt.Errorf("%w: no renderer for type %q", ErrRender, q.typ)
	}
}

func (q *Query) baseName(key string) (string, error) {
	if name, ok := q.fields[key]; ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name), nil
	}
	if glob, ok := q.fields[key+"_glob"]; ok {
		name := strings.TrimSpace(strings.ReplaceAll(glob, "*", " "))
		if name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: missing %q", ErrRender, key)
}

func (q *Query) sourceString() (string, error) {
	return q.baseName("name")
}

func (q *Query) episodeString() (string, error) {
	ret, err := q.baseName("series")
	if err != nil {
		return "", err
	}
	if year, ok := q.fields["series_year"]; ok {
		ret += fmt.Sprintf(" (%s)", year)
	}
	season, ok := q.GetInt("season")
	if !ok {
		return ret, nil
	}
	ret += fmt.Sprintf(" S%02d", season)
	if number, ok := q.GetInt("number"); ok {
		ret += fmt.Sprintf("E%02d", number)
	}
	return ret, nil
}

func (q *Query) movieString() (string, error) {
	ret, err := q.baseName("title")
	if err != nil {
		return "", err
	}
	if year, ok := q.fields["movie_year"]; ok {
		ret += fmt.Sprintf(" (%s)", year)
	}
	return ret, nil
}

func (q *Query) String() string {
	if s, err := q.DisplayString(); err == nil {
		return s
	}
	return q.CacheKey()
}
