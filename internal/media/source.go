package media

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

var languagePattern = regexp.MustCompile(`^[a-z]{3}(-[a-z]{2})?$`)

// sourceTypes is the closed vocabulary providers may stamp on a listing.
var sourceTypes = map[string]struct{}{
	"application": {},
	"ebook":       {},
	"episode":     {},
	"game":        {},
	"movie":       {},
	"music":       {},
	"other":       {},
}

// Source is a single provider-reported listing. The URI is the natural
// key: two sources with the same URI are the same source.
type Source struct {
	ID int64

	Provider string
	Name     string
	URI      string

	// URN is the optional content identifier (e.g. a btih urn) extracted
	// during post-processing.
	URN string

	Created  time.Time
	LastSeen time.Time

	// Zero means unknown for all three.
	Size     int64
	Seeds    int
	Leechers int

	Type     string
	Language string

	// Tags hold normalized metadata extracted from the release name,
	// keyed by dotted namespace (video.codec, release.group, ...).
	Tags map[string]string

	entity Entity
}

// NewSource builds a transient Source and stamps discovery timestamps.
func NewSource(provider, name, uri string) (*Source, error) {
	if provider == "" {
		return nil, fmt.Errorf("source: provider is required")
	}
	if name == "" {
		return nil, fmt.Errorf("source: name is required")
	}
	if uri == "" {
		return nil, fmt.Errorf("source: uri is required")
	}
	now := time.Now().UTC()
	return &Source{
		Provider: provider,
		Name:     name,
		URI:      uri,
		Created:  now,
		LastSeen: now,
		Tags:     make(map[string]string),
	}, nil
}

// SetType validates and assigns the coarse content type. Empty clears it.
func (s *Source) SetType(value string) error {
	if value == "" {
		s.Type = ""
		return nil
	}
	if _, ok := sourceTypes[value]; !ok {
		return fmt.Errorf("source: invalid type %q", value)
	}
	s.Type = value
	return nil
}

// SetLanguage validates and assigns a xxx or xxx-xx language code. Empty
// clears it.
func (s *Source) SetLanguage(value string) error {
	if value == "" {
		s.Language = ""
		return nil
	}
	if !languagePattern.MatchString(value) {
		return fmt.Errorf("source: invalid language %q", value)
	}
	s.Language = value
	return nil
}

// Entity returns the attached canonical entity, or nil.
func (s *Source) Entity() Entity {
	return s.entity
}

// SetEntity attaches the canonical entity. A source typed as one kind
// rejects an entity of another; untyped sources accept either and adopt
// the entity's kind. Passing nil detaches.
func (s *Source) SetEntity(entity Entity) error {
	if entity == nil {
		s.entity = nil
		return nil
	}
	if s.Type != "" && s.Type != entity.Kind() {
		return fmt.Errorf("source: cannot attach %s entity to %s source", entity.Kind(), s.Type)
	}
	s.entity = entity
	s.Type = entity.Kind()
	return nil
}

// ShareRatio returns seeds/leechers with defined boundary semantics: both
// zero is undefined (ok=false), seeders without leechers is +Inf, leechers
// without seeders is 0.
func (s *Source) ShareRatio() (float64, bool) {
	switch {
	case s.Seeds == 0 && s.Leechers == 0:
		return 0, false
	case s.Seeds > 0 && s.Leechers == 0:
		return math.Inf(1), true
	case s.Seeds == 0:
		return 0, true
	default:
		return float64(s.Seeds) / float64(s.Leechers), true
	}
}

// Age returns time elapsed since discovery.
func (s *Source) Age() time.Duration {
	return time.Since(s.Created)
}

// NeedsPostprocessing reports whether the source still awaits entity
// resolution.
func (s *Source) NeedsPostprocessing() bool {
	return s.entity == nil
}

// Tag returns a tag value and whether the tag is present.
func (s *Source) Tag(key string) (string, bool) {
	value, ok := s.Tags[key]
	return value, ok
}

func (s *Source) String() string {
	return s.Name
}
