package nameparse

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"rill/internal/diskcache"
	"rill/internal/language"
	"rill/internal/logging"
	"rill/internal/media"
)

var (
	// ErrInvalidEntityType reports that no entity type could be determined
	// for a name, or that the determined type has no entity model.
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrInvalidEntityArguments reports that the inferred fields do not
	// satisfy the entity constructor for the determined type.
	ErrInvalidEntityArguments = errors.New("invalid entity arguments")
)

// knownDistributors is the allow-list of bracketed distributor suffixes that
// are stripped before inference and restored as a tag afterwards. Anything
// not on the list stays in the name and confuses nobody but the inference
// engine, which is the honest outcome for unknown brackets.
var knownDistributors = map[string]bool{
	"ethd":  true,
	"eztv":  true,
	"rartv": true,
}

var bracketRe = regexp.MustCompile(`\[([A-Za-z0-9]+)\]`)

// corrections patches systematically bad inference for specific names.
// Matched against the separator-normalized lowercased name prefix.
var corrections = []struct {
	prefix string
	kind   string
	field  string
	value  any
}{
	{prefix: "12 monkeys", kind: "episode", field: fieldTitle, value: "12 Monkeys"},
	{prefix: "9-1-1", kind: "episode", field: fieldTitle, value: "9-1-1"},
}

// entityFieldsFor maps inference fields to entity constructor arguments per
// entity kind. Fields not listed here flow to the tag table instead.
var entityFieldsFor = map[string]map[string]string{
	"episode": {
		fieldTitle:   "series",
		fieldYear:    "modifier",
		fieldSeason:  "season",
		fieldEpisode: "number",
	},
	"movie": {
		fieldTitle: "title",
		fieldYear:  "modifier",
	},
}

// tagNames maps inference fields to dotted tag namespaces.
var tagNames = map[string]string{
	fieldAudioChannels: "audio.channels",
	fieldAudioCodec:    "audio.codec",
	fieldContainer:     "media.container",
	fieldDate:          "media.date",
	fieldEdition:       "media.edition",
	fieldEpisodeCount:  "episode.count",
	fieldLanguage:      "media.language",
	fieldProperCount:   "release.proper",
	fieldDistributors:  "release.distributors",
	fieldReleaseGroup:  "release.group",
	fieldScreenSize:    "video.screen-size",
	fieldSourceFormat:  "video.format",
	fieldStreaming:     "streaming.service",
	fieldWebsite:       "release.website",
	fieldVideoCodec:    "video.codec",
}

// parsedName is the cacheable output of a successful parse.
type parsedName struct {
	Kind     string            `json:"kind"`
	Series   string            `json:"series,omitempty"`
	Title    string            `json:"title,omitempty"`
	Modifier string            `json:"modifier,omitempty"`
	Season   int               `json:"season"`
	Number   int               `json:"number"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// Parser resolves release names into entities and tags. Results are cached
// on disk keyed by the raw name; the inference engine dominates parse cost
// and names repeat heavily across scan iterations.
type Parser struct {
	logger *slog.Logger
	cache  *diskcache.Cache
}

func New(cache *diskcache.Cache, logger *slog.Logger) *Parser {
	return &Parser{
		logger: logging.NewComponentLogger(logger, "nameparse"),
		cache:  cache,
	}
}

// Parse determines the entity and tag set for a release name. typeHint,
// when non-empty, overrides structural type detection. meta carries
// provider-reported metadata; entries with dotted tag keys merge into the
// returned tags and win over name-derived values. The returned entity
// carries no store identity.
func (p *Parser) Parse(name, typeHint string, meta map[string]string) (media.Entity, map[string]string, error) {
	result, err := p.cachedParse(name, typeHint)
	if err != nil {
		return nil, nil, err
	}
	entity, err := result.entity()
	if err != nil {
		return nil, nil, err
	}
	tags := make(map[string]string, len(result.Tags)+len(meta))
	for k, v := range result.Tags {
		tags[k] = v
	}
	for k, v := range meta {
		if strings.Contains(k, ".") {
			tags[k] = v
		}
	}
	return entity, tags, nil
}

// cachedParse serves name-derived results from the disk cache; provider
// metadata never enters the cache value.
func (p *Parser) cachedParse(name, typeHint string) (*parsedName, error) {
	key := cacheKey(name, typeHint)
	if p.cache != nil {
		if buf, ok := p.cache.Get(key); ok {
			var cached parsedName
			if err := json.Unmarshal(buf, &cached); err == nil && cached.validate() == nil {
				return &cached, nil
			}
			// Corrupt entries are rewritten below.
		}
	}

	result, err := p.parse(name, typeHint)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		if buf, err := json.Marshal(result); err == nil {
			if err := p.cache.Set(key, buf); err != nil {
				p.logger.Warn("parse cache write failed",
					logging.String("name", name), logging.Error(err))
			}
		}
	}
	return result, nil
}

func (p *Parser) parse(name, typeHint string) (*parsedName, error) {
	// Distributor suffixes poison release group detection, so they come
	// out first and return as a plain field after inference.
	stripped, distributors := stripDistributors(name)

	fields := inferFields(stripped, typeHint, detector{})

	if len(distributors) > 0 {
		fields[fieldDistributors] = distributors
	}

	p.collapseMultiValues(name, fields)
	p.foldPart(name, fields)
	p.foldDate(fields)
	p.normalizeLanguage(name, fields)
	applyCorrections(name, fields)

	kind, _ := fields[fieldType].(string)
	delete(fields, fieldType)
	entityMap, ok := entityFieldsFor[kind]
	if !ok {
		if kind == "" {
			return nil, fmt.Errorf("%w: no type determined for %q", ErrInvalidEntityType, name)
		}
		return nil, fmt.Errorf("%w: no entity model for type %q", ErrInvalidEntityType, kind)
	}

	result := &parsedName{Kind: kind, Season: -1, Number: -1, Tags: make(map[string]string)}
	leftover := make(map[string]any)
	for field, value := range fields {
		if target, ok := entityMap[field]; ok {
			result.setEntityField(target, value)
			continue
		}
		if tag, ok := tagNames[field]; ok {
			result.Tags[tag] = tagValue(field, value)
			continue
		}
		leftover[field] = value
	}
	if len(leftover) > 0 {
		p.logger.Debug("untranslated fields discarded",
			logging.String("name", name), logging.Any("fields", leftoverKeys(leftover)))
	}

	if err := result.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s for %q", ErrInvalidEntityArguments, err, name)
	}
	return result, nil
}

// collapseMultiValues keeps the first value of any multi-valued field. The
// downstream tables expect scalars; ambiguity is worth a warning, not a
// failure.
func (p *Parser) collapseMultiValues(name string, fields map[string]any) {
	for field, value := range fields {
		if field == fieldDistributors {
			continue
		}
		switch v := value.(type) {
		case []string:
			if len(v) == 0 {
				delete(fields, field)
				continue
			}
			fields[field] = v[0]
			if len(v) > 1 {
				p.logger.Warn("multiple values inferred, keeping first",
					logging.String("name", name),
					logging.String("field", field),
					logging.String("kept", v[0]))
			}
		case []int:
			if len(v) == 0 {
				delete(fields, field)
				continue
			}
			fields[field] = v[0]
			if len(v) > 1 {
				p.logger.Warn("multiple values inferred, keeping first",
					logging.String("name", name),
					logging.String("field", field),
					logging.Int("kept", v[0]))
			}
		}
	}
}

// foldPart maps a multi-part release onto the season zero convention for
// episodes. A part alongside an explicit season is contradictory and is
// dropped instead.
func (p *Parser) foldPart(name string, fields map[string]any) {
	part, ok := fields[fieldPart].(int)
	if !ok {
		return
	}
	delete(fields, fieldPart)
	kind, _ := fields[fieldType].(string)
	if kind != "episode" {
		p.logger.Warn("part marker on non-episode ignored",
			logging.String("name", name), logging.Int("part", part))
		return
	}
	if _, hasSeason := fields[fieldSeason]; hasSeason {
		p.logger.Warn("part marker alongside season ignored",
			logging.String("name", name), logging.Int("part", part))
		return
	}
	fields[fieldSeason] = 0
	if _, hasEpisode := fields[fieldEpisode]; !hasEpisode {
		fields[fieldEpisode] = part
	}
}

// foldDate gives date-stamped episodes a numeric identity: season zero and
// the date collapsed to YYYYMMDD as the episode number. The date itself
// stays available as a tag. Counted specials without a season default to
// season one.
func (p *Parser) foldDate(fields map[string]any) {
	if kind, _ := fields[fieldType].(string); kind != "episode" {
		return
	}
	if date, ok := fields[fieldDate].(string); ok {
		if _, hasEpisode := fields[fieldEpisode]; !hasEpisode {
			fields[fieldEpisode] = atoi(strings.ReplaceAll(date, "-", ""))
		}
		if _, hasSeason := fields[fieldSeason]; !hasSeason {
			fields[fieldSeason] = 0
		}
		return
	}
	if _, hasCount := fields[fieldEpisodeCount]; hasCount {
		if _, hasSeason := fields[fieldSeason]; !hasSeason {
			fields[fieldSeason] = 1
		}
	}
}

// normalizeLanguage rewrites the inferred language to the compound
// three-letter plus two-letter form. Undeterminable languages are dropped.
func (p *Parser) normalizeLanguage(name string, fields map[string]any) {
	raw, ok := fields[fieldLanguage].(string)
	if !ok {
		return
	}
	compound, err := language.Compound(raw)
	if err != nil {
		p.logger.Warn("language dropped",
			logging.String("name", name),
			logging.String("language", raw),
			logging.Error(err))
		delete(fields, fieldLanguage)
		return
	}
	fields[fieldLanguage] = compound
}

func applyCorrections(name string, fields map[string]any) {
	normalized := strings.ToLower(name)
	for _, r := range []string{".", "_"} {
		normalized = strings.ReplaceAll(normalized, r, " ")
	}
	kind, _ := fields[fieldType].(string)
	for _, c := range corrections {
		if c.kind == kind && strings.HasPrefix(normalized, c.prefix) {
			fields[c.field] = c.value
		}
	}
}

func stripDistributors(name string) (string, []string) {
	var found []string
	stripped := bracketRe.ReplaceAllStringFunc(name, func(m string) string {
		word := strings.ToLower(m[1 : len(m)-1])
		if knownDistributors[word] {
			found = append(found, word)
			return ""
		}
		return m
	})
	return stripped, found
}

func (r *parsedName) setEntityField(target string, value any) {
	switch target {
	case "series":
		r.Series, _ = value.(string)
	case "title":
		r.Title, _ = value.(string)
	case "modifier":
		switch v := value.(type) {
		case string:
			r.Modifier = v
		case int:
			r.Modifier = strconv.Itoa(v)
		}
	case "season":
		if v, ok := value.(int); ok {
			r.Season = v
		}
	case "number":
		if v, ok := value.(int); ok {
			r.Number = v
		}
	}
}

func (r *parsedName) validate() error {
	switch r.Kind {
	case "episode":
		if r.Series == "" {
			return errors.New("episode without series")
		}
		if r.Season < 0 || r.Number < 0 {
			return errors.New("episode without season and number")
		}
	case "movie":
		if r.Title == "" {
			return errors.New("movie without title")
		}
	}
	return nil
}

func (r *parsedName) entity() (media.Entity, error) {
	switch r.Kind {
	case "episode":
		return media.NewEpisode(r.Series, r.Modifier, r.Season, r.Number)
	case "movie":
		return media.NewMovie(r.Title, r.Modifier)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntityType, r.Kind)
	}
}

func tagValue(field string, value any) string {
	switch field {
	case fieldProperCount:
		if v, ok := value.(int); ok {
			return strconv.FormatBool(v > 0)
		}
	case fieldDistributors:
		if v, ok := value.([]string); ok {
			return strings.Join(v, ",")
		}
	}
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

func cacheKey(name, typeHint string) string {
	if typeHint == "" {
		return url.QueryEscape(name)
	}
	return url.QueryEscape(name) + "~" + typeHint
}

func leftoverKeys(leftover map[string]any) []string {
	keys := make([]string, 0, len(leftover))
	for k := range leftover {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type detector struct{}

func (detector) Known(word string) bool { return language.Known(word) }
