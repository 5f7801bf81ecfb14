package filter

import (
	"path"
	"strconv"
	"strings"

	"rill/internal/media"
)

// SourceFilter matches the listing-level attributes of a source.
type SourceFilter struct{}

func (SourceFilter) Handles() []string {
	return []string{"name", "name_glob", "provider", "uri", "uri_glob", "language"}
}

func (SourceFilter) Match(field, value string, src *media.Source) bool {
	switch field {
	case "name":
		return strings.EqualFold(src.Name, value)
	case "name_glob":
		return globMatch(value, src.Name)
	case "provider":
		return src.Provider == value
	case "uri":
		return src.URI == value
	case "uri_glob":
		return globMatch(value, src.URI)
	case "language":
		if src.Language == "" {
			return false
		}
		lang := strings.ToLower(value)
		return src.Language == lang || strings.HasPrefix(src.Language, lang+"-")
	}
	return false
}

// EntityFilter matches the natural-key attributes of a source's resolved
// entity. Sources without an entity of the right kind never match.
type EntityFilter struct{}

func (EntityFilter) Handles() []string {
	return []string{"series", "series_year", "season", "number", "title", "title_year", "modifier"}
}

func (EntityFilter) Match(field, value string, src *media.Source) bool {
	switch entity := src.Entity().(type) {
	case *media.Episode:
		switch field {
		case "series":
			return entity.Series == strings.ToLower(value)
		case "season":
			n, err := strconv.Atoi(value)
			return err == nil && entity.Season == n
		case "number":
			n, err := strconv.Atoi(value)
			return err == nil && entity.Number == n
		case "series_year", "modifier":
			return entity.Modifier == value
		}
	case *media.Movie:
		switch field {
		case "title":
			return entity.Title == strings.ToLower(value)
		case "title_year", "modifier":
			return entity.Modifier == value
		}
	}
	return false
}

// TagFilter matches release metadata tags under friendly field names.
type TagFilter struct{}

// tagFields maps query field names to the tag namespaces they test.
var tagFields = map[string]string{
	"quality":       "video.screen-size",
	"codec":         "video.codec",
	"format":        "video.format",
	"distributor":   "release.distributors",
	"release_group": "release.group",
	"proper":        "release.proper",
}

func (TagFilter) Handles() []string {
	fields := make([]string, 0, len(tagFields))
	for field := range tagFields {
		fields = append(fields, field)
	}
	return fields
}

func (TagFilter) Match(field, value string, src *media.Source) bool {
	tag, ok := tagFields[field]
	if !ok {
		return false
	}
	stored, present := src.Tag(tag)
	switch field {
	case "distributor":
		if !present {
			return false
		}
		for _, d := range strings.Split(stored, ",") {
			if strings.EqualFold(d, value) {
				return true
			}
		}
		return false
	case "proper":
		proper := present && strings.EqualFold(stored, "true")
		return proper == strings.EqualFold(value, "true")
	default:
		return present && strings.EqualFold(stored, value)
	}
}

// StateFilter matches sources by their download state, resolved through an
// injected lookup so the filter layer stays ignorant of download storage.
type StateFilter struct {
	Lookup func(src *media.Source) (string, bool)
}

func (StateFilter) Handles() []string { return []string{"state"} }

func (f StateFilter) Match(field, value string, src *media.Source) bool {
	if f.Lookup == nil {
		return false
	}
	state, ok := f.Lookup(src)
	return ok && strings.EqualFold(state, value)
}

func globMatch(pattern, value string) bool {
	ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(value))
	return err == nil && ok
}
