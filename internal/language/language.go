// Package language maps release-name language markers to the compound
// "xxx-xx" (ISO 639-2 plus ISO 639-1) codes stored on sources.
package language

import (
	"fmt"
	"strings"
)

type entry struct {
	code2 string   // ISO 639-1 (2-letter)
	code3 string   // ISO 639-2 primary (3-letter)
	alt3  string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	words []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", []string{"english"}},
	{"es", "spa", "", []string{"spanish", "castellano"}},
	{"fr", "fra", "fre", []string{"french"}},
	{"de", "deu", "ger", []string{"german"}},
	{"it", "ita", "", []string{"italian"}},
	{"pt", "por", "", []string{"portuguese"}},
	{"ja", "jpn", "", []string{"japanese"}},
	{"ko", "kor", "", []string{"korean"}},
	{"zh", "zho", "chi", []string{"chinese"}},
	{"ru", "rus", "", []string{"russian"}},
	{"ar", "ara", "", []string{"arabic"}},
	{"hi", "hin", "", []string{"hindi"}},
	{"nl", "nld", "dut", []string{"dutch"}},
	{"pl", "pol", "", []string{"polish"}},
	{"sv", "swe", "", []string{"swedish"}},
	{"da", "dan", "", []string{"danish"}},
	{"no", "nor", "", []string{"norwegian"}},
	{"fi", "fin", "", []string{"finnish"}},
	{"tr", "tur", "", []string{"turkish"}},
	{"cs", "ces", "cze", []string{"czech"}},
	{"el", "ell", "gre", []string{"greek"}},
	{"he", "heb", "", []string{"hebrew"}},
	{"hu", "hun", "", []string{"hungarian"}},
	{"ro", "ron", "rum", []string{"romanian"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Known reports whether the input resolves to a supported language.
func Known(code string) bool {
	return lookup(code) != nil
}

// Compound converts any recognized language code or word form into the
// "xxx-xx" compound code, e.g. "swe" or "swedish" become "swe-sv".
// Undefined ("und") and multi-language ("mul") markers never convert;
// callers drop the field instead of guessing.
func Compound(code string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	switch normalized {
	case "und":
		return "", fmt.Errorf("language: undefined language")
	case "mul", "multi":
		return "", fmt.Errorf("language: multiple languages")
	}
	e := lookup(normalized)
	if e == nil {
		return "", fmt.Errorf("language: unknown code %q", code)
	}
	return e.code3 + "-" + e.code2, nil
}
