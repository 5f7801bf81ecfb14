package selector

import (
	"math"
	"sort"

	"rill/internal/media"
)

const (
	// seedRelevanceThreshold separates statistically meaningful seed
	// counts from near-zero noise.
	seedRelevanceThreshold = 10

	// ratioImbalanceThreshold is the relative share-ratio difference
	// below which ratios are treated as comparable and raw seed count
	// breaks the tie.
	ratioImbalanceThreshold = 1.2
)

// Sorter ranks a group's candidate sources.
type Sorter interface {
	// Sort returns the candidates ordered best first. The order is total;
	// ties break down to the release name, so equal inputs rank equally
	// on every run.
	Sort(sources []*media.Source) []*media.Source
}

// Basic is the default ranking: proper releases first, then seed
// relevance, then share ratio when meaningfully imbalanced, then raw
// seeds, then known release group, finally name.
type Basic struct{}

func (Basic) Sort(sources []*media.Source) []*media.Source {
	ranked := make([]*media.Source, len(sources))
	copy(ranked, sources)
	sort.SliceStable(ranked, func(i, j int) bool {
		return compare(ranked[i], ranked[j]) < 0
	})
	return ranked
}

// Select returns the best candidate, or nil for an empty group.
func (b Basic) Select(sources []*media.Source) *media.Source {
	if len(sources) == 0 {
		return nil
	}
	return b.Sort(sources)[0]
}

// compare returns negative when a ranks before b.
func compare(a, b *media.Source) int {
	if c := compareBool(isProper(a), isProper(b)); c != 0 {
		return c
	}
	if c := compareBool(a.Seeds > seedRelevanceThreshold, b.Seeds > seedRelevanceThreshold); c != 0 {
		return c
	}
	if c := compareRatio(a, b); c != 0 {
		return c
	}
	if a.Seeds != b.Seeds {
		if a.Seeds > b.Seeds {
			return -1
		}
		return 1
	}
	if c := compareBool(hasReleaseGroup(a), hasReleaseGroup(b)); c != 0 {
		return c
	}
	switch {
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	default:
		return 0
	}
}

// compareRatio prefers the higher share ratio only when the imbalance
// between the two exceeds the threshold; comparable ratios defer to the
// later criteria. An undefined ratio never beats a defined one here.
func compareRatio(a, b *media.Source) int {
	ra, okA := a.ShareRatio()
	rb, okB := b.ShareRatio()
	if !okA || !okB {
		return 0
	}
	if ra == rb {
		return 0
	}
	hi, lo := ra, rb
	if lo > hi {
		hi, lo = lo, hi
	}
	imbalanced := math.IsInf(hi, 1) || lo == 0 || hi/lo > ratioImbalanceThreshold
	if !imbalanced {
		return 0
	}
	if ra > rb {
		return -1
	}
	return 1
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

func isProper(src *media.Source) bool {
	value, ok := src.Tag("release.proper")
	return ok && value == "true"
}

func hasReleaseGroup(src *media.Source) bool {
	value, ok := src.Tag("release.group")
	return ok && value != ""
}
