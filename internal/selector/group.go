package selector

import (
	"sort"

	"rill/internal/media"
)

// Group is one bucket of sources resolved to the same entity. Entity is
// nil for the untyped bucket.
type Group struct {
	Entity  media.Entity
	Sources []*media.Source
}

// GroupSources partitions sources into buckets keyed by entity natural
// key. Every member of a bucket is rebound to the bucket's representative
// entity instance, so siblings share one pointer. Buckets are emitted
// untyped first (members sorted by name), then episodes ordered by
// (series, modifier, season, number), then movies ordered by
// (title, modifier).
func GroupSources(sources []*media.Source) ([]Group, error) {
	var untyped []*media.Source
	buckets := make(map[string]*Group)
	var order []string

	for _, src := range sources {
		entity := src.Entity()
		if entity == nil {
			untyped = append(untyped, src)
			continue
		}
		key := entity.NaturalKey()
		bucket, ok := buckets[key]
		if !ok {
			bucket = &Group{Entity: entity}
			buckets[key] = bucket
			order = append(order, key)
		}
		if src.Entity() != bucket.Entity {
			if err := src.SetEntity(bucket.Entity); err != nil {
				return nil, err
			}
		}
		bucket.Sources = append(bucket.Sources, src)
	}

	var episodes, movies []Group
	for _, key := range order {
		bucket := buckets[key]
		switch bucket.Entity.(type) {
		case *media.Episode:
			episodes = append(episodes, *bucket)
		case *media.Movie:
			movies = append(movies, *bucket)
		}
	}

	sort.SliceStable(untyped, func(i, j int) bool {
		return untyped[i].Name < untyped[j].Name
	})
	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i].Entity.(*media.Episode), episodes[j].Entity.(*media.Episode)
		if a.Series != b.Series {
			return a.Series < b.Series
		}
		if a.Modifier != b.Modifier {
			return a.Modifier < b.Modifier
		}
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		return a.Number < b.Number
	})
	sort.SliceStable(movies, func(i, j int) bool {
		a, b := movies[i].Entity.(*media.Movie), movies[j].Entity.(*media.Movie)
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.Modifier < b.Modifier
	})

	groups := make([]Group, 0, 1+len(episodes)+len(movies))
	if len(untyped) > 0 {
		groups = append(groups, Group{Sources: untyped})
	}
	groups = append(groups, episodes...)
	groups = append(groups, movies...)
	return groups, nil
}
