package provider

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strconv"

	"rill/internal/query"
)

// Record is one raw listing as reported by a provider, before any parsing
// or entity resolution. Well-known keys are declared below; dotted keys
// (such as "video.codec") pass through to the parsed source's tags.
type Record map[string]string

// Well-known record keys.
const (
	KeyProvider = "provider"
	KeyName     = "name"
	KeyURI      = "uri"
	KeyURN      = "urn"
	KeySize     = "size"
	KeySeeds    = "seeds"
	KeyLeechers = "leechers"
	KeyType     = "type"
	KeyLanguage = "language"
)

// Int reads a numeric record field. Absent or malformed values read as
// zero, matching the unknowns convention on sources.
func (r Record) Int(key string) int {
	n, _ := strconv.Atoi(r[key])
	return n
}

// Int64 reads a wide numeric record field, used for sizes.
func (r Record) Int64(key string) int64 {
	n, _ := strconv.ParseInt(r[key], 10, 64)
	return n
}

// Meta returns the dotted-key subset of the record, the part that carries
// provider-normalized tag metadata.
func (r Record) Meta() map[string]string {
	var meta map[string]string
	for k, v := range r {
		for _, c := range k {
			if c == '.' {
				if meta == nil {
					meta = make(map[string]string)
				}
				meta[k] = v
				break
			}
		}
	}
	return meta
}

// Provider is the closed extension contract for a content origin.
type Provider interface {
	// Name identifies the provider in logs, records and configuration.
	Name() string

	// QueryURI maps a query onto this provider's start URI. The second
	// return is false when the provider cannot serve the query; that is
	// routine, not an error.
	QueryURI(q *query.Query) (string, bool)

	// Paginate yields page URIs starting from uri. The sequence may be
	// shorter than the caller wants; exhaustion is natural.
	Paginate(uri string) iter.Seq[string]

	// Fetch retrieves the raw page at uri.
	Fetch(ctx context.Context, uri string) ([]byte, error)

	// Parse extracts raw records from a fetched page. It returns an empty
	// slice, never nil, when the page holds no listings, and an error on
	// malformed input.
	Parse(buf []byte) ([]Record, error)
}

// Registry holds the installed providers. Registration happens once at
// startup; lookups afterwards are read-only.
type Registry struct {
	providers map[string]Provider
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register installs a provider. A duplicate name is a programming error
// surfaced to the caller rather than silently overwritten.
func (r *Registry) Register(p Provider) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("provider: cannot register an unnamed provider")
	}
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider: %q is already registered", name)
	}
	r.providers[name] = p
	r.order = append(r.order, name)
	return nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// All returns the installed providers in registration order.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

// Names returns the sorted provider names, for display.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}
