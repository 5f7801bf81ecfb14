package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rill/internal/query"
)

const defaultFeedTimeout = 30 * time.Second

// FeedOptions configures a Feed provider.
type FeedOptions struct {
	// Timeout bounds a single page fetch. Zero means thirty seconds.
	Timeout time.Duration

	// DefaultType and DefaultLanguage are stamped onto records that do
	// not carry their own.
	DefaultType     string
	DefaultLanguage string
}

// Feed is a provider backed by a JSON search API. One Feed instance maps to
// one remote endpoint; several feeds with different names and base URLs can
// be registered side by side.
type Feed struct {
	name    string
	baseURL string
	client  *http.Client
	opts    FeedOptions
}

func NewFeed(name, baseURL string, opts FeedOptions) *Feed {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultFeedTimeout
	}
	return &Feed{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		opts:    opts,
	}
}

func (f *Feed) Name() string { return f.name }

// QueryURI renders the query as the feed's search URL. Feeds serve every
// query type; an unset base URL declines all queries.
func (f *Feed) QueryURI(q *query.Query) (string, bool) {
	if f.baseURL == "" {
		return "", false
	}
	values := url.Values{}
	for _, field := range q.Fields() {
		values.Set(field.Key, field.Value)
	}
	values.Set("type", q.Type())
	return f.baseURL + "/search?" + values.Encode(), true
}

// Paginate yields numbered page URIs without end; the scanner bounds the
// iteration count.
func (f *Feed) Paginate(uri string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for page := 1; ; page++ {
			if !yield(uri + "&page=" + strconv.Itoa(page)) {
				return
			}
		}
	}
}

func (f *Feed) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", f.name, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", f.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s: unexpected status %s for %s", f.name, resp.Status, uri)
	}
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", f.name, err)
	}
	return buf, nil
}

type feedResponse struct {
	Results []feedResult `json:"results"`
}

type feedResult struct {
	Name     string            `json:"name"`
	URI      string            `json:"uri"`
	URN      string            `json:"urn,omitempty"`
	Size     int64             `json:"size,omitempty"`
	Seeds    int               `json:"seeds,omitempty"`
	Leechers int               `json:"leechers,omitempty"`
	Type     string            `json:"type,omitempty"`
	Language string            `json:"language,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// Parse decodes a search response page into records. A page without
// results decodes to an empty, non-nil slice.
func (f *Feed) Parse(buf []byte) ([]Record, error) {
	var resp feedResponse
	if err := json.Unmarshal(buf, &resp); err != nil {
		return nil, fmt.Errorf("feed %s: malformed page: %w", f.name, err)
	}
	records := make([]Record, 0, len(resp.Results))
	for _, res := range resp.Results {
		rec := Record{
			KeyName: res.Name,
			KeyURI:  res.URI,
		}
		if res.URN != "" {
			rec[KeyURN] = res.URN
		}
		if res.Size > 0 {
			rec[KeySize] = strconv.FormatInt(res.Size, 10)
		}
		if res.Seeds > 0 {
			rec[KeySeeds] = strconv.Itoa(res.Seeds)
		}
		if res.Leechers > 0 {
			rec[KeyLeechers] = strconv.Itoa(res.Leechers)
		}
		rec.setOrDefault(KeyType, res.Type, f.opts.DefaultType)
		rec.setOrDefault(KeyLanguage, res.Language, f.opts.DefaultLanguage)
		for k, v := range res.Tags {
			rec[k] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r Record) setOrDefault(key, value, fallback string) {
	switch {
	case value != "":
		r[key] = value
	case fallback != "":
		r[key] = fallback
	}
}
