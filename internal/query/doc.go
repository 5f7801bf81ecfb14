// Package query defines the structured search request every pipeline stage
// consumes. A Query is validated at construction and immutable afterwards;
// its deterministic CacheKey doubles as the scan cache key.
package query
