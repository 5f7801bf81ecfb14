// Package scanner fans a query out across the installed providers and
// aggregates their raw records.
//
// Every failure below the scanner is origin-scoped: one provider timing
// out, returning garbage or violating the parse contract costs only that
// origin's records, never the scan. Raw aggregated results are cached on
// disk keyed by the query so repeated searches within the TTL skip the
// network entirely.
package scanner
