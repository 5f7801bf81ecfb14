// Package store persists entities, sources, selections and download
// tracking in SQLite, and implements the natural-key merge contract.
//
// Merge guarantees at most one persisted entity per natural key and one
// source per URI. Lookups hand back pointer-identical objects across
// calls through an identity map, so two sources resolved to the same
// release share one entity instance, not merely an equal one.
package store
