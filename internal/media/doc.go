// Package media defines the core data model: provider listings (Source),
// the canonical works they resolve to (Episode, Movie) and the tag
// vocabulary the parser attaches to sources.
//
// Identity is deliberate here. A Source is identified by its URI alone;
// entities are identified by their natural key, never by database id. Both
// invariants are enforced at construction so the merge step can rely on
// them.
package media
