package store

import "errors"

var (
	// ErrNoResults reports that no persisted row matches a natural key.
	ErrNoResults = errors.New("no results found")

	// ErrMultipleResults reports that a natural key matches more than one
	// persisted row, a persistence-integrity violation surfaced rather
	// than swallowed.
	ErrMultipleResults = errors.New("multiple results found")

	// ErrDuplicateDownload reports that a source already has a tracked
	// download.
	ErrDuplicateDownload = errors.New("download already tracked for source")
)
