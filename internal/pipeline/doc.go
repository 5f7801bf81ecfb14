// Package pipeline wires the stages together: scan, parse, merge, filter,
// group, rank and hand off to the download manager.
package pipeline
