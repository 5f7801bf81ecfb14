// Package logging builds the slog loggers used across rill.
//
// Every component receives a child logger tagged with a component attribute
// so the console handler can render a stable prefix. The console format is
// meant for interactive use; the json format is for log shipping. Warnings
// are part of the pipeline contract: per-origin failures, dropped parser
// fields and missing filters are reported here instead of failing the run.
package logging
