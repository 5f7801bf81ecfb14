// Package logs provides bounded-memory log file tailing for the CLI.
//
// Tail reads the last N lines of a log file and reports the end offset;
// Follow polls from an offset and streams new lines until its context is
// cancelled. Both treat a missing file as empty, so callers can start
// watching before the first log write.
package logs
