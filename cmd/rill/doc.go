// Package main hosts the rill CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into pipeline
// runs: provider searches, download handoffs, download maintenance, log
// tailing and configuration scaffolding. It centralizes configuration
// resolution and logging setup so subcommands can focus on presentation.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it here through dedicated commands or flags.
package main
