// Package config loads, validates and defaults rill's TOML configuration.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/rill/config.toml, then ./rill.toml, then built-in defaults.
// Paths are expanded (~ and relative forms) at load time so the rest of
// the codebase only ever sees absolute paths.
package config
