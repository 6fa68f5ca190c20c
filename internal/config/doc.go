// Package config loads, normalizes, and validates the TOML configuration for
// the newsforge daemon and CLI.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/newsforge/config.toml, then ./newsforge.toml. Missing files fall
// back to defaults so read-only commands keep working; Validate reports the
// settings a running daemon cannot live without (news API key, service
// endpoints).
package config
