// Package config loads the dizquetv CLI configuration.
//
// # Overview
//
// The CLI and the terminal browser need to know where the dizqueTV server
// lives, how long to wait for it and where to write their own log. Those
// settings come from a small TOML file, with environment variables layered
// on top so a container or shell profile can point the tool elsewhere
// without editing the file.
//
// # Resolution Order
//
//  1. Built-in defaults (see Default)
//  2. The TOML file at the given path, or ~/.config/dizquetv/config.toml
//  3. DIZQUETV_* environment variables
//
// A missing config file is not an error. Empty or non-positive values in
// the file keep the default.
//
// # TOML Format
//
//	url = "http://192.168.1.20:8000"
//	timeout_seconds = 5
//	log_level = "debug"
//	log_file = "~/.local/share/dizquetv/dizquetv.log"
//	log_max_size_mb = 10
//	log_max_backups = 3
//	metrics = false
//	tracing = false
//
// # Environment
//
//   - DIZQUETV_URL
//   - DIZQUETV_TIMEOUT_SECONDS
//   - DIZQUETV_LOG_LEVEL
//   - DIZQUETV_LOG_FILE
//   - DIZQUETV_METRICS
//
// The dizquetv binary also loads a .env file from the working directory
// before reading these, so a local .env behaves like exported variables.
// Real environment variables win over .env entries.
//
// # Path Expansion
//
// The config path and log_file accept "~" for the home directory. Relative
// paths are made absolute against the working directory.
//
// # Error Handling
//
// Load wraps failures as "open config", "read config" or "parse config".
package config
