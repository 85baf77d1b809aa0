// Package config loads brickguide client settings.
//
// # Overview
//
// Settings come from a TOML file, then from the environment. The only
// required value is the analysis service address, and a missing or malformed
// address stops the client at startup instead of failing on the first
// request.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/brickguide/config.toml (default)
//  3. If the config file doesn't exist, start from defaults
//  4. BRICKGUIDE_ENV overrides mode, BRICKGUIDE_API_BASE_URL overrides api_base_url
//
// # Default Values
//
//   - Config file: ~/.config/brickguide/config.toml
//   - Mode: production
//   - API base URL: none; http://localhost:9000 in development mode
//   - Per-attempt timeout: 20s
//   - Attempts: 3, backoff from 800ms up to 5s
//   - Log file: ~/.local/state/brickguide/brickguide.log
//
// # TOML Format
//
// Example config.toml:
//
//	api_base_url = "https://guide.example.com"
//	mode = "production"
//	timeout_seconds = 20
//	max_attempts = 3
//	base_delay_ms = 800
//	max_delay_ms = 5000
//	log_file = "~/.local/state/brickguide/brickguide.log"
//
// All fields are optional. Tilde expansion is performed for log_file.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parse errors
//   - A missing base URL outside development (wraps ErrMissingBaseURL)
//   - A base URL that is not an absolute http(s) URL, in any mode
package config
