// Package config handles configuration loading for sia-console.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Every field has a default, so a missing file is not an error for
// LoadOrDefault.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SIA_CONFIG environment variable
//  2. ~/.config/sia/config.yaml (or $XDG_CONFIG_HOME/sia/config.yaml)
//
// Files ending in .toml are decoded as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
//	api:
//	  base_url: "https://${SIA_HOST}"
//
// After decoding, SIA_API_URL, SIA_DB_PATH and SIA_JWT_SECRET override the
// corresponding file values.
//
// # Configuration Sections
//
//	api:
//	  base_url: "https://api.example.com"
//	  timeout: "15s"
//
//	storage:
//	  path: "~/.local/share/sia/console.db"
//
//	sessions:
//	  max_known: 50     # bounded list of locally tracked chat sessions
//	  fetch_limit: 20   # how many of them the sessions view fetches
//
//	sounds:
//	  enabled: true
//	  volume: 0.3
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	mockapi:
//	  addr: "127.0.0.1:8000"
//	  jwt_secret: "${SIA_JWT_SECRET}"
//	  access_ttl: "15m"
//	  refresh_ttl: "168h"
package config
