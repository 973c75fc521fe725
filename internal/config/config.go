// ABOUTME: Configuration loading and parsing for sia-console
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied before a config file is decoded over them.
const (
	DefaultBaseURL         = "http://127.0.0.1:8000"
	DefaultTimeout         = 15 * time.Second
	DefaultMaxKnown        = 50
	DefaultFetchLimit      = 20
	DefaultVolume          = 0.3
	DefaultMockAddr        = "127.0.0.1:8000"
	DefaultMockAccessTTL   = 15 * time.Minute
	DefaultMockRefreshTTL  = 7 * 24 * time.Hour
	defaultDatabaseName    = "console.db"
	defaultConfigName      = "config.yaml"
	configDirName          = "sia"
	minMockJWTSecretLength = 16
)

// Config represents the complete sia-console configuration
type Config struct {
	API      APIConfig      `yaml:"api" toml:"api"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Sessions SessionsConfig `yaml:"sessions" toml:"sessions"`
	Sounds   SoundsConfig   `yaml:"sounds" toml:"sounds"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	MockAPI  MockAPIConfig  `yaml:"mockapi" toml:"mockapi"`
}

// APIConfig holds the backend API location and request timing
type APIConfig struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for YAML/TOML unmarshaling
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// StorageConfig holds the local credential store location
type StorageConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// SessionsConfig bounds the locally tracked chat-session list
type SessionsConfig struct {
	MaxKnown   int `yaml:"max_known" toml:"max_known"`
	FetchLimit int `yaml:"fetch_limit" toml:"fetch_limit"`
}

// SoundsConfig holds chat feedback cue settings
type SoundsConfig struct {
	Enabled bool    `yaml:"enabled" toml:"enabled"`
	Volume  float64 `yaml:"volume" toml:"volume"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MockAPIConfig configures the development backend served by sia-mockapi
type MockAPIConfig struct {
	Addr         string `yaml:"addr" toml:"addr"`
	JWTSecret    string `yaml:"jwt_secret" toml:"jwt_secret"`
	SeedEmail    string `yaml:"seed_email" toml:"seed_email"`
	SeedPassword string `yaml:"seed_password" toml:"seed_password"`

	AccessTTL  time.Duration `yaml:"-" toml:"-"`
	RefreshTTL time.Duration `yaml:"-" toml:"-"`

	AccessTTLRaw  string `yaml:"access_ttl" toml:"access_ttl"`
	RefreshTTLRaw string `yaml:"refresh_ttl" toml:"refresh_ttl"`
}

// Default returns a configuration usable without any config file.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Storage: StorageConfig{
			Path: DefaultDatabasePath(),
		},
		Sessions: SessionsConfig{
			MaxKnown:   DefaultMaxKnown,
			FetchLimit: DefaultFetchLimit,
		},
		Sounds: SoundsConfig{
			Enabled: true,
			Volume:  DefaultVolume,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		MockAPI: MockAPIConfig{
			Addr:       DefaultMockAddr,
			AccessTTL:  DefaultMockAccessTTL,
			RefreshTTL: DefaultMockRefreshTTL,
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the file at path if it exists, otherwise returns
// defaults with environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.ApplyEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validating config: %w", err)
		}
		return cfg, nil
	}
	return Load(path)
}

// ApplyEnv overrides file values with SIA_API_URL and SIA_DB_PATH when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SIA_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SIA_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SIA_JWT_SECRET"); v != "" {
		c.MockAPI.JWTSecret = v
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	if c.Sessions.MaxKnown <= 0 {
		return fmt.Errorf("sessions.max_known must be positive")
	}
	if c.Sessions.FetchLimit <= 0 {
		return fmt.Errorf("sessions.fetch_limit must be positive")
	}

	if c.Sounds.Volume < 0 || c.Sounds.Volume > 1 {
		return fmt.Errorf("sounds.volume must be between 0 and 1, got %v", c.Sounds.Volume)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.MockAPI.JWTSecret != "" && len(c.MockAPI.JWTSecret) < minMockJWTSecretLength {
		return fmt.Errorf("mockapi.jwt_secret must be at least %d bytes", minMockJWTSecretLength)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.API.TimeoutRaw != "" {
		cfg.API.Timeout, err = time.ParseDuration(cfg.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing api.timeout %q: %w", cfg.API.TimeoutRaw, err)
		}
	}

	if cfg.MockAPI.AccessTTLRaw != "" {
		cfg.MockAPI.AccessTTL, err = time.ParseDuration(cfg.MockAPI.AccessTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing mockapi.access_ttl %q: %w", cfg.MockAPI.AccessTTLRaw, err)
		}
	}

	if cfg.MockAPI.RefreshTTLRaw != "" {
		cfg.MockAPI.RefreshTTL, err = time.ParseDuration(cfg.MockAPI.RefreshTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing mockapi.refresh_ttl %q: %w", cfg.MockAPI.RefreshTTLRaw, err)
		}
	}

	return nil
}

// DefaultPath returns the path to the console config file.
// Priority: SIA_CONFIG env var > XDG_CONFIG_HOME/sia/config.yaml > ~/.config/sia/config.yaml
func DefaultPath() string {
	if envPath := os.Getenv("SIA_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return defaultConfigName
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, configDirName, defaultConfigName)
}

// DefaultDatabasePath returns the local store location.
// Priority: XDG_DATA_HOME/sia/console.db > ~/.local/share/sia/console.db
func DefaultDatabasePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return defaultDatabaseName
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, configDirName, defaultDatabaseName)
}
