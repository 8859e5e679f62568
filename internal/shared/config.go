package shared

import (
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Links    LinksConfig    `toml:"links"`
	Log      LogConfig      `toml:"log"`
	API      APIConfig      `toml:"api"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"CCM_DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `toml:"host" env:"CCM_SERVER_HOST"`
	Port            int           `toml:"port" env:"CCM_PORT"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	RateLimit       float64       `toml:"rate_limit"`
	RateBurst       int           `toml:"rate_burst"`
	CORSOrigin      string        `toml:"cors_origin"`
	EmptyListStatus int           `toml:"empty_list_status"`
}

// LinksConfig selects the link coordinator's consistency mode.
type LinksConfig struct {
	Transactional bool `toml:"transactional" env:"CCM_LINKS_TRANSACTIONAL"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"CCM_LOG_LEVEL"`
}

// APIConfig points the CLI's raw API commands at a running server.
type APIConfig struct {
	BaseURL string `toml:"base_url" env:"CCM_API_BASE_URL"`
}

// legacyEnv holds variables honoured for compatibility with older deployments.
type legacyEnv struct {
	Port int `env:"PORT"`
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Validate checks the values that the server and store cannot recover from.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	switch c.Server.EmptyListStatus {
	case 0, http.StatusOK, http.StatusNotFound:
	default:
		return fmt.Errorf("%w: server.empty_list_status must be 200 or 404, got %d", ErrInvalidConfig, c.Server.EmptyListStatus)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their defaults; environment variables are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides config values from the environment.
//
// PORT is read before CCM_PORT so the namespaced variable wins when both are set.
func ApplyEnv(config *Config) error {
	var legacy legacyEnv
	if err := env.Parse(&legacy); err != nil {
		return fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	if legacy.Port != 0 {
		config.Server.Port = legacy.Port
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
