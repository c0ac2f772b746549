// Package config loads the service configuration from file, environment,
// and defaults, including the declarative site context definitions.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mcuadros/go-defaults"
)

// envPrefix is the prefix for environment variable overrides,
// e.g. KESTREL_SERVER_LISTEN overrides server.listen.
const envPrefix = "KESTREL_"

// Config holds the full service configuration.
type Config struct {
	// Server holds HTTP server settings.
	Server ServerConfig `koanf:"server"`
	// Scan holds passive scan engine settings.
	Scan ScanConfig `koanf:"scan"`
	// Contexts holds the operator-defined site contexts.
	Contexts []ContextConfig `koanf:"contexts"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Listen is the address the API server binds to.
	Listen string `koanf:"listen" default:":8080"`
	// ReadTimeout bounds how long reading a request may take.
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// WriteTimeout bounds how long writing a response may take.
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// ShutdownGracePeriod bounds graceful shutdown on termination.
	ShutdownGracePeriod time.Duration `koanf:"shutdown_grace_period"`
	// MaxBodySize caps accepted request bodies in bytes.
	MaxBodySize int64 `koanf:"max_body_size" default:"1048576"`
	// Debug enables debug-level logging.
	Debug bool `koanf:"debug"`
	// Pretty enables human-readable console logging.
	Pretty bool `koanf:"pretty"`
}

// ScanConfig holds passive scan engine settings.
type ScanConfig struct {
	// Workers is the number of concurrent scan workers.
	Workers int `koanf:"workers" default:"4"`
	// QueueSize is the capacity of the background submission queue.
	QueueSize int `koanf:"queue_size" default:"256"`
	// MaxAlerts caps how many alerts are retained in memory.
	MaxAlerts int `koanf:"max_alerts" default:"10000"`
}

// ContextConfig declares one site context.
type ContextConfig struct {
	// Name is the operator-assigned context name.
	Name string `koanf:"name"`
	// Includes are URL regex patterns that place a URL in the context.
	Includes []string `koanf:"includes"`
	// Excludes are URL regex patterns that remove a URL from the context.
	Excludes []string `koanf:"excludes"`
	// Technologies is the technology scope; empty means all technologies.
	Technologies []string `koanf:"technologies"`
	// CustomPages are the custom page signatures of the context.
	CustomPages []CustomPageConfig `koanf:"custom_pages"`
	// Users are the authorized users of the context.
	Users []UserConfig `koanf:"users"`
}

// CustomPageConfig declares one custom page signature.
type CustomPageConfig struct {
	// Kind is the page classification: ok_200, notfound_404, error_500, other.
	Kind string `koanf:"kind"`
	// Content is the literal content or regex pattern to match.
	Content string `koanf:"content"`
	// Regex marks Content as a regex pattern instead of a literal.
	Regex bool `koanf:"regex"`
	// Disabled excludes the signature from matching without removing it.
	Disabled bool `koanf:"disabled"`
}

// UserConfig declares one authorized user.
type UserConfig struct {
	// Name is the display name of the user.
	Name string `koanf:"name"`
	// Disabled excludes the user from authenticated scans.
	Disabled bool `koanf:"disabled"`
}

// Load reads the configuration, layering file values over struct defaults
// and environment overrides over both. A missing config file is not an
// error: the service can run entirely from defaults and environment.
func Load(path *string) (*Config, error) {
	k := koanf.New(".")

	cfg := &Config{}
	defaults.SetDefaults(cfg)

	if path != nil && *path != "" {
		if _, err := os.Stat(*path); err == nil {
			if err := k.Load(file.Provider(*path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", *path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigUnmarshal, err)
	}

	applyFallbacks(cfg)

	return cfg, nil
}

// envToKey maps KESTREL_SERVER_LISTEN to server.listen.
func envToKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
}

// applyFallbacks fills duration settings that cannot carry struct defaults.
func applyFallbacks(cfg *Config) {
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownGracePeriod <= 0 {
		cfg.Server.ShutdownGracePeriod = 10 * time.Second
	}
}
