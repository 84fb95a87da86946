// Package config loads solmap settings from defaults, solmap.yaml, SOLMAP_*
// environment variables and command line flags, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/TFMV/solmap/oracle"
	"github.com/TFMV/solmap/physics"
)

const (
	DefaultConfigFile = "solmap.yaml"
	DefaultDotEnv     = ".env"
	EnvPrefix         = "SOLMAP_"
)

// Config is the resolved configuration
type Config struct {
	Engine           string  `koanf:"engine"`
	Width            float64 `koanf:"width"`
	Height           float64 `koanf:"height"`
	MaxTicks         int     `koanf:"max_ticks"`
	LinkDistance     float64 `koanf:"link_distance"`
	ChargeStrength   float64 `koanf:"charge_strength"`
	CollisionPadding float64 `koanf:"collision_padding"`
	Seed             int64   `koanf:"seed"`

	Oracle    string `koanf:"oracle"`
	Model     string `koanf:"model"`
	APIKey    string `koanf:"api_key"`
	MaxTokens int64  `koanf:"max_tokens"`
	BaseURL   string `koanf:"base_url"`

	Theme    string       `koanf:"theme"`
	Server   ServerConfig `koanf:"server"`
	LogLevel string       `koanf:"log_level"`
	Verbose  bool         `koanf:"verbose"`
}

// ServerConfig configures `solmap serve`
type ServerConfig struct {
	Port         int           `koanf:"port"`
	TickInterval time.Duration `koanf:"tick_interval"`
	SessionTTL   time.Duration `koanf:"session_ttl"`
}

func defaults() map[string]any {
	s := physics.DefaultSettings()
	return map[string]any{
		"engine":               "force",
		"width":                s.Width,
		"height":               s.Height,
		"max_ticks":            s.MaxTicks,
		"link_distance":        s.LinkDistance,
		"charge_strength":      s.ChargeStrength,
		"collision_padding":    s.CollisionPadding,
		"seed":                 0,
		"oracle":               "pattern",
		"model":                oracle.DefaultModel,
		"max_tokens":           oracle.DefaultMaxTokens,
		"theme":                "default",
		"server.port":          8080,
		"server.tick_interval": "16ms",
		"server.session_ttl":   "30m",
		"log_level":            "info",
		"verbose":              false,
	}
}

// Load resolves the configuration. cfgFile may be empty, in which case
// ./solmap.yaml is used when present. Only flags the user actually set
// override the other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := loadDotEnv(DefaultDotEnv); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// SOLMAP_SERVER_PORT -> server.port
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if rest, ok := strings.CutPrefix(key, "server_"); ok {
			return "server." + rest
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "port":
				key = "server.port"
			case "tick_interval":
				key = "server.tick_interval"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}
	return "", nil
}

// loadDotEnv exports the variables of path without overriding the ones
// already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail much later
func (c *Config) Validate() error {
	if _, err := physics.GetEngine(c.Engine, c.Settings()); err != nil {
		return err
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %gx%g", c.Width, c.Height)
	}
	if c.LinkDistance <= 0 {
		return fmt.Errorf("link_distance must be positive, got %g", c.LinkDistance)
	}
	if c.CollisionPadding < 0 {
		return fmt.Errorf("collision_padding must not be negative, got %g", c.CollisionPadding)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Settings returns the layout settings
func (c *Config) Settings() physics.Settings {
	s := physics.DefaultSettings()
	s.Width = c.Width
	s.Height = c.Height
	s.LinkDistance = c.LinkDistance
	s.ChargeStrength = c.ChargeStrength
	s.CollisionPadding = c.CollisionPadding
	s.MaxTicks = c.MaxTicks
	s.Seed = c.Seed
	return s
}

// OracleConfig returns the oracle configuration
func (c *Config) OracleConfig() oracle.Config {
	return oracle.Config{
		Kind:      c.Oracle,
		Model:     c.Model,
		APIKey:    c.APIKey,
		MaxTokens: c.MaxTokens,
		BaseURL:   c.BaseURL,
	}
}

// Level returns the log level; Verbose forces debug
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, _ := parseLevel(c.LogLevel)
	return level
}

// NewLogger returns a text logger writing to w at the configured level
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}
