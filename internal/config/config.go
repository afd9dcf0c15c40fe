// Package config loads tinta's runtime configuration from a config file
// (tinta.toml, discovered by the CLI) layered with TINTA_* environment
// variables. Every key has a working default; tinta runs with no config
// file at all.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"tinta/palette"
	"tinta/theme"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Theme      ThemeConfig      `mapstructure:"theme"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	OverridesDir string        `mapstructure:"overrides_dir"`
	ThemeTTL     time.Duration `mapstructure:"theme_ttl"`
}

// ThemeConfig sets the generation defaults; requests and per-host
// overrides may replace any of them.
type ThemeConfig struct {
	Flavor  string `mapstructure:"flavor"`
	Accent  string `mapstructure:"accent"`
	Variant string `mapstructure:"variant"`
}

type FetchConfig struct {
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	AssetTimeout time.Duration `mapstructure:"asset_timeout"`
	MaxSheets    int           `mapstructure:"max_sheets"`
	ImportDepth  int           `mapstructure:"import_depth"`
	Render       bool          `mapstructure:"render"`
	Branding     bool          `mapstructure:"branding"`
}

// ClassifierConfig points at the external color-classification service.
// An empty endpoint leaves the heuristic mapper on its own.
type ClassifierConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Prompts  string        `mapstructure:"prompts"`
}

type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load resolves the configuration from viper's current state (the CLI
// points viper at the config file first) plus TINTA_* env overrides.
func Load() (*Config, error) {
	viper.SetEnvPrefix("tinta")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.overrides_dir", "overrides")
	viper.SetDefault("server.theme_ttl", 10*time.Minute)

	viper.SetDefault("theme.flavor", string(palette.DefaultFlavor))
	viper.SetDefault("theme.accent", string(palette.DefaultAccent))
	viper.SetDefault("theme.variant", string(theme.DefaultVariant))

	viper.SetDefault("fetch.user_agent", "")
	viper.SetDefault("fetch.timeout", 15*time.Second)
	viper.SetDefault("fetch.asset_timeout", 8*time.Second)
	viper.SetDefault("fetch.max_sheets", 16)
	viper.SetDefault("fetch.import_depth", 3)
	viper.SetDefault("fetch.render", false)
	viper.SetDefault("fetch.branding", true)

	viper.SetDefault("classifier.endpoint", "")
	viper.SetDefault("classifier.model", "")
	viper.SetDefault("classifier.api_key", "")
	viper.SetDefault("classifier.timeout", 20*time.Second)
	viper.SetDefault("classifier.prompts", "")

	viper.SetDefault("cache.dir", "cache/css")
	viper.SetDefault("cache.max_bytes", int64(100)<<20)

	viper.SetDefault("log.level", "info")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if _, ok := palette.ParseFlavor(c.Theme.Flavor); !ok {
		return fmt.Errorf("theme.flavor %q is not a palette flavor", c.Theme.Flavor)
	}
	if _, ok := palette.ParseAccent(c.Theme.Accent); !ok {
		return fmt.Errorf("theme.accent %q is not an accent token", c.Theme.Accent)
	}
	if _, ok := theme.ParseVariant(c.Theme.Variant); !ok {
		return fmt.Errorf("theme.variant %q is not a generation variant", c.Theme.Variant)
	}
	if c.Fetch.MaxSheets <= 0 {
		return fmt.Errorf("fetch.max_sheets must be positive, got %d", c.Fetch.MaxSheets)
	}
	if c.Fetch.ImportDepth < 0 {
		return fmt.Errorf("fetch.import_depth must not be negative, got %d", c.Fetch.ImportDepth)
	}
	if c.Server.ThemeTTL < 0 {
		return fmt.Errorf("server.theme_ttl must not be negative, got %s", c.Server.ThemeTTL)
	}
	if c.Classifier.Endpoint != "" && c.Classifier.Model == "" {
		return fmt.Errorf("classifier.model is required when classifier.endpoint is set")
	}
	return nil
}
