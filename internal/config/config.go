// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
)

type Config struct {
	CacheDir     string `mapstructure:"cache_dir"`
	CacheEntries int    `mapstructure:"cache_entries"`
	Workers      int    `mapstructure:"workers"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	Progress     bool   `mapstructure:"progress"`
	Ink          string `mapstructure:"ink"`   // exported icon foreground, #rrggbb
	Paper        string `mapstructure:"paper"` // exported icon background
}

var (
	levels  = []string{"debug", "info", "warn", "error"}
	formats = []string{"text", "json"}
)

// Load reads stackres.yaml from the home or working directory (or cfgFile if given),
// then STACKRES_* environment variables, over the defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("cache_dir", "")
	v.SetDefault("cache_entries", 4096)
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("progress", true)
	v.SetDefault("ink", "#000000")
	v.SetDefault("paper", "#ffffff")

	v.SetEnvPrefix("stackres")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName("stackres")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheEntries < 1 {
		return fmt.Errorf("cache_entries must be at least 1, got %d", c.CacheEntries)
	}
	if !slices.Contains(levels, c.LogLevel) {
		return fmt.Errorf("unknown log_level %q (want one of %s)", c.LogLevel, strings.Join(levels, ", "))
	}
	if !slices.Contains(formats, c.LogFormat) {
		return fmt.Errorf("unknown log_format %q (want one of %s)", c.LogFormat, strings.Join(formats, ", "))
	}
	if _, err := colorful.Hex(c.Ink); err != nil {
		return fmt.Errorf("bad ink colour %q: %w", c.Ink, err)
	}
	if _, err := colorful.Hex(c.Paper); err != nil {
		return fmt.Errorf("bad paper colour %q: %w", c.Paper, err)
	}
	return nil
}

// Palette is paper then ink, the order in which bitmap bits index it.
// Call it only on a validated Config.
func (c *Config) Palette() color.Palette {
	ink, _ := colorful.Hex(c.Ink)
	paper, _ := colorful.Hex(c.Paper)
	return color.Palette{paper.Clamped(), ink.Clamped()}
}
