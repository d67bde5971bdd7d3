// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command stackres lists and exports the icons and sounds of a HyperCard stack
// whose resources have already been extracted into a TYPE/ID directory tree.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/elliotnunn/stackres/internal/config"
	"github.com/elliotnunn/stackres/internal/decodecache"
	"github.com/elliotnunn/stackres/internal/resource"
	"github.com/elliotnunn/stackres/internal/sound"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfg   *config.Config
	cache *decodecache.Cache

	cfgFile    string
	cacheDir   string
	workers    int
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "stackres",
	Short: "Decode the icons and sounds of a HyperCard stack",
	Long: `stackres decodes ICON and 'snd ' resources that have been extracted from a
stack's resource fork into a directory of TYPE/ID files (with names as
TYPE/named/NAME symlinks), and converts them to PNG and WAV.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("cache") {
			cfg.CacheDir = cacheDir
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if noProgress {
			cfg.Progress = false
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		slog.SetDefault(slog.New(logHandler(cfg)))
		slog.Debug("configuration",
			"cache_dir", cfg.CacheDir,
			"cache_entries", cfg.CacheEntries,
			"workers", cfg.Workers,
			"progress", cfg.Progress)

		cache, err = decodecache.Open(cfg.CacheDir, cfg.CacheEntries)
		if err != nil {
			return err
		}
		resource.Register(resource.TypeIcon, decodecache.Wrap(cache, resource.TypeIcon, resource.DecodeIcon))
		resource.Register(resource.TypeSound, decodecache.Wrap(cache, resource.TypeSound, sound.Decode))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return releaseCache()
	},
}

// releaseCache puts the uncached decoders back before closing the cache they wrapped.
// Cobra skips the post-run hook when a command fails, so main calls it too.
func releaseCache() error {
	if cache == nil {
		return nil
	}
	resource.Register(resource.TypeIcon, resource.DecodeIcon)
	sound.Register()
	c := cache
	cache = nil
	return c.Close()
}

func logHandler(cfg *config.Config) slog.Handler {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.LogFormat == "json" {
		return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level:   level,
		NoColor: !term.IsTerminal(int(os.Stderr.Fd())),
	})
}

func main() {
	err := rootCmd.Execute()
	if cerr := releaseCache(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is stackres.yaml in home or pwd)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", "", "directory for the persistent decode cache")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "j", 0, "resources to decode at once")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(listCmd, exportCmd, decodeCmd)
}
