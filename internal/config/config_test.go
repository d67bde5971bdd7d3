// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.CacheDir)
	assert.Equal(t, 4096, cfg.CacheEntries)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.Progress)

	pal := cfg.Palette()
	require.Len(t, pal, 2)
	r, g, b, _ := pal[0].RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
	r, g, b, _ = pal[1].RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache_dir: /tmp/rc\nworkers: 3\nlog_format: json\nink: \"#204080\"\n"), 0o644))
	t.Setenv("STACKRES_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rc", cfg.CacheDir)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "#204080", cfg.Ink)
}

func TestValidate(t *testing.T) {
	good := Config{CacheEntries: 1, Workers: 1, LogLevel: "warn", LogFormat: "text", Ink: "#3050a0", Paper: "#fffff0"}
	require.NoError(t, good.Validate())

	for name, mutate := range map[string]func(*Config){
		"workers": func(c *Config) { c.Workers = 0 },
		"entries": func(c *Config) { c.CacheEntries = -1 },
		"level":   func(c *Config) { c.LogLevel = "loud" },
		"format":  func(c *Config) { c.LogFormat = "xml" },
		"ink":     func(c *Config) { c.Ink = "navy" },
		"paper":   func(c *Config) { c.Paper = "" },
	} {
		c := good
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}

func TestBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
