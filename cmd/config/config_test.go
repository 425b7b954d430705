package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-ged/pkg/endpoint"
	"github.com/mattsolo1/grove-ged/pkg/tags"
)

func reset(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()
	cfgFile, envFile, logLevel, apiURLs = "", filepath.Join(home, "missing.env"), "", nil
	t.Cleanup(func() {
		viper.Reset()
		cfgFile, envFile, logLevel, apiURLs = "", "", "", nil
	})
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := reset(t)
	InitConfig()

	s, err := Load()
	require.NoError(t, err)
	assert.Empty(t, s.APIURLs)
	assert.Equal(t, filepath.Join(home, ".local", "share", "ged"), s.DataDir)
	assert.Equal(t, endpoint.DefaultProbeTimeout, s.ProbeTimeout)
	assert.Equal(t, tags.DefaultCacheSize, s.TagCacheSize)
	assert.Equal(t, "warn", s.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	reset(t)
	t.Setenv("GED_API_URLS", "http://a:8000, http://b:8000/")
	t.Setenv("GED_PROBE_TIMEOUT", "250ms")
	t.Setenv("GED_TAG_CACHE_SIZE", "64")
	InitConfig()

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a:8000", "http://b:8000"}, s.APIURLs)
	assert.Equal(t, 250*time.Millisecond, s.ProbeTimeout)
	assert.Equal(t, 64, s.TagCacheSize)
}

func TestLoadReadsDotenvAndFile(t *testing.T) {
	home := reset(t)
	envFile = filepath.Join(home, "deploy.env")
	require.NoError(t, os.WriteFile(envFile, []byte("GED_API_URLS=http://injected:9000\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("GED_API_URLS") })

	dir := filepath.Join(home, ".config", "ged")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("search_debounce: 150ms\nlog_level: debug\n"), 0o644))
	InitConfig()

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://injected:9000"}, s.APIURLs)
	assert.Equal(t, 150*time.Millisecond, s.SearchDebounce)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestFlagsWin(t *testing.T) {
	reset(t)
	t.Setenv("GED_API_URLS", "http://env:8000")
	apiURLs = []string{"http://flag:8000"}
	logLevel = "error"
	InitConfig()

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://flag:8000"}, s.APIURLs)
	assert.Equal(t, "error", s.LogLevel)
}
