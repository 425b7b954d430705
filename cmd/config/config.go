package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/endpoint"
	"github.com/mattsolo1/grove-ged/pkg/search"
	"github.com/mattsolo1/grove-ged/pkg/service"
	"github.com/mattsolo1/grove-ged/pkg/tags"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	apiURLs  []string
)

// Settings is the decoded configuration.
type Settings struct {
	APIURLs        []string      `mapstructure:"api_urls"`
	DataDir        string        `mapstructure:"data_dir"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	LogLevel       string        `mapstructure:"log_level"`
	TagCacheSize   int           `mapstructure:"tag_cache_size"`
	TagCacheTTL    time.Duration `mapstructure:"tag_cache_ttl"`
}

func InitConfig() {
	// A .env file can inject GED_API_URLS at deploy time.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", envFile, err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "ged")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("GED")
	viper.AutomaticEnv()

	home, _ := os.UserHomeDir()
	viper.SetDefault("data_dir", filepath.Join(home, ".local", "share", "ged"))
	viper.SetDefault("probe_timeout", endpoint.DefaultProbeTimeout)
	viper.SetDefault("search_debounce", search.DefaultDebounce)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("tag_cache_size", tags.DefaultCacheSize)
	viper.SetDefault("tag_cache_ttl", tags.DefaultCacheTTL)
	viper.SetDefault("api_urls", []string{})

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", cfgFile, err)
		}
	}
}

// Load decodes the current viper state. Flags win over the file and the
// environment.
func Load() (*Settings, error) {
	raw := map[string]any{}
	for _, key := range []string{"api_urls", "data_dir", "probe_timeout", "search_debounce", "log_level", "tag_cache_size", "tag_cache_ttl"} {
		raw[key] = viper.Get(key)
	}

	var s Settings
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if len(apiURLs) > 0 {
		s.APIURLs = apiURLs
	}
	if logLevel != "" {
		s.LogLevel = logLevel
	}
	s.APIURLs = cleanList(s.APIURLs)
	return &s, nil
}

// cleanList flattens comma separated entries, as env vars carry one string.
func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		out = append(out, endpoint.SplitList(v)...)
	}
	return out
}

func InitService() (*service.Service, error) {
	s, err := Load()
	if err != nil {
		return nil, err
	}
	logging.SetLevel(s.LogLevel)

	config := &service.Config{
		DataDir:        s.DataDir,
		APIURLs:        s.APIURLs,
		ProbeTimeout:   s.ProbeTimeout,
		SearchDebounce: s.SearchDebounce,
		TagCacheSize:   s.TagCacheSize,
		TagCacheTTL:    s.TagCacheTTL,
	}

	svc, err := service.New(config)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ged/config.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with GED_* variables")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringSliceVar(&apiURLs, "api-url", nil, "candidate service URL, repeatable (overrides GED_API_URLS)")
}

// Describe returns the effective settings as key/value pairs for display.
func Describe(s *Settings) [][2]string {
	return [][2]string{
		{"api_urls", strings.Join(s.APIURLs, ",")},
		{"data_dir", s.DataDir},
		{"probe_timeout", s.ProbeTimeout.String()},
		{"search_debounce", s.SearchDebounce.String()},
		{"log_level", s.LogLevel},
		{"tag_cache_size", fmt.Sprint(s.TagCacheSize)},
		{"tag_cache_ttl", s.TagCacheTTL.String()},
		{"config_file", viper.ConfigFileUsed()},
	}
}
