// Package config loads and merges the pipeline configuration.
// Precedence: flags > RANKPIPE_* environment > config file > defaults.
// The four core settings are persisted back to the config file once
// they arrive via flags, so later runs can omit them.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "rankpipe.json"

// ErrMissingConfig reports required settings that have no value from
// any source. Every missing key is named at once.
var ErrMissingConfig = errors.New("missing required configuration")

// Keys of the four persisted core settings.
const (
	KeyRankURL    = "rank_url"
	KeyExtractURL = "extract_url"
	KeyCodePrefix = "code_prefix"
	KeySeedSource = "seed_source"
)

// Config is the merged pipeline configuration.
type Config struct {
	RankURL    string `mapstructure:"rank_url"`
	ExtractURL string `mapstructure:"extract_url"`
	CodePrefix string `mapstructure:"code_prefix"`
	SeedSource string `mapstructure:"seed_source"`

	OutDir         string `mapstructure:"out_dir"`
	ProfileDir     string `mapstructure:"profile_dir"`
	FetchMode      string `mapstructure:"fetch_mode"`
	Headless       bool   `mapstructure:"headless"`
	RankLimit      int    `mapstructure:"rank_limit"`
	ExtractMode    string `mapstructure:"extract_mode"`
	ExtractLimit   int    `mapstructure:"extract_limit"`
	IncludeContext bool   `mapstructure:"include_context"`
	SaveDebug      bool   `mapstructure:"save_debug"`
	LogLevel       string `mapstructure:"log_level"`
}

// Load builds a viper instance over the config file and environment.
// A missing config file is fine; a malformed one is not. Commands bind
// their flags onto the returned instance before unmarshaling.
func Load(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("json")

	v.SetEnvPrefix("RANKPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}
	return v, nil
}

// setDefaults registers every key so environment values bind even
// without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyRankURL, "")
	v.SetDefault(KeyExtractURL, "")
	v.SetDefault(KeyCodePrefix, "")
	v.SetDefault(KeySeedSource, "")

	v.SetDefault("out_dir", "artifacts")
	v.SetDefault("profile_dir", ".rankpipe-profile")
	v.SetDefault("fetch_mode", "auto")
	v.SetDefault("headless", true)
	v.SetDefault("rank_limit", 100)
	v.SetDefault("extract_mode", "unique")
	v.SetDefault("extract_limit", 1000)
	v.SetDefault("include_context", false)
	v.SetDefault("save_debug", false)
	v.SetDefault("log_level", "info")
}

// FromViper unmarshals the merged settings.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Require validates that the named settings have values, reporting all
// missing keys in one error.
func (c *Config) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if c.value(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) value(key string) string {
	switch key {
	case KeyRankURL:
		return c.RankURL
	case KeyExtractURL:
		return c.ExtractURL
	case KeyCodePrefix:
		return c.CodePrefix
	case KeySeedSource:
		return c.SeedSource
	}
	return ""
}

// FileSettings are the persisted core settings as stored on disk.
type FileSettings struct {
	RankURL    string `json:"rank_url,omitempty"`
	ExtractURL string `json:"extract_url,omitempty"`
	CodePrefix string `json:"code_prefix,omitempty"`
	SeedSource string `json:"seed_source,omitempty"`
}

// ReadFile loads the persisted settings. A missing file yields the
// zero value.
func ReadFile(path string) (FileSettings, error) {
	var fs FileSettings
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fs, nil
		}
		return fs, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &fs); err != nil {
		return fs, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return fs, nil
}

// Settings returns the core settings of the merged config.
func (c *Config) Settings() FileSettings {
	return FileSettings{
		RankURL:    c.RankURL,
		ExtractURL: c.ExtractURL,
		CodePrefix: c.CodePrefix,
		SeedSource: c.SeedSource,
	}
}

// Changed reports whether the merged core settings differ from the
// persisted ones.
func (c *Config) Changed(persisted FileSettings) bool {
	return c.Settings() != persisted
}

// WriteBack persists the core settings so later runs can omit the
// flags. Other keys already stored in the file are preserved.
func (c *Config) WriteBack(path string) error {
	raw := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decoding config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	s := c.Settings()
	for key, val := range map[string]string{
		KeyRankURL:    s.RankURL,
		KeyExtractURL: s.ExtractURL,
		KeyCodePrefix: s.CodePrefix,
		KeySeedSource: s.SeedSource,
	} {
		if val != "" {
			raw[key] = val
		}
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
