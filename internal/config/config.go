// Package config loads the handler settings file and resolves the API key.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/multillm/internal/llm"
)

const (
	// DefaultPath is the settings file read when no path is given.
	DefaultPath = "config.yaml"

	// EnvAPIKey overrides api_key when set and non-empty.
	EnvAPIKey = "LLM_API_KEY"

	// PlaceholderAPIKey is the shipped default meaning "not configured".
	PlaceholderAPIKey = "YOUR_API_KEY"

	// EnvPrefix namespaces the remaining keys in the environment,
	// e.g. MULTILLM_ACTIVE_MODEL or MULTILLM_LOG_LEVEL.
	EnvPrefix = "MULTILLM"

	DefaultActiveModel = string(llm.BackendLiteLLM)
	DefaultModelName   = "gpt-3.5-turbo"
)

// Config holds all application configuration.
type Config struct {
	ActiveModel string        `mapstructure:"active_model" yaml:"active_model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	ModelName   string        `mapstructure:"model_name" yaml:"model_name"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Log         LogConfig     `mapstructure:"log" yaml:"log"`
	Tracing     TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type TracingConfig struct {
	// OTLPEndpoint is a host:port for an OTLP gRPC collector. Empty disables export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// Default returns the configuration used when no settings file is usable.
func Default() *Config {
	return &Config{
		ActiveModel: DefaultActiveModel,
		ModelName:   DefaultModelName,
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}

// Backend returns the configured backend identifier.
func (c *Config) Backend() llm.Backend {
	return llm.Backend(c.ActiveModel)
}

// ResolvedAPIKey returns the LLM_API_KEY environment value when it is set
// and non-empty, otherwise the api_key from the settings file.
func (c *Config) ResolvedAPIKey() string {
	if v := os.Getenv(EnvAPIKey); v != "" {
		return v
	}
	return c.APIKey
}

// KeyConfigured reports whether key is usable: non-empty and not the placeholder.
func KeyConfigured(key string) bool {
	return key != "" && key != PlaceholderAPIKey
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if !c.Backend().Valid() {
		names := make([]string, len(llm.Backends))
		for i, b := range llm.Backends {
			names[i] = string(b)
		}
		warnings = append(warnings, fmt.Sprintf("active_model %q is not one of %s", c.ActiveModel, strings.Join(names, ", ")))
	}

	if !KeyConfigured(c.ResolvedAPIKey()) {
		warnings = append(warnings, fmt.Sprintf("api_key is not configured; set %s or api_key in the config file", EnvAPIKey))
	}

	if c.ModelName == "" {
		warnings = append(warnings, "model_name is empty")
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			warnings = append(warnings, fmt.Sprintf("base_url %q is not an http(s) URL", c.BaseURL))
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("log level %q is unknown, using info", c.Log.Level))
	}

	return warnings
}

// Load reads configuration from the YAML file at path, layered over the
// defaults and under MULTILLM_* environment variables (every key except
// api_key).
//
// A missing or malformed file is an error; callers that must not fail use
// LoadOrDefault.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault is Load that degrades to Default (still honoring the
// environment) and reports the load failure as the second return value.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	v := newViper()
	var fallback Config
	if uerr := v.Unmarshal(&fallback); uerr != nil {
		return Default(), err
	}
	return &fallback, err
}

// IsNotFound reports whether err from Load means the file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("active_model", d.ActiveModel)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("model_name", d.ModelName)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)

	// api_key is not bound: LLM_API_KEY is its only environment override,
	// applied by ResolvedAPIKey.
	for _, key := range envKeys {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}
	return v
}

// envKeys are the settings that MULTILLM_* variables may override.
var envKeys = []string{
	"active_model",
	"model_name",
	"base_url",
	"log.level",
	"log.format",
	"tracing.otlp_endpoint",
}

// LoadDotEnv loads KEY=value files into the process environment. Variables
// already set win, and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Save writes cfg as YAML to path, readable only by the owner since it may
// carry an API key.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// Template is the settings file written by `multillm init`.
func Template() *Config {
	cfg := Default()
	cfg.APIKey = PlaceholderAPIKey
	return cfg
}
