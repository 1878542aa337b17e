package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv unsets the variables Load and ResolvedAPIKey read so tests do
// not pick up the developer's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvAPIKey,
		"MULTILLM_ACTIVE_MODEL",
		"MULTILLM_API_KEY",
		"MULTILLM_MODEL_NAME",
		"MULTILLM_BASE_URL",
		"MULTILLM_LOG_LEVEL",
		"MULTILLM_LOG_FORMAT",
		"MULTILLM_TRACING_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
active_model: qwen
api_key: file-key
model_name: qwen-max
base_url: http://test.api.com
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ActiveModel != "qwen" {
		t.Errorf("ActiveModel = %q", cfg.ActiveModel)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.ModelName != "qwen-max" {
		t.Errorf("ModelName = %q", cfg.ModelName)
	}
	if cfg.BaseURL != "http://test.api.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format default = %q, want text", cfg.Log.Format)
	}
}

func TestLoad_PartialFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "api_key: abc\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ActiveModel != DefaultActiveModel {
		t.Errorf("ActiveModel = %q, want %q", cfg.ActiveModel, DefaultActiveModel)
	}
	if cfg.ModelName != DefaultModelName {
		t.Errorf("ModelName = %q, want %q", cfg.ModelName, DefaultModelName)
	}
	if cfg.BaseURL != "" {
		t.Errorf("BaseURL = %q, want empty", cfg.BaseURL)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeFile(t, "config.yaml", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ActiveModel != DefaultActiveModel || cfg.ModelName != DefaultModelName {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_Missing(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "config.yaml", "active_model: [unclosed\n  - : :"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if IsNotFound(err) {
		t.Error("parse error must not look like a missing file")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("MULTILLM_ACTIVE_MODEL", "claude")
	cfg, err := Load(writeFile(t, "config.yaml", "active_model: gemini\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ActiveModel != "claude" {
		t.Errorf("ActiveModel = %q, want claude", cfg.ActiveModel)
	}
}

func TestLoad_PrefixedEnvDoesNotSupplyAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("MULTILLM_API_KEY", "from_prefixed_env")

	cfg, err := Load(writeFile(t, "config.yaml", "active_model: qwen\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
	if KeyConfigured(cfg.ResolvedAPIKey()) {
		t.Error("MULTILLM_API_KEY must not count as a configured key")
	}

	cfg, err = Load(writeFile(t, "config.yaml", "api_key: file-key\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file value", cfg.APIKey)
	}
}

func TestLoad_EnvOverridesNestedKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("MULTILLM_LOG_LEVEL", "debug")
	t.Setenv("MULTILLM_TRACING_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load(writeFile(t, "config.yaml", "log:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Tracing.OTLPEndpoint != "collector:4317" {
		t.Errorf("Tracing.OTLPEndpoint = %q", cfg.Tracing.OTLPEndpoint)
	}
}

func TestLoadOrDefault(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected load error to be reported")
	}
	if cfg == nil {
		t.Fatal("expected fallback config")
	}
	if cfg.ActiveModel != "litellm" {
		t.Errorf("ActiveModel = %q, want litellm", cfg.ActiveModel)
	}
	if cfg.ModelName != "gpt-3.5-turbo" {
		t.Errorf("ModelName = %q, want gpt-3.5-turbo", cfg.ModelName)
	}
	if cfg.APIKey != "" || cfg.BaseURL != "" {
		t.Errorf("expected empty key and base URL, got %q %q", cfg.APIKey, cfg.BaseURL)
	}

	malformed := writeFile(t, "bad.yaml", "{{{{")
	cfg, err = LoadOrDefault(malformed)
	if err == nil || cfg == nil {
		t.Fatalf("expected fallback with error, got %v %v", cfg, err)
	}
	if cfg.ActiveModel != "litellm" {
		t.Errorf("ActiveModel = %q, want litellm", cfg.ActiveModel)
	}
}

func TestResolvedAPIKey(t *testing.T) {
	tests := []struct {
		name string
		env  string
		file string
		want string
	}{
		{"env wins over real file key", "env-key", "file-key", "env-key"},
		{"env wins over placeholder", "env-key", PlaceholderAPIKey, "env-key"},
		{"empty env falls back", "", "file-key", "file-key"},
		{"neither", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.env != "" {
				t.Setenv(EnvAPIKey, tt.env)
			}
			cfg := &Config{APIKey: tt.file}
			if got := cfg.ResolvedAPIKey(); got != tt.want {
				t.Errorf("ResolvedAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyConfigured(t *testing.T) {
	if KeyConfigured("") {
		t.Error("empty key must not count as configured")
	}
	if KeyConfigured(PlaceholderAPIKey) {
		t.Error("placeholder must not count as configured")
	}
	if !KeyConfigured("sk-123") {
		t.Error("real key should count as configured")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		cfg     Config
		contain string // substring expected in some warning; empty = no warnings
	}{
		{"clean", Config{ActiveModel: "qwen", APIKey: "k", ModelName: "m"}, ""},
		{"unknown backend", Config{ActiveModel: "gpt", APIKey: "k", ModelName: "m"}, "active_model"},
		{"placeholder key", Config{ActiveModel: "qwen", APIKey: PlaceholderAPIKey, ModelName: "m"}, EnvAPIKey},
		{"empty model", Config{ActiveModel: "qwen", APIKey: "k"}, "model_name"},
		{"bad base url", Config{ActiveModel: "qwen", APIKey: "k", ModelName: "m", BaseURL: "localhost:4000"}, "base_url"},
		{"bad log level", Config{ActiveModel: "qwen", APIKey: "k", ModelName: "m", Log: LogConfig{Level: "loud"}}, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := tt.cfg.Validate()
			if tt.contain == "" {
				if len(warnings) != 0 {
					t.Errorf("expected no warnings, got %v", warnings)
				}
				return
			}
			found := false
			for _, w := range warnings {
				if strings.Contains(w, tt.contain) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a warning containing %q, got %v", tt.contain, warnings)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Template().Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIKey != PlaceholderAPIKey {
		t.Errorf("APIKey = %q, want placeholder", cfg.APIKey)
	}
	if KeyConfigured(cfg.ResolvedAPIKey()) {
		t.Error("template key should not count as configured")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("LLM_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvAPIKey) })

	if err := LoadDotEnv(filepath.Join(dir, "absent.env"), envFile); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	if got := os.Getenv(EnvAPIKey); got != "from-dotenv" {
		t.Errorf("LLM_API_KEY = %q", got)
	}

	t.Setenv(EnvAPIKey, "from-shell")
	if err := LoadDotEnv(envFile); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(EnvAPIKey); got != "from-shell" {
		t.Errorf("existing variable was overridden: %q", got)
	}
}
