package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/famboard.db")
	if cfg.Database.Path != "/tmp/famboard.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.DevFile {
		t.Fatalf("unexpected logging defaults %#v", cfg.Logging)
	}
	if cfg.Features.Debug {
		t.Fatal("expected debug feature disabled by default")
	}
	if cfg.Extraction.Timeout.Duration != time.Minute || cfg.Extraction.APIKeyEnv != "OPENAI_API_KEY" {
		t.Fatalf("unexpected extraction defaults %#v", cfg.Extraction)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if day, err := cfg.Week.Weekday(); err != nil || day != time.Monday {
		t.Fatalf("Weekday() = %v, %v", day, err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/famboard.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "/custom/famboard.db"

[logging]
level = "debug"
dev_file = true

[identity]
user_id = "u-ana"
display_name = "Ana"

[week]
starts_on = "Sunday"

[sharing]
invite_base_url = "https://famboard.example/join"

[extraction]
timeout = "90s"

[weather]
timeout = "5s"

[[weather.locations]]
name = "Home"
latitude = 48.14
longitude = 11.58

[[weather.locations]]
name = "Grandma"
latitude = 52.52
longitude = 13.40

[features]
debug = true
`)
	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/famboard.db" || cfg.Logging.Level != "debug" || !cfg.Logging.DevFile {
		t.Fatalf("unexpected database/logging %#v %#v", cfg.Database, cfg.Logging)
	}
	if cfg.Identity.UserID != "u-ana" || cfg.Sharing.InviteBaseURL != "https://famboard.example/join" {
		t.Fatalf("unexpected identity/sharing %#v %#v", cfg.Identity, cfg.Sharing)
	}
	if day, _ := cfg.Week.Weekday(); day != time.Sunday {
		t.Fatalf("expected sunday week start, got %v", day)
	}
	if cfg.Extraction.Timeout.Duration != 90*time.Second || cfg.Extraction.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected extraction %#v", cfg.Extraction)
	}
	if len(cfg.Weather.Locations) != 2 || cfg.Weather.Locations[1].Name != "Grandma" || cfg.Weather.Timeout.Duration != 5*time.Second {
		t.Fatalf("unexpected weather %#v", cfg.Weather)
	}
	if !cfg.Features.Debug {
		t.Fatal("expected debug feature enabled from config")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"log level":     "[logging]\nlevel = \"loud\"\n",
		"weekday":       "[week]\nstarts_on = \"someday\"\n",
		"invite url":    "[sharing]\ninvite_base_url = \"famboard.example\"\n",
		"duration":      "[extraction]\ntimeout = \"soon\"\n",
		"zero timeout":  "[weather]\ntimeout = \"0s\"\n",
		"bad location":  "[[weather.locations]]\nname = \"Pole\"\nlatitude = 91.0\nlongitude = 0.0\n",
		"dup location":  "[[weather.locations]]\nname = \"Home\"\n[[weather.locations]]\nname = \"home\"\n",
		"blank product": "[subscription]\nproducts = [\"\"]\n",
		"blank user":    "[identity]\nuser_id = \" \"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content), Default("/tmp/default.db")); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestAPIKeyReadsNamedVariable(t *testing.T) {
	cfg := Default("/tmp/famboard.db").Extraction
	cfg.APIKeyEnv = "FAMBOARD_TEST_KEY"
	got := cfg.APIKey(func(name string) string {
		if name == "FAMBOARD_TEST_KEY" {
			return "  sk-test\n"
		}
		return ""
	})
	if got != "sk-test" {
		t.Fatalf("APIKey() = %q, want sk-test", got)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("FAMBOARD_DB_PATH", "/env/famboard.db")
	t.Setenv("FAMBOARD_DEV_MODE", "true")
	t.Setenv("FAMBOARD_LOG_LEVEL", "WARN")
	t.Setenv("FAMBOARD_DEBUG", "true")

	overrides, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv() error = %v", err)
	}
	if overrides.DevMode == nil || !*overrides.DevMode {
		t.Fatal("expected dev mode from env")
	}
	cfg := overrides.Apply(Default("/tmp/famboard.db"))
	if cfg.Database.Path != "/env/famboard.db" || cfg.Logging.Level != "warn" || !cfg.Features.Debug {
		t.Fatalf("unexpected overridden config %#v %#v %#v", cfg.Database, cfg.Logging, cfg.Features)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("FAMBOARD_DEV_MODE", "sometimes")
	_, err := ParseEnv()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestUnsetDebugOverrideKeepsFile(t *testing.T) {
	cfg := Default("/tmp/famboard.db")
	cfg.Features.Debug = true
	if got := (EnvOverrides{}).Apply(cfg); !got.Features.Debug {
		t.Fatal("unset FAMBOARD_DEBUG must not clear the file setting")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
