package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hylla/famboard/internal/domain"
)

type Config struct {
	Database     DatabaseConfig     `toml:"database"`
	Logging      LoggingConfig      `toml:"logging"`
	Identity     IdentityConfig     `toml:"identity"`
	Week         WeekConfig         `toml:"week"`
	Sharing      SharingConfig      `toml:"sharing"`
	Extraction   ExtractionConfig   `toml:"extraction"`
	Weather      WeatherConfig      `toml:"weather"`
	Subscription SubscriptionConfig `toml:"subscription"`
	Features     FeaturesConfig     `toml:"features"`
	Server       ServerConfig       `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string `toml:"level"` // debug | info | warn | error
	DevFile bool   `toml:"dev_file"`
}

// IdentityConfig names the local user until a real sign-in provider exists.
type IdentityConfig struct {
	UserID      string `toml:"user_id"`
	DisplayName string `toml:"display_name"`
}

type WeekConfig struct {
	StartsOn string `toml:"starts_on"`
}

type SharingConfig struct {
	InviteBaseURL string `toml:"invite_base_url"`
}

type ExtractionConfig struct {
	Model             string   `toml:"model"`
	BaseURL           string   `toml:"base_url"`
	APIKeyEnv         string   `toml:"api_key_env"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

type WeatherConfig struct {
	BaseURL           string            `toml:"base_url"`
	Timeout           Duration          `toml:"timeout"`
	RequestsPerSecond float64           `toml:"requests_per_second"`
	Locations         []domain.Location `toml:"locations"`
}

type SubscriptionConfig struct {
	Products []string `toml:"products"`
}

type FeaturesConfig struct {
	Debug bool `toml:"debug"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
	MetricsPath string `toml:"metrics_path"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Identity: IdentityConfig{
			UserID:      "local-user",
			DisplayName: "Me",
		},
		Week: WeekConfig{
			StartsOn: "monday",
		},
		Extraction: ExtractionConfig{
			Model:             "gpt-4o-mini",
			APIKeyEnv:         "OPENAI_API_KEY",
			Timeout:           Duration{60 * time.Second},
			RequestsPerSecond: 1,
		},
		Weather: WeatherConfig{
			BaseURL:           "https://api.open-meteo.com",
			Timeout:           Duration{10 * time.Second},
			RequestsPerSecond: 4,
		},
		Subscription: SubscriptionConfig{
			Products: []string{"famboard.premium.monthly", "famboard.premium.yearly"},
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
			MetricsPath: "/metrics",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if !slices.Contains(logLevels, strings.ToLower(strings.TrimSpace(c.Logging.Level))) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if strings.TrimSpace(c.Identity.UserID) == "" {
		return errors.New("identity.user_id is required")
	}
	if strings.TrimSpace(c.Identity.DisplayName) == "" {
		return errors.New("identity.display_name is required")
	}
	if _, err := c.Week.Weekday(); err != nil {
		return err
	}

	if raw := strings.TrimSpace(c.Sharing.InviteBaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid sharing.invite_base_url: %q", c.Sharing.InviteBaseURL)
		}
	}

	if strings.TrimSpace(c.Extraction.Model) == "" {
		return errors.New("extraction.model is required")
	}
	if strings.TrimSpace(c.Extraction.APIKeyEnv) == "" {
		return errors.New("extraction.api_key_env is required")
	}
	if c.Extraction.Timeout.Duration <= 0 {
		return errors.New("extraction.timeout must be > 0")
	}
	if c.Extraction.RequestsPerSecond < 0 {
		return errors.New("extraction.requests_per_second must be >= 0")
	}

	if c.Weather.Timeout.Duration <= 0 {
		return errors.New("weather.timeout must be > 0")
	}
	if c.Weather.RequestsPerSecond < 0 {
		return errors.New("weather.requests_per_second must be >= 0")
	}
	seenLocation := map[string]struct{}{}
	for idx, loc := range c.Weather.Locations {
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("weather.locations[%d]: %w", idx, err)
		}
		key := strings.ToLower(strings.TrimSpace(loc.Name))
		if _, ok := seenLocation[key]; ok {
			return fmt.Errorf("weather.locations[%d].name is duplicated: %s", idx, loc.Name)
		}
		seenLocation[key] = struct{}{}
	}

	for idx, product := range c.Subscription.Products {
		if strings.TrimSpace(product) == "" {
			return fmt.Errorf("subscription.products[%d] is empty", idx)
		}
	}
	return nil
}

// Weekday parses StartsOn; an empty value means Monday.
func (w WeekConfig) Weekday() (time.Weekday, error) {
	raw := strings.ToLower(strings.TrimSpace(w.StartsOn))
	if raw == "" {
		return time.Monday, nil
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.ToLower(day.String()) == raw {
			return day, nil
		}
	}
	return time.Monday, fmt.Errorf("invalid week.starts_on: %q", w.StartsOn)
}

// APIKey reads the extraction key from the environment variable named by APIKeyEnv.
func (e ExtractionConfig) APIKey(lookup func(string) string) string {
	if lookup == nil {
		lookup = os.Getenv
	}
	return strings.TrimSpace(lookup(strings.TrimSpace(e.APIKeyEnv)))
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
