package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides. Nested keys use a
// double underscore: KALAKAART_STATISTICS__BASE_URL -> statistics.base_url.
const EnvPrefix = "KALAKAART_"

// Config is the full runtime configuration for the dashboard and the artisan API.
type Config struct {
	Server     ServerConfig     `yaml:"server" koanf:"server"`
	API        APIConfig        `yaml:"api" koanf:"api"`
	Statistics StatisticsConfig `yaml:"statistics" koanf:"statistics"`
	Overlay    OverlayConfig    `yaml:"overlay" koanf:"overlay"`
	Sessions   SessionsConfig   `yaml:"sessions" koanf:"sessions"`
	Assistant  AssistantConfig  `yaml:"assistant" koanf:"assistant"`
	Charts     ChartsConfig     `yaml:"charts" koanf:"charts"`
	Locale     LocaleConfig     `yaml:"locale" koanf:"locale"`
	Log        LogConfig        `yaml:"log" koanf:"log"`
}

// ServerConfig controls the dashboard HTTP listener.
type ServerConfig struct {
	Addr     string `yaml:"addr" koanf:"addr"`
	BasePath string `yaml:"base_path" koanf:"base_path"`
}

// APIConfig controls the artisan statistics service.
type APIConfig struct {
	Addr              string   `yaml:"addr" koanf:"addr"`
	AllowedOrigins    []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	ChatRatePerSecond float64  `yaml:"chat_rate_per_second" koanf:"chat_rate_per_second"`
	ChatBurst         int      `yaml:"chat_burst" koanf:"chat_burst"`
	Datasets          []string `yaml:"datasets" koanf:"datasets"`
}

// StatisticsConfig points the dashboard at the statistics service.
// An empty BaseURL makes the dashboard read the local dataset in-process.
type StatisticsConfig struct {
	BaseURL string        `yaml:"base_url" koanf:"base_url"`
	APIKey  string        `yaml:"api_key" koanf:"api_key"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
}

// OverlayConfig holds the chat overlay animation windows.
type OverlayConfig struct {
	ExitDelay  time.Duration `yaml:"exit_delay" koanf:"exit_delay"`
	EnterDelay time.Duration `yaml:"enter_delay" koanf:"enter_delay"`
}

// SessionsConfig bounds how long an idle dashboard view stays in memory.
type SessionsConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl" koanf:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" koanf:"sweep_interval"`
}

// AssistantConfig configures the embedded assistant widget.
type AssistantConfig struct {
	ChatEndpoint string `yaml:"chat_endpoint" koanf:"chat_endpoint"`
	Title        string `yaml:"title" koanf:"title"`
}

// ChartsConfig controls the server-rendered breakdown charts.
type ChartsConfig struct {
	Theme      string        `yaml:"theme" koanf:"theme"`
	AssetsHost string        `yaml:"assets_host" koanf:"assets_host"`
	CacheTTL   time.Duration `yaml:"cache_ttl" koanf:"cache_ttl"`
}

// LocaleConfig selects the fallback language.
type LocaleConfig struct {
	Default string `yaml:"default" koanf:"default"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// DefaultConfig returns the configuration used when no file or env overrides exist.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		API: APIConfig{
			Addr:              ":8000",
			AllowedOrigins:    []string{"*"},
			ChatRatePerSecond: 5,
			ChatBurst:         10,
			Datasets: []string{
				"public/Artisans.csv",
				"data/Artisans.csv",
				"Artisans.csv",
			},
		},
		Statistics: StatisticsConfig{
			Timeout: 10 * time.Second,
		},
		Overlay: OverlayConfig{
			ExitDelay:  300 * time.Millisecond,
			EnterDelay: 300 * time.Millisecond,
		},
		Sessions: SessionsConfig{
			IdleTTL:       30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Assistant: AssistantConfig{
			ChatEndpoint: "http://localhost:8000/api/chat",
			Title:        "Kala-Kaart Assistant",
		},
		Charts: ChartsConfig{
			Theme:    "westeros",
			CacheTTL: 5 * time.Minute,
		},
		Locale: LocaleConfig{
			Default: "en",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the given YAML file (if it exists), then
// overlays KALAKAART_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: access %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate checks the values that would otherwise fail at runtime.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Statistics.Timeout <= 0 {
		errs = append(errs, errors.New("statistics.timeout must be positive"))
	}
	if c.Overlay.ExitDelay < 0 || c.Overlay.EnterDelay < 0 {
		errs = append(errs, errors.New("overlay delays must be non-negative"))
	}
	if c.Sessions.IdleTTL <= 0 {
		errs = append(errs, errors.New("sessions.idle_ttl must be positive"))
	}
	if strings.TrimSpace(c.Locale.Default) == "" {
		errs = append(errs, errors.New("locale.default is required"))
	}
	if c.API.ChatRatePerSecond < 0 || c.API.ChatBurst < 0 {
		errs = append(errs, errors.New("api chat rate limits must be non-negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
