// Package config loads agent settings from .env, an optional config.yaml and
// the process environment.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultQuery      = "What is the weather like in London?"
	DefaultGeocodeURL = "https://geocode.maps.co/search"
	DefaultWeatherURL = "https://api.tomorrow.io/v4/weather/realtime"
	DefaultModel      = "claude-3-7-sonnet-latest"
)

// Strategy names accepted by agent.strategy.
const (
	StrategyAuto      = "auto"
	StrategyAnthropic = "anthropic"
	StrategyRules     = "rules"
)

// Config is the resolved set of settings for one run.
type Config struct {
	WeatherAPIKey   string
	GeoAPIKey       string
	UseFallbacks    bool
	AnthropicAPIKey string

	Strategy   string
	Model      string
	MaxTokens  int64
	MaxRetries int
	MaxSteps   int
	Query      string

	GeocodeURL string
	WeatherURL string

	HTTPTimeout time.Duration
	HTTPRate    float64
	HTTPBurst   int

	RedisAddr string
	CacheTTL  time.Duration

	ObserveJSON bool
	EventsPath  string

	LogLevel       string
	LogDevelopment bool
}

// envBindings maps config keys to the environment variables that set them.
// Keys without an entry still pick up KEY_WITH_UNDERSCORES via AutomaticEnv.
var envBindings = map[string][]string{
	"weather_api_key":        {"WEATHER_API_KEY"},
	"geo_api_key":            {"GEO_API_KEY"},
	"use_fallbacks":          {"USE_FALLBACKS"},
	"anthropic_api_key":      {"ANTHROPIC_API_KEY"},
	"cache.redis_addr":       {"REDIS_ADDR", "CACHE_REDIS_ADDR"},
	"telemetry.observe_json": {"AGT_OBSERVE_JSON", "TELEMETRY_OBSERVE_JSON"},
	"telemetry.events_path":  {"AGT_EVENTS_PATH", "TELEMETRY_EVENTS_PATH"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("weather_api_key", "")
	v.SetDefault("geo_api_key", "")
	// The bootstrap runs in fallback mode unless told otherwise.
	v.SetDefault("use_fallbacks", true)
	v.SetDefault("anthropic_api_key", "")

	v.SetDefault("agent.strategy", StrategyAuto)
	v.SetDefault("agent.model", DefaultModel)
	v.SetDefault("agent.max_tokens", 1024)
	v.SetDefault("agent.max_retries", 2)
	v.SetDefault("agent.max_steps", 8)
	v.SetDefault("agent.query", DefaultQuery)

	v.SetDefault("geocode.url", DefaultGeocodeURL)
	v.SetDefault("weather.url", DefaultWeatherURL)

	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.rate", 1.0)
	v.SetDefault("http.burst", 1)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("telemetry.observe_json", false)
	v.SetDefault("telemetry.events_path", ".agent/events.jsonl")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads .env (when present), an optional YAML config file and the
// environment. The file is AGENT_CONFIG when set, else config.yaml in the
// working directory.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(os.Getenv("AGENT_CONFIG"))
}

func load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit path must exist; the implicit config.yaml is optional.
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	cfg := Config{
		WeatherAPIKey:   strings.TrimSpace(v.GetString("weather_api_key")),
		GeoAPIKey:       strings.TrimSpace(v.GetString("geo_api_key")),
		UseFallbacks:    v.GetBool("use_fallbacks"),
		AnthropicAPIKey: strings.TrimSpace(v.GetString("anthropic_api_key")),

		Strategy:   strings.ToLower(v.GetString("agent.strategy")),
		Model:      v.GetString("agent.model"),
		MaxTokens:  v.GetInt64("agent.max_tokens"),
		MaxRetries: v.GetInt("agent.max_retries"),
		MaxSteps:   v.GetInt("agent.max_steps"),
		Query:      v.GetString("agent.query"),

		GeocodeURL: v.GetString("geocode.url"),
		WeatherURL: v.GetString("weather.url"),

		HTTPTimeout: v.GetDuration("http.timeout"),
		HTTPRate:    v.GetFloat64("http.rate"),
		HTTPBurst:   v.GetInt("http.burst"),

		RedisAddr: v.GetString("cache.redis_addr"),
		CacheTTL:  v.GetDuration("cache.ttl"),

		ObserveJSON: v.GetBool("telemetry.observe_json"),
		EventsPath:  v.GetString("telemetry.events_path"),

		LogLevel:       v.GetString("log.level"),
		LogDevelopment: v.GetBool("log.development"),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Strategy {
	case StrategyAuto, StrategyAnthropic, StrategyRules:
	default:
		return errors.New("agent.strategy must be one of auto, anthropic, rules; got " + c.Strategy)
	}
	if c.Strategy == StrategyAnthropic && c.AnthropicAPIKey == "" {
		return errors.New("agent.strategy=anthropic requires ANTHROPIC_API_KEY")
	}
	if c.MaxRetries < 0 {
		return errors.New("agent.max_retries must be >= 0")
	}
	if c.MaxSteps <= 0 {
		return errors.New("agent.max_steps must be > 0")
	}
	if strings.TrimSpace(c.Query) == "" {
		return errors.New("agent.query must not be empty")
	}
	return nil
}

// ResolvedStrategy returns the concrete strategy for auto mode.
func (c Config) ResolvedStrategy() string {
	if c.Strategy != StrategyAuto {
		return c.Strategy
	}
	if c.AnthropicAPIKey != "" {
		return StrategyAnthropic
	}
	return StrategyRules
}
