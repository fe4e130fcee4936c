package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Known DeepSeek-compatible endpoints used as failover partners.
const (
	DeepSeekCNURL  = "https://api.deepseek.cn/v1"
	DeepSeekComURL = "https://api.deepseek.com/v1"
)

// Config contains all runtime settings for the assistant console.
type Config struct {
	BindAddr                 string
	MetricsNamespace         string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration

	DeepSeekAPIKey string
	ChatBaseURL    string
	ChatModel      string
	LLMTimeout     time.Duration
	HTTPProxy      string
	HTTPSProxy     string

	WeatherAPIKey  string
	WeatherAPIHost string
	WeatherAPIType string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "smartassistant"),
		DeepSeekAPIKey:   trimmedEnv("DEEPSEEK_API_KEY"),
		ChatBaseURL:      envOrDefault("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
		ChatModel:        envOrDefault("CHAT_MODEL", "deepseek-chat"),
		HTTPProxy:        firstEnv("HTTP_PROXY", "http_proxy"),
		HTTPSProxy:       firstEnv("HTTPS_PROXY", "https_proxy"),
		WeatherAPIKey:    trimmedEnv("WEATHER_API_KEY"),
		WeatherAPIHost:   trimmedEnv("WEATHER_API_HOST"),
		// tianapi or qweather.
		WeatherAPIType:           envOrDefault("WEATHER_API_TYPE", "tianapi"),
		LLMTimeout:               30 * time.Second,
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 10 * time.Minute,
	}
	var err error
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}

	cfg.ChatBaseURL = NormalizeBaseURL(cfg.ChatBaseURL)

	if cfg.DeepSeekAPIKey == "" {
		return Config{}, fmt.Errorf("DEEPSEEK_API_KEY is not set")
	}
	switch strings.ToLower(cfg.WeatherAPIType) {
	case "tianapi", "qweather":
	default:
		return Config{}, fmt.Errorf("WEATHER_API_TYPE must be tianapi or qweather, got %q", cfg.WeatherAPIType)
	}
	if cfg.LLMTimeout < time.Second {
		return Config{}, fmt.Errorf("LLM_TIMEOUT must be at least 1s")
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}

	return cfg, nil
}

// AlternateBaseURL returns the failover partner for a chat endpoint: the .cn
// and .com DeepSeek hosts back each other up, anything else falls back to the
// .com host.
func AlternateBaseURL(current string) string {
	switch {
	case strings.Contains(current, "api.deepseek.cn"):
		return DeepSeekComURL
	case strings.Contains(current, "api.deepseek.com"):
		return DeepSeekCNURL
	default:
		return DeepSeekComURL
	}
}

// NormalizeBaseURL makes sure a chat base URL ends in /v1, which the
// OpenAI-compatible client expects.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasSuffix(raw, "/v1") {
		return raw
	}
	return strings.TrimSuffix(raw, "/") + "/v1"
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := trimmedEnv(key); v != "" {
			return v
		}
	}
	return ""
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}
