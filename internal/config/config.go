package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"promptgate/internal/ai"
)

const (
	configName = "config"
	configType = "yaml"
	appName    = "promptgate"

	// DotEnvFile is loaded from the working directory for local development.
	DotEnvFile = ".env"

	defaultPort    = 5000
	defaultTimeout = 120 * time.Second
)

// Config holds the application's configuration. It is built once at startup
// and passed to whatever needs it.
type Config struct {
	Port     int
	LogLevel slog.Level

	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OllamaModel  string
	OllamaURL    string
	Proxy        string
	Timeout      time.Duration
}

// keys maps viper keys to the environment variables that override them.
var keys = map[string]string{
	"port":           "PORT",
	"log_level":      "LOG_LEVEL",
	"provider":       "PROMPTGATE_PROVIDER",
	"gemini_api_key": "GEMINI_API_KEY",
	"gemini_model":   "GEMINI_MODEL",
	"ollama_model":   "OLLAMA_MODEL",
	"ollama_url":     "OLLAMA_URL",
	"proxy":          "PROMPTGATE_PROXY",
	"timeout":        "PROMPTGATE_TIMEOUT",
}

// Load reads configuration from, in increasing priority: built-in defaults,
// an optional config.yaml in searchPaths, and the environment (after loading
// dotEnvPath, if that file exists). With no searchPaths it looks in
// ~/.config/promptgate and the working directory.
func Load(dotEnvPath string, searchPaths ...string) (*Config, error) {
	if dotEnvPath != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading %s: %w", dotEnvPath, err)
		}
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	if len(searchPaths) == 0 {
		searchPaths = defaultSearchPaths()
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", "info")
	v.SetDefault("provider", ai.BackendGemini)
	v.SetDefault("timeout", defaultTimeout.String())
	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func defaultSearchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}
	return append(paths, ".")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Provider:     strings.ToLower(strings.TrimSpace(v.GetString("provider"))),
		GeminiAPIKey: v.GetString("gemini_api_key"),
		GeminiModel:  v.GetString("gemini_model"),
		OllamaModel:  v.GetString("ollama_model"),
		OllamaURL:    v.GetString("ollama_url"),
		Proxy:        v.GetString("proxy"),
	}

	port, err := parsePort(v.GetString("port"))
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", v.GetString("log_level"), err)
	}

	cfg.Timeout, err = time.ParseDuration(v.GetString("timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", v.GetString("timeout"), err)
	}

	switch cfg.Provider {
	case ai.BackendGemini, ai.BackendOllama:
	default:
		return nil, fmt.Errorf("unsupported AI provider %q (want %s or %s)", cfg.Provider, ai.BackendGemini, ai.BackendOllama)
	}

	return cfg, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

// Addr is the listen address: all interfaces on the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// AIOptions describes the provider the configuration selects.
func (c *Config) AIOptions() ai.Options {
	opts := ai.Options{
		Backend: c.Provider,
		Proxy:   c.Proxy,
		Timeout: c.Timeout,
	}
	switch c.Provider {
	case ai.BackendOllama:
		opts.Model = c.OllamaModel
		opts.BaseURL = c.OllamaURL
	default:
		opts.Model = c.GeminiModel
		opts.APIKey = c.GeminiAPIKey
	}
	return opts
}
