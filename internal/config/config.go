package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	GenAI   GenAIConfig
	Geocode GeocodeConfig
	Auth    AuthConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port               int
	CORSOrigins        string
	RateLimitPerMinute int
}

type StorageConfig struct {
	DataDir string
}

// GenAIConfig selects the prompt-execution backend. Backend is "ollama" for a
// local Ollama daemon or "openai" for any OpenAI-compatible endpoint.
type GenAIConfig struct {
	Backend string
	BaseURL string
	Model   string
	APIKey  string
	Timeout string
}

type GeocodeConfig struct {
	BaseURL   string
	UserAgent string
}

type AuthConfig struct {
	SessionTTL    string
	SessionSecret string
}

type LogConfig struct {
	Level string
}

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"

	defaultOllamaURL = "http://localhost:11434"
	defaultOpenAIURL = "https://openrouter.ai/api/v1"

	secretService    = "synk"
	accountAPIKey    = "genai_api_key"
	accountSecret    = "session_secret"
	accountCLIToken  = "cli_token"
	sessionSecretLen = 32
)

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:               4100,
			CORSOrigins:        "http://localhost:3000",
			RateLimitPerMinute: 20,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		GenAI: GenAIConfig{
			Backend: BackendOllama,
			Model:   "llama3.2",
			Timeout: "60s",
		},
		Geocode: GeocodeConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "synk/1.0",
		},
		Auth: AuthConfig{
			SessionTTL: "24h",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file, SYNK_* environment
// variables, and the secrets file. The config file lives at
// $XDG_CONFIG_HOME/synk/config.json; secrets live in
// $XDG_DATA_HOME/synk/secrets.json and are never written to the config file.
//
// A session signing secret is generated and persisted on first load.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()), fileSecrets{path: secretsFilePath()})
}

// secretStore abstracts the secrets file for testing.
type secretStore interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

func loadWith(b ConfigBackend, secrets secretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.GenAI.APIKey == "" {
		if key, err := secrets.Get(secretService, accountAPIKey); err == nil && key != "" {
			cfg.GenAI.APIKey = key
		}
	}

	if cfg.Auth.SessionSecret == "" {
		secret, err := sessionSecret(secrets)
		if err != nil {
			return Config{}, err
		}
		cfg.Auth.SessionSecret = secret
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// sessionSecret returns the stored signing secret, creating one if absent.
func sessionSecret(secrets secretStore) (string, error) {
	if s, err := secrets.Get(secretService, accountSecret); err == nil && s != "" {
		return s, nil
	}
	buf := make([]byte, sessionSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	s := hex.EncodeToString(buf)
	if err := secrets.Set(secretService, accountSecret, s); err != nil {
		return "", fmt.Errorf("storing session secret: %w", err)
	}
	return s, nil
}

func (c Config) validate() error {
	switch c.GenAI.Backend {
	case BackendOllama, BackendOpenAI:
	default:
		return fmt.Errorf("invalid genai.backend %q: must be %q or %q", c.GenAI.Backend, BackendOllama, BackendOpenAI)
	}
	if c.GenAI.Backend == BackendOpenAI && c.GenAI.APIKey == "" {
		return fmt.Errorf("missing required config: genai API key. " +
			"Set it via environment variable SYNK_GENAI_API_KEY")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if _, err := time.ParseDuration(c.GenAI.Timeout); err != nil {
		return fmt.Errorf("invalid genai.timeout %q: %w", c.GenAI.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Auth.SessionTTL); err != nil {
		return fmt.Errorf("invalid auth.session_ttl %q: %w", c.Auth.SessionTTL, err)
	}
	return nil
}

// GenAIBaseURL returns the configured base URL or the backend's default.
func (c Config) GenAIBaseURL() string {
	if c.GenAI.BaseURL != "" {
		return c.GenAI.BaseURL
	}
	if c.GenAI.Backend == BackendOpenAI {
		return defaultOpenAIURL
	}
	return defaultOllamaURL
}

// GenAITimeout returns the parsed suggestion timeout. Load has validated it.
func (c Config) GenAITimeout() time.Duration {
	d, _ := time.ParseDuration(c.GenAI.Timeout)
	return d
}

func (c Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Auth.SessionTTL)
	return d
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.Server.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SlogLevel maps log.level to a slog.Level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
