package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "SYNK_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.cors_origins", typ: kString, env: "SYNK_SERVER_CORS_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.Server.CORSOrigins = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.CORSOrigins },
	},
	{
		key: "server.rate_limit_per_minute", typ: kInt, env: "SYNK_SERVER_RATE_LIMIT_PER_MINUTE",
		apply:   func(cfg *Config, v any) { cfg.Server.RateLimitPerMinute = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.RateLimitPerMinute },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SYNK_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "genai.backend", typ: kString, env: "SYNK_GENAI_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.GenAI.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.Backend },
	},
	{
		key: "genai.base_url", typ: kString, env: "SYNK_GENAI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.GenAI.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.BaseURL },
	},
	{
		key: "genai.model", typ: kString, env: "SYNK_GENAI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.GenAI.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.Model },
	},
	{
		key: "genai.api_key", typ: kString, env: "SYNK_GENAI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.GenAI.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.APIKey },
	},
	{
		key: "genai.timeout", typ: kString, env: "SYNK_GENAI_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.GenAI.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.Timeout },
	},
	{
		key: "geocode.base_url", typ: kString, env: "SYNK_GEOCODE_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Geocode.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Geocode.BaseURL },
	},
	{
		key: "geocode.user_agent", typ: kString, env: "SYNK_GEOCODE_USER_AGENT",
		apply:   func(cfg *Config, v any) { cfg.Geocode.UserAgent = v.(string) },
		extract: func(cfg Config) any { return cfg.Geocode.UserAgent },
	},
	{
		key: "auth.session_ttl", typ: kString, env: "SYNK_AUTH_SESSION_TTL",
		apply:   func(cfg *Config, v any) { cfg.Auth.SessionTTL = v.(string) },
		extract: func(cfg Config) any { return cfg.Auth.SessionTTL },
	},
	{
		key: "auth.session_secret", typ: kString, env: "SYNK_AUTH_SESSION_SECRET",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Auth.SessionSecret = v.(string) },
		extract: func(cfg Config) any { return cfg.Auth.SessionSecret },
	},
	{
		key: "log.level", typ: kString, env: "SYNK_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
