package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so server.port is
// read from TAROT_SERVER_PORT.
const EnvPrefix = "TAROT"

// defaults for every key that has one. Keys absent here must be bound
// explicitly so environment overrides reach Unmarshal.
var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.read_timeout":     "15s",
	"server.write_timeout":    "30s",
	"server.shutdown_timeout": "10s",

	"database.max_open_conns":    10,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": "5m",

	"auth.token_lifetime_minutes": 60,

	"llm.model_name":  "gemini-2.0-flash",
	"llm.max_retries": 3,
	"llm.retry_delay": "2s",

	"session.working_set_size":          12,
	"session.reversal_probability":      0.5,
	"session.shuffle_duration":          "1500ms",
	"session.deal_interval":             "150ms",
	"session.reveal_interval":           "1s",
	"session.server_authoritative_draw": false,
	"session.local_fallback":            true,
	"session.idle_timeout":              "30m",
	"session.sweep_interval":            "1m",

	"catalog.cache_size": 4,
	"catalog.cache_ttl":  "10m",

	"gateway.timeout": "30s",
}

// boundKeys have no default and are read only from the environment or file.
var boundKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"llm.gemini_api_key",
	"llm.base_url",
	"llm.prompt_template_path",
	"gateway.base_url",
	"gateway.token",
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence. When path is
// empty, config.yaml in the working directory is used if it exists.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range boundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
