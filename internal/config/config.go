package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Session  SessionConfig  `mapstructure:"session" validate:"required"`
	Catalog  CatalogConfig  `mapstructure:"catalog" validate:"required"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,min=1,max=44640"`
}

// LLMConfig contains the AI interpreter settings. An empty API key disables
// AI-assisted readings.
type LLMConfig struct {
	GeminiAPIKey       string        `mapstructure:"gemini_api_key"`
	ModelName          string        `mapstructure:"model_name" validate:"required"`
	BaseURL            string        `mapstructure:"base_url" validate:"omitempty,url"`
	MaxRetries         int           `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RetryDelay         time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	PromptTemplatePath string        `mapstructure:"prompt_template_path"`
}

// SessionConfig controls reading sessions served by the API.
type SessionConfig struct {
	WorkingSetSize          int           `mapstructure:"working_set_size" validate:"gte=3,lte=78"`
	ReversalProbability     float64       `mapstructure:"reversal_probability" validate:"gte=0,lte=1"`
	ShuffleDuration         time.Duration `mapstructure:"shuffle_duration" validate:"gte=0"`
	DealInterval            time.Duration `mapstructure:"deal_interval" validate:"gte=0"`
	RevealInterval          time.Duration `mapstructure:"reveal_interval" validate:"gte=0"`
	ServerAuthoritativeDraw bool          `mapstructure:"server_authoritative_draw"`
	LocalFallback           bool          `mapstructure:"local_fallback"`
	IdleTimeout             time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	SweepInterval           time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

// CatalogConfig controls the card catalog cache.
type CatalogConfig struct {
	CacheSize int           `mapstructure:"cache_size" validate:"gt=0"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
}

// GatewayConfig points reading sessions at a remote backend. When BaseURL is
// empty, sessions use the in-process backend.
type GatewayConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"omitempty,url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// AIEnabled reports whether an AI interpreter can be built.
func (c LLMConfig) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}
