package config

import "time"

// Environment controls policy decisions that differ between deployments,
// most importantly how an invalid credential is treated at connect time.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config holds gateway configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	Environment       Environment   `mapstructure:"environment" yaml:"environment"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret          string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer          string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience        string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	AllowExpiredTokens bool          `mapstructure:"allow_expired_tokens" yaml:"allow_expired_tokens"`
	AuthTimeout        time.Duration `mapstructure:"auth_timeout" yaml:"auth_timeout"`

	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	EventsPerMinute int   `mapstructure:"events_per_minute" yaml:"events_per_minute"`

	// PresenceBackend selects where user presence records are persisted:
	// "sqlite" (default, same database as messages) or "redis".
	PresenceBackend string `mapstructure:"presence_backend" yaml:"presence_backend"`
	RedisAddr       string `mapstructure:"redis_addr" yaml:"redis_addr"`

	// NATSURL, when set, routes user notifications to the notification
	// subsystem over NATS. Empty means notifications are logged only.
	NATSURL     string `mapstructure:"nats_url" yaml:"nats_url"`
	NotifyQueue int    `mapstructure:"notify_queue" yaml:"notify_queue"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		Environment:       EnvDevelopment,
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,

		DatabasePath: "tidechat.db",

		JWTIssuer:          "tidechat",
		JWTAudience:        "tidechat-clients",
		AllowExpiredTokens: true, // platform "persistent login" policy
		AuthTimeout:        5 * time.Second,

		MaxMessageBytes: 1 << 20,
		EventsPerMinute: 600,

		PresenceBackend: "sqlite",
		NotifyQueue:     256,
	}
}

// IsProduction reports whether the gateway runs with production policy.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.Environment != "" {
		c.Environment = other.Environment
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.AuthTimeout != 0 {
		c.AuthTimeout = other.AuthTimeout
	}
}
