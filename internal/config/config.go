package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Actions   ActionsConfig   `mapstructure:"actions"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Fanout    FanoutConfig    `mapstructure:"fanout"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
	Seed      SeedConfig      `mapstructure:"seed"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	TimeoutSeconds  int           `mapstructure:"timeout_seconds"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPrefix   string        `mapstructure:"metrics_prefix"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type AuthConfig struct {
	// Required rejects anonymous requests on protected routes.
	Required   bool `mapstructure:"required"`
	BcryptCost int  `mapstructure:"bcrypt_cost"`

	// DefaultAdminPassword is given to the admin created at onboarding.
	DefaultAdminPassword string `mapstructure:"default_admin_password"`
}

type ActionsConfig struct {
	StrictTransitions bool `mapstructure:"strict_transitions"`
}

type RateLimitConfig struct {
	RPS   float64       `mapstructure:"rps"`
	Burst int           `mapstructure:"burst"`
	TTL   time.Duration `mapstructure:"ttl"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

const (
	FanoutModeLocal = "local"
	FanoutModeRedis = "redis"
)

type FanoutConfig struct {
	Mode         string `mapstructure:"mode"`
	Channel      string `mapstructure:"channel"`
	ClientBuffer int    `mapstructure:"client_buffer"`
}

const (
	BrokerRedis = "redis"
	BrokerKafka = "kafka"
)

type BrokerConfig struct {
	Driver string            `mapstructure:"driver"`
	Topic  string            `mapstructure:"topic"`
	Redis  RedisBrokerConfig `mapstructure:"redis"`
	Kafka  KafkaBrokerConfig `mapstructure:"kafka"`
}

type RedisBrokerConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type KafkaBrokerConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

type OutboxConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxFailures   int           `mapstructure:"max_failures"`
	Retention     time.Duration `mapstructure:"retention"`
	CleanupEvery  time.Duration `mapstructure:"cleanup_interval"`
}

type CacheConfig struct {
	StatsTTL        time.Duration `mapstructure:"stats_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SeedConfig struct {
	Password string `mapstructure:"password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 35*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.metrics_prefix", "mediconnect")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "mediconnect")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "mediconnect")
	v.SetDefault("jwt.expiry_hours", 12)

	v.SetDefault("auth.required", true)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.default_admin_password", "password")

	v.SetDefault("actions.strict_transitions", true)

	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.ttl", 10*time.Minute)

	v.SetDefault("cors.allow_origins", []string{"*"})

	v.SetDefault("fanout.mode", FanoutModeLocal)
	v.SetDefault("fanout.channel", "mediconnect:live")
	v.SetDefault("fanout.client_buffer", 256)

	v.SetDefault("broker.driver", BrokerRedis)
	v.SetDefault("broker.topic", "mediconnect.events")
	v.SetDefault("broker.redis.url", "redis://localhost:6379/0")
	v.SetDefault("broker.redis.max_retries", 3)
	v.SetDefault("broker.redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("broker.redis.pool_size", 10)
	v.SetDefault("broker.redis.min_idle_conns", 2)
	v.SetDefault("broker.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("broker.kafka.group_id", "mediconnect-consumers")

	v.SetDefault("outbox.enabled", true)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 2*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 500*time.Millisecond)
	v.SetDefault("outbox.max_failures", 5)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_interval", time.Hour)

	v.SetDefault("cache.stats_ttl", 5*time.Second)
	v.SetDefault("cache.cleanup_interval", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("seed.password", "password")
}

// LoadConfig reads config.yml from the working directory or ./config, then
// applies MEDICONNECT_* environment overrides. A missing file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("MEDICONNECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auth.Required && c.JWT.Secret == "" {
		return errors.New("jwt.secret is required when auth.required is true")
	}
	switch c.Fanout.Mode {
	case FanoutModeLocal, FanoutModeRedis:
	default:
		return fmt.Errorf("unknown fanout.mode %q", c.Fanout.Mode)
	}
	switch c.Broker.Driver {
	case BrokerRedis, BrokerKafka:
	default:
		return fmt.Errorf("unknown broker.driver %q", c.Broker.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// RequestTimeout is the per-request deadline applied by the router.
func (c ServerConfig) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
