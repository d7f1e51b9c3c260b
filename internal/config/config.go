package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Invite        InviteConfig        `mapstructure:"invite"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	NATS          NATSConfig          `mapstructure:"nats"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Grpc          GrpcConfig          `mapstructure:"grpc"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout  int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

type AuthConfig struct {
	JWTSecret             string `mapstructure:"jwt_secret"`
	AccessTokenTTLMinutes int    `mapstructure:"access_token_ttl_minutes"`
}

func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

type InviteConfig struct {
	CodeLength  int `mapstructure:"code_length"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

const (
	TransportLocal = "local"
	TransportNATS  = "nats"
	TransportKafka = "kafka"
)

type NotificationsConfig struct {
	Transport string `mapstructure:"transport"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	Group   string   `mapstructure:"group"`
}

type GrpcConfig struct {
	Port string `mapstructure:"port"`
}

type TelemetryConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "tracker")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("auth.access_token_ttl_minutes", 15)

	v.SetDefault("invite.code_length", 10)
	v.SetDefault("invite.max_attempts", 5)

	v.SetDefault("notifications.transport", TransportLocal)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "tracker.events")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "tracker-events")
	v.SetDefault("kafka.group", "tracker-service-group")

	v.SetDefault("grpc.port", "9090")

	v.SetDefault("telemetry.interval_seconds", 10)
}

// Load reads config.<ENV>.yaml (optional) and applies environment overrides.
func Load() (*Config, error) {
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	v.AddConfigPath("/configs")   // Kubernetes mount
	v.AddConfigPath("./configs")  // repo root
	v.AddConfigPath("../configs") // cmd/
	v.AddConfigPath("../../configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("nats.url", "NATS_URL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Env = env

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Notifications.Transport {
	case TransportLocal, TransportNATS, TransportKafka:
	default:
		return fmt.Errorf("unsupported notifications transport %q", c.Notifications.Transport)
	}

	if c.Auth.JWTSecret == "" {
		if c.Env != "local" && c.Env != "test" {
			return fmt.Errorf("auth.jwt_secret is required in %s", c.Env)
		}
		c.Auth.JWTSecret = "local-development-secret"
	}

	if c.Invite.CodeLength < 6 {
		return fmt.Errorf("invite.code_length must be at least 6, got %d", c.Invite.CodeLength)
	}
	if c.Invite.MaxAttempts < 1 {
		return fmt.Errorf("invite.max_attempts must be positive, got %d", c.Invite.MaxAttempts)
	}

	return nil
}
