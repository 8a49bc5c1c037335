package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the keyword/value connection string used by the postgres driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds broker addresses and the consumer group prefix.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds the cache backend address.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PaystackConfig holds credentials for the payment processor.
type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	HTTPTimeout time.Duration
}

// ServiceConfig holds all configuration for the payment service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       DatabaseConfig
	JWTConfig      JWTConfig
	KafkaConfig    KafkaConfig
	RedisConfig    RedisConfig
	PaystackConfig PaystackConfig
	OwnerCacheTTL  time.Duration
}

// Load reads configuration from environment variables and returns a ServiceConfig.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8084")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "uninest-")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("PAYSTACK_HTTP_TIMEOUT", "15s")
	v.SetDefault("OWNER_CACHE_TTL", "5m")

	cfg := &ServiceConfig{
		Port:   normalizePort(v.GetString("SERVICE_PORT")),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitBrokers(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		PaystackConfig: PaystackConfig{
			SecretKey:   v.GetString("PAYSTACK_SECRET_KEY"),
			BaseURL:     v.GetString("PAYSTACK_BASE_URL"),
			CallbackURL: v.GetString("PAYSTACK_CALLBACK_URL"),
			HTTPTimeout: v.GetDuration("PAYSTACK_HTTP_TIMEOUT"),
		},
		OwnerCacheTTL: v.GetDuration("OWNER_CACHE_TTL"),
	}

	if cfg.DBConfig.DBName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	if cfg.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AppEnv == "production" && cfg.PaystackConfig.SecretKey == "" {
		return nil, fmt.Errorf("PAYSTACK_SECRET_KEY is required in production")
	}

	return cfg, nil
}

// normalizePort ensures the port carries a leading colon for http.Server.
func normalizePort(port string) string {
	if port == "" || strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// splitBrokers parses a comma-separated broker list.
func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
