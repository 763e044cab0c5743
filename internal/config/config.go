package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Providers ProvidersConfig
	Pipeline  PipelineConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds job queue Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds event publishing configuration. An empty broker list
// disables event publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ProvidersConfig holds market-data provider configuration
type ProvidersConfig struct {
	StockBaseURL  string
	StockToken    string
	CryptoBaseURL string
	CryptoAPIKey  string
	QuoteTimeout  time.Duration
}

// PipelineConfig holds job pipeline tuning
type PipelineConfig struct {
	BatchSize     int
	NotifyTimeout time.Duration
}

// Load reads configuration from environment variables and an optional .env
// file
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "networth"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "pipeline-events"),
		},
		Providers: ProvidersConfig{
			StockBaseURL:  getEnv("STOCK_API_URL", "https://cloud.iexapis.com/stable"),
			StockToken:    getEnv("STOCK_API_TOKEN", ""),
			CryptoBaseURL: getEnv("CRYPTO_API_URL", "https://pro-api.coinmarketcap.com"),
			CryptoAPIKey:  getEnv("CRYPTO_API_KEY", ""),
			QuoteTimeout:  getEnvDuration("QUOTE_TIMEOUT", 5*time.Second),
		},
		Pipeline: PipelineConfig{
			BatchSize:     getEnvInt("PIPELINE_BATCH_SIZE", 5),
			NotifyTimeout: getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
