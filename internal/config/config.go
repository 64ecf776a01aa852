// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Database struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

type Config struct {
	Env string
	DB  Database
	GPT struct {
		APIKey  string
		Model   string
		BaseURL string
	}
	Server struct {
		Port string
	}
	Auth struct {
		JWTSecret string
	}
	Pagination struct {
		Limit int
	}
	// Storage.Driver is "postgres" or "memory".
	Storage struct {
		Driver string
	}
	ShutdownTimeout time.Duration
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Load reads config.{yaml,json} if present, otherwise falls back to
// environment variables. A .env file is loaded first when it exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("$HOME/.nutrilog")

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		return fromEnv(), nil
	}

	// Expand ${ENV_VAR} placeholders
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			if envValue := os.Getenv(envVar); envValue != "" {
				v.Set(key, envValue)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Env", "production")
	v.SetDefault("ShutdownTimeout", 10*time.Second)
	v.SetDefault("GPT.Model", "gpt-4o-mini")
	v.SetDefault("Server.Port", "8080")
	v.SetDefault("DB.SSLMode", "disable")
	v.SetDefault("DB.MaxOpenConns", 20)
	v.SetDefault("DB.MaxIdleConns", 10)
	v.SetDefault("DB.ConnLifetime", 5*time.Minute)
	v.SetDefault("Pagination.Limit", 12)
	v.SetDefault("Storage.Driver", DriverPostgres)
}

func fromEnv() *Config {
	cfg := &Config{}
	cfg.Env = getEnvOr("APP_ENV", "production")
	cfg.DB.Host = getEnvOr("DB_HOST", "localhost")
	cfg.DB.Port = getEnvOr("DB_PORT", "5432")
	cfg.DB.User = getEnvOr("DB_USER", "postgres")
	cfg.DB.Password = getEnvOr("DB_PASSWORD", "postgres")
	cfg.DB.DBName = getEnvOr("DB_NAME", "nutrilog")
	cfg.DB.SSLMode = getEnvOr("DB_SSL_MODE", "disable")
	cfg.DB.MaxOpenConns = getEnvIntOr("DB_MAX_OPEN_CONNS", 20)
	cfg.DB.MaxIdleConns = getEnvIntOr("DB_MAX_IDLE_CONNS", 10)
	cfg.DB.ConnLifetime = getEnvDurationOr("DB_CONN_LIFETIME", 5*time.Minute)
	cfg.GPT.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GPT.Model = getEnvOr("GPT_MODEL", "gpt-4o-mini")
	cfg.GPT.BaseURL = os.Getenv("GPT_BASE_URL")
	cfg.Server.Port = getEnvOr("SERVER_PORT", "8080")
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Pagination.Limit = getEnvIntOr("PAGINATION_LIMIT", 12)
	cfg.Storage.Driver = getEnvOr("STORAGE_DRIVER", DriverPostgres)
	cfg.ShutdownTimeout = getEnvDurationOr("SHUTDOWN_TIMEOUT", 10*time.Second)
	return cfg
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is not configured")
	}
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Pagination.Limit <= 0 {
		return fmt.Errorf("pagination limit must be positive")
	}
	return nil
}

func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOr(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDurationOr(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
