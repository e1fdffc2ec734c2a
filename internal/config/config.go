package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Auth      AuthConfig      `yaml:"auth"`
	Provider  ProviderConfig  `yaml:"provider"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

// DatabaseConfig is the relational store holding users, roles and
// organizations.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// MongoConfig is the document store holding projects and tasks.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	// QueryTimeout bounds individual queries and aggregations.
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// AuthConfig controls verification of the identity provider's session
// tokens. The provider issues the tokens; this service only verifies.
type AuthConfig struct {
	SessionSecret string `yaml:"session_secret"`
}

// ProviderConfig points at the identity provider's management API, used
// by the bulk user sync and to verify webhook signatures.
type ProviderConfig struct {
	APIBaseURL    string `yaml:"api_base_url"`
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type RateLimitConfig struct {
	Window time.Duration `yaml:"window"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.overrideFromEnv()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "taskflow.db",
		},
		Mongo: MongoConfig{
			URI:          "mongodb://localhost:27017",
			Database:     "taskflow",
			QueryTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			SessionSecret: "taskflow-session-secret-change-in-production",
		},
		Provider: ProviderConfig{
			APIBaseURL: "https://api.clerk.com",
		},
		RateLimit: RateLimitConfig{
			Window: time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		c.Mongo.URI = uri
	}
	if name := os.Getenv("MONGO_DATABASE"); name != "" {
		c.Mongo.Database = name
	}
	if secret := os.Getenv("AUTH_SESSION_SECRET"); secret != "" {
		c.Auth.SessionSecret = secret
	}
	if base := os.Getenv("PROVIDER_API_BASE_URL"); base != "" {
		c.Provider.APIBaseURL = base
	}
	if key := os.Getenv("PROVIDER_SECRET_KEY"); key != "" {
		c.Provider.SecretKey = key
	}
	if secret := os.Getenv("PROVIDER_WEBHOOK_SECRET"); secret != "" {
		c.Provider.WebhookSecret = secret
	}
	if window := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); window != "" {
		if secs, err := strconv.Atoi(window); err == nil && secs > 0 {
			c.RateLimit.Window = time.Duration(secs) * time.Second
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}
