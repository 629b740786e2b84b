package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Import   ImportConfig
	Defaults Defaults
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `env:"DB_HOST" env-default:"localhost"`
	Port            int    `env:"DB_PORT" env-default:"5432"`
	User            string `env:"DB_USER" env-default:"postgres"`
	Password        string `env:"DB_PASSWORD"`
	Database        string `env:"DB_NAME" env-default:"marketplace"`
	MaxConnections  int    `env:"DB_MAX_CONNECTIONS" env-default:"25"`
	MinConnections  int    `env:"DB_MIN_CONNECTIONS" env-default:"5"`
	MaxConnLifetime int    `env:"DB_MAX_CONN_LIFETIME" env-default:"300"` // seconds
	AutoMigrate     bool   `env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"` // "json" or "console"
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" env-default:"24h"`
}

// StorageConfig selects where uploaded product images are kept.
type StorageConfig struct {
	Driver         string `env:"STORAGE_DRIVER" env-default:"local"` // "local" or "s3"
	LocalDir       string `env:"LOCAL_UPLOAD_DIR" env-default:"./storage/uploads"`
	LocalURLPrefix string `env:"LOCAL_UPLOAD_URL_PREFIX" env-default:"/uploads"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION" env-default:"us-east-1"`
	S3Prefix       string `env:"S3_PREFIX" env-default:"products/"`
	S3PublicURL    string `env:"S3_PUBLIC_BASE_URL"`
	MaxImageBytes  int64  `env:"MAX_IMAGE_BYTES" env-default:"5242880"`
}

// RedisConfig holds the product cache configuration.
type RedisConfig struct {
	Enabled bool          `env:"REDIS_ENABLED" env-default:"false"`
	Addr    string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	TTL     time.Duration `env:"REDIS_PRODUCT_TTL" env-default:"5m"`
}

// ImportConfig holds configuration for customer allow-list imports.
type ImportConfig struct {
	S3Enabled bool   `env:"IMPORT_S3_ENABLED" env-default:"false"`
	S3Bucket  string `env:"IMPORT_S3_BUCKET"`
	S3Region  string `env:"IMPORT_S3_REGION" env-default:"us-east-1"`
	S3Prefix  string `env:"IMPORT_S3_PREFIX" env-default:"allowlists/"`
}

// Defaults are fallback values applied when a payload leaves a field empty.
type Defaults struct {
	Country     string `env:"DEFAULT_COUNTRY" env-default:"India"`
	StockStatus string `env:"DEFAULT_STOCK_STATUS" env-default:"in_stock"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT token TTL must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("local upload dir is required when storage driver is local")
		}
	case "s3":
		if c.Storage.S3Bucket == "" || c.Storage.S3Region == "" || c.Storage.S3PublicURL == "" {
			return fmt.Errorf("S3 bucket, region and public base URL are required when storage driver is s3")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be local or s3)", c.Storage.Driver)
	}

	if c.Storage.MaxImageBytes < 1 {
		return fmt.Errorf("max image bytes must be at least 1")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Import.S3Enabled {
		if c.Import.S3Bucket == "" {
			return fmt.Errorf("import S3 bucket is required when import S3 is enabled")
		}
		if c.Import.S3Region == "" {
			return fmt.Errorf("import S3 region is required when import S3 is enabled")
		}
	}

	if c.Defaults.StockStatus != "in_stock" && c.Defaults.StockStatus != "out_of_stock" {
		return fmt.Errorf("invalid default stock status: %s", c.Defaults.StockStatus)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
