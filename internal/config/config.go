package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Logging      LoggingConfig
	Services     ServicesConfig
	Matching     MatchingConfig
	GeminiAPIKey string
}

type ServerConfig struct {
	Host            string
	Port            int
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// JWTConfig holds the shared secret used to verify access tokens issued by
// the marketplace auth service.
type JWTConfig struct {
	AccessSecret string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// ServicesConfig lists the base URLs of the marketplace services this one calls.
type ServicesConfig struct {
	VerificationURL string
	MatchingURL     string
	ContractsURL    string
	ListingURL      string
	Timeout         time.Duration
	RetryCount      int
}

type MatchingConfig struct {
	RecommendThreshold int
	DecisionTimeout    time.Duration
	ExplainTimeout     time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("HTTP_CLIENT_TIMEOUT", "5s")
	v.SetDefault("HTTP_CLIENT_RETRIES", 2)
	v.SetDefault("MATCH_RECOMMEND_THRESHOLD", 70)
	v.SetDefault("DECISION_TIMEOUT", "15s")
	v.SetDefault("EXPLAIN_TIMEOUT", "3s")
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			Env:             v.GetString("ENV"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			DBName:      v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSL_MODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: v.GetDuration("CACHE_TTL"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Services: ServicesConfig{
			VerificationURL: v.GetString("VERIFICATION_URL"),
			MatchingURL:     v.GetString("MATCHING_URL"),
			ContractsURL:    v.GetString("CONTRACTS_URL"),
			ListingURL:      v.GetString("LISTING_URL"),
			Timeout:         v.GetDuration("HTTP_CLIENT_TIMEOUT"),
			RetryCount:      v.GetInt("HTTP_CLIENT_RETRIES"),
		},
		Matching: MatchingConfig{
			RecommendThreshold: v.GetInt("MATCH_RECOMMEND_THRESHOLD"),
			DecisionTimeout:    v.GetDuration("DECISION_TIMEOUT"),
			ExplainTimeout:     v.GetDuration("EXPLAIN_TIMEOUT"),
		},
		GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	if c.Services.VerificationURL == "" {
		return fmt.Errorf("verification service URL is required")
	}
	if c.Services.MatchingURL == "" {
		return fmt.Errorf("matching service URL is required")
	}
	if c.Services.ContractsURL == "" {
		return fmt.Errorf("contracts service URL is required")
	}
	if c.Matching.RecommendThreshold < 0 || c.Matching.RecommendThreshold > 100 {
		return fmt.Errorf("recommend threshold must be within 0..100")
	}
	return nil
}

func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
