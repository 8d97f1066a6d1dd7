package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	Geolocation GeolocationConfig
	Search      SearchConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string `validate:"required"`
	Port           int    `validate:"min=1,max=65535"`
	Env            string `validate:"oneof=development staging production"`
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"min=1,max=65535"`
	User     string `validate:"required"`
	Password string
	Database string `validate:"required"`
	SSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int `validate:"min=1,max=65535"`
	Password string
	DB       int `validate:"min=0"`
	Enabled  bool
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL     string `validate:"omitempty,url"`
	APIKey  string `validate:"required_if=Enabled true"`
	Enabled bool
}

// GeolocationConfig holds geolocation provider configuration
type GeolocationConfig struct {
	Provider         string `validate:"oneof=mock google"`
	APIKey           string `validate:"required_if=Provider google"`
	Region           string
	Timeout          time.Duration `validate:"gt=0"`
	CacheTTL         time.Duration `validate:"gte=0"`
	NegativeCacheTTL time.Duration `validate:"gte=0"`
}

// SearchConfig holds defaults for the search surface
type SearchConfig struct {
	DefaultRadiusMiles float64 `validate:"gt=0"`
	DefaultLimit       int     `validate:"min=1"`
	MaxLimit           int     `validate:"gtefield=DefaultLimit"`
	Backend            string  `validate:"oneof=postgres typesense"`
	CollationLanguage  string  `validate:"required,bcp47_language_tag"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "pricefinder"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Typesense: TypesenseConfig{
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
		},
		Geolocation: GeolocationConfig{
			Provider:         getEnv("GEOLOCATION_PROVIDER", "mock"),
			APIKey:           getEnv("GEOLOCATION_API_KEY", ""),
			Region:           getEnv("GEOLOCATION_REGION", "us"),
			Timeout:          getEnvAsDuration("GEOCODE_TIMEOUT", 3*time.Second),
			CacheTTL:         getEnvAsDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
			NegativeCacheTTL: getEnvAsDuration("GEOCODE_NEGATIVE_CACHE_TTL", 10*time.Minute),
		},
		Search: SearchConfig{
			DefaultRadiusMiles: getEnvAsFloat("SEARCH_DEFAULT_RADIUS_MILES", 50),
			DefaultLimit:       getEnvAsInt("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:           getEnvAsInt("SEARCH_MAX_LIMIT", 100),
			Backend:            getEnv("SEARCH_BACKEND", "postgres"),
			CollationLanguage:  getEnv("SEARCH_COLLATION_LANGUAGE", "en-US"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "pricefinder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Search.Backend == "typesense" && !c.Typesense.Enabled {
		return fmt.Errorf("invalid configuration: SEARCH_BACKEND=typesense requires TYPESENSE_ENABLED=true")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
