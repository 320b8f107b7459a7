package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	CORS      CORSConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
	Tracing   TracingConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

// IsProduction reports whether the service runs with APP_ENV (or NODE_ENV)
// set to production.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

type MongoDBConfig struct {
	URI              string
	Database         string
	Collection       string
	Timeout          time.Duration
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int
	HealthInterval   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// AdminConfig selects how GET /api/demos is protected. OIDC wins over the
// shared secret; with neither set the listing is open.
type AdminConfig struct {
	JWTSecret     string
	OIDCIssuer    string
	OIDCClientID  string
	OIDCRoleClaim string
	OIDCRole      string
}

type TracingConfig struct {
	Endpoint    string
	ServiceName string
}

var ErrMissingMongoURI = errors.New("MONGO_URI is required")

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("HOST", "0.0.0.0")
	// NODE_ENV is honoured for deployments carried over from the Node service
	_ = v.BindEnv("APP_ENV", "APP_ENV", "NODE_ENV")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MAX_BODY_BYTES", 64*1024)
	v.SetDefault("MONGO_DATABASE", "a2developers")
	v.SetDefault("MONGO_COLLECTION", "demos")
	v.SetDefault("MONGO_TIMEOUT", "10s")
	v.SetDefault("MONGO_RETRY_BASE_DELAY", "5s")
	v.SetDefault("MONGO_RETRY_MAX_DELAY", "30s")
	v.SetDefault("MONGO_RETRY_MAX_ATTEMPTS", 5)
	v.SetDefault("MONGO_HEALTH_INTERVAL", "10s")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 0.2)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("OTEL_SERVICE_NAME", "a2-demo-api")
	v.SetDefault("ADMIN_OIDC_ROLE_CLAIM", "roles")
	v.SetDefault("ADMIN_OIDC_ROLE", "admin")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			Host:         v.GetString("HOST"),
			Environment:  v.GetString("APP_ENV"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			MaxBodyBytes: v.GetInt64("MAX_BODY_BYTES"),
		},
		MongoDB: MongoDBConfig{
			URI:              v.GetString("MONGO_URI"),
			Database:         v.GetString("MONGO_DATABASE"),
			Collection:       v.GetString("MONGO_COLLECTION"),
			Timeout:          v.GetDuration("MONGO_TIMEOUT"),
			RetryBaseDelay:   v.GetDuration("MONGO_RETRY_BASE_DELAY"),
			RetryMaxDelay:    v.GetDuration("MONGO_RETRY_MAX_DELAY"),
			RetryMaxAttempts: v.GetInt("MONGO_RETRY_MAX_ATTEMPTS"),
			HealthInterval:   v.GetDuration("MONGO_HEALTH_INTERVAL"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("FRONTEND_URL")),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Admin: AdminConfig{
			JWTSecret:     v.GetString("ADMIN_JWT_SECRET"),
			OIDCIssuer:    v.GetString("ADMIN_OIDC_ISSUER"),
			OIDCClientID:  v.GetString("ADMIN_OIDC_CLIENT_ID"),
			OIDCRoleClaim: v.GetString("ADMIN_OIDC_ROLE_CLAIM"),
			OIDCRole:      v.GetString("ADMIN_OIDC_ROLE"),
		},
		Tracing: TracingConfig{
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.MongoDB.URI == "" {
		return nil, ErrMissingMongoURI
	}
	return cfg, nil
}

// LoadAdminSecret reads only ADMIN_JWT_SECRET, for tools that do not need
// the full server configuration.
func LoadAdminSecret() string {
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	return v.GetString("ADMIN_JWT_SECRET")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}
