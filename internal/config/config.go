package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	// MinJWTSecretLength is the shortest HS256 key accepted at startup.
	MinJWTSecretLength = 32
	// MinBcryptCost is the lowest work factor the service will hash with.
	MinBcryptCost = 10
	maxBcryptCost = 31
)

// Rate limiter backends and key scopes.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"

	RateLimitScopeClient = "client"
	RateLimitScopeRoute  = "route"
)

// Config holds every configuration parameter of the application.
type Config struct {
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	ServerPort      string        `env:"SERVER_PORT"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	JWTSecret  string `env:"JWT_SECRET,required"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// TrustedProxies lists the peers (CIDR or single IP) whose X-Forwarded-For
	// and X-Real-IP headers are believed. Empty means the socket address is used.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	RateLimit struct {
		MaxRequests int           `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"10"`
		Window      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1s"`
		Scope       string        `env:"RATE_LIMIT_SCOPE" envDefault:"client"`
		Backend     string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	}

	LoginThrottle struct {
		RatePerSecond float64 `env:"LOGIN_RATE_PER_SECOND" envDefault:"5"`
		Burst         int     `env:"LOGIN_BURST" envDefault:"10"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	// RabbitMQ is optional for the server: without a URL image mirror jobs are not published.
	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"pokemon_image_queue"`
	}

	// MinIO is only needed by the worker.
	Minio MinioConfig
}

// MinioConfig describes the S3 compatible store mirrored images are uploaded to.
type MinioConfig struct {
	Endpoint        string `env:"MINIO_ENDPOINT"`
	AccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	UseSSL          bool   `env:"MINIO_USE_SSL"`
	BucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"pokemon-images"`
	Region          string `env:"MINIO_REGION" envDefault:"us-east-1"`
	PublicURL       string `env:"MINIO_PUBLIC_URL"`
}

// LoadConfig reads the configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse configuration from environment: %w", err)
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.Minio.PublicURL == "" && cfg.Minio.Endpoint != "" {
		cfg.Minio.PublicURL = cfg.Minio.EndpointURL()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}
	if c.BcryptCost < MinBcryptCost || c.BcryptCost > maxBcryptCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", MinBcryptCost, maxBcryptCost, c.BcryptCost))
	}
	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_REQUESTS must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}

	switch c.RateLimit.Scope {
	case RateLimitScopeClient, RateLimitScopeRoute:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_SCOPE must be %q or %q, got %q", RateLimitScopeClient, RateLimitScopeRoute, c.RateLimit.Scope))
	}

	switch c.RateLimit.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q", RateLimitBackendMemory, RateLimitBackendRedis, c.RateLimit.Backend))
	}

	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}

	if c.LoginThrottle.RatePerSecond <= 0 || c.LoginThrottle.Burst <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_SECOND and LOGIN_BURST must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is a single host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q: %w", raw, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q: %w", raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// MinioConfigured reports whether the object store used by the worker is set up.
func (c *Config) MinioConfigured() bool {
	m := c.Minio
	return m.Endpoint != "" && m.AccessKeyID != "" && m.SecretAccessKey != "" && m.BucketName != ""
}

// EndpointURL returns the MinIO endpoint with its scheme.
func (m MinioConfig) EndpointURL() string {
	if m.UseSSL {
		return "https://" + m.Endpoint
	}
	return "http://" + m.Endpoint
}
