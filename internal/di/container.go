package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/C-gyeltshen/Web102-Cap2/internal/adapter/imagefetch"
	"github.com/C-gyeltshen/Web102-Cap2/internal/adapter/password"
	"github.com/C-gyeltshen/Web102-Cap2/internal/adapter/storage/minio"
	"github.com/C-gyeltshen/Web102-Cap2/internal/adapter/token"
	"github.com/C-gyeltshen/Web102-Cap2/internal/app"
	"github.com/C-gyeltshen/Web102-Cap2/internal/config"
	"github.com/C-gyeltshen/Web102-Cap2/internal/core/ports"
	"github.com/C-gyeltshen/Web102-Cap2/internal/database/client"
	"github.com/C-gyeltshen/Web102-Cap2/internal/database/storage"
	"github.com/C-gyeltshen/Web102-Cap2/internal/handler"
	"github.com/C-gyeltshen/Web102-Cap2/internal/logger"
	"github.com/C-gyeltshen/Web102-Cap2/internal/metrics"
	"github.com/C-gyeltshen/Web102-Cap2/internal/rabbitmq"
	"github.com/C-gyeltshen/Web102-Cap2/internal/ratelimit"
	"github.com/C-gyeltshen/Web102-Cap2/internal/usecase"
)

const (
	startupTimeout  = 15 * time.Second
	loginBucketIdle = 10 * time.Minute
)

// BuildApp initializes every dependency for mode and returns the ready App.
// Resources opened before a failure are closed again.
func BuildApp(mode string) (a *app.App, err error) {
	// 1. configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	var closers []app.Closer
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i].Close()
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// 2. PostgreSQL: pool, migrations, ORM
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, app.Closer{Name: "database", Close: dbClient.Close})

	// 3. stores
	userStorage := storage.NewUserStorage(dbClient.Gorm, slogger)
	pokemonStorage := storage.NewPokemonStorage(dbClient.Gorm, slogger)

	m := metrics.New()
	systemHandler := handler.NewSystemHandler(dbClient, slogger)

	// 4. RabbitMQ is optional for the server and required by the worker
	var rabbitMQClient *rabbitmq.Client
	if cfg.RabbitMQ.RabbitMQURL != "" {
		rabbitMQClient, err = rabbitmq.NewClient(cfg, slogger)
		if err != nil {
			return nil, err
		}
		closers = append(closers, app.Closer{Name: "rabbitmq", Close: rabbitMQClient.Close})
	} else if mode == app.ModeWorker {
		return nil, fmt.Errorf("RABBITMQ_URL is required in %s mode", app.ModeWorker)
	}

	components := app.Components{
		Config:  cfg,
		Logger:  slogger,
		Metrics: m,
	}

	switch mode {
	case app.ModeWorker:
		if !cfg.MinioConfigured() {
			return nil, fmt.Errorf("MINIO_* settings are required in %s mode", app.ModeWorker)
		}
		fileStorage, err := minio.NewMinioClient(ctx, cfg.Minio, slogger)
		if err != nil {
			return nil, err
		}
		fetcher := imagefetch.NewClient(nil, imagefetch.DefaultMaxBytes, slogger)

		components.ImageMirror = usecase.NewImageMirrorUseCase(pokemonStorage, fetcher, fileStorage, slogger)
		components.ImageConsumer = rabbitMQClient
		components.Handler = handler.NewWorkerRouter(systemHandler, m, slogger)

	default:
		// 5. security adapters
		hasher := password.NewBcryptHasher(cfg.BcryptCost)
		tokens, err := token.NewJWTService(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}

		// 6. rate limiters
		createLimiter, janitors, redisCloser, err := buildCreateLimiter(ctx, cfg, slogger)
		if err != nil {
			return nil, err
		}
		if redisCloser != nil {
			closers = append(closers, *redisCloser)
		}
		loginLimiter := ratelimit.NewKeyedBucket(cfg.LoginThrottle.RatePerSecond, cfg.LoginThrottle.Burst, loginBucketIdle)
		janitors = append(janitors, loginLimiter)

		// 7. use cases
		var publisher ports.PokemonImagePublisher
		if rabbitMQClient != nil {
			publisher = rabbitMQClient
		} else {
			slogger.Warn("RABBITMQ_URL not set, image mirroring disabled")
		}
		authUseCase := usecase.NewAuthUseCase(userStorage, hasher, tokens, slogger)
		pokemonUseCase := usecase.NewPokemonUseCase(pokemonStorage, publisher, slogger)

		// 8. HTTP
		trustedProxies, err := cfg.TrustedProxyPrefixes()
		if err != nil {
			return nil, err
		}
		if len(trustedProxies) > 0 {
			slogger.Info("forwarding headers trusted", "proxies", cfg.TrustedProxies)
		}
		components.Janitors = janitors
		components.Handler = handler.NewRouter(handler.RouterConfig{
			Auth:           handler.NewAuthHandler(authUseCase, slogger),
			Pokemon:        handler.NewPokemonHandler(pokemonUseCase, slogger),
			System:         systemHandler,
			Verifier:       tokens,
			CreateLimiter:  createLimiter,
			LoginLimiter:   loginLimiter,
			RateLimitScope: cfg.RateLimit.Scope,
			TrustedProxies: trustedProxies,
			Metrics:        m,
			Logger:         slogger,
			RequestTimeout: cfg.RequestTimeout,
			AllowedOrigins: cfg.CORSAllowedOrigins,
		})
	}

	components.Closers = closers

	slogger.Info("all dependencies initialized", "mode", mode)
	return app.NewApp(components), nil
}

// buildCreateLimiter returns the sliding window limiter of POST /pokemon for
// the configured backend.
func buildCreateLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ratelimit.Limiter, []app.Janitor, *app.Closer, error) {
	limit, window := cfg.RateLimit.MaxRequests, cfg.RateLimit.Window

	if cfg.RateLimit.Backend != config.RateLimitBackendRedis {
		sw := ratelimit.NewSlidingWindow(limit, window)
		logger.Info("rate limiter ready", "backend", config.RateLimitBackendMemory, "limit", limit, "window", window, "scope", cfg.RateLimit.Scope)
		return sw, []app.Janitor{sw}, nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	logger.Info("rate limiter ready", "backend", config.RateLimitBackendRedis, "addr", cfg.Redis.Addr, "limit", limit, "window", window, "scope", cfg.RateLimit.Scope)
	return ratelimit.NewRedisSlidingWindow(rdb, limit, window), nil, &app.Closer{Name: "redis", Close: rdb.Close}, nil
}
