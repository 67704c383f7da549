package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/C-gyeltshen/Web102-Cap2/internal/config"
	"github.com/C-gyeltshen/Web102-Cap2/internal/core/ports"
	"github.com/C-gyeltshen/Web102-Cap2/internal/metrics"
	"github.com/C-gyeltshen/Web102-Cap2/internal/usecase"
)

// Run modes.
const (
	ModeServer = "server"
	ModeWorker = "worker"
)

const janitorInterval = time.Minute

// Janitor drops idle rate limiter state in the background.
type Janitor interface {
	StartJanitor(ctx context.Context, interval time.Duration)
}

// Closer is a resource released on shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// Components are the dependencies assembled by the composition root.
type Components struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Handler serves the HTTP API in server mode and /health, /metrics in worker mode.
	Handler  http.Handler
	Janitors []Janitor

	ImageMirror   usecase.ImageMirrorUseCase
	ImageConsumer ports.PokemonImageConsumer

	// Closers run in reverse order on shutdown.
	Closers []Closer
}

type App struct {
	Config *config.Config
	logger *slog.Logger
	c      Components
}

func NewApp(c Components) *App {
	return &App{Config: c.Config, logger: c.Logger, c: c}
}

// LoggerIns returns the application logger.
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run blocks until SIGINT/SIGTERM or a fatal error, then releases every resource.
func (a *App) Run(ctx context.Context, mode string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	var err error
	switch mode {
	case ModeServer:
		err = runServer(ctx, a.Config, a.c, a.logger)
	case ModeWorker:
		err = runWorker(ctx, a.Config, a.c, a.logger)
	default:
		err = fmt.Errorf("unknown mode %q (use %q or %q)", mode, ModeServer, ModeWorker)
	}

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		return err
	}
	a.logger.Info("stopped gracefully")
	return nil
}

// Shutdown closes every resource of the application.
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.c.Closers) - 1; i >= 0; i-- {
		cl := a.c.Closers[i]
		if err := cl.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", cl.Name, err))
			continue
		}
		a.logger.Debug("resource closed", "resource", cl.Name)
	}
	return errors.Join(errs...)
}

// serveHTTP runs an HTTP server until ctx is done and drains it within cfg.ShutdownTimeout.
func serveHTTP(ctx context.Context, cfg *config.Config, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, draining http server", "timeout", cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("http server stopped")
	return nil
}
