package app

import (
	"context"
	"log/slog"

	"github.com/C-gyeltshen/Web102-Cap2/internal/config"
)

// runServer serves the HTTP API until ctx is done.
func runServer(ctx context.Context, cfg *config.Config, c Components, logger *slog.Logger) error {
	for _, j := range c.Janitors {
		go j.StartJanitor(ctx, janitorInterval)
	}

	return serveHTTP(ctx, cfg, c.Handler, logger)
}
