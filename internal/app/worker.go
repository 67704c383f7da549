package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/C-gyeltshen/Web102-Cap2/internal/config"
	"github.com/C-gyeltshen/Web102-Cap2/internal/messaging/payloads"
	"github.com/C-gyeltshen/Web102-Cap2/internal/usecase"
)

// runWorker consumes image mirror jobs until ctx is done. /health and /metrics
// stay available on the HTTP port.
func runWorker(ctx context.Context, cfg *config.Config, c Components, logger *slog.Logger) error {
	if c.ImageConsumer == nil || c.ImageMirror == nil {
		return errors.New("worker mode needs RabbitMQ and MinIO to be configured")
	}

	handler := func(ctx context.Context, job payloads.PokemonImagePayload) error {
		outcome, err := c.ImageMirror.MirrorPokemonImage(ctx, job)
		if c.Metrics != nil {
			c.Metrics.ImageJob(string(outcome))
		}
		if err != nil {
			return err
		}
		if outcome == usecase.MirrorRejected {
			logger.Warn("image mirror job rejected", "pokemon_id", job.PokemonID, "source_url", job.SourceURL)
		}
		return nil
	}

	if err := c.ImageConsumer.StartConsumingPokemonImages(ctx, handler); err != nil {
		return fmt.Errorf("start RabbitMQ consumer: %w", err)
	}
	logger.Info("worker started, waiting for image mirror jobs")

	if c.Handler == nil {
		<-ctx.Done()
		return nil
	}
	return serveHTTP(ctx, cfg, c.Handler, logger)
}
