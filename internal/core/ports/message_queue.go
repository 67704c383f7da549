package ports

import (
	"context"

	"github.com/C-gyeltshen/Web102-Cap2/internal/messaging/payloads"
)

// PokemonImagePublisher publishes image mirror jobs. Used by the HTTP side.
type PokemonImagePublisher interface {
	PublishPokemonImage(ctx context.Context, payload payloads.PokemonImagePayload) error
}

// PokemonImageConsumer delivers image mirror jobs to the worker.
type PokemonImageConsumer interface {
	// StartConsumingPokemonImages starts listening to the queue and calls handler for every message.
	// It returns once the consumer is registered; delivery stops when ctx is cancelled.
	StartConsumingPokemonImages(ctx context.Context, handler func(context.Context, payloads.PokemonImagePayload) error) error
}
