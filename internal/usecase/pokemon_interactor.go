package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/C-gyeltshen/Web102-Cap2/internal/core/ports"
	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
	"github.com/C-gyeltshen/Web102-Cap2/internal/messaging/payloads"
)

// pokemonUseCase implements PokemonUseCase
type pokemonUseCase struct {
	storage   ports.PokemonStorage
	publisher ports.PokemonImagePublisher // nil disables image mirroring
	logger    *slog.Logger
}

// NewPokemonUseCase creates a PokemonUseCase. publisher may be nil.
func NewPokemonUseCase(storage ports.PokemonStorage, publisher ports.PokemonImagePublisher, logger *slog.Logger) PokemonUseCase {
	return &pokemonUseCase{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *pokemonUseCase) Create(ctx context.Context, pokemon *domain.CaughtPokemon) (*domain.CaughtPokemon, error) {
	if err := normalize(pokemon); err != nil {
		return nil, err
	}

	if err := uc.storage.CreatePokemon(ctx, pokemon); err != nil {
		return nil, fmt.Errorf("usecase: create pokemon %s: %w", pokemon.PokemonName, err)
	}

	if pokemon.Image != "" {
		uc.requestMirror(ctx, pokemon)
	}
	return pokemon, nil
}

func (uc *pokemonUseCase) List(ctx context.Context) ([]domain.CaughtPokemon, error) {
	records, err := uc.storage.ListPokemon(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: list pokemon: %w", err)
	}
	return records, nil
}

func (uc *pokemonUseCase) Update(ctx context.Context, pokemon *domain.CaughtPokemon) (*domain.CaughtPokemon, error) {
	if pokemon.PokemonID <= 0 {
		return nil, fmt.Errorf("pokemonid is required: %w", domain.ErrInvalidInput)
	}
	if err := normalize(pokemon); err != nil {
		return nil, err
	}

	current, err := uc.storage.GetPokemonByID(ctx, pokemon.PokemonID)
	if err != nil {
		return nil, fmt.Errorf("usecase: load pokemon %d: %w", pokemon.PokemonID, err)
	}

	updated, err := uc.storage.UpdatePokemon(ctx, pokemon)
	if err != nil {
		return nil, fmt.Errorf("usecase: update pokemon %d: %w", pokemon.PokemonID, err)
	}

	if updated.Image != "" && updated.Image != current.Image {
		uc.requestMirror(ctx, updated)
	}
	return updated, nil
}

func (uc *pokemonUseCase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("pokemonid is required: %w", domain.ErrInvalidInput)
	}
	if err := uc.storage.DeletePokemon(ctx, id); err != nil {
		return fmt.Errorf("usecase: delete pokemon %d: %w", id, err)
	}
	return nil
}

// requestMirror queues an image mirror job. Failures do not fail the request.
func (uc *pokemonUseCase) requestMirror(ctx context.Context, pokemon *domain.CaughtPokemon) {
	if uc.publisher == nil {
		return
	}

	payload := payloads.PokemonImagePayload{PokemonID: pokemon.PokemonID, SourceURL: pokemon.Image}
	if err := uc.publisher.PublishPokemonImage(ctx, payload); err != nil {
		uc.logger.Warn("failed to queue image mirror job",
			"pokemon_id", pokemon.PokemonID,
			"source_url", pokemon.Image,
			"error", err,
		)
		return
	}
	uc.logger.Debug("image mirror job queued", "pokemon_id", pokemon.PokemonID)
}

func normalize(pokemon *domain.CaughtPokemon) error {
	pokemon.PokemonName = strings.TrimSpace(pokemon.PokemonName)
	if pokemon.PokemonName == "" {
		return fmt.Errorf("pokemonname is required: %w", domain.ErrInvalidInput)
	}
	if pokemon.Moves == nil {
		pokemon.Moves = []string{}
	}
	return nil
}
