package usecase

import (
	"context"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
)

// PokemonUseCase manages caught Pokémon records.
type PokemonUseCase interface {
	// Create stores a new record. A taken name yields domain.ErrPokemonExists.
	Create(ctx context.Context, pokemon *domain.CaughtPokemon) (*domain.CaughtPokemon, error)

	// List returns every record ordered by id.
	List(ctx context.Context) ([]domain.CaughtPokemon, error)

	// Update replaces the record with pokemon.PokemonID.
	// An unknown id yields domain.ErrPokemonNotFound and nothing is written.
	Update(ctx context.Context, pokemon *domain.CaughtPokemon) (*domain.CaughtPokemon, error)

	// Delete removes the record. An unknown id yields domain.ErrPokemonNotFound.
	Delete(ctx context.Context, id int64) error
}
