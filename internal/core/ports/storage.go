package ports

import (
	"context"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
)

// UserStorage defines access to registered users.
type UserStorage interface {
	// CreateUser inserts a user. A duplicate email yields domain.ErrEmailTaken.
	CreateUser(ctx context.Context, user *domain.User) error
	// GetUserByEmail returns domain.ErrUserNotFound when no row matches.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// PokemonStorage defines access to caught Pokémon records.
type PokemonStorage interface {
	// CreatePokemon inserts a record and fills its id. A duplicate name yields domain.ErrPokemonExists.
	CreatePokemon(ctx context.Context, pokemon *domain.CaughtPokemon) error
	ListPokemon(ctx context.Context) ([]domain.CaughtPokemon, error)
	GetPokemonByID(ctx context.Context, id int64) (*domain.CaughtPokemon, error)
	// UpdatePokemon replaces every mutable column of the record with pokemon.PokemonID.
	UpdatePokemon(ctx context.Context, pokemon *domain.CaughtPokemon) (*domain.CaughtPokemon, error)
	// DeletePokemon returns domain.ErrPokemonNotFound when no row was deleted.
	DeletePokemon(ctx context.Context, id int64) error
	// UpdatePokemonImage replaces the image only while it still equals sourceURL.
	UpdatePokemonImage(ctx context.Context, id int64, sourceURL, image string) error
}
