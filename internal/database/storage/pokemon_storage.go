package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
)

// replaceColumns are written by UpdatePokemon. Listing them makes zero values
// (empty moves, weight 0) overwrite the stored ones.
var replaceColumns = []string{"pokemon_name", "pokemon_type", "weight", "moves", "image", "updated_at"}

// PokemonStorage implements ports.PokemonStorage with GORM.
type PokemonStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewPokemonStorage(db *gorm.DB, logger *slog.Logger) *PokemonStorage {
	return &PokemonStorage{db: db, logger: logger}
}

func (s *PokemonStorage) CreatePokemon(ctx context.Context, pokemon *domain.CaughtPokemon) error {
	start := time.Now()

	if err := s.db.WithContext(ctx).Create(pokemon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Info("unique constraint violation on caught_pokemon.pokemon_name", "pokemon_name", pokemon.PokemonName)
			return domain.ErrPokemonExists
		}
		s.logger.Error("failed to insert pokemon", "pokemon_name", pokemon.PokemonName, "error", err)
		return fmt.Errorf("insert pokemon: %w", err)
	}

	s.logger.Info("pokemon saved",
		"pokemon_id", pokemon.PokemonID,
		"pokemon_name", pokemon.PokemonName,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ListPokemon returns every record ordered by id.
func (s *PokemonStorage) ListPokemon(ctx context.Context) ([]domain.CaughtPokemon, error) {
	var records []domain.CaughtPokemon
	if err := s.db.WithContext(ctx).Order("pokemon_id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("select pokemon records: %w", err)
	}
	if records == nil {
		records = []domain.CaughtPokemon{}
	}
	return records, nil
}

func (s *PokemonStorage) GetPokemonByID(ctx context.Context, id int64) (*domain.CaughtPokemon, error) {
	var pokemon domain.CaughtPokemon
	err := s.db.WithContext(ctx).First(&pokemon, "pokemon_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPokemonNotFound
		}
		return nil, fmt.Errorf("select pokemon %d: %w", id, err)
	}
	return &pokemon, nil
}

// UpdatePokemon replaces the record and reads it back. Zero affected rows means the id does not exist.
func (s *PokemonStorage) UpdatePokemon(ctx context.Context, pokemon *domain.CaughtPokemon) (*domain.CaughtPokemon, error) {
	start := time.Now()

	pokemon.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).
		Model(&domain.CaughtPokemon{}).
		Where("pokemon_id = ?", pokemon.PokemonID).
		Select(replaceColumns).
		Updates(pokemon)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrPokemonExists
		}
		s.logger.Error("failed to update pokemon", "pokemon_id", pokemon.PokemonID, "error", res.Error)
		return nil, fmt.Errorf("update pokemon %d: %w", pokemon.PokemonID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrPokemonNotFound
	}

	updated, err := s.GetPokemonByID(ctx, pokemon.PokemonID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("pokemon updated",
		"pokemon_id", updated.PokemonID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return updated, nil
}

func (s *PokemonStorage) DeletePokemon(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Where("pokemon_id = ?", id).Delete(&domain.CaughtPokemon{})
	if res.Error != nil {
		s.logger.Error("failed to delete pokemon", "pokemon_id", id, "error", res.Error)
		return fmt.Errorf("delete pokemon %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPokemonNotFound
	}

	s.logger.Info("pokemon deleted", "pokemon_id", id)
	return nil
}

// UpdatePokemonImage swaps the record's image from sourceURL to image. A record
// that is gone or no longer points at sourceURL yields domain.ErrPokemonNotFound.
func (s *PokemonStorage) UpdatePokemonImage(ctx context.Context, id int64, sourceURL, image string) error {
	res := s.db.WithContext(ctx).
		Model(&domain.CaughtPokemon{}).
		Where("pokemon_id = ? AND image = ?", id, sourceURL).
		Updates(map[string]any{"image": image, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("update image of pokemon %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPokemonNotFound
	}
	return nil
}
