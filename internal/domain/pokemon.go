package domain

import "time"

// CaughtPokemon is a Pokémon record, corresponds to the caught_pokemon table.
// JSON names follow the public API (pokemonid, pokemonname, ...).
type CaughtPokemon struct {
	PokemonID   int64     `json:"pokemonid" gorm:"column:pokemon_id;primaryKey;autoIncrement"`
	PokemonName string    `json:"pokemonname" gorm:"column:pokemon_name;uniqueIndex;not null"`
	PokemonType string    `json:"pokemontype" gorm:"column:pokemon_type"`
	Weight      float64   `json:"weight" gorm:"column:weight"`
	Moves       []string  `json:"moves" gorm:"column:moves;serializer:json"`
	Image       string    `json:"image" gorm:"column:image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (CaughtPokemon) TableName() string {
	return "caught_pokemon"
}
