package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
	"github.com/C-gyeltshen/Web102-Cap2/internal/usecase"
)

// PokemonHandler serves the caught Pokémon records.
type PokemonHandler struct {
	pokemonUseCase usecase.PokemonUseCase
	logger         *slog.Logger
}

func NewPokemonHandler(uc usecase.PokemonUseCase, logger *slog.Logger) *PokemonHandler {
	return &PokemonHandler{pokemonUseCase: uc, logger: logger}
}

// pokemonRequest is the record as sent by clients. pokemonid is ignored on create.
type pokemonRequest struct {
	PokemonID   int64    `json:"pokemonid"`
	PokemonName string   `json:"pokemonname"`
	PokemonType string   `json:"pokemontype"`
	Weight      float64  `json:"weight"`
	Moves       []string `json:"moves"`
	Image       string   `json:"image"`
}

func (p pokemonRequest) toDomain() *domain.CaughtPokemon {
	return &domain.CaughtPokemon{
		PokemonID:   p.PokemonID,
		PokemonName: p.PokemonName,
		PokemonType: p.PokemonType,
		Weight:      p.Weight,
		Moves:       p.Moves,
		Image:       p.Image,
	}
}

type deletePokemonRequest struct {
	PokemonID int64 `json:"pokemonid"`
}

type pokemonResponse struct {
	Message string                `json:"message"`
	Pokemon *domain.CaughtPokemon `json:"pokemon"`
}

var createPokemonErrors = errorMessages{
	http.StatusBadRequest:          "pokemonname is required",
	http.StatusConflict:            "Pokemon already exists",
	http.StatusInternalServerError: "An error occurred",
}

var updatePokemonErrors = errorMessages{
	http.StatusBadRequest:          "pokemonid and pokemonname are required",
	http.StatusNotFound:            "Pokémon not found",
	http.StatusConflict:            "Pokemon already exists",
	http.StatusInternalServerError: "An error occurred while updating the Pokémon record",
}

// Create stores a new record: POST /pokemon.
func (h *PokemonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req pokemonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDomainError(w, r, err, createPokemonErrors, h.logger)
		return
	}

	req.PokemonID = 0
	pokemon, err := h.pokemonUseCase.Create(r.Context(), req.toDomain())
	if err != nil {
		respondWithDomainError(w, r, err, createPokemonErrors, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, pokemonResponse{
		Message: pokemon.PokemonName + " created successfully",
		Pokemon: pokemon,
	}, h.logger)
}

// List returns every record: GET /pokemon/records.
func (h *PokemonHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.pokemonUseCase.List(r.Context())
	if err != nil {
		respondWithDomainError(w, r, err, errorMessages{
			http.StatusInternalServerError: "An error occurred while fetching Pokémon records",
		}, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, records, h.logger)
}

// Update replaces a record: PATCH /pokemon/update.
func (h *PokemonHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req pokemonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDomainError(w, r, err, updatePokemonErrors, h.logger)
		return
	}

	pokemon, err := h.pokemonUseCase.Update(r.Context(), req.toDomain())
	if err != nil {
		respondWithDomainError(w, r, err, updatePokemonErrors, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, pokemonResponse{
		Message: pokemon.PokemonName + " updated successfully",
		Pokemon: pokemon,
	}, h.logger)
}

// Delete removes a record: DELETE /pokemon/delete.
func (h *PokemonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deletePokemonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDomainError(w, r, err, errorMessages{http.StatusBadRequest: "pokemonid is required"}, h.logger)
		return
	}

	err := h.pokemonUseCase.Delete(r.Context(), req.PokemonID)
	if err != nil {
		respondWithDomainError(w, r, err, errorMessages{
			http.StatusBadRequest:          "pokemonid is required",
			http.StatusNotFound:            fmt.Sprintf("Pokemon with ID %d not found", req.PokemonID),
			http.StatusInternalServerError: "Failed to delete Pokemon",
		}, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Pokemon with ID %d deleted successfully", req.PokemonID),
	}, h.logger)
}
