package payloads

// PokemonImagePayload asks the worker to copy a record's image into object storage.
type PokemonImagePayload struct {
	PokemonID int64  `json:"pokemonId"`
	SourceURL string `json:"sourceUrl"`
}
