package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
	"github.com/C-gyeltshen/Web102-Cap2/internal/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.CaughtPokemon{}))
	return db
}

func TestUserStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewUserStorage(newTestDB(t), logger.Discard())

	user := &domain.User{Email: "ash@pallet.town", Username: "ash", PasswordHash: "$2a$10$hash"}
	require.NoError(t, s.CreateUser(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	got, err := s.GetUserByEmail(ctx, "ash@pallet.town")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "ash", got.Username)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)
}

func TestUserStorage_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := NewUserStorage(db, logger.Discard())

	require.NoError(t, s.CreateUser(ctx, &domain.User{Email: "a@x.com", Username: "a", PasswordHash: "h1"}))
	err := s.CreateUser(ctx, &domain.User{Email: "a@x.com", Username: "b", PasswordHash: "h2"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)

	var count int64
	require.NoError(t, db.Model(&domain.User{}).Where("email = ?", "a@x.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserStorage_GetMissing(t *testing.T) {
	s := NewUserStorage(newTestDB(t), logger.Discard())

	_, err := s.GetUserByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func createPokemon(t *testing.T, s *PokemonStorage, name string) *domain.CaughtPokemon {
	t.Helper()
	p := &domain.CaughtPokemon{
		PokemonName: name,
		PokemonType: "electric",
		Weight:      6,
		Moves:       []string{"thunder-shock", "quick-attack"},
		Image:       "https://img.example/" + name + ".png",
	}
	require.NoError(t, s.CreatePokemon(context.Background(), p))
	return p
}

func TestPokemonStorage_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := NewPokemonStorage(newTestDB(t), logger.Discard())

	empty, err := s.ListPokemon(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	pikachu := createPokemon(t, s, "pikachu")
	eevee := createPokemon(t, s, "eevee")
	assert.NotZero(t, pikachu.PokemonID)
	assert.Greater(t, eevee.PokemonID, pikachu.PokemonID)

	records, err := s.ListPokemon(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "pikachu", records[0].PokemonName)
	assert.Equal(t, []string{"thunder-shock", "quick-attack"}, records[0].Moves)
	assert.Equal(t, "eevee", records[1].PokemonName)
}

func TestPokemonStorage_DuplicateName(t *testing.T) {
	s := NewPokemonStorage(newTestDB(t), logger.Discard())
	createPokemon(t, s, "pikachu")

	err := s.CreatePokemon(context.Background(), &domain.CaughtPokemon{PokemonName: "pikachu"})
	assert.ErrorIs(t, err, domain.ErrPokemonExists)
}

func TestPokemonStorage_Update(t *testing.T) {
	ctx := context.Background()
	s := NewPokemonStorage(newTestDB(t), logger.Discard())
	p := createPokemon(t, s, "pikachu")

	updated, err := s.UpdatePokemon(ctx, &domain.CaughtPokemon{
		PokemonID:   p.PokemonID,
		PokemonName: "raichu",
		PokemonType: "electric",
		Weight:      0,
		Moves:       []string{},
		Image:       "",
	})
	require.NoError(t, err)
	assert.Equal(t, p.PokemonID, updated.PokemonID)
	assert.Equal(t, "raichu", updated.PokemonName)
	assert.Zero(t, updated.Weight, "full replace writes zero values")
	assert.Empty(t, updated.Moves)
	assert.Empty(t, updated.Image)
}

func TestPokemonStorage_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	s := NewPokemonStorage(newTestDB(t), logger.Discard())
	createPokemon(t, s, "pikachu")

	_, err := s.UpdatePokemon(ctx, &domain.CaughtPokemon{PokemonID: 999, PokemonName: "ghost"})
	require.ErrorIs(t, err, domain.ErrPokemonNotFound)

	records, err := s.ListPokemon(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "pikachu", records[0].PokemonName)
}

func TestPokemonStorage_UpdateToExistingName(t *testing.T) {
	s := NewPokemonStorage(newTestDB(t), logger.Discard())
	createPokemon(t, s, "pikachu")
	eevee := createPokemon(t, s, "eevee")

	_, err := s.UpdatePokemon(context.Background(), &domain.CaughtPokemon{PokemonID: eevee.PokemonID, PokemonName: "pikachu"})
	assert.ErrorIs(t, err, domain.ErrPokemonExists)
}

func TestPokemonStorage_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewPokemonStorage(newTestDB(t), logger.Discard())
	p := createPokemon(t, s, "pikachu")

	require.NoError(t, s.DeletePokemon(ctx, p.PokemonID))

	_, err := s.GetPokemonByID(ctx, p.PokemonID)
	assert.ErrorIs(t, err, domain.ErrPokemonNotFound)

	err = s.DeletePokemon(ctx, p.PokemonID)
	assert.ErrorIs(t, err, domain.ErrPokemonNotFound, "second delete must not report success")
}

func TestPokemonStorage_UpdateImage(t *testing.T) {
	ctx := context.Background()
	s := NewPokemonStorage(newTestDB(t), logger.Discard())
	p := createPokemon(t, s, "pikachu")
	mirrored := "http://minio:9000/pokemon-images/pokemon/1/abc"

	require.NoError(t, s.UpdatePokemonImage(ctx, p.PokemonID, p.Image, mirrored))

	got, err := s.GetPokemonByID(ctx, p.PokemonID)
	require.NoError(t, err)
	assert.Equal(t, mirrored, got.Image)
	assert.Equal(t, "pikachu", got.PokemonName)

	err = s.UpdatePokemonImage(ctx, p.PokemonID, p.Image, "http://minio:9000/other")
	assert.ErrorIs(t, err, domain.ErrPokemonNotFound, "image no longer matches the source")

	assert.ErrorIs(t, s.UpdatePokemonImage(ctx, 42, "x", "y"), domain.ErrPokemonNotFound)
}
