package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			ups[strings.TrimSuffix(f, ".up.sql")] = true
		case strings.HasSuffix(f, ".down.sql"):
			downs[strings.TrimSuffix(f, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", f)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrationsDeclareUniqueConstraints(t *testing.T) {
	users, err := fs.ReadFile(FS, "000001_create_users.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(users), "UNIQUE INDEX IF NOT EXISTS idx_users_email")

	pokemon, err := fs.ReadFile(FS, "000002_create_caught_pokemon.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(pokemon), "UNIQUE INDEX IF NOT EXISTS idx_caught_pokemon_pokemon_name")
}
