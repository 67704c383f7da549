package minio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/C-gyeltshen/Web102-Cap2/internal/config"
	"github.com/C-gyeltshen/Web102-Cap2/internal/logger"
)

func TestNewMinioClient_RequiresCredentials(t *testing.T) {
	_, err := NewMinioClient(context.Background(), appconfig.MinioConfig{Endpoint: "localhost:9000"}, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_ACCESS_KEY_ID")
}

func TestObjectURL(t *testing.T) {
	c := &Client{bucketName: "pokemon-images", publicURL: "https://cdn.example.com"}

	assert.Equal(t, "https://cdn.example.com/pokemon-images/pokemon/25/abc", c.ObjectURL("pokemon/25/abc"))
	assert.Equal(t, "https://cdn.example.com/pokemon-images/pokemon/25/a%20b", c.ObjectURL("pokemon/25/a b"))
}
