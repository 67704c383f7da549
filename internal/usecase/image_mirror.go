package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/C-gyeltshen/Web102-Cap2/internal/core/ports"
	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
	"github.com/C-gyeltshen/Web102-Cap2/internal/messaging/payloads"
)

// ImageFetcher downloads an image from a public URL.
// A URL that can never be mirrored (bad scheme, not an image, too large)
// yields an error wrapping domain.ErrInvalidInput.
type ImageFetcher interface {
	FetchImage(ctx context.Context, sourceURL string) (*domain.RemoteImage, error)
}

// FileStorage stores binary objects (S3, MinIO) and returns their public URL.
type FileStorage interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// MirrorOutcome tells the worker what happened to a job.
type MirrorOutcome string

const (
	MirrorMirrored MirrorOutcome = "mirrored"
	// MirrorSkipped means the record is gone or its image changed since the job was queued.
	MirrorSkipped MirrorOutcome = "skipped"
	// MirrorRejected means the source can never be mirrored. The job is dropped.
	MirrorRejected MirrorOutcome = "rejected"
	MirrorFailed   MirrorOutcome = "failed"
)

// ImageMirrorUseCase copies record images into the object store.
type ImageMirrorUseCase interface {
	// MirrorPokemonImage returns a non-nil error only for failures worth a retry.
	MirrorPokemonImage(ctx context.Context, job payloads.PokemonImagePayload) (MirrorOutcome, error)
}

type imageMirrorUseCase struct {
	storage ports.PokemonStorage
	fetcher ImageFetcher
	files   FileStorage
	logger  *slog.Logger
}

func NewImageMirrorUseCase(storage ports.PokemonStorage, fetcher ImageFetcher, files FileStorage, logger *slog.Logger) ImageMirrorUseCase {
	return &imageMirrorUseCase{
		storage: storage,
		fetcher: fetcher,
		files:   files,
		logger:  logger,
	}
}

func (uc *imageMirrorUseCase) MirrorPokemonImage(ctx context.Context, job payloads.PokemonImagePayload) (MirrorOutcome, error) {
	start := time.Now()
	log := uc.logger.With("pokemon_id", job.PokemonID, "source_url", job.SourceURL)

	record, err := uc.storage.GetPokemonByID(ctx, job.PokemonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("pokemon deleted before its image was mirrored")
			return MirrorSkipped, nil
		}
		return MirrorFailed, fmt.Errorf("usecase: load pokemon %d: %w", job.PokemonID, err)
	}
	if record.Image != job.SourceURL {
		log.Info("image changed since the job was queued", "current_image", record.Image)
		return MirrorSkipped, nil
	}

	img, err := uc.fetcher.FetchImage(ctx, job.SourceURL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			log.Warn("image cannot be mirrored", "error", err)
			return MirrorRejected, nil
		}
		return MirrorFailed, fmt.Errorf("usecase: download image of pokemon %d: %w", job.PokemonID, err)
	}
	defer img.Body.Close()

	key := fmt.Sprintf("pokemon/%d/%s", job.PokemonID, uuid.NewString())
	publicURL, err := uc.files.UploadFile(ctx, key, img.Body, img.ContentType)
	if err != nil {
		return MirrorFailed, fmt.Errorf("usecase: upload image of pokemon %d: %w", job.PokemonID, err)
	}

	if err := uc.storage.UpdatePokemonImage(ctx, job.PokemonID, job.SourceURL, publicURL); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("pokemon changed while its image was mirrored", "object_key", key)
			if err := uc.files.DeleteFile(ctx, key); err != nil {
				log.Warn("failed to remove orphaned object", "object_key", key, "error", err)
			}
			return MirrorSkipped, nil
		}
		return MirrorFailed, fmt.Errorf("usecase: save mirrored image of pokemon %d: %w", job.PokemonID, err)
	}

	log.Info("image mirrored",
		"object_key", key,
		"image", publicURL,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return MirrorMirrored, nil
}
