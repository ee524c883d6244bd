package repository

import (
	"context"
	"time"

	"github.com/user/tariffs-service/internal/entity"
)

// RawArchive writes fetched payloads to durable storage.
type RawArchive interface {
	// Persist writes the pretty-printed payload and the raw text side by side.
	Persist(ctx context.Context, payload any, rawText string) (*entity.ArchivedPayload, error)
	// PurgeModifiedBefore deletes archive files last modified strictly before
	// cutoff. A missing archive directory is not an error.
	PurgeModifiedBefore(ctx context.Context, cutoff time.Time) (int, error)
}
