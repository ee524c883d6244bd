package repository

import (
	"context"
	"time"

	"github.com/user/tariffs-service/internal/entity"
)

// RawSnapshotRepository is the append-only system of record for fetched payloads.
type RawSnapshotRepository interface {
	// Create inserts the snapshot and fills in the server-assigned CreatedAt.
	Create(ctx context.Context, snapshot *entity.RawSnapshot) error
	// DeleteCreatedBefore removes snapshots created strictly before cutoff.
	// Normalized rows owned by them go with them through the foreign key.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
