package repository

import (
	"context"
	"time"

	"github.com/user/tariffs-service/internal/entity"
)

// TariffsBoxRepository stores normalized records, grouped by owning raw snapshot.
type TariffsBoxRepository interface {
	// ReplaceForRawID deletes every record of rawID and inserts records in one
	// transaction. It returns the number inserted.
	ReplaceForRawID(ctx context.Context, rawID string, records []entity.TariffsBoxRecord) (int, error)
	// ListByRawID returns the current records of rawID.
	ListByRawID(ctx context.Context, rawID string) ([]entity.TariffsBoxRecord, error)
	// LatestRawIDBetween returns the raw id of the most recently updated record
	// with from <= updated_at < to. ok is false when there is none.
	LatestRawIDBetween(ctx context.Context, from, to time.Time) (rawID string, ok bool, err error)
	// DeleteBetweenExcept deletes records with from <= updated_at < to whose
	// raw id differs from keepRawID.
	DeleteBetweenExcept(ctx context.Context, from, to time.Time, keepRawID string) (int64, error)
	// DeleteUpdatedBefore deletes records with updated_at < cutoff.
	DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
