package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/tariffs-service/internal/entity"
)

var ErrRunStatusNotFound = errors.New("no pipeline run recorded")

// RunStatusRepository keeps the outcome of the latest pipeline run and an
// audit trail of payload hashes.
type RunStatusRepository interface {
	SaveLastRun(ctx context.Context, status *entity.RunStatus) error
	// GetLastRun returns ErrRunStatusNotFound when nothing was saved yet.
	GetLastRun(ctx context.Context) (*entity.RunStatus, error)
	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]entity.RunStatus, error)
	// RecordPayloadHash remembers hash for ttl and reports whether it was
	// already known.
	RecordPayloadHash(ctx context.Context, hash string, ttl time.Duration) (bool, error)
	Ping(ctx context.Context) error
}
