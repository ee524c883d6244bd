package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/user/tariffs-service/internal/entity"
)

// RawSnapshotRepoImpl provides a concrete implementation for the RawSnapshotRepository interface using PostgreSQL.
type RawSnapshotRepoImpl struct {
	db DB
}

// NewRawSnapshotRepo creates a new instance of RawSnapshotRepoImpl.
func NewRawSnapshotRepo(db DB) *RawSnapshotRepoImpl {
	return &RawSnapshotRepoImpl{db: db}
}

// Create inserts the snapshot. ID is generated when empty and CreatedAt is
// taken from the database clock.
func (r *RawSnapshotRepoImpl) Create(ctx context.Context, s *entity.RawSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query := `
		INSERT INTO tariffs_box_raw (id, json_payload, raw_text, json_file_path, text_file_path, source_url, status_code, payload_hash)
		VALUES ($1, $2::jsonb, $3, $4, $5, $6, $7, $8)
		RETURNING created_at;
	`
	return r.db.QueryRow(ctx, query,
		s.ID,
		s.JSONPayload,
		s.TextPayload,
		s.JSONPath,
		s.TextPath,
		s.SourceURL,
		s.StatusCode,
		s.PayloadHash,
	).Scan(&s.CreatedAt)
}

// DeleteCreatedBefore removes snapshots older than cutoff; their normalized
// rows are removed by ON DELETE CASCADE.
func (r *RawSnapshotRepoImpl) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tariffs_box_raw WHERE created_at < $1;`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
