package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/user/tariffs-service/internal/entity"
)

type RawSnapshotRepoImpl struct {
	store *Store
}

func NewRawSnapshotRepo(store *Store) *RawSnapshotRepoImpl {
	return &RawSnapshotRepoImpl{store: store}
}

func (r *RawSnapshotRepoImpl) Create(ctx context.Context, s *entity.RawSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	created := r.store.now()

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO tariffs_box_raw (id, json_payload, raw_text, json_file_path, text_file_path, source_url, status_code, payload_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.JSONPayload,
		s.TextPayload,
		s.JSONPath,
		s.TextPath,
		s.SourceURL,
		s.StatusCode,
		s.PayloadHash,
		toMillis(created),
	)
	if err != nil {
		return err
	}
	s.CreatedAt = fromMillis(toMillis(created))
	return nil
}

func (r *RawSnapshotRepoImpl) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM tariffs_box_raw WHERE created_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
