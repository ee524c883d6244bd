package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/user/tariffs-service/internal/entity"
)

const tariffsBoxColumns = `id::text, raw_id::text, dt_next_box, dt_till_max, geo_name, warehouse_name,
	box_delivery_base, box_delivery_coef_expr, box_delivery_liter,
	box_delivery_marketplace_base, box_delivery_marketplace_coef_expr, box_delivery_marketplace_liter,
	box_storage_base, box_storage_coef_expr, box_storage_liter, meta, updated_at`

const insertTariffsBox = `
	INSERT INTO tariffs_box (id, raw_id, dt_next_box, dt_till_max, geo_name, warehouse_name,
		box_delivery_base, box_delivery_coef_expr, box_delivery_liter,
		box_delivery_marketplace_base, box_delivery_marketplace_coef_expr, box_delivery_marketplace_liter,
		box_storage_base, box_storage_coef_expr, box_storage_liter, meta, parsed_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now());
`

// TariffsBoxRepoImpl provides a concrete implementation for the TariffsBoxRepository interface using PostgreSQL.
type TariffsBoxRepoImpl struct {
	db DB
}

// NewTariffsBoxRepo creates a new instance of TariffsBoxRepoImpl.
func NewTariffsBoxRepo(db DB) *TariffsBoxRepoImpl {
	return &TariffsBoxRepoImpl{db: db}
}

// ReplaceForRawID swaps the record set of rawID within a single transaction.
// now() is fixed per transaction, so every inserted row shares updated_at.
func (r *TariffsBoxRepoImpl) ReplaceForRawID(ctx context.Context, rawID string, records []entity.TariffsBoxRecord) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tariffs_box WHERE raw_id = $1;`, rawID); err != nil {
		return 0, err
	}

	if len(records) > 0 {
		batch := &pgx.Batch{}
		for _, rec := range records {
			meta, err := json.Marshal(rec.Meta)
			if err != nil {
				return 0, fmt.Errorf("encode meta of record %s: %w", rec.ID, err)
			}
			batch.Queue(insertTariffsBox,
				rec.ID,
				rawID,
				rec.DtNextBox,
				rec.DtTillMax,
				rec.GeoName,
				rec.WarehouseName,
				rec.BoxDeliveryBase,
				rec.BoxDeliveryCoefExpr,
				rec.BoxDeliveryLiter,
				rec.BoxDeliveryMarketplaceBase,
				rec.BoxDeliveryMarketplaceCoefExpr,
				rec.BoxDeliveryMarketplaceLiter,
				rec.BoxStorageBase,
				rec.BoxStorageCoefExpr,
				rec.BoxStorageLiter,
				string(meta),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ListByRawID returns the records of rawID in payload order.
func (r *TariffsBoxRepoImpl) ListByRawID(ctx context.Context, rawID string) ([]entity.TariffsBoxRecord, error) {
	query := `SELECT ` + tariffsBoxColumns + `
		FROM tariffs_box
		WHERE raw_id = $1
		ORDER BY (meta->>'index')::int, id;`
	rows, err := r.db.Query(ctx, query, rawID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []entity.TariffsBoxRecord{}
	for rows.Next() {
		var rec entity.TariffsBoxRecord
		var metaJSON []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.RawID,
			&rec.DtNextBox,
			&rec.DtTillMax,
			&rec.GeoName,
			&rec.WarehouseName,
			&rec.BoxDeliveryBase,
			&rec.BoxDeliveryCoefExpr,
			&rec.BoxDeliveryLiter,
			&rec.BoxDeliveryMarketplaceBase,
			&rec.BoxDeliveryMarketplaceCoefExpr,
			&rec.BoxDeliveryMarketplaceLiter,
			&rec.BoxStorageBase,
			&rec.BoxStorageCoefExpr,
			&rec.BoxStorageLiter,
			&metaJSON,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &rec.Meta); err != nil {
			return nil, fmt.Errorf("decode meta of record %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *TariffsBoxRepoImpl) LatestRawIDBetween(ctx context.Context, from, to time.Time) (string, bool, error) {
	var rawID string
	err := r.db.QueryRow(ctx, `
		SELECT raw_id::text
		FROM tariffs_box
		WHERE updated_at >= $1 AND updated_at < $2
		ORDER BY updated_at DESC
		LIMIT 1;
	`, from, to).Scan(&rawID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rawID, true, nil
}

func (r *TariffsBoxRepoImpl) DeleteBetweenExcept(ctx context.Context, from, to time.Time, keepRawID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM tariffs_box
		WHERE updated_at >= $1 AND updated_at < $2 AND raw_id <> $3;
	`, from, to, keepRawID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *TariffsBoxRepoImpl) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tariffs_box WHERE updated_at < $1;`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
