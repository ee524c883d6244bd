package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/user/tariffs-service/internal/entity"
)

type TariffsBoxRepoImpl struct {
	store *Store
}

func NewTariffsBoxRepo(store *Store) *TariffsBoxRepoImpl {
	return &TariffsBoxRepoImpl{store: store}
}

// ReplaceForRawID swaps the record set of rawID in one transaction. Every
// inserted row gets the same updated_at.
func (r *TariffsBoxRepoImpl) ReplaceForRawID(ctx context.Context, rawID string, records []entity.TariffsBoxRecord) (int, error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tariffs_box WHERE raw_id = ?`, rawID); err != nil {
		return 0, err
	}

	if len(records) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tariffs_box (id, raw_id, dt_next_box, dt_till_max, geo_name, warehouse_name,
				box_delivery_base, box_delivery_coef_expr, box_delivery_liter,
				box_delivery_marketplace_base, box_delivery_marketplace_coef_expr, box_delivery_marketplace_liter,
				box_storage_base, box_storage_coef_expr, box_storage_liter, meta, parsed_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()

		now := toMillis(r.store.now())
		for _, rec := range records {
			meta, err := json.Marshal(rec.Meta)
			if err != nil {
				return 0, fmt.Errorf("encode meta of record %s: %w", rec.ID, err)
			}
			if _, err := stmt.ExecContext(ctx,
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
				now,
				now,
			); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (r *TariffsBoxRepoImpl) ListByRawID(ctx context.Context, rawID string) ([]entity.TariffsBoxRecord, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, raw_id, dt_next_box, dt_till_max, geo_name, warehouse_name,
			box_delivery_base, box_delivery_coef_expr, box_delivery_liter,
			box_delivery_marketplace_base, box_delivery_marketplace_coef_expr, box_delivery_marketplace_liter,
			box_storage_base, box_storage_coef_expr, box_storage_liter, meta, updated_at
		FROM tariffs_box
		WHERE raw_id = ?
		ORDER BY json_extract(meta, '$.index'), id`, rawID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []entity.TariffsBoxRecord{}
	for rows.Next() {
		var (
			rec       entity.TariffsBoxRecord
			metaJSON  string
			updatedMS int64
		)
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
			&updatedMS,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metaJSON), &rec.Meta); err != nil {
			return nil, fmt.Errorf("decode meta of record %s: %w", rec.ID, err)
		}
		rec.UpdatedAt = fromMillis(updatedMS)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *TariffsBoxRepoImpl) LatestRawIDBetween(ctx context.Context, from, to time.Time) (string, bool, error) {
	var rawID string
	err := r.store.db.QueryRowContext(ctx, `
		SELECT raw_id
		FROM tariffs_box
		WHERE updated_at >= ? AND updated_at < ?
		ORDER BY updated_at DESC
		LIMIT 1`, toMillis(from), toMillis(to)).Scan(&rawID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rawID, true, nil
}

func (r *TariffsBoxRepoImpl) DeleteBetweenExcept(ctx context.Context, from, to time.Time, keepRawID string) (int64, error) {
	res, err := r.store.db.ExecContext(ctx, `
		DELETE FROM tariffs_box
		WHERE updated_at >= ? AND updated_at < ? AND raw_id <> ?`,
		toMillis(from), toMillis(to), keepRawID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TariffsBoxRepoImpl) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM tariffs_box WHERE updated_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
