package sqlite

import "context"

type SpreadsheetRepoImpl struct {
	store *Store
}

func NewSpreadsheetRepo(store *Store) *SpreadsheetRepoImpl {
	return &SpreadsheetRepoImpl{store: store}
}

func (r *SpreadsheetRepoImpl) GetAllIDs(ctx context.Context) ([]string, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT spreadsheet_id FROM spreadsheets ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SpreadsheetRepoImpl) EnsureIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := toMillis(r.store.now())
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO spreadsheets (spreadsheet_id, created_at) VALUES (?, ?) ON CONFLICT (spreadsheet_id) DO NOTHING`,
			id, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
