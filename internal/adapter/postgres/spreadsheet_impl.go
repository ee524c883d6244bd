package postgres

import "context"

type SpreadsheetRepoImpl struct {
	db DB
}

func NewSpreadsheetRepo(db DB) *SpreadsheetRepoImpl {
	return &SpreadsheetRepoImpl{db: db}
}

// GetAllIDs returns every stored spreadsheet id in insertion order.
func (r *SpreadsheetRepoImpl) GetAllIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT spreadsheet_id FROM spreadsheets ORDER BY created_at, spreadsheet_id;`)
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

// EnsureIDs inserts the ids that are not stored yet.
func (r *SpreadsheetRepoImpl) EnsureIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO spreadsheets (spreadsheet_id)
		SELECT unnest($1::text[])
		ON CONFLICT (spreadsheet_id) DO NOTHING;
	`, ids)
	return err
}
