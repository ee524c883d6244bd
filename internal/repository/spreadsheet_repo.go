package repository

import "context"

// SpreadsheetRepository lists the spreadsheets the pipeline publishes to.
type SpreadsheetRepository interface {
	GetAllIDs(ctx context.Context) ([]string, error)
	// EnsureIDs inserts the ids that are not stored yet.
	EnsureIDs(ctx context.Context, ids []string) error
}
