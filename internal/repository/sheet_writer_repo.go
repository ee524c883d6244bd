package repository

import "context"

// SheetWriter overwrites a cell range of a spreadsheet with a grid of values.
type SheetWriter interface {
	UpdateValues(ctx context.Context, spreadsheetID, cellRange string, values [][]any) error
}
