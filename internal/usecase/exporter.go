package usecase

import (
	"context"

	"github.com/user/tariffs-service/internal/entity"
	"github.com/user/tariffs-service/internal/repository"
)

// Header is the first row of every exported sheet.
var Header = []string{
	"dtNextBox",
	"dtTillMax",
	"geoName",
	"warehouseName",
	"boxDeliveryBase",
	"boxDeliveryCoefExpr",
	"boxDeliveryLiter",
	"boxDeliveryMarketplaceBase",
	"boxDeliveryMarketplaceCoefExpr",
	"boxDeliveryMarketplaceLiter",
	"boxStorageBase",
	"boxStorageCoefExpr",
	"boxStorageLiter",
	"rawId",
	"recordId",
}

// Exporter publishes normalized records to one spreadsheet.
type Exporter interface {
	// ExportRows writes records to spreadsheetID and returns the number of
	// data rows written. Nothing is written when records is empty.
	ExportRows(ctx context.Context, records []entity.TariffsBoxRecord, spreadsheetID string) (int, error)
}

type sheetExporter struct {
	writer    repository.SheetWriter
	cellRange string
}

// NewExporter creates an Exporter that overwrites cellRange of each target.
func NewExporter(writer repository.SheetWriter, cellRange string) Exporter {
	return &sheetExporter{writer: writer, cellRange: cellRange}
}

func (e *sheetExporter) ExportRows(ctx context.Context, records []entity.TariffsBoxRecord, spreadsheetID string) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := e.writer.UpdateValues(ctx, spreadsheetID, e.cellRange, BuildGrid(records)); err != nil {
		return 0, err
	}
	return len(records), nil
}

// BuildGrid lays records out under Header. Nil fields become empty cells.
func BuildGrid(records []entity.TariffsBoxRecord) [][]any {
	grid := make([][]any, 0, len(records)+1)

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	grid = append(grid, header)

	for _, r := range records {
		grid = append(grid, []any{
			cell(r.DtNextBox),
			cell(r.DtTillMax),
			cell(r.GeoName),
			cell(r.WarehouseName),
			cell(r.BoxDeliveryBase),
			cell(r.BoxDeliveryCoefExpr),
			cell(r.BoxDeliveryLiter),
			cell(r.BoxDeliveryMarketplaceBase),
			cell(r.BoxDeliveryMarketplaceCoefExpr),
			cell(r.BoxDeliveryMarketplaceLiter),
			cell(r.BoxStorageBase),
			cell(r.BoxStorageCoefExpr),
			cell(r.BoxStorageLiter),
			r.RawID,
			r.ID,
		})
	}
	return grid
}

func cell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
