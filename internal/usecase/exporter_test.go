package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/tariffs-service/internal/entity"
)

func strPtr(s string) *string { return &s }

func records(rawID string, names ...string) []entity.TariffsBoxRecord {
	out := make([]entity.TariffsBoxRecord, 0, len(names))
	for _, name := range names {
		rec := entity.TariffsBoxRecord{
			ID:        rawID + "/" + name,
			RawID:     rawID,
			DtNextBox: strPtr("2024-01-05"),
		}
		rec.WarehouseName = strPtr(name)
		out = append(out, rec)
	}
	return out
}

func TestBuildGrid(t *testing.T) {
	rec := entity.TariffsBoxRecord{ID: "rec-1", RawID: "raw-1", DtNextBox: strPtr("2024-01-05")}
	rec.GeoName = strPtr("Center")
	rec.BoxDeliveryBase = strPtr("123")
	rec.BoxStorageLiter = strPtr("0,1")

	grid := BuildGrid([]entity.TariffsBoxRecord{rec})
	require.Len(t, grid, 2)
	require.Len(t, grid[0], 15)
	assert.Equal(t, "dtNextBox", grid[0][0])
	assert.Equal(t, "recordId", grid[0][14])

	row := grid[1]
	require.Len(t, row, 15)
	assert.Equal(t, []any{
		"2024-01-05", "", "Center", "", "123", "", "", "", "", "", "", "", "0,1", "raw-1", "rec-1",
	}, row)
}

func TestExportRows(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input writes nothing", func(t *testing.T) {
		w := &recordingWriter{}
		n, err := NewExporter(w, "Tariffs!A1").ExportRows(ctx, nil, "sheet-a")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.Equal(t, 0, w.calls)
	})

	t.Run("header plus one row per record", func(t *testing.T) {
		w := &recordingWriter{}
		n, err := NewExporter(w, "Tariffs!A1").ExportRows(ctx, records("raw-1", "Koledino", "Tula"), "sheet-a")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 1, w.calls)
		assert.Equal(t, "sheet-a", w.id)
		assert.Equal(t, "Tariffs!A1", w.rng)
		assert.Len(t, w.grid, 3)
	})

	t.Run("writer error propagates", func(t *testing.T) {
		w := &recordingWriter{err: errors.New("quota exceeded")}
		n, err := NewExporter(w, "Tariffs!A1").ExportRows(ctx, records("raw-1", "Koledino"), "sheet-a")
		assert.EqualError(t, err, "quota exceeded")
		assert.Equal(t, 0, n)
	})
}

func seed(repo *memBoxRepo, at time.Time, rawID string) {
	repo.now = at
	_, _ = repo.ReplaceForRawID(context.Background(), rawID, records(rawID, "Koledino"))
}
