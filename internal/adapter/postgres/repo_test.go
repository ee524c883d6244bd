package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/tariffs-service/internal/entity"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestMigrate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS tariffs_box_raw")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRawSnapshotRepo_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewRawSnapshotRepo(mock)
	created := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	snap := &entity.RawSnapshot{
		JSONPayload: `{"response":null}`,
		TextPayload: `{"response":null}`,
		JSONPath:    "/data/raw/a.json",
		TextPath:    "/data/raw/a.txt",
		SourceURL:   "https://api.example.com/tariffs",
		StatusCode:  200,
		PayloadHash: "abc",
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tariffs_box_raw")).
		WithArgs(pgxmock.AnyArg(), snap.JSONPayload, snap.TextPayload, snap.JSONPath, snap.TextPath,
			snap.SourceURL, snap.StatusCode, snap.PayloadHash).
		WillReturnRows(mock.NewRows([]string{"created_at"}).AddRow(created))

	require.NoError(t, repo.Create(context.Background(), snap))
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, created, snap.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRawSnapshotRepo_DeleteCreatedBefore(t *testing.T) {
	mock := newMock(t)
	repo := NewRawSnapshotRepo(mock)
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tariffs_box_raw WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteCreatedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTariffsBoxRepo_ReplaceWithEmptySetClears(t *testing.T) {
	mock := newMock(t)
	repo := NewTariffsBoxRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tariffs_box WHERE raw_id = $1")).
		WithArgs("raw-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCommit()

	n, err := repo.ReplaceForRawID(context.Background(), "raw-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTariffsBoxRepo_ReplaceRollsBackOnDeleteError(t *testing.T) {
	mock := newMock(t)
	repo := NewTariffsBoxRepo(mock)
	boom := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tariffs_box WHERE raw_id = $1")).
		WithArgs("raw-1").
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := repo.ReplaceForRawID(context.Background(), "raw-1", []entity.TariffsBoxRecord{{ID: "r1"}})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTariffsBoxRepo_ReplaceBeginError(t *testing.T) {
	mock := newMock(t)
	repo := NewTariffsBoxRepo(mock)
	boom := errors.New("pool exhausted")

	mock.ExpectBegin().WillReturnError(boom)

	_, err := repo.ReplaceForRawID(context.Background(), "raw-1", nil)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTariffsBoxRepo_LatestRawIDBetween(t *testing.T) {
	mock := newMock(t)
	repo := NewTariffsBoxRepo(mock)
	from := time.Date(2024, 1, 4, 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY updated_at DESC")).
		WithArgs(from, to).
		WillReturnRows(mock.NewRows([]string{"raw_id"}).AddRow("raw-late"))

	id, ok, err := repo.LatestRawIDBetween(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "raw-late", id)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY updated_at DESC")).
		WithArgs(from, to).
		WillReturnRows(mock.NewRows([]string{"raw_id"}))

	_, ok, err = repo.LatestRawIDBetween(context.Background(), from, to)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTariffsBoxRepo_Deletes(t *testing.T) {
	mock := newMock(t)
	repo := NewTariffsBoxRepo(mock)
	from := time.Date(2024, 1, 4, 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 0, 1)

	mock.ExpectExec(regexp.QuoteMeta("raw_id <> $3")).
		WithArgs(from, to, "keep").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tariffs_box WHERE updated_at < $1")).
		WithArgs(from).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := repo.DeleteBetweenExcept(context.Background(), from, to, "keep")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.DeleteUpdatedBefore(context.Background(), from)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpreadsheetRepo(t *testing.T) {
	mock := newMock(t)
	repo := NewSpreadsheetRepo(mock)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (spreadsheet_id) DO NOTHING")).
		WithArgs([]string{"sheet-a", "sheet-b"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT spreadsheet_id FROM spreadsheets")).
		WillReturnRows(mock.NewRows([]string{"spreadsheet_id"}).AddRow("sheet-a").AddRow("sheet-b"))

	require.NoError(t, repo.EnsureIDs(context.Background(), []string{"sheet-a", "sheet-b"}))
	require.NoError(t, repo.EnsureIDs(context.Background(), nil))

	ids, err := repo.GetAllIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sheet-a", "sheet-b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
