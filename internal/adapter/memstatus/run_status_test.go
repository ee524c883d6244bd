package memstatus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/tariffs-service/internal/entity"
	"github.com/user/tariffs-service/internal/repository"
)

func TestRunStatusRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewRunStatusRepo(2)

	_, err := repo.GetLastRun(ctx)
	assert.ErrorIs(t, err, repository.ErrRunStatusNotFound)

	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, repo.SaveLastRun(ctx, &entity.RunStatus{Status: s}))
	}
	last, err := repo.GetLastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", last.Status)

	runs, err := repo.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].Status)
	assert.Equal(t, "b", runs[1].Status)
}

func TestRecordPayloadHashExpires(t *testing.T) {
	ctx := context.Background()
	repo := NewRunStatusRepo(0)
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	seen, err := repo.RecordPayloadHash(ctx, "h", time.Hour)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, _ = repo.RecordPayloadHash(ctx, "h", time.Hour)
	assert.True(t, seen)

	now = now.Add(time.Hour)
	seen, _ = repo.RecordPayloadHash(ctx, "h", time.Hour)
	assert.False(t, seen)
}
