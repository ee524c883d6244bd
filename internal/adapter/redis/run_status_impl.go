package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/tariffs-service/internal/entity"
	"github.com/user/tariffs-service/internal/repository"
)

const (
	lastRunKey        = "tariffs:runs:last"
	runHistoryKey     = "tariffs:runs:history"
	payloadHashPrefix = "tariffs:payload:"

	// DefaultHistorySize bounds the run history list.
	DefaultHistorySize = 50
)

// RunStatusRepoImpl provides a concrete implementation for the RunStatusRepository interface using Redis.
type RunStatusRepoImpl struct {
	client      *redis.Client
	historySize int64
}

// NewRunStatusRepo creates a new instance of RunStatusRepoImpl.
func NewRunStatusRepo(client *redis.Client, historySize int) *RunStatusRepoImpl {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &RunStatusRepoImpl{client: client, historySize: int64(historySize)}
}

// SaveLastRun stores status as the latest run and prepends it to the
// bounded history list.
func (r *RunStatusRepoImpl) SaveLastRun(ctx context.Context, status *entity.RunStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode run status: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lastRunKey, data, 0)
		pipe.LPush(ctx, runHistoryKey, data)
		pipe.LTrim(ctx, runHistoryKey, 0, r.historySize-1)
		return nil
	})
	return err
}

func (r *RunStatusRepoImpl) GetLastRun(ctx context.Context) (*entity.RunStatus, error) {
	data, err := r.client.Get(ctx, lastRunKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrRunStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	var status entity.RunStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decode run status: %w", err)
	}
	return &status, nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *RunStatusRepoImpl) RecentRuns(ctx context.Context, limit int) ([]entity.RunStatus, error) {
	if limit <= 0 {
		return []entity.RunStatus{}, nil
	}
	items, err := r.client.LRange(ctx, runHistoryKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	runs := make([]entity.RunStatus, 0, len(items))
	for _, item := range items {
		var status entity.RunStatus
		if err := json.Unmarshal([]byte(item), &status); err != nil {
			return nil, fmt.Errorf("decode run status: %w", err)
		}
		runs = append(runs, status)
	}
	return runs, nil
}

func payloadHashKey(hash string) string {
	return payloadHashPrefix + hash
}

// RecordPayloadHash marks hash as seen for ttl. It reports true when the hash
// was already recorded. SETNX keeps the first sighting's expiry.
func (r *RunStatusRepoImpl) RecordPayloadHash(ctx context.Context, hash string, ttl time.Duration) (bool, error) {
	created, err := r.client.SetNX(ctx, payloadHashKey(hash), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, err
	}
	return !created, nil
}

func (r *RunStatusRepoImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
