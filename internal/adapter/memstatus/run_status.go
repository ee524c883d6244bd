// Package memstatus keeps run status in process memory. It is used when no
// Redis address is configured.
package memstatus

import (
	"context"
	"sync"
	"time"

	"github.com/user/tariffs-service/internal/entity"
	"github.com/user/tariffs-service/internal/repository"
)

type RunStatusRepo struct {
	mu          sync.Mutex
	last        *entity.RunStatus
	history     []entity.RunStatus
	historySize int
	hashes      map[string]time.Time
	now         func() time.Time
}

func NewRunStatusRepo(historySize int) *RunStatusRepo {
	if historySize <= 0 {
		historySize = 50
	}
	return &RunStatusRepo{
		historySize: historySize,
		hashes:      make(map[string]time.Time),
		now:         time.Now,
	}
}

func (r *RunStatusRepo) SaveLastRun(_ context.Context, status *entity.RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *status
	r.last = &cp
	r.history = append([]entity.RunStatus{cp}, r.history...)
	if len(r.history) > r.historySize {
		r.history = r.history[:r.historySize]
	}
	return nil
}

func (r *RunStatusRepo) GetLastRun(_ context.Context) (*entity.RunStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil, repository.ErrRunStatusNotFound
	}
	cp := *r.last
	return &cp, nil
}

func (r *RunStatusRepo) RecentRuns(_ context.Context, limit int) ([]entity.RunStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit < 0 {
		limit = 0
	}
	if limit > len(r.history) {
		limit = len(r.history)
	}
	out := make([]entity.RunStatus, limit)
	copy(out, r.history[:limit])
	return out, nil
}

func (r *RunStatusRepo) RecordPayloadHash(_ context.Context, hash string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for h, exp := range r.hashes {
		if !now.Before(exp) {
			delete(r.hashes, h)
		}
	}
	if _, ok := r.hashes[hash]; ok {
		return true, nil
	}
	r.hashes[hash] = now.Add(ttl)
	return false, nil
}

func (r *RunStatusRepo) Ping(context.Context) error { return nil }
