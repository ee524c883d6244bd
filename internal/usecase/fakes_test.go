package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/user/tariffs-service/internal/entity"
)

type fakeAPI struct {
	pingErr    error
	fetchErr   error
	resp       *entity.APIResponse
	fetchCalls int
}

func (f *fakeAPI) Ping(context.Context) error { return f.pingErr }

func (f *fakeAPI) FetchTariffs(context.Context) (*entity.APIResponse, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.resp, nil
}

type fakeArchive struct {
	err         error
	purgeErr    error
	purged      int
	purgeCutoff time.Time
	persisted   int
}

func (f *fakeArchive) Persist(_ context.Context, _ any, rawText string) (*entity.ArchivedPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.persisted++
	return &entity.ArchivedPayload{
		JSONPath:     "/raw/tariffs-box.json",
		TextPath:     "/raw/tariffs-box.txt",
		BytesWritten: len(rawText),
		PayloadHash:  "hash-1",
	}, nil
}

func (f *fakeArchive) PurgeModifiedBefore(_ context.Context, cutoff time.Time) (int, error) {
	f.purgeCutoff = cutoff
	return f.purged, f.purgeErr
}

type fakeRawRepo struct {
	err          error
	created      []*entity.RawSnapshot
	deleteErr    error
	deleted      int64
	deleteCutoff time.Time
}

func (f *fakeRawRepo) Create(_ context.Context, s *entity.RawSnapshot) error {
	if f.err != nil {
		return f.err
	}
	s.ID = "raw-1"
	s.CreatedAt = time.Now()
	f.created = append(f.created, s)
	return nil
}

func (f *fakeRawRepo) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.deleteCutoff = cutoff
	return f.deleted, f.deleteErr
}

// memBoxRepo keeps normalized records in memory with explicit timestamps.
type memBoxRepo struct {
	mu         sync.Mutex
	records    []entity.TariffsBoxRecord
	now        time.Time
	replaceErr error
}

func (m *memBoxRepo) ReplaceForRawID(_ context.Context, rawID string, records []entity.TariffsBoxRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return 0, m.replaceErr
	}
	kept := m.records[:0]
	for _, r := range m.records {
		if r.RawID != rawID {
			kept = append(kept, r)
		}
	}
	for _, r := range records {
		r.UpdatedAt = m.now
		kept = append(kept, r)
	}
	m.records = kept
	return len(records), nil
}

func (m *memBoxRepo) ListByRawID(_ context.Context, rawID string) ([]entity.TariffsBoxRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.TariffsBoxRecord{}
	for _, r := range m.records {
		if r.RawID == rawID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memBoxRepo) LatestRawIDBetween(_ context.Context, from, to time.Time) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var in []entity.TariffsBoxRecord
	for _, r := range m.records {
		if !r.UpdatedAt.Before(from) && r.UpdatedAt.Before(to) {
			in = append(in, r)
		}
	}
	if len(in) == 0 {
		return "", false, nil
	}
	sort.Slice(in, func(i, j int) bool { return in[i].UpdatedAt.After(in[j].UpdatedAt) })
	return in[0].RawID, true, nil
}

func (m *memBoxRepo) DeleteBetweenExcept(_ context.Context, from, to time.Time, keep string) (int64, error) {
	return m.deleteWhere(func(r entity.TariffsBoxRecord) bool {
		return !r.UpdatedAt.Before(from) && r.UpdatedAt.Before(to) && r.RawID != keep
	}), nil
}

func (m *memBoxRepo) DeleteUpdatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return m.deleteWhere(func(r entity.TariffsBoxRecord) bool { return r.UpdatedAt.Before(cutoff) }), nil
}

func (m *memBoxRepo) deleteWhere(match func(entity.TariffsBoxRecord) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	kept := m.records[:0]
	for _, r := range m.records {
		if match(r) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return n
}

func (m *memBoxRepo) rawIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, r := range m.records {
		ids = append(ids, r.RawID)
	}
	sort.Strings(ids)
	return ids
}

type fakeExporter struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
}

func (f *fakeExporter) ExportRows(_ context.Context, records []entity.TariffsBoxRecord, id string) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if err := f.fail[id]; err != nil {
		return 0, err
	}
	return len(records), nil
}

type recordingWriter struct {
	err   error
	calls int
	grid  [][]any
	id    string
	rng   string
}

func (w *recordingWriter) UpdateValues(_ context.Context, id, rng string, values [][]any) error {
	w.calls++
	w.id, w.rng, w.grid = id, rng, values
	return w.err
}

type failingTargets struct{}

func (failingTargets) ListTargets(context.Context) ([]string, error) {
	return nil, errors.New("relation \"spreadsheets\" does not exist")
}
