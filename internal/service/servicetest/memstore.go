// Package servicetest provides an in-memory [service.JobStore] for tests.
//
// Rows are kept exactly as given, so tests can seed the corrupted list
// columns found in production data and watch how the service renders or
// repairs them.
package servicetest

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/jobhunt-api/internal/model"
	"github.com/yourusername/jobhunt-api/internal/repository"
)

// MemStore is a goroutine-safe in-memory job store.
type MemStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]model.JobRecord

	// Err, when set, is returned by every method.
	Err error
	// Writes counts successful UpdateListFields calls.
	Writes int
}

func NewMemStore() *MemStore {
	return &MemStore{jobs: make(map[uuid.UUID]model.JobRecord)}
}

// Seed stores r as-is, assigning an id if it has none, and returns the id.
func (m *MemStore) Seed(r model.JobRecord) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
		r.UpdatedAt = r.CreatedAt
	}
	m.jobs[r.ID] = r
	return r.ID
}

// Raw returns the stored record for id.
func (m *MemStore) Raw(id uuid.UUID) (model.JobRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.jobs[id]
	return r, ok
}

// byID orders rows the way ListBatch pages through them.
func (m *MemStore) byID() []model.JobRecord {
	out := make([]model.JobRecord, 0, len(m.jobs))
	for _, r := range m.jobs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

// byRecency matches the repository's List ordering:
// posted_at DESC NULLS LAST, created_at DESC. Ties fall back to id.
func (m *MemStore) byRecency() []model.JobRecord {
	out := m.byID()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.PostedAt == nil && b.PostedAt != nil:
			return false
		case a.PostedAt != nil && b.PostedAt == nil:
			return true
		case a.PostedAt != nil && !a.PostedAt.Equal(*b.PostedAt):
			return a.PostedAt.After(*b.PostedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

func (m *MemStore) List(_ context.Context, f repository.JobFilter) ([]model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var out []model.JobRecord
	for _, r := range m.byRecency() {
		if f.Search != "" &&
			!strings.Contains(strings.ToLower(r.Title), f.Search) &&
			!strings.Contains(strings.ToLower(r.Company), f.Search) {
			continue
		}
		if f.Source != "" && r.Source != f.Source {
			continue
		}
		remote := strings.Contains(strings.ToLower(r.Location), "remote")
		if (f.LocationType == "remote" && !remote) || (f.LocationType == "onsite" && remote) {
			continue
		}
		out = append(out, r)
	}

	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemStore) FindByID(_ context.Context, id uuid.UUID) (*model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemStore) Create(_ context.Context, j *model.JobRecord) (*model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r := *j
	r.ID = uuid.New()
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	m.jobs[r.ID] = r
	return &r, nil
}

func (m *MemStore) Update(_ context.Context, j *model.JobRecord) (*model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	old, ok := m.jobs[j.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r := *j
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	m.jobs[r.ID] = r
	return &r, nil
}

func (m *MemStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.jobs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *MemStore) ListBatch(_ context.Context, after uuid.UUID, limit int) ([]model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.JobRecord
	for _, r := range m.byID() {
		if bytes.Compare(r.ID[:], after[:]) <= 0 {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemStore) UpdateListFields(_ context.Context, id uuid.UUID, requirements, responsibilities, skills string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	r, ok := m.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Requirements = &requirements
	r.Responsibilities = &responsibilities
	r.Skills = &skills
	r.UpdatedAt = time.Now().UTC()
	m.jobs[id] = r
	m.Writes++
	return nil
}
