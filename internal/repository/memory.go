package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/catefolio/backend/internal/domain"
)

// DefaultTenant is the reserved tenant whose category set serves as the
// fallback for tenants that have not saved their own.
const DefaultTenant = "default"

// Memory is an in-memory implementation of Store. It is safe for concurrent
// use; data is lost on restart. It backs tests, the CLI and local mode.
type Memory struct {
	mu         sync.RWMutex
	jobs       map[string]map[string]*domain.JobPayload
	categories map[string][]domain.Category
	entities   map[string]map[string]*domain.Entity
}

// NewMemory creates an empty in-memory store seeded with the given default
// category set.
func NewMemory(defaults []domain.Category) *Memory {
	m := &Memory{
		jobs:       make(map[string]map[string]*domain.JobPayload),
		categories: make(map[string][]domain.Category),
		entities:   make(map[string]map[string]*domain.Entity),
	}
	if len(defaults) > 0 {
		m.categories[DefaultTenant] = copyCategories(defaults)
	}
	return m
}

func (m *Memory) SaveJob(_ context.Context, tenant string, job *domain.JobPayload) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.jobs[tenant] == nil {
		m.jobs[tenant] = make(map[string]*domain.JobPayload)
	}

	// Copy so callers cannot mutate stored state afterwards.
	stored := *job
	stored.Transactions = append([]domain.Transaction(nil), job.Transactions...)
	m.jobs[tenant][job.JobID] = &stored

	return nil
}

func (m *Memory) LoadJob(_ context.Context, tenant, jobID string) (*domain.JobPayload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[tenant][jobID]
	if !ok {
		return nil, fmt.Errorf("LoadJob %s: %w", jobID, ErrNotFound)
	}

	out := *job
	out.Transactions = append([]domain.Transaction(nil), job.Transactions...)
	return &out, nil
}

func (m *Memory) ListJobs(_ context.Context, tenant string) ([]domain.JobMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metas := make([]domain.JobMeta, 0, len(m.jobs[tenant]))
	for _, job := range m.jobs[tenant] {
		metas = append(metas, domain.JobMeta{
			JobID:             job.JobID,
			Status:            job.Status,
			Files:             append([]string(nil), job.Files...),
			CreatedAt:         job.CreatedAt,
			Categorized:       job.Categorized,
			ContentSignature:  job.ContentSignature,
			DuplicatesSkipped: job.DuplicatesSkipped,
			TransactionCount:  job.TransactionCount,
		})
	}
	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].CreatedAt.After(metas[j].CreatedAt)
		}
		return metas[i].JobID < metas[j].JobID
	})
	return metas, nil
}

func (m *Memory) FindJobBySignature(_ context.Context, tenant, signature string) (string, error) {
	if signature == "" {
		return "", fmt.Errorf("FindJobBySignature: %w", ErrNotFound)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, job := range m.jobs[tenant] {
		if job.ContentSignature == signature {
			return id, nil
		}
	}
	return "", fmt.Errorf("FindJobBySignature: %w", ErrNotFound)
}

func (m *Memory) DeleteJob(_ context.Context, tenant, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[tenant][jobID]; !ok {
		return fmt.Errorf("DeleteJob %s: %w", jobID, ErrNotFound)
	}
	delete(m.jobs[tenant], jobID)
	return nil
}

func (m *Memory) DeleteAllJobs(_ context.Context, tenant string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.jobs[tenant])
	delete(m.jobs, tenant)
	return n, nil
}

func (m *Memory) ListAllTransactions(_ context.Context, tenant string) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*domain.JobPayload, 0, len(m.jobs[tenant]))
	for _, job := range m.jobs[tenant] {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
		}
		return jobs[i].JobID < jobs[j].JobID
	})

	var out []domain.Transaction
	for _, job := range jobs {
		out = append(out, job.Transactions...)
	}
	return out, nil
}

func (m *Memory) GetCategories(_ context.Context, tenant string) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if categories, ok := m.categories[tenant]; ok {
		return copyCategories(categories), nil
	}
	if categories, ok := m.categories[DefaultTenant]; ok {
		return copyCategories(categories), nil
	}
	return nil, nil
}

func (m *Memory) SaveCategories(_ context.Context, tenant string, categories []domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.categories[tenant] = copyCategories(categories)
	return nil
}

func (m *Memory) ListEntities(_ context.Context, tenant string) ([]domain.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entities := make([]domain.Entity, 0, len(m.entities[tenant]))
	for _, entity := range m.entities[tenant] {
		e := *entity
		e.Aliases = append([]string(nil), entity.Aliases...)
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	return entities, nil
}

func (m *Memory) SaveEntity(_ context.Context, tenant string, entity *domain.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entity.ID == "" {
		entity.ID = uuid.New().String()
	}
	if m.entities[tenant] == nil {
		m.entities[tenant] = make(map[string]*domain.Entity)
	}

	stored := *entity
	stored.Aliases = append([]string(nil), entity.Aliases...)
	m.entities[tenant][entity.ID] = &stored
	return nil
}

func copyCategories(in []domain.Category) []domain.Category {
	out := make([]domain.Category, len(in))
	for i, c := range in {
		out[i] = domain.Category{
			Name:     c.Name,
			Keywords: append([]string(nil), c.Keywords...),
		}
	}
	return out
}

var _ Store = (*Memory)(nil)
