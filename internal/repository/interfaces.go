// Package repository defines tenant-scoped persistence for jobs, categories
// and entities, with Firestore and in-memory implementations.
package repository

import (
	"context"
	"errors"

	"github.com/catefolio/backend/internal/domain"
)

// ErrNotFound is returned when a requested document does not exist for the
// tenant.
var ErrNotFound = errors.New("repository: not found")

// Store defines the persistence operations the pipeline and API depend on.
// Every operation is scoped to a tenant; tenants never see each other's data.
type Store interface {
	// SaveJob persists a job and its transactions.
	SaveJob(ctx context.Context, tenant string, job *domain.JobPayload) error

	// LoadJob retrieves a job with its full transaction set.
	LoadJob(ctx context.Context, tenant, jobID string) (*domain.JobPayload, error)

	// ListJobs retrieves job metadata for the tenant, newest first.
	ListJobs(ctx context.Context, tenant string) ([]domain.JobMeta, error)

	// FindJobBySignature returns the ID of the tenant's job with the given
	// content signature, or ErrNotFound.
	FindJobBySignature(ctx context.Context, tenant, signature string) (string, error)

	// DeleteJob removes a job and its transactions.
	DeleteJob(ctx context.Context, tenant, jobID string) error

	// DeleteAllJobs removes every job the tenant owns and reports how many
	// were deleted.
	DeleteAllJobs(ctx context.Context, tenant string) (int, error)

	// ListAllTransactions returns every stored transaction across the
	// tenant's jobs, ordered by job creation then row order.
	ListAllTransactions(ctx context.Context, tenant string) ([]domain.Transaction, error)

	// GetCategories returns the tenant's category set, falling back to the
	// shared default set when the tenant has none.
	GetCategories(ctx context.Context, tenant string) ([]domain.Category, error)

	// SaveCategories replaces the tenant's category set.
	SaveCategories(ctx context.Context, tenant string, categories []domain.Category) error

	// ListEntities returns the tenant's entities.
	ListEntities(ctx context.Context, tenant string) ([]domain.Entity, error)

	// SaveEntity creates or updates an entity; a blank ID means create.
	SaveEntity(ctx context.Context, tenant string, entity *domain.Entity) error
}
