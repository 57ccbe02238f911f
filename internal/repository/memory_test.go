package repository

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catefolio/backend/internal/domain"
)

func payload(id, signature string, createdAt time.Time, descriptions ...string) *domain.JobPayload {
	transactions := make([]domain.Transaction, 0, len(descriptions))
	for _, d := range descriptions {
		transactions = append(transactions, domain.Transaction{
			Date:        civil.Date{Year: 2024, Month: 1, Day: 5},
			Description: d,
			Amount:      -10,
		})
	}
	return &domain.JobPayload{
		JobID:            id,
		Status:           domain.JobStatusProcessed,
		CreatedAt:        createdAt,
		ContentSignature: signature,
		Transactions:     transactions,
		TransactionCount: len(transactions),
	}
}

func TestMemorySaveAndLoadJob(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)

	require.NoError(t, store.SaveJob(ctx, "alice", payload("j1", "sig1", time.Now(), "coffee")))

	got, err := store.LoadJob(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, "j1", got.JobID)
	require.Len(t, got.Transactions, 1)

	// mutation of the returned copy must not leak back into the store
	got.Transactions[0].Description = "changed"
	again, err := store.LoadJob(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, "coffee", again.Transactions[0].Description)
}

func TestMemoryTenantIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)

	require.NoError(t, store.SaveJob(ctx, "alice", payload("j1", "sig1", time.Now())))

	_, err := store.LoadJob(ctx, "bob", "j1")
	assert.ErrorIs(t, err, ErrNotFound)

	metas, err := store.ListJobs(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestMemoryListJobsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveJob(ctx, "alice", payload("old", "s1", base)))
	require.NoError(t, store.SaveJob(ctx, "alice", payload("new", "s2", base.Add(time.Hour))))

	metas, err := store.ListJobs(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "new", metas[0].JobID)
	assert.Equal(t, "old", metas[1].JobID)
}

func TestMemoryFindJobBySignature(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)

	require.NoError(t, store.SaveJob(ctx, "alice", payload("j1", "sig1", time.Now())))

	id, err := store.FindJobBySignature(ctx, "alice", "sig1")
	require.NoError(t, err)
	assert.Equal(t, "j1", id)

	_, err = store.FindJobBySignature(ctx, "alice", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindJobBySignature(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDeleteJob(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)

	require.NoError(t, store.SaveJob(ctx, "alice", payload("j1", "sig1", time.Now())))
	require.NoError(t, store.DeleteJob(ctx, "alice", "j1"))

	_, err := store.LoadJob(ctx, "alice", "j1")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteJob(ctx, "alice", "j1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDeleteAllJobs(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)

	require.NoError(t, store.SaveJob(ctx, "alice", payload("j1", "s1", time.Now())))
	require.NoError(t, store.SaveJob(ctx, "alice", payload("j2", "s2", time.Now())))
	require.NoError(t, store.SaveJob(ctx, "bob", payload("j3", "s3", time.Now())))

	n, err := store.DeleteAllJobs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	metas, err := store.ListJobs(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestMemoryListAllTransactions(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveJob(ctx, "alice", payload("second", "s2", base.Add(time.Hour), "later")))
	require.NoError(t, store.SaveJob(ctx, "alice", payload("first", "s1", base, "earlier")))

	transactions, err := store.ListAllTransactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "earlier", transactions[0].Description)
	assert.Equal(t, "later", transactions[1].Description)
}

func TestMemoryCategoriesFallback(t *testing.T) {
	ctx := context.Background()
	defaults := []domain.Category{{Name: "Food", Keywords: []string{"cafe"}}}
	store := NewMemory(defaults)

	got, err := store.GetCategories(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, defaults, got)

	custom := []domain.Category{{Name: "Travel", Keywords: []string{"airline"}}}
	require.NoError(t, store.SaveCategories(ctx, "alice", custom))

	got, err = store.GetCategories(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, custom, got)

	// other tenants still get the defaults
	got, err = store.GetCategories(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
}

func TestMemoryEntities(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)

	entity := &domain.Entity{Name: "Acme", Aliases: []string{"ACME Corp"}}
	require.NoError(t, store.SaveEntity(ctx, "alice", entity))
	assert.NotEmpty(t, entity.ID)

	entities, err := store.ListEntities(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Acme", entities[0].Name)

	entity.Description = "updated"
	require.NoError(t, store.SaveEntity(ctx, "alice", entity))

	entities, err = store.ListEntities(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "updated", entities[0].Description)
}
