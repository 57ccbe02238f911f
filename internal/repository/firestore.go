package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/catefolio/backend/internal/domain"
)

const (
	tenantsCollection      = "tenants"
	jobsCollection         = "jobs"
	transactionsCollection = "transactions"
	categoriesCollection   = "categories"
	entitiesCollection     = "entities"
)

// Firestore is a Store backed by Cloud Firestore. Jobs live under
// tenants/{tenant}/jobs/{id}, each with a transactions subcollection ordered
// by an _index field; the category set lives at categories/{tenant} with
// categories/default as the shared fallback.
type Firestore struct {
	client *firestore.Client
	log    zerolog.Logger
}

// NewFirestore creates a Firestore-backed store for the given project.
func NewFirestore(ctx context.Context, projectID string, log zerolog.Logger) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewFirestore: creating client: %w", err)
	}
	return &Firestore{client: client, log: log.With().Str("component", "firestore").Logger()}, nil
}

// Close releases the underlying client.
func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) jobs(tenant string) *firestore.CollectionRef {
	return f.client.Collection(tenantsCollection).Doc(tenant).Collection(jobsCollection)
}

func (f *Firestore) SaveJob(ctx context.Context, tenant string, job *domain.JobPayload) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	jobRef := f.jobs(tenant).Doc(job.JobID)
	if _, err := jobRef.Set(ctx, job); err != nil {
		return fmt.Errorf("SaveJob %s: writing job: %w", job.JobID, err)
	}

	bw := f.client.BulkWriter(ctx)
	for i, t := range job.Transactions {
		doc := map[string]interface{}{
			"_index":      i,
			"transaction": t,
		}
		if _, err := bw.Set(jobRef.Collection(transactionsCollection).Doc(fmt.Sprintf("%06d", i)), doc); err != nil {
			return fmt.Errorf("SaveJob %s: queueing transaction %d: %w", job.JobID, i, err)
		}
	}
	bw.End()

	f.log.Debug().Str("job_id", job.JobID).Int("transactions", len(job.Transactions)).Msg("job saved")
	return nil
}

func (f *Firestore) LoadJob(ctx context.Context, tenant, jobID string) (*domain.JobPayload, error) {
	snap, err := f.jobs(tenant).Doc(jobID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("LoadJob %s: %w", jobID, ErrNotFound)
		}
		return nil, fmt.Errorf("LoadJob %s: %w", jobID, err)
	}

	var job domain.JobPayload
	if err := snap.DataTo(&job); err != nil {
		return nil, fmt.Errorf("LoadJob %s: decoding job: %w", jobID, err)
	}
	job.JobID = jobID

	job.Transactions, err = f.loadTransactions(ctx, tenant, jobID)
	if err != nil {
		return nil, fmt.Errorf("LoadJob %s: %w", jobID, err)
	}
	return &job, nil
}

func (f *Firestore) loadTransactions(ctx context.Context, tenant, jobID string) ([]domain.Transaction, error) {
	iter := f.jobs(tenant).Doc(jobID).Collection(transactionsCollection).OrderBy("_index", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []domain.Transaction
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading transactions: %w", err)
		}
		var doc struct {
			Transaction domain.Transaction `firestore:"transaction"`
		}
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding transaction %s: %w", snap.Ref.ID, err)
		}
		out = append(out, doc.Transaction)
	}
	return out, nil
}

func (f *Firestore) ListJobs(ctx context.Context, tenant string) ([]domain.JobMeta, error) {
	iter := f.jobs(tenant).OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var out []domain.JobMeta
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListJobs: %w", err)
		}
		var meta domain.JobMeta
		if err := snap.DataTo(&meta); err != nil {
			return nil, fmt.Errorf("ListJobs: decoding %s: %w", snap.Ref.ID, err)
		}
		meta.JobID = snap.Ref.ID
		out = append(out, meta)
	}
	return out, nil
}

func (f *Firestore) FindJobBySignature(ctx context.Context, tenant, signature string) (string, error) {
	if signature == "" {
		return "", fmt.Errorf("FindJobBySignature: %w", ErrNotFound)
	}

	iter := f.jobs(tenant).Where("content_signature", "==", signature).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return "", fmt.Errorf("FindJobBySignature: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("FindJobBySignature: %w", err)
	}
	return snap.Ref.ID, nil
}

func (f *Firestore) DeleteJob(ctx context.Context, tenant, jobID string) error {
	jobRef := f.jobs(tenant).Doc(jobID)
	if _, err := jobRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("DeleteJob %s: %w", jobID, ErrNotFound)
		}
		return fmt.Errorf("DeleteJob %s: %w", jobID, err)
	}

	if err := f.deleteJobTree(ctx, jobRef); err != nil {
		return fmt.Errorf("DeleteJob %s: %w", jobID, err)
	}
	return nil
}

func (f *Firestore) deleteJobTree(ctx context.Context, jobRef *firestore.DocumentRef) error {
	iter := jobRef.Collection(transactionsCollection).Documents(ctx)
	defer iter.Stop()

	bw := f.client.BulkWriter(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("listing transactions: %w", err)
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			return fmt.Errorf("queueing transaction delete: %w", err)
		}
	}
	if _, err := bw.Delete(jobRef); err != nil {
		return fmt.Errorf("queueing job delete: %w", err)
	}
	bw.End()
	return nil
}

func (f *Firestore) DeleteAllJobs(ctx context.Context, tenant string) (int, error) {
	iter := f.jobs(tenant).Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("DeleteAllJobs: %w", err)
		}
		refs = append(refs, snap.Ref)
	}

	for _, ref := range refs {
		if err := f.deleteJobTree(ctx, ref); err != nil {
			return 0, fmt.Errorf("DeleteAllJobs: %w", err)
		}
	}
	return len(refs), nil
}

func (f *Firestore) ListAllTransactions(ctx context.Context, tenant string) ([]domain.Transaction, error) {
	metas, err := f.ListJobs(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("ListAllTransactions: %w", err)
	}

	// ListJobs is newest first; walk oldest first so rows keep upload order.
	var out []domain.Transaction
	for i := len(metas) - 1; i >= 0; i-- {
		transactions, err := f.loadTransactions(ctx, tenant, metas[i].JobID)
		if err != nil {
			return nil, fmt.Errorf("ListAllTransactions: job %s: %w", metas[i].JobID, err)
		}
		out = append(out, transactions...)
	}
	return out, nil
}

// categoriesDoc is the stored shape of a tenant's category set.
type categoriesDoc struct {
	Categories []domain.Category `firestore:"categories"`
}

func (f *Firestore) GetCategories(ctx context.Context, tenant string) ([]domain.Category, error) {
	for _, key := range []string{tenant, DefaultTenant} {
		snap, err := f.client.Collection(categoriesCollection).Doc(key).Get(ctx)
		if status.Code(err) == codes.NotFound {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("GetCategories: %w", err)
		}
		var doc categoriesDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("GetCategories: decoding %s: %w", key, err)
		}
		return doc.Categories, nil
	}
	return nil, nil
}

func (f *Firestore) SaveCategories(ctx context.Context, tenant string, categories []domain.Category) error {
	_, err := f.client.Collection(categoriesCollection).Doc(tenant).Set(ctx, categoriesDoc{Categories: categories})
	if err != nil {
		return fmt.Errorf("SaveCategories: %w", err)
	}
	return nil
}

func (f *Firestore) ListEntities(ctx context.Context, tenant string) ([]domain.Entity, error) {
	iter := f.client.Collection(tenantsCollection).Doc(tenant).Collection(entitiesCollection).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []domain.Entity
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListEntities: %w", err)
		}
		var entity domain.Entity
		if err := snap.DataTo(&entity); err != nil {
			return nil, fmt.Errorf("ListEntities: decoding %s: %w", snap.Ref.ID, err)
		}
		entity.ID = snap.Ref.ID
		out = append(out, entity)
	}
	return out, nil
}

func (f *Firestore) SaveEntity(ctx context.Context, tenant string, entity *domain.Entity) error {
	col := f.client.Collection(tenantsCollection).Doc(tenant).Collection(entitiesCollection)

	ref := col.NewDoc()
	if entity.ID != "" {
		ref = col.Doc(entity.ID)
	}
	if _, err := ref.Set(ctx, entity); err != nil {
		return fmt.Errorf("SaveEntity: %w", err)
	}
	entity.ID = ref.ID
	return nil
}

var _ Store = (*Firestore)(nil)
