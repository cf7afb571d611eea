package ports

import (
	"context"
	"strings"
	"time"

	"NordicDataFlow/internal/domain"
)

// ObjectInfo is what an object store knows about a stored blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Kind returns the dataset-kind tag. Metadata keys match case-insensitively.
func (o ObjectInfo) Kind() (domain.DatasetKind, bool) {
	for key, value := range o.Metadata {
		if strings.EqualFold(key, domain.MetaDatasetKind) {
			return domain.ParseDatasetKind(value)
		}
	}
	return "", false
}

// ObjectStore persists blobs in the bronze, silver and gold tiers.
type ObjectStore interface {
	Put(ctx context.Context, tier domain.Tier, key string, body []byte, contentType string, meta map[string]string) error
	Get(ctx context.Context, tier domain.Tier, key string) ([]byte, error)
	Stat(ctx context.Context, tier domain.Tier, key string) (ObjectInfo, error)
	// List returns every key under prefix; an empty prefix lists the whole tier.
	List(ctx context.Context, tier domain.Tier, prefix string) ([]string, error)
}

// BucketEnsurer is implemented by stores that can create their buckets.
type BucketEnsurer interface {
	EnsureBuckets(ctx context.Context) error
}

// Warehouse is the relational gold store.
type Warehouse interface {
	EnsureSchema(ctx context.Context) error
	UpsertCompanies(ctx context.Context, rows []domain.CompanyRow) (int, error)
	InsertElectricity(ctx context.Context, rows []domain.ElectricityRow) (int, error)
	UpsertCategories(ctx context.Context, rows []domain.CategoryRow) (int, error)
	RecordRun(ctx context.Context, run domain.PipelineRun) error
	Stats(ctx context.Context) (domain.Stats, error)
	Companies(ctx context.Context) ([]domain.Company, error)
	Electricity(ctx context.Context) ([]domain.ElectricityFact, error)
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
