package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/infrastructure/columnar"
	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/ports"
)

// Audit source names written to pipeline_runs.
const (
	AuditCompanies   = "prh_companies"
	AuditElectricity = "fingrid_electricity"
	AuditCategories  = "stat_finland_categories"
)

type loadFunc func(ctx context.Context, body []byte) (int, error)

type loader struct {
	auditName string
	load      loadFunc
}

// LoaderDeps wires the loader.
type LoaderDeps struct {
	Store     ports.ObjectStore
	Warehouse ports.Warehouse
	Logger    *slog.Logger
}

// Loader moves silver Parquet into the gold tables and audits every load.
type Loader struct {
	store     ports.ObjectStore
	warehouse ports.Warehouse
	logger    *slog.Logger
	loaders   map[domain.DatasetKind]loader
}

// NewLoader constructs the gold writer.
func NewLoader(deps LoaderDeps) *Loader {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	l := &Loader{store: deps.Store, warehouse: deps.Warehouse, logger: logger}
	l.loaders = map[domain.DatasetKind]loader{
		domain.KindCompanies:      {auditName: AuditCompanies, load: l.loadCompanies},
		domain.KindElectricity:    {auditName: AuditElectricity, load: l.loadElectricity},
		domain.KindStatCategories: {auditName: AuditCategories, load: l.loadCategories},
	}
	return l
}

// Load writes one silver blob of kind into the warehouse and appends a success
// audit row. On failure it tries to append an error audit row and returns the error.
func (l *Loader) Load(ctx context.Context, kind domain.DatasetKind, silverKey string) (int, error) {
	ld, ok := l.loaders[kind]
	if !ok {
		return 0, fmt.Errorf("no loader for dataset kind %q", kind)
	}

	n, err := l.load(ctx, ld, silverKey)
	if err != nil {
		audit := domain.PipelineRun{
			SourceName:   ld.auditName,
			Status:       domain.RunError,
			ErrorMessage: logging.RedactError(err),
		}
		if auditErr := l.warehouse.RecordRun(ctx, audit); auditErr != nil {
			l.logger.Warn("record failed run", "source", ld.auditName, "error", logging.RedactError(auditErr))
		}
		return 0, err
	}

	if err := l.warehouse.RecordRun(ctx, domain.PipelineRun{
		SourceName:       ld.auditName,
		RecordsProcessed: n,
		Status:           domain.RunSuccess,
	}); err != nil {
		return n, fmt.Errorf("record run: %w", err)
	}
	return n, nil
}

func (l *Loader) load(ctx context.Context, ld loader, silverKey string) (int, error) {
	body, err := l.store.Get(ctx, domain.TierSilver, silverKey)
	if err != nil {
		return 0, fmt.Errorf("read silver: %w", err)
	}
	n, err := ld.load(ctx, body)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", silverKey, err)
	}
	return n, nil
}

// LoadAll loads every tagged silver object. Untagged objects and kinds without
// a loader are skipped; the first load error stops the phase.
func (l *Loader) LoadAll(ctx context.Context) (map[domain.DatasetKind]*domain.LoadResult, error) {
	results := map[domain.DatasetKind]*domain.LoadResult{}

	keys, err := l.store.List(ctx, domain.TierSilver, "")
	if err != nil {
		return results, fmt.Errorf("list silver: %w", err)
	}

	for _, key := range keys {
		info, err := l.store.Stat(ctx, domain.TierSilver, key)
		if err != nil {
			return results, fmt.Errorf("stat silver %s: %w", key, err)
		}
		kind, ok := info.Kind()
		if !ok {
			l.logger.Debug("skip untagged silver object", "key", key)
			continue
		}
		if _, ok := l.loaders[kind]; !ok {
			l.logger.Debug("skip silver object without loader", "key", key, "kind", kind)
			continue
		}

		n, err := l.Load(ctx, kind, key)
		if err != nil {
			return results, err
		}

		res := results[kind]
		if res == nil {
			res = &domain.LoadResult{}
			results[kind] = res
		}
		res.Blobs = append(res.Blobs, key)
		res.Rows += n
		l.logger.Info("loaded", "key", key, "kind", kind, "rows", n)
	}

	return results, nil
}

func (l *Loader) loadCompanies(ctx context.Context, body []byte) (int, error) {
	rows, err := columnar.Decode[domain.CompanyRow](body)
	if err != nil {
		return 0, err
	}
	return l.warehouse.UpsertCompanies(ctx, rows)
}

func (l *Loader) loadElectricity(ctx context.Context, body []byte) (int, error) {
	rows, err := columnar.Decode[domain.ElectricityRow](body)
	if err != nil {
		return 0, err
	}
	return l.warehouse.InsertElectricity(ctx, rows)
}

func (l *Loader) loadCategories(ctx context.Context, body []byte) (int, error) {
	rows, err := columnar.Decode[domain.CategoryRow](body)
	if err != nil {
		return 0, err
	}
	return l.warehouse.UpsertCategories(ctx, rows)
}
