package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/infrastructure/columnar"
	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/ports"
)

// Gold snapshot entities.
const (
	GoldCompanies   = "companies"
	GoldElectricity = "electricity_production"
)

// ExporterDeps wires the exporter.
type ExporterDeps struct {
	Store     ports.ObjectStore
	Warehouse ports.Warehouse
	Now       func() time.Time
	Logger    *slog.Logger
}

// Exporter snapshots gold tables into the gold tier as Parquet.
type Exporter struct {
	store     ports.ObjectStore
	warehouse ports.Warehouse
	now       func() time.Time
	logger    *slog.Logger
}

// NewExporter constructs the snapshot writer.
func NewExporter(deps ExporterDeps) *Exporter {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Exporter{store: deps.Store, warehouse: deps.Warehouse, now: now, logger: logger}
}

// Export writes one snapshot per entity and returns entity → gold path.
func (e *Exporter) Export(ctx context.Context) (map[string]string, error) {
	at := e.now().UTC()
	paths := map[string]string{}

	companies, err := e.warehouse.Companies(ctx)
	if err != nil {
		return paths, fmt.Errorf("read companies: %w", err)
	}
	if err := exportSnapshot(ctx, e, GoldCompanies, domain.KindCompanies, companies, at, paths); err != nil {
		return paths, err
	}

	facts, err := e.warehouse.Electricity(ctx)
	if err != nil {
		return paths, fmt.Errorf("read electricity: %w", err)
	}
	if err := exportSnapshot(ctx, e, GoldElectricity, domain.KindElectricity, facts, at, paths); err != nil {
		return paths, err
	}

	return paths, nil
}

func exportSnapshot[T any](ctx context.Context, e *Exporter, entity string, kind domain.DatasetKind, rows []T, at time.Time, paths map[string]string) error {
	body, err := columnar.Encode(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", entity, err)
	}

	key := domain.GoldPath(entity, "parquet", at)
	meta := map[string]string{domain.MetaDatasetKind: string(kind)}
	if err := e.store.Put(ctx, domain.TierGold, key, body, columnar.ContentType, meta); err != nil {
		return fmt.Errorf("write gold %s: %w", entity, err)
	}

	paths[entity] = key
	e.logger.Info("exported snapshot", "entity", entity, "key", key, "rows", len(rows))
	return nil
}
