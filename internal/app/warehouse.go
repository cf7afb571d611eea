package app

import (
	"context"
	"database/sql"
	"sync"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/infrastructure/storage"
	"NordicDataFlow/internal/ports"
)

// lazyWarehouse dials the database on first use. A failed dial is retried on
// the next call.
type lazyWarehouse struct {
	dialect storage.Dialect
	cfg     storage.OpenConfig

	mu sync.Mutex
	db *sql.DB
	wh *storage.SQLWarehouse
}

var _ ports.Warehouse = (*lazyWarehouse)(nil)

func newLazyWarehouse(dialect storage.Dialect, cfg storage.OpenConfig) *lazyWarehouse {
	return &lazyWarehouse{dialect: dialect, cfg: cfg}
}

func (l *lazyWarehouse) get(ctx context.Context) (*storage.SQLWarehouse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.wh != nil {
		return l.wh, nil
	}
	db, err := storage.Open(ctx, l.dialect, l.cfg)
	if err != nil {
		return nil, err
	}
	l.db = db
	l.wh = storage.NewSQLWarehouse(db, l.dialect)
	return l.wh, nil
}

func (l *lazyWarehouse) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db, l.wh = nil, nil
	return err
}

func (l *lazyWarehouse) EnsureSchema(ctx context.Context) error {
	wh, err := l.get(ctx)
	if err != nil {
		return err
	}
	return wh.EnsureSchema(ctx)
}

func (l *lazyWarehouse) UpsertCompanies(ctx context.Context, rows []domain.CompanyRow) (int, error) {
	wh, err := l.get(ctx)
	if err != nil {
		return 0, err
	}
	return wh.UpsertCompanies(ctx, rows)
}

func (l *lazyWarehouse) InsertElectricity(ctx context.Context, rows []domain.ElectricityRow) (int, error) {
	wh, err := l.get(ctx)
	if err != nil {
		return 0, err
	}
	return wh.InsertElectricity(ctx, rows)
}

func (l *lazyWarehouse) UpsertCategories(ctx context.Context, rows []domain.CategoryRow) (int, error) {
	wh, err := l.get(ctx)
	if err != nil {
		return 0, err
	}
	return wh.UpsertCategories(ctx, rows)
}

func (l *lazyWarehouse) RecordRun(ctx context.Context, run domain.PipelineRun) error {
	wh, err := l.get(ctx)
	if err != nil {
		return err
	}
	return wh.RecordRun(ctx, run)
}

func (l *lazyWarehouse) Stats(ctx context.Context) (domain.Stats, error) {
	wh, err := l.get(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return wh.Stats(ctx)
}

func (l *lazyWarehouse) Companies(ctx context.Context) ([]domain.Company, error) {
	wh, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return wh.Companies(ctx)
}

func (l *lazyWarehouse) Electricity(ctx context.Context) ([]domain.ElectricityFact, error) {
	wh, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return wh.Electricity(ctx)
}
