package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/ports"
)

// MemoryWarehouse mimics the SQL semantics (merge on unique keys, append-only
// facts) in process memory. Used by tests and the "memory" driver.
type MemoryWarehouse struct {
	mu          sync.RWMutex
	now         func() time.Time
	companies   map[string]domain.Company
	categories  map[string]domain.StatCategory
	electricity []domain.ElectricityFact
	runs        []domain.PipelineRun
}

var _ ports.Warehouse = (*MemoryWarehouse)(nil)

// NewMemoryWarehouse builds an empty warehouse; a nil clock uses time.Now.
func NewMemoryWarehouse(now func() time.Time) *MemoryWarehouse {
	if now == nil {
		now = time.Now
	}
	return &MemoryWarehouse{
		now:        now,
		companies:  map[string]domain.Company{},
		categories: map[string]domain.StatCategory{},
	}
}

func (w *MemoryWarehouse) EnsureSchema(context.Context) error {
	return nil
}

func (w *MemoryWarehouse) UpsertCompanies(_ context.Context, rows []domain.CompanyRow) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	loadedAt := w.now().UTC()
	for _, row := range rows {
		regDate, _ := nullableDate(row.RegistrationDate).(string)
		w.companies[row.BusinessID] = domain.Company{
			BusinessID:       row.BusinessID,
			Name:             row.Name,
			RegistrationDate: regDate,
			CompanyForm:      row.CompanyForm,
			Status:           row.Status,
			City:             row.City,
			PostCode:         row.PostCode,
			LoadedAt:         loadedAt,
		}
	}
	return len(rows), nil
}

func (w *MemoryWarehouse) InsertElectricity(_ context.Context, rows []domain.ElectricityRow) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	loadedAt := w.now().UTC()
	for _, row := range rows {
		datasetID := row.DatasetID
		if datasetID == 0 {
			datasetID = domain.DefaultElectricityDatasetID
		}
		dateKey, _ := nullableDate(row.Date).(string)
		w.electricity = append(w.electricity, domain.ElectricityFact{
			StartTime: row.StartTime.UTC(),
			EndTime:   row.EndTime,
			ValueMW:   decimal.NewFromFloat(row.Value).Round(valueScale).InexactFloat64(),
			DatasetID: datasetID,
			HourOfDay: row.Hour,
			DayOfWeek: row.DayOfWeek,
			DateKey:   dateKey,
			LoadedAt:  loadedAt,
		})
	}
	return len(rows), nil
}

func (w *MemoryWarehouse) UpsertCategories(_ context.Context, rows []domain.CategoryRow) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	loadedAt := w.now().UTC()
	for _, row := range rows {
		lastUpdated, _ := nullableTimestamp(row.LastUpdated).(time.Time)
		w.categories[row.ExternalID] = domain.StatCategory{
			ExternalID:   row.ExternalID,
			Name:         row.Name,
			CategoryType: row.CategoryType,
			LastUpdated:  lastUpdated,
			LoadedAt:     loadedAt,
		}
	}
	return len(rows), nil
}

func (w *MemoryWarehouse) RecordRun(_ context.Context, run domain.PipelineRun) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if run.RunTimestamp.IsZero() {
		run.RunTimestamp = w.now().UTC()
	}
	w.runs = append(w.runs, run)
	return nil
}

func (w *MemoryWarehouse) Stats(context.Context) (domain.Stats, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats := domain.Stats{
		TotalElectricity: len(w.electricity),
		TotalCompanies:   len(w.companies),
	}
	var latest time.Time
	for _, fact := range w.electricity {
		if fact.StartTime.After(latest) {
			latest = fact.StartTime
			stats.LatestMW = fact.ValueMW
		}
	}
	return stats, nil
}

func (w *MemoryWarehouse) Companies(context.Context) ([]domain.Company, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]domain.Company, 0, len(w.companies))
	for _, c := range w.companies {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BusinessID < result[j].BusinessID })
	return result, nil
}

func (w *MemoryWarehouse) Electricity(context.Context) ([]domain.ElectricityFact, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := append([]domain.ElectricityFact(nil), w.electricity...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

// Categories returns dim_stat_categories ordered by external_id.
func (w *MemoryWarehouse) Categories() []domain.StatCategory {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]domain.StatCategory, 0, len(w.categories))
	for _, c := range w.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExternalID < result[j].ExternalID })
	return result
}

// Runs returns the audit rows in insertion order.
func (w *MemoryWarehouse) Runs() []domain.PipelineRun {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return append([]domain.PipelineRun(nil), w.runs...)
}
