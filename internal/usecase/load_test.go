package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/infrastructure/columnar"
	"NordicDataFlow/internal/infrastructure/objectstore"
	"NordicDataFlow/internal/infrastructure/storage"
)

func putSilver[T any](t *testing.T, store *objectstore.MemoryStore, key string, kind domain.DatasetKind, rows []T) {
	t.Helper()

	body, err := columnar.Encode(rows)
	require.NoError(t, err)
	meta := map[string]string{}
	if kind != "" {
		meta[domain.MetaDatasetKind] = string(kind)
	}
	require.NoError(t, store.Put(context.Background(), domain.TierSilver, key, body, columnar.ContentType, meta))
}

func electricityRows() []domain.ElectricityRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.ElectricityRow{
		{DatasetID: 192, StartTime: start, EndTime: start.Add(3 * time.Minute), Value: 10, Date: "2024-01-01"},
		{DatasetID: 192, StartTime: start.Add(3 * time.Minute), EndTime: start.Add(6 * time.Minute), Value: 11, Date: "2024-01-01"},
	}
}

func TestLoadElectricityTwiceAppends(t *testing.T) {
	t.Parallel()

	store := objectstore.NewMemoryStore()
	warehouse := storage.NewMemoryWarehouse(nil)
	loader := NewLoader(LoaderDeps{Store: store, Warehouse: warehouse})
	key := "fingrid/electricity_production/20240301_080000.parquet"
	putSilver(t, store, key, domain.KindElectricity, electricityRows())

	for i := 0; i < 2; i++ {
		n, err := loader.Load(context.Background(), domain.KindElectricity, key)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	facts, err := warehouse.Electricity(context.Background())
	require.NoError(t, err)
	assert.Len(t, facts, 4)
	assert.Len(t, warehouse.Runs(), 2)
}

func TestLoadAllDispatchesByKind(t *testing.T) {
	t.Parallel()

	store := objectstore.NewMemoryStore()
	warehouse := storage.NewMemoryWarehouse(nil)
	loader := NewLoader(LoaderDeps{Store: store, Warehouse: warehouse})

	putSilver(t, store, "fingrid/electricity_production/20240301_080000.parquet", domain.KindElectricity, electricityRows())
	putSilver(t, store, "prh/companies/20240301_080000.parquet", domain.KindCompanies, []domain.CompanyRow{
		{BusinessID: "1", Name: "A"}, {BusinessID: "2", Name: "B"},
	})
	putSilver(t, store, "stat_finland/categories/20240301_080000.parquet", domain.KindStatCategories, []domain.CategoryRow{
		{ExternalID: "adopt", Name: "Adoptions", CategoryType: "l", LastUpdated: "2024-02-01T08:00:00Z"},
	})
	putSilver(t, store, "misc/untagged/20240301_080000.parquet", "", []domain.CompanyRow{{BusinessID: "x"}})

	loads, err := loader.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loads, 3)
	assert.Equal(t, 2, loads[domain.KindElectricity].Rows)
	assert.Equal(t, 2, loads[domain.KindCompanies].Rows)
	assert.Equal(t, []string{"stat_finland/categories/20240301_080000.parquet"}, loads[domain.KindStatCategories].Blobs)

	categories := warehouse.Categories()
	require.Len(t, categories, 1)
	assert.True(t, categories[0].LastUpdated.Equal(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)))

	names := map[string]int{}
	for _, run := range warehouse.Runs() {
		names[run.SourceName] = run.RecordsProcessed
	}
	assert.Equal(t, map[string]int{AuditElectricity: 2, AuditCompanies: 2, AuditCategories: 1}, names)
}

func TestLoadFailureIsAudited(t *testing.T) {
	t.Parallel()

	store := objectstore.NewMemoryStore()
	warehouse := storage.NewMemoryWarehouse(nil)
	loader := NewLoader(LoaderDeps{Store: store, Warehouse: warehouse})
	require.NoError(t, store.Put(context.Background(), domain.TierSilver, "prh/companies/bad.parquet", []byte("not parquet"), columnar.ContentType,
		map[string]string{domain.MetaDatasetKind: string(domain.KindCompanies)}))

	_, err := loader.LoadAll(context.Background())
	require.Error(t, err)

	runs := warehouse.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunError, runs[0].Status)
	assert.Equal(t, AuditCompanies, runs[0].SourceName)
	assert.NotEmpty(t, runs[0].ErrorMessage)

	_, err = loader.Load(context.Background(), domain.KindCompanies, "prh/companies/missing.parquet")
	assert.True(t, errors.Is(err, domain.ErrObjectNotFound))
}

func TestExportWritesGoldSnapshots(t *testing.T) {
	t.Parallel()

	store := objectstore.NewMemoryStore()
	warehouse := storage.NewMemoryWarehouse(nil)
	_, err := warehouse.UpsertCompanies(context.Background(), []domain.CompanyRow{{BusinessID: "1", Name: "A", RegistrationDate: "2020-01-01"}})
	require.NoError(t, err)
	_, err = warehouse.InsertElectricity(context.Background(), electricityRows())
	require.NoError(t, err)

	exporter := NewExporter(ExporterDeps{
		Store:     store,
		Warehouse: warehouse,
		Now:       func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) },
	})
	paths, err := exporter.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		GoldCompanies:   "companies/20240301_080000.parquet",
		GoldElectricity: "electricity_production/20240301_080000.parquet",
	}, paths)

	body, err := store.Get(context.Background(), domain.TierGold, paths[GoldCompanies])
	require.NoError(t, err)
	companies, err := columnar.Decode[domain.Company](body)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "A", companies[0].Name)

	body, err = store.Get(context.Background(), domain.TierGold, paths[GoldElectricity])
	require.NoError(t, err)
	facts, err := columnar.Decode[domain.ElectricityFact](body)
	require.NoError(t, err)
	assert.Len(t, facts, 2)
}
