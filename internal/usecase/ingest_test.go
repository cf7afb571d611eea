package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/infrastructure/objectstore"
	"NordicDataFlow/internal/infrastructure/opendata"
	"NordicDataFlow/internal/source"
)

func TestIngestAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	statfin := jsonServer(t, 200, `[{"id":"adopt","type":"l","text":"Adoptions"}]`)
	prh := jsonServer(t, 503, `{"error":"maintenance"}`)

	registry := source.NewRegistry(
		opendata.NewStatFin(testClient(statfin), statfin.URL+"/"),
		opendata.NewPRH(testClient(prh), prh.URL),
		opendata.NewFingrid(testClient(statfin), statfin.URL, ""),
	)
	store := objectstore.NewMemoryStore()
	ingester := NewIngester(IngesterDeps{
		Registry: registry,
		Store:    store,
		Jobs: []Job{
			{Name: "stat_finland", Source: "stat_finland"},
			{Name: "prh_vivicta", Source: "prh", Params: map[string]string{"name": "Vivicta"}},
			{Name: "fingrid", Source: "fingrid", Params: map[string]string{"dataset_id": "192"}},
			{Name: "ghost", Source: "nope"},
		},
		Now: func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) },
	})

	results := ingester.IngestAll(context.Background())
	require.Len(t, results, 4)

	ok := results["stat_finland"]
	assert.Equal(t, domain.IngestSuccess, ok.Status)
	assert.Equal(t, "stat_finland/catalog/20240301_080000.json", ok.BlobPath)
	assert.Equal(t, 1, ok.Records)

	assert.Equal(t, domain.IngestError, results["prh_vivicta"].Status)
	assert.Contains(t, results["prh_vivicta"].Error, "503")
	assert.Equal(t, domain.IngestPreconditionFailed, results["fingrid"].Status)
	assert.Equal(t, domain.IngestError, results["ghost"].Status)

	keys, err := store.List(context.Background(), domain.TierBronze, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"stat_finland/catalog/20240301_080000.json"}, keys)
}

func TestIngestWritesEnvelope(t *testing.T) {
	t.Parallel()

	server := jsonServer(t, 200, `{"data":[{"datasetId":192,"startTime":"2024-01-01T00:00:00.000Z","value":1}]}`)
	registry := source.NewRegistry(opendata.NewFingrid(testClient(server), server.URL, "secret"))
	store := objectstore.NewMemoryStore()
	ingester := NewIngester(IngesterDeps{
		Registry: registry,
		Store:    store,
		Now:      func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 123456000, time.UTC) },
	})

	res, err := ingester.Ingest(context.Background(), Job{Name: "fingrid", Source: "fingrid"})
	require.NoError(t, err)
	assert.Equal(t, "fingrid/dataset_192/20240301_080000.json", res.BlobPath)
	assert.Equal(t, 1, res.Records)

	info, err := store.Stat(context.Background(), domain.TierBronze, res.BlobPath)
	require.NoError(t, err)
	assert.Equal(t, "application/json", info.ContentType)
	kind, ok := info.Kind()
	require.True(t, ok)
	assert.Equal(t, domain.KindElectricity, kind)

	body, err := store.Get(context.Background(), domain.TierBronze, res.BlobPath)
	require.NoError(t, err)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.JSONEq(t, `"fingrid"`, string(envelope["source"]))
	assert.JSONEq(t, `"2024-03-01T08:00:00.123456"`, string(envelope["ingested_at"]))
	assert.JSONEq(t, `192`, string(envelope["dataset_id"]))
	assert.True(t, strings.Contains(string(envelope["data"]), `"datasetId":192`))
}
