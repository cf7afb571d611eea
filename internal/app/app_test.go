package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NordicDataFlow/internal/config"
	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/usecase"
)

func memoryConfig(fingridURL string) config.Config {
	return config.Config{
		Storage:  config.StorageConfig{Driver: config.DriverMemory},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Sources: config.SourcesConfig{
			UserAgent: "NordicDataFlow/1.0",
			Timeout:   5 * time.Second,
			Fingrid:   config.EndpointConfig{BaseURL: fingridURL, APIKey: "key"},
		},
		Jobs: []config.JobConfig{{Name: "fingrid", Source: "fingrid", Params: map[string]string{"dataset_id": "192"}}},
	}
}

func TestApplicationRunsAgainstMemoryBackends(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		_, _ = w.Write([]byte(`{"data":[{"datasetId":192,"startTime":"2024-01-01T00:00:00Z","endTime":"2024-01-01T00:03:00Z","value":5}]}`))
	}))
	defer server.Close()

	ctx := context.Background()
	application, err := New(ctx, memoryConfig(server.URL), logging.Discard())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer application.Close()

	if err := application.Setup(ctx); err != nil {
		t.Fatalf("Setup error: %v", err)
	}

	report := application.Run(ctx, usecase.RunOptions{})
	if report.State != domain.RunCompleted || report.Load.Status != domain.PhaseDone {
		t.Fatalf("unexpected report: %+v", report)
	}
	if got := report.Load.Loads[domain.KindElectricity]; got == nil || got.Rows != 1 {
		t.Fatalf("expected one electricity row loaded, got %+v", got)
	}

	paths, err := application.Export(ctx)
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected two gold snapshots, got %v", paths)
	}
}

func TestApplicationWithoutDatabase(t *testing.T) {
	cfg := memoryConfig("http://127.0.0.1:1")
	cfg.Database = config.DatabaseConfig{Driver: config.DriverSQLServer}
	cfg.Jobs = nil

	ctx := context.Background()
	application, err := New(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := application.Setup(ctx); !errors.Is(err, ErrDatabaseNotConfigured) {
		t.Fatalf("expected ErrDatabaseNotConfigured, got %v", err)
	}
	if _, err := application.Export(ctx); !errors.Is(err, ErrDatabaseNotConfigured) {
		t.Fatalf("expected ErrDatabaseNotConfigured, got %v", err)
	}

	report := application.Run(ctx, usecase.RunOptions{})
	if report.Load.Status != domain.PhaseFailed {
		t.Fatalf("expected load to fail, got %s", report.Load.Status)
	}
	if report.Load.Error != ErrDatabaseNotConfigured.Error() {
		t.Fatalf("unexpected load error %q", report.Load.Error)
	}
	if report.State != domain.RunCompleted {
		t.Fatalf("expected completed run, got %s", report.State)
	}

	report = application.Run(ctx, usecase.RunOptions{SkipLoad: true})
	if report.Load.Status != domain.PhaseSkipped {
		t.Fatalf("expected load to be skipped on request, got %s", report.Load.Status)
	}
}

func TestNewRejectsUnknownDrivers(t *testing.T) {
	cfg := memoryConfig("")
	cfg.Storage.Driver = "azure-blob"
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}

	cfg = memoryConfig("")
	cfg.Database = config.DatabaseConfig{Driver: "oracle", Server: "db"}
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatal("expected error for unknown database driver")
	}
}
