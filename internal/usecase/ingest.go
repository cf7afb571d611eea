package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/ports"
	"NordicDataFlow/internal/source"
)

// Job names one ingestion: a registered source and its parameters.
type Job struct {
	Name   string
	Source string
	Params map[string]string
}

// IngesterDeps wires the ingester.
type IngesterDeps struct {
	Registry *source.Registry
	Store    ports.ObjectStore
	Jobs     []Job
	Now      func() time.Time
	Logger   *slog.Logger
}

// Ingester pulls every configured job into bronze.
type Ingester struct {
	registry *source.Registry
	store    ports.ObjectStore
	jobs     []Job
	now      func() time.Time
	logger   *slog.Logger
}

// NewIngester constructs the bronze writer.
func NewIngester(deps IngesterDeps) *Ingester {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Ingester{
		registry: deps.Registry,
		store:    deps.Store,
		jobs:     deps.Jobs,
		now:      now,
		logger:   logger,
	}
}

// Ingest fetches one job and writes the envelope to bronze.
func (i *Ingester) Ingest(ctx context.Context, job Job) (domain.IngestResult, error) {
	src, err := i.registry.Resolve(job.Source)
	if err != nil {
		return domain.IngestResult{}, err
	}

	fetched, err := src.Fetch(ctx, job.Params)
	if err != nil {
		return domain.IngestResult{}, err
	}

	ingestedAt := i.now().UTC()
	body, err := json.Marshal(domain.BronzeEnvelope{
		Source:     fetched.Label,
		IngestedAt: ingestedAt,
		ParamKey:   fetched.ParamKey,
		Params:     fetched.Params,
		Data:       fetched.Data,
	})
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("marshal envelope: %w", err)
	}

	path := domain.BronzePath(fetched.Source, fetched.Dataset, ingestedAt)
	meta := map[string]string{domain.MetaDatasetKind: string(fetched.Kind)}
	if err := i.store.Put(ctx, domain.TierBronze, path, body, "application/json", meta); err != nil {
		return domain.IngestResult{}, fmt.Errorf("write bronze: %w", err)
	}

	return domain.IngestResult{
		Status:   domain.IngestSuccess,
		BlobPath: path,
		Records:  fetched.Records,
		Label:    fetched.Title,
	}, nil
}

// IngestAll runs every job; a failing job becomes an entry in the result map
// and the remaining jobs still run.
func (i *Ingester) IngestAll(ctx context.Context) map[string]domain.IngestResult {
	results := make(map[string]domain.IngestResult, len(i.jobs))

	for _, job := range i.jobs {
		log := i.logger.With("job", job.Name, "source", job.Source)

		res, err := i.Ingest(ctx, job)
		if err != nil {
			status := domain.IngestError
			if errors.Is(err, domain.ErrMissingAPIKey) {
				status = domain.IngestPreconditionFailed
			}
			msg := logging.RedactError(err)
			log.Warn("ingest failed", "status", status, "error", msg)
			results[job.Name] = domain.IngestResult{Status: status, Error: msg}
			continue
		}

		if res.Label != "" {
			log.Info("ingested", "blob", res.BlobPath, "label", res.Label)
		} else {
			log.Info("ingested", "blob", res.BlobPath, "records", res.Records)
		}
		results[job.Name] = res
	}

	return results
}
