package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/infrastructure/columnar"
	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/ports"
	"NordicDataFlow/internal/source"
)

// Target is one bronze dataset to transform.
type Target struct {
	Name    string
	Source  string
	Dataset string
	Kind    domain.DatasetKind
}

// Targets derives transform targets from ingestion jobs. Jobs naming an
// unknown source, or whose parameters cannot produce a dataset, are skipped.
func Targets(registry *source.Registry, jobs []Job) []Target {
	targets := make([]Target, 0, len(jobs))
	for _, job := range jobs {
		src, err := registry.Resolve(job.Source)
		if err != nil {
			continue
		}
		dataset, err := src.Dataset(job.Params)
		if err != nil {
			continue
		}
		targets = append(targets, Target{Name: job.Name, Source: src.Name(), Dataset: dataset, Kind: src.Kind()})
	}
	return targets
}

// silverDataset is where each kind lands in silver.
var silverDataset = map[domain.DatasetKind]string{
	domain.KindElectricity:    "electricity_production",
	domain.KindCompanies:      "companies",
	domain.KindStatCategories: "categories",
}

// transformFunc turns one bronze data payload into a Parquet body and its row count.
// A zero count means nothing is written.
type transformFunc func(data json.RawMessage, bronzeKey string, at time.Time) ([]byte, int, error)

// TransformerDeps wires the transformer.
type TransformerDeps struct {
	Store  ports.ObjectStore
	Now    func() time.Time
	Logger *slog.Logger
}

// Transformer converts the latest bronze blob of a dataset into silver Parquet.
type Transformer struct {
	store      ports.ObjectStore
	now        func() time.Time
	logger     *slog.Logger
	transforms map[domain.DatasetKind]transformFunc
}

// NewTransformer constructs the silver writer.
func NewTransformer(deps TransformerDeps) *Transformer {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Transformer{
		store:  deps.Store,
		now:    now,
		logger: logger,
		transforms: map[domain.DatasetKind]transformFunc{
			domain.KindElectricity:    transformElectricity,
			domain.KindCompanies:      transformCompanies,
			domain.KindStatCategories: transformCategories,
		},
	}
}

// LatestBronzeBlob returns the newest bronze key for sourceName/dataset, or false when there is none.
func (t *Transformer) LatestBronzeBlob(ctx context.Context, sourceName, dataset string) (string, bool, error) {
	keys, err := t.store.List(ctx, domain.TierBronze, domain.DatasetPrefix(sourceName, dataset))
	if err != nil {
		return "", false, fmt.Errorf("list bronze: %w", err)
	}
	key, ok := domain.LatestKey(keys)
	return key, ok, nil
}

// Transform processes the latest bronze blob of target.
func (t *Transformer) Transform(ctx context.Context, target Target) (domain.TransformResult, error) {
	if _, ok := t.transforms[target.Kind]; !ok {
		return domain.TransformResult{Skipped: true}, nil
	}

	bronzeKey, found, err := t.LatestBronzeBlob(ctx, target.Source, target.Dataset)
	if err != nil {
		return domain.TransformResult{}, err
	}
	if !found {
		return domain.TransformResult{Skipped: true}, nil
	}
	return t.TransformBlob(ctx, target.Kind, target.Source, bronzeKey)
}

// TransformBlob transforms one specific bronze blob of the given kind.
func (t *Transformer) TransformBlob(ctx context.Context, kind domain.DatasetKind, sourceName, bronzeKey string) (domain.TransformResult, error) {
	transform, ok := t.transforms[kind]
	if !ok {
		return domain.TransformResult{BronzePath: bronzeKey, Skipped: true}, nil
	}

	raw, err := t.store.Get(ctx, domain.TierBronze, bronzeKey)
	if err != nil {
		return domain.TransformResult{}, fmt.Errorf("read bronze: %w", err)
	}

	var payload domain.BronzePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.TransformResult{}, fmt.Errorf("parse bronze %s: %w", bronzeKey, err)
	}

	at := t.now().UTC()
	body, rows, err := transform(payload.Data, bronzeKey, at)
	if err != nil {
		return domain.TransformResult{}, fmt.Errorf("transform %s: %w", bronzeKey, err)
	}
	if rows == 0 {
		return domain.TransformResult{BronzePath: bronzeKey, Skipped: true}, nil
	}

	silverKey, err := t.freeSilverKey(ctx, sourceName, silverDataset[kind], at)
	if err != nil {
		return domain.TransformResult{}, err
	}
	meta := map[string]string{domain.MetaDatasetKind: string(kind)}
	if err := t.store.Put(ctx, domain.TierSilver, silverKey, body, columnar.ContentType, meta); err != nil {
		return domain.TransformResult{}, fmt.Errorf("write silver: %w", err)
	}

	return domain.TransformResult{BronzePath: bronzeKey, SilverPath: silverKey, Rows: rows}, nil
}

// maxStampShift bounds how far a silver stamp is pushed forward to avoid an existing object.
const maxStampShift = 60

// freeSilverKey returns the first silver key at or after at that no object occupies yet.
// Several targets of one kind share a silver dataset, so runs within the same second
// would otherwise overwrite each other.
func (t *Transformer) freeSilverKey(ctx context.Context, sourceName, dataset string, at time.Time) (string, error) {
	for shift := 0; shift < maxStampShift; shift++ {
		key := domain.SilverPath(sourceName, dataset, "parquet", at.Add(time.Duration(shift)*time.Second))
		_, err := t.store.Stat(ctx, domain.TierSilver, key)
		if errors.Is(err, domain.ErrObjectNotFound) {
			return key, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat silver %s: %w", key, err)
		}
	}
	return "", fmt.Errorf("no free silver key for %s/%s near %s", sourceName, dataset, domain.Stamp(at))
}

// TransformAll runs every target; failures are recorded per target and do not stop the others.
func (t *Transformer) TransformAll(ctx context.Context, targets []Target) map[string]domain.TransformResult {
	results := make(map[string]domain.TransformResult, len(targets))

	for _, target := range targets {
		if _, ok := t.transforms[target.Kind]; !ok {
			t.logger.Debug("no transformation for kind", "target", target.Name, "kind", target.Kind)
			continue
		}
		log := t.logger.With("target", target.Name, "source", target.Source, "dataset", target.Dataset)

		res, err := t.Transform(ctx, target)
		if err != nil {
			msg := logging.RedactError(err)
			log.Warn("transform failed", "error", msg)
			results[target.Name] = domain.TransformResult{Error: msg}
			continue
		}
		if res.Skipped {
			log.Info("nothing to transform", "bronze", res.BronzePath)
		} else {
			log.Info("transformed", "bronze", res.BronzePath, "silver", res.SilverPath, "rows", res.Rows)
		}
		results[target.Name] = res
	}

	return results
}

func transformElectricity(data json.RawMessage, bronzeKey string, at time.Time) ([]byte, int, error) {
	var page struct {
		Data []fingridRecord `json:"data"`
	}
	if err := decodeRecords(data, &page); err != nil {
		return nil, 0, err
	}
	if len(page.Data) == 0 {
		return nil, 0, nil
	}
	return encodeRows(cleanElectricity(page.Data, bronzeKey, at))
}

func transformCompanies(data json.RawMessage, _ string, at time.Time) ([]byte, int, error) {
	var page struct {
		Results []map[string]json.RawMessage `json:"results"`
	}
	if err := decodeRecords(data, &page); err != nil {
		return nil, 0, err
	}
	if len(page.Results) == 0 {
		return nil, 0, nil
	}
	return encodeRows(cleanCompanies(page.Results, at))
}

func transformCategories(data json.RawMessage, _ string, at time.Time) ([]byte, int, error) {
	var records []map[string]json.RawMessage
	if err := decodeRecords(data, &records); err != nil {
		return nil, 0, err
	}
	if len(records) == 0 {
		return nil, 0, nil
	}
	return encodeRows(cleanCategories(records, at))
}

// decodeRecords treats a missing or null payload as empty.
func decodeRecords(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode records: %w", err)
	}
	return nil
}

func encodeRows[T any](rows []T) ([]byte, int, error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}
	body, err := columnar.Encode(rows)
	if err != nil {
		return nil, 0, err
	}
	return body, len(rows), nil
}
