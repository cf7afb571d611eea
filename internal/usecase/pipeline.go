package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/ports"
)

// RunOptions selects which phases run.
type RunOptions struct {
	SkipIngest    bool
	SkipTransform bool
	SkipLoad      bool
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Ingester    *Ingester
	Transformer *Transformer
	Loader      *Loader
	Targets     []Target
	Notifier    ports.Notifier
	Now         func() time.Time
	NewRunID    func() string
	Logger      *slog.Logger
}

// Pipeline runs ingest, transform and load in that order.
type Pipeline struct {
	ingester    *Ingester
	transformer *Transformer
	loader      *Loader
	targets     []Target
	notifier    ports.Notifier
	now         func() time.Time
	newRunID    func() string
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		ingester:    deps.Ingester,
		transformer: deps.Transformer,
		loader:      deps.Loader,
		targets:     deps.Targets,
		notifier:    deps.Notifier,
		now:         deps.Now,
		newRunID:    deps.NewRunID,
		logger:      deps.Logger,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newRunID == nil {
		p.newRunID = func() string { return uuid.NewString() }
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	return p
}

// Run executes the enabled phases. A failing or panicking phase is recorded
// in the report and later phases still run; the report always ends completed.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) domain.RunReport {
	report := domain.RunReport{
		RunID:     p.newRunID(),
		State:     domain.RunStarted,
		StartedAt: p.now().UTC(),
		Ingest:    domain.IngestPhase{Status: domain.PhasePending},
		Transform: domain.TransformPhase{Status: domain.PhasePending},
		Load:      domain.LoadPhase{Status: domain.PhasePending},
	}
	log := p.logger.With("run_id", report.RunID)
	log.Info("pipeline started", "skip_ingest", opts.SkipIngest, "skip_transform", opts.SkipTransform, "skip_load", opts.SkipLoad)

	report.Ingest.Status, report.Ingest.Error = p.phase(log, "ingest", opts.SkipIngest || p.ingester == nil, func() error {
		report.Ingest.Sources = p.ingester.IngestAll(ctx)
		return nil
	})

	report.Transform.Status, report.Transform.Error = p.phase(log, "transform", opts.SkipTransform || p.transformer == nil, func() error {
		report.Transform.Datasets = p.transformer.TransformAll(ctx, p.targets)
		return nil
	})

	report.Load.Status, report.Load.Error = p.phase(log, "load", opts.SkipLoad, func() error {
		if p.loader == nil {
			return domain.ErrWarehouseNotConfigured
		}
		loads, err := p.loader.LoadAll(ctx)
		report.Load.Loads = loads
		return err
	})

	report.State = domain.RunCompleted
	report.FinishedAt = p.now().UTC()
	log.Info("pipeline completed",
		"ingest", report.Ingest.Status,
		"transform", report.Transform.Status,
		"load", report.Load.Status,
		"duration", report.FinishedAt.Sub(report.StartedAt))

	if p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, BuildSummary(report)); err != nil {
			log.Warn("publish run summary", "error", logging.RedactError(err))
		}
	}

	return report
}

func (p *Pipeline) phase(log *slog.Logger, name string, skip bool, run func() error) (status domain.PhaseStatus, errMsg string) {
	if skip {
		log.Info("phase skipped", "phase", name)
		return domain.PhaseSkipped, ""
	}

	log.Info("phase started", "phase", name)
	defer func() {
		if r := recover(); r != nil {
			status = domain.PhaseFailed
			errMsg = fmt.Sprintf("panic: %v", r)
			log.Error("phase panicked", "phase", name, "error", errMsg)
		}
	}()

	if err := run(); err != nil {
		errMsg = logging.RedactError(err)
		log.Error("phase failed", "phase", name, "error", errMsg)
		return domain.PhaseFailed, errMsg
	}
	return domain.PhaseDone, ""
}

// BuildSummary renders a plain-text run digest.
func BuildSummary(report domain.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NordicDataFlow run %s\n", report.RunID)
	fmt.Fprintf(&b, "%s → %s\n\n", report.StartedAt.Format(time.RFC3339), report.FinishedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "Ingest: %s%s\n", report.Ingest.Status, suffix(report.Ingest.Error))
	for _, name := range sortedKeys(report.Ingest.Sources) {
		res := report.Ingest.Sources[name]
		switch {
		case res.Error != "":
			fmt.Fprintf(&b, "- %s: %s (%s)\n", name, res.Status, res.Error)
		case res.Label != "":
			fmt.Fprintf(&b, "- %s: %s\n", name, res.Label)
		default:
			fmt.Fprintf(&b, "- %s: %d records\n", name, res.Records)
		}
	}

	fmt.Fprintf(&b, "Transform: %s%s\n", report.Transform.Status, suffix(report.Transform.Error))
	for _, name := range sortedKeys(report.Transform.Datasets) {
		res := report.Transform.Datasets[name]
		switch {
		case res.Error != "":
			fmt.Fprintf(&b, "- %s: error (%s)\n", name, res.Error)
		case res.Skipped:
			fmt.Fprintf(&b, "- %s: nothing to transform\n", name)
		default:
			fmt.Fprintf(&b, "- %s: %d rows\n", name, res.Rows)
		}
	}

	fmt.Fprintf(&b, "Load: %s%s\n", report.Load.Status, suffix(report.Load.Error))
	kinds := make([]string, 0, len(report.Load.Loads))
	for kind := range report.Load.Loads {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		res := report.Load.Loads[domain.DatasetKind(kind)]
		fmt.Fprintf(&b, "- %s: %d rows from %d blobs\n", kind, res.Rows, len(res.Blobs))
	}

	return b.String()
}

func suffix(errMsg string) string {
	if errMsg == "" {
		return ""
	}
	return " (" + errMsg + ")"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
