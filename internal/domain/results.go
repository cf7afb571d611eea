package domain

import "time"

// IngestStatus classifies the outcome of one source ingestion.
type IngestStatus string

const (
	IngestSuccess IngestStatus = "success"
	IngestError   IngestStatus = "error"
	// IngestPreconditionFailed means the source never issued a request.
	IngestPreconditionFailed IngestStatus = "precondition_failed"
)

// IngestResult describes what one source produced.
type IngestResult struct {
	Status   IngestStatus `json:"status"`
	BlobPath string       `json:"blob_path,omitempty"`
	Records  int          `json:"records"`
	Label    string       `json:"label,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// TransformResult describes one bronze → silver transformation.
type TransformResult struct {
	BronzePath string `json:"bronze_path,omitempty"`
	SilverPath string `json:"silver_path,omitempty"`
	Rows       int    `json:"rows"`
	// Skipped is set when there was no bronze blob or no records in it.
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LoadResult accumulates silver → gold loads for one dataset kind.
type LoadResult struct {
	Blobs []string `json:"blobs"`
	Rows  int      `json:"rows"`
}

// PhaseStatus is the terminal state of a pipeline phase.
type PhaseStatus string

const (
	PhasePending PhaseStatus = "pending"
	PhaseDone    PhaseStatus = "done"
	PhaseSkipped PhaseStatus = "skipped"
	PhaseFailed  PhaseStatus = "failed"
)

// RunState is the lifecycle state of a pipeline run.
type RunState string

const (
	RunStarted   RunState = "started"
	RunCompleted RunState = "completed"
)

// IngestPhase reports the ingest phase.
type IngestPhase struct {
	Status  PhaseStatus             `json:"status"`
	Error   string                  `json:"error,omitempty"`
	Sources map[string]IngestResult `json:"sources,omitempty"`
}

// TransformPhase reports the transform phase.
type TransformPhase struct {
	Status   PhaseStatus                `json:"status"`
	Error    string                     `json:"error,omitempty"`
	Datasets map[string]TransformResult `json:"datasets,omitempty"`
}

// LoadPhase reports the load phase.
type LoadPhase struct {
	Status PhaseStatus                 `json:"status"`
	Error  string                      `json:"error,omitempty"`
	Loads  map[DatasetKind]*LoadResult `json:"loads,omitempty"`
}

// RunReport is the full outcome of one pipeline run.
type RunReport struct {
	RunID      string         `json:"run_id"`
	State      RunState       `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Ingest     IngestPhase    `json:"ingest"`
	Transform  TransformPhase `json:"transform"`
	Load       LoadPhase      `json:"load"`
}
