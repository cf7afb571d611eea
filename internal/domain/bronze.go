package domain

import (
	"encoding/json"
	"time"
)

// BronzeEnvelope wraps a raw API response together with ingestion metadata.
type BronzeEnvelope struct {
	Source     string
	IngestedAt time.Time
	// ParamKey names the field holding Params ("category", "query", ...).
	ParamKey string
	Params   any
	Data     json.RawMessage
}

// MarshalJSON writes {source, ingested_at, <ParamKey>: params, data}.
func (e BronzeEnvelope) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"source":      e.Source,
		"ingested_at": e.IngestedAt.UTC().Format("2006-01-02T15:04:05.000000"),
		"data":        e.Data,
	}
	if e.Data == nil {
		out["data"] = json.RawMessage("null")
	}
	if e.ParamKey != "" {
		out[e.ParamKey] = e.Params
	}
	return json.Marshal(out)
}

// BronzePayload is the part of a stored envelope that transformations read.
type BronzePayload struct {
	Source     string          `json:"source"`
	IngestedAt string          `json:"ingested_at"`
	Data       json.RawMessage `json:"data"`
}

// Fetched is what a source hands back after a successful upstream call.
type Fetched struct {
	// Source is the first path segment in bronze ("fingrid", "prh", ...).
	Source string
	// Label is the value written into the envelope's source field.
	Label    string
	Dataset  string
	Kind     DatasetKind
	ParamKey string
	Params   any
	Data     json.RawMessage
	// Records is the length of the source-specific record list.
	Records int
	// Title is an optional human label reported by the upstream (Eurostat).
	Title string
}
