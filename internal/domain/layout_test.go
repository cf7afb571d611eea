package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPaths(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, time.March, 4, 5, 6, 7, 0, time.UTC)

	if got := BronzePath("fingrid", "dataset_192", at); got != "fingrid/dataset_192/20250304_050607.json" {
		t.Fatalf("unexpected bronze path: %s", got)
	}
	if got := SilverPath("prh", "companies", "", at); got != "prh/companies/20250304_050607.parquet" {
		t.Fatalf("unexpected silver path: %s", got)
	}
	if got := GoldPath("companies", "parquet", at); got != "companies/20250304_050607.parquet" {
		t.Fatalf("unexpected gold path: %s", got)
	}
}

func TestStampUsesUTC(t *testing.T) {
	t.Parallel()

	helsinki := time.FixedZone("EET", 2*60*60)
	at := time.Date(2025, time.January, 1, 1, 0, 0, 0, helsinki)

	if got := Stamp(at); got != "20241231_230000" {
		t.Fatalf("expected UTC stamp, got %s", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		want     time.Time
		wantHour int
	}{
		"2024-01-01T00:03:00+02:00":    {time.Date(2023, 12, 31, 22, 3, 0, 0, time.UTC), 0},
		"2024-01-01T00:00:00.000Z":     {time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0},
		"2024-01-01T05:00:00":          {time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC), 5},
		" 2024-01-01 05:00:00.123456 ": {time.Date(2024, 1, 1, 5, 0, 0, 123456000, time.UTC), 5},
		"2024-01-01":                   {time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for input, tc := range cases {
		got, err := ParseTimestamp(input)
		if err != nil {
			t.Fatalf("%q: %v", input, err)
		}
		if !got.Equal(tc.want) || got.Hour() != tc.wantHour {
			t.Fatalf("%q: got %s (hour %d)", input, got, got.Hour())
		}
	}

	for _, bad := range []string{"", "yesterday", "01/02/2024"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestLatestKey(t *testing.T) {
	t.Parallel()

	keys := []string{
		"fingrid/dataset_192/20250102_000000.json",
		"fingrid/dataset_192/20250103_000000.json",
		"fingrid/dataset_192/20250101_000000.json",
	}

	got, ok := LatestKey(keys)
	if !ok {
		t.Fatal("expected a key")
	}
	if got != "fingrid/dataset_192/20250103_000000.json" {
		t.Fatalf("unexpected latest key: %s", got)
	}
	if keys[2] != "fingrid/dataset_192/20250101_000000.json" {
		t.Fatal("input slice must not be reordered")
	}

	if _, ok := LatestKey(nil); ok {
		t.Fatal("expected no key for empty input")
	}
}

func TestParseDatasetKind(t *testing.T) {
	t.Parallel()

	if kind, ok := ParseDatasetKind(" Companies "); !ok || kind != KindCompanies {
		t.Fatalf("unexpected kind %q (%v)", kind, ok)
	}
	if _, ok := ParseDatasetKind("invoices"); ok {
		t.Fatal("unknown kinds must be rejected")
	}
}

func TestBronzeEnvelopeMarshal(t *testing.T) {
	t.Parallel()

	env := BronzeEnvelope{
		Source:     "fingrid",
		IngestedAt: time.Date(2025, time.March, 4, 5, 6, 7, 0, time.UTC),
		ParamKey:   "dataset_id",
		Params:     192,
		Data:       json.RawMessage(`{"data":[]}`),
	}

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["source"] != "fingrid" {
		t.Fatalf("unexpected source: %v", decoded["source"])
	}
	if decoded["ingested_at"] != "2025-03-04T05:06:07.000000" {
		t.Fatalf("unexpected ingested_at: %v", decoded["ingested_at"])
	}
	if decoded["dataset_id"] != float64(192) {
		t.Fatalf("unexpected dataset_id: %v", decoded["dataset_id"])
	}
	if _, ok := decoded["data"].(map[string]any); !ok {
		t.Fatalf("data must be embedded as JSON, got %T", decoded["data"])
	}
}
