package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewWithWriterJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("visible", "component", "ingest")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "visible" || entry["component"] != "ingest" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"ERROR":   "ERROR",
		"warning": "WARN",
		" info ":  "INFO",
		"":        "DEBUG",
	}
	for in, want := range cases {
		if got := levelFromString(in).String(); got != want {
			t.Fatalf("levelFromString(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRedactConnectionString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		leak string
	}{
		{"sqlserver://sqladmin:hunter2@db:1433?database=x", "hunter2"},
		{"Server=tcp:db,1433;Uid=sqladmin;Pwd=hunter2;Encrypt=yes", "hunter2"},
		{"Endpoint=minio:9000;AccessKey=ak;SecretKey=hunter2;UseSSL=false", "hunter2"},
	}

	for _, tc := range cases {
		got := RedactConnectionString(tc.in)
		if strings.Contains(got, tc.leak) {
			t.Fatalf("secret leaked in %q", got)
		}
		if !strings.Contains(got, RedactedText) {
			t.Fatalf("expected redaction marker in %q", got)
		}
	}
}

func TestRedactError(t *testing.T) {
	t.Parallel()

	err := errors.New(`Post "https://api.telegram.org/bot123456:ABC-def_ghi/sendMessage": x-api-key: abcdef123456 refused`)
	got := RedactError(err)
	if strings.Contains(got, "ABC-def_ghi") || strings.Contains(got, "abcdef123456") {
		t.Fatalf("secret leaked in %q", got)
	}
	if RedactError(nil) != "" {
		t.Fatal("nil error must render empty")
	}
}
