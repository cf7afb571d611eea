package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// StampLayout formats the UTC timestamp embedded in every object name.
const StampLayout = "20060102_150405"

// Stamp renders t in UTC using StampLayout.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// BronzePath returns source/dataset/YYYYMMDD_HHMMSS.json.
func BronzePath(source, dataset string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json", source, dataset, Stamp(at))
}

// SilverPath returns source/dataset/YYYYMMDD_HHMMSS.<ext>; ext defaults to parquet.
func SilverPath(source, dataset, ext string, at time.Time) string {
	if ext == "" {
		ext = "parquet"
	}
	return fmt.Sprintf("%s/%s/%s.%s", source, dataset, Stamp(at), ext)
}

// GoldPath returns entity/YYYYMMDD_HHMMSS.<ext>; ext defaults to parquet.
func GoldPath(entity, ext string, at time.Time) string {
	if ext == "" {
		ext = "parquet"
	}
	return fmt.Sprintf("%s/%s.%s", entity, Stamp(at), ext)
}

// TimestampLayouts are the ISO-8601 forms accepted in upstream payloads, tried in order.
// Layouts without a zone parse as UTC.
var TimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses value with the first matching layout and keeps its
// offset, so callers can read the wall clock the upstream reported.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// DatasetPrefix is the listing prefix for one source/dataset pair.
func DatasetPrefix(source, dataset string) string {
	return source + "/" + dataset + "/"
}

// LatestKey picks the lexicographically last key. Names embed a fixed-width
// timestamp, so the last key is the most recently written one.
func LatestKey(keys []string) (string, bool) {
	if len(keys) == 0 {
		return "", false
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return sorted[len(sorted)-1], true
}
