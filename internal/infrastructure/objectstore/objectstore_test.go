package objectstore

import (
	"context"
	"errors"
	"testing"

	"NordicDataFlow/internal/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	meta := map[string]string{"Dataset-Kind": string(domain.KindCompanies)}
	if err := store.Put(ctx, domain.TierBronze, "prh/companies_x/20250101_000000.json", []byte(`{}`), "application/json", meta); err != nil {
		t.Fatalf("put: %v", err)
	}

	body, err := store.Get(ctx, domain.TierBronze, "prh/companies_x/20250101_000000.json")
	if err != nil || string(body) != "{}" {
		t.Fatalf("get: %q %v", body, err)
	}

	info, err := store.Stat(ctx, domain.TierBronze, "prh/companies_x/20250101_000000.json")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if kind, ok := info.Kind(); !ok || kind != domain.KindCompanies {
		t.Fatalf("unexpected kind %q (%v)", kind, ok)
	}
	if info.ContentType != "application/json" || info.Size != 2 {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, err := store.Get(ctx, domain.TierSilver, "prh/companies_x/20250101_000000.json"); !errors.Is(err, domain.ErrObjectNotFound) {
		t.Fatalf("tiers must be isolated, got %v", err)
	}
}

func TestMemoryStoreListPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	for _, key := range []string{
		"fingrid/dataset_192/20250103_000000.json",
		"fingrid/dataset_192/20250101_000000.json",
		"fingrid/dataset_1920/20250101_000000.json",
		"prh/companies_all/20250101_000000.json",
	} {
		if err := store.Put(ctx, domain.TierBronze, key, []byte("[]"), "application/json", nil); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	keys, err := store.List(ctx, domain.TierBronze, domain.DatasetPrefix("fingrid", "dataset_192"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "fingrid/dataset_192/20250101_000000.json" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	all, _ := store.List(ctx, domain.TierBronze, "")
	if len(all) != 4 {
		t.Fatalf("expected 4 keys, got %d", len(all))
	}
}

func TestBucketsFor(t *testing.T) {
	t.Parallel()

	b := Buckets{Bronze: "b", Silver: "s", Gold: "g"}
	if got, _ := b.For(domain.TierGold); got != "g" {
		t.Fatalf("unexpected bucket %s", got)
	}
	if _, err := b.For(domain.Tier("platinum")); err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if err := (Config{Endpoint: "x", AccessKey: "a", SecretKey: "s", Buckets: Buckets{Bronze: "b"}}).Validate(); err == nil {
		t.Fatal("expected error for missing silver bucket")
	}
}
