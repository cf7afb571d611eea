package source

import (
	"context"
	"errors"
	"testing"

	"NordicDataFlow/internal/domain"
)

type stubSource struct{ name string }

func (s stubSource) Name() string             { return s.name }
func (s stubSource) Kind() domain.DatasetKind { return domain.KindEurostat }
func (s stubSource) Dataset(map[string]string) (string, error) {
	return "stub", nil
}
func (s stubSource) Fetch(context.Context, map[string]string) (domain.Fetched, error) {
	return domain.Fetched{Source: s.name}, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(stubSource{name: "fingrid"}, stubSource{name: "prh"})

	src, err := reg.Resolve("prh")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if src.Name() != "prh" {
		t.Fatalf("unexpected source %s", src.Name())
	}

	if _, err := reg.Resolve("ytj"); !errors.Is(err, domain.ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "fingrid" || names[1] != "prh" {
		t.Fatalf("unexpected names: %v", names)
	}
}
