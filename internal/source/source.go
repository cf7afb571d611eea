package source

import (
	"context"
	"fmt"
	"sort"

	"NordicDataFlow/internal/domain"
)

// Source is a single upstream open-data API (Statistics Finland, PRH, ...).
type Source interface {
	// Name is the first path segment of everything this source writes to bronze.
	Name() string
	Kind() domain.DatasetKind
	// Dataset derives the bronze dataset name for params without calling upstream.
	Dataset(params map[string]string) (string, error)
	Fetch(ctx context.Context, params map[string]string) (domain.Fetched, error)
}

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds a registry holding the given sources.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: map[string]Source{}}
	for _, src := range sources {
		r.Register(src)
	}
	return r
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(src Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[src.Name()] = src
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, name)
}

// Names lists registered sources in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
