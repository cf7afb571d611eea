package objectstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/ports"
)

type memoryObject struct {
	body        []byte
	contentType string
	meta        map[string]string
	modified    time.Time
}

// MemoryStore is a process-local object store for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[domain.Tier]map[string]memoryObject
}

var (
	_ ports.ObjectStore   = (*MemoryStore)(nil)
	_ ports.BucketEnsurer = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[domain.Tier]map[string]memoryObject{}}
}

// EnsureBuckets is a no-op; tiers exist implicitly.
func (s *MemoryStore) EnsureBuckets(context.Context) error {
	return nil
}

func (s *MemoryStore) Put(_ context.Context, tier domain.Tier, key string, body []byte, contentType string, meta map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.objects[tier] == nil {
		s.objects[tier] = map[string]memoryObject{}
	}
	copied := make(map[string]string, len(meta))
	for k, v := range meta {
		copied[metaKey(k)] = v
	}
	s.objects[tier][key] = memoryObject{
		body:        append([]byte(nil), body...),
		contentType: contentType,
		meta:        copied,
		modified:    time.Now().UTC(),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, tier domain.Tier, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[tier][key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", tier, key, domain.ErrObjectNotFound)
	}
	return append([]byte(nil), obj.body...), nil
}

func (s *MemoryStore) Stat(_ context.Context, tier domain.Tier, key string) (ports.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[tier][key]
	if !ok {
		return ports.ObjectInfo{}, fmt.Errorf("%s/%s: %w", tier, key, domain.ErrObjectNotFound)
	}
	meta := make(map[string]string, len(obj.meta))
	for k, v := range obj.meta {
		meta[k] = v
	}
	return ports.ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.body)),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
		Metadata:     meta,
	}, nil
}

// List returns keys under prefix in lexicographic order.
func (s *MemoryStore) List(_ context.Context, tier domain.Tier, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects[tier]))
	for key := range s.objects[tier] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
