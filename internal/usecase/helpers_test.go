package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/infrastructure/objectstore"
	"NordicDataFlow/internal/infrastructure/opendata"
	"NordicDataFlow/internal/infrastructure/storage"
	"NordicDataFlow/internal/source"
)

// stepClock returns start, start+step, start+2*step, ... on successive calls.
type stepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func newStepClock(start time.Time, step time.Duration) *stepClock {
	return &stepClock{next: start, step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testClient(server *httptest.Server) *opendata.Client {
	return opendata.NewClient(server.Client(), "NordicDataFlow/1.0", nil)
}

type fixture struct {
	store     *objectstore.MemoryStore
	warehouse *storage.MemoryWarehouse
	pipeline  *Pipeline
	notifier  *recordingNotifier
}

func newFixture(registry *source.Registry, jobs []Job) *fixture {
	store := objectstore.NewMemoryStore()
	warehouse := storage.NewMemoryWarehouse(newStepClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.Minute).Now)
	clock := newStepClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), time.Second)
	notifier := &recordingNotifier{}

	pipeline := NewPipeline(PipelineDeps{
		Ingester:    NewIngester(IngesterDeps{Registry: registry, Store: store, Jobs: jobs, Now: clock.Now}),
		Transformer: NewTransformer(TransformerDeps{Store: store, Now: clock.Now}),
		Loader:      NewLoader(LoaderDeps{Store: store, Warehouse: warehouse}),
		Targets:     Targets(registry, jobs),
		Notifier:    notifier,
		Now:         clock.Now,
	})

	return &fixture{store: store, warehouse: warehouse, pipeline: pipeline, notifier: notifier}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, digest)
	return nil
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// panicSource blows up on Fetch.
type panicSource struct{}

func (panicSource) Name() string                              { return "boom" }
func (panicSource) Kind() domain.DatasetKind                  { return domain.KindEurostat }
func (panicSource) Dataset(map[string]string) (string, error) { return "boom", nil }
func (panicSource) Fetch(context.Context, map[string]string) (domain.Fetched, error) {
	panic("source exploded")
}
