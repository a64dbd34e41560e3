package collection

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain"
	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
	"github.com/kailas-cloud/poemdex/internal/retry"
	"github.com/kailas-cloud/poemdex/internal/usecase/ingest"
)

// --- Mocks ---

// fakeStore keeps collections in memory. Counters and hooks let tests shape its behavior.
type fakeStore struct {
	cols      map[string]domcol.Collection
	records   map[string]int
	created   int
	dropped   int
	indexSpec domcol.IndexSpec
	states    []domcol.LoadState // successive LoadState answers; last one repeats
	stateIdx  int

	visibleAfter int // Exists reports false this many times after Create
	createErr    error
	dropErr      error
	indexErr     error
	loadErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{cols: map[string]domcol.Collection{}, records: map[string]int{}}
}

func (f *fakeStore) Exists(_ context.Context, name string) (bool, error) {
	if _, ok := f.cols[name]; !ok {
		return false, nil
	}
	if f.visibleAfter > 0 {
		f.visibleAfter--
		return false, nil
	}
	return true, nil
}

func (f *fakeStore) Create(_ context.Context, col domcol.Collection) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created++
	f.cols[col.Name()] = col
	f.records[col.Name()] = 0
	return nil
}

func (f *fakeStore) Drop(_ context.Context, name string) error {
	if f.dropErr != nil {
		return f.dropErr
	}
	if _, ok := f.cols[name]; !ok {
		return domain.ErrCollectionNotFound
	}
	f.dropped++
	delete(f.cols, name)
	delete(f.records, name)
	return nil
}

func (f *fakeStore) CreateIndex(_ context.Context, _ string, spec domcol.IndexSpec) error {
	f.indexSpec = spec
	return f.indexErr
}

func (f *fakeStore) Load(_ context.Context, _ string) error { return f.loadErr }

func (f *fakeStore) LoadState(_ context.Context, _ string) (domcol.LoadState, error) {
	if len(f.states) == 0 {
		return domcol.StateLoaded, nil
	}
	s := f.states[min(f.stateIdx, len(f.states)-1)]
	f.stateIdx++
	return s, nil
}

type mockIngester struct {
	store  *fakeStore
	report ingest.Report
	err    error
}

func (m *mockIngester) Ingest(_ context.Context, collection, _ string) (ingest.Report, error) {
	if m.err != nil {
		return ingest.Report{}, m.err
	}
	m.store.records[collection] += m.report.Records
	return m.report, nil
}

func newManager(store Store, ing Ingester) *Manager {
	return New(store, ing, Config{
		Index: domcol.IndexSpec{M: 16, EFConstruct: 200, EFRuntime: 16},
		Retry: retry.Policy{Attempts: 5, Interval: time.Millisecond},
	}, zap.NewNop())
}

// --- Tests ---

func TestCreateCollection_New(t *testing.T) {
	store := newFakeStore()
	if err := newManager(store, nil).CreateCollection(context.Background(), "poems"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	col := store.cols["poems"]
	if col.VectorDim() != 512 || col.Shards() != 2 {
		t.Errorf("unexpected collection dim=%d shards=%d", col.VectorDim(), col.Shards())
	}
	if store.dropped != 0 {
		t.Error("nothing to drop on first create")
	}
}

func TestCreateCollection_Idempotent(t *testing.T) {
	store := newFakeStore()
	m := newManager(store, nil)
	ctx := context.Background()

	if err := m.CreateCollection(ctx, "poems"); err != nil {
		t.Fatal(err)
	}
	store.records["poems"] = 42
	if err := m.CreateCollection(ctx, "poems"); err != nil {
		t.Fatal(err)
	}

	if len(store.cols) != 1 || store.created != 2 || store.dropped != 1 {
		t.Errorf("cols=%d created=%d dropped=%d", len(store.cols), store.created, store.dropped)
	}
	if store.records["poems"] != 0 {
		t.Errorf("recreate must leave zero records, got %d", store.records["poems"])
	}
}

func TestCreateCollection_WaitsForVisibility(t *testing.T) {
	store := newFakeStore()
	store.visibleAfter = 3
	if err := newManager(store, nil).CreateCollection(context.Background(), "poems"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateCollection_NeverVisible(t *testing.T) {
	store := newFakeStore()
	store.visibleAfter = 100
	err := newManager(store, nil).CreateCollection(context.Background(), "poems")
	if !errors.Is(err, domain.ErrStoreAdmin) || !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrStoreAdmin wrapping ErrTimeout, got %v", err)
	}
}

func TestCreateCollection_CreateFails(t *testing.T) {
	store := newFakeStore()
	cause := errors.New("READONLY You can't write against a read only replica")
	store.createErr = cause
	err := newManager(store, nil).CreateCollection(context.Background(), "poems")
	if !errors.Is(err, domain.ErrStoreAdmin) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrStoreAdmin with cause, got %v", err)
	}
}

func TestCreateCollection_DropFailureContinues(t *testing.T) {
	store := newFakeStore()
	m := newManager(store, nil)
	if err := m.CreateCollection(context.Background(), "poems"); err != nil {
		t.Fatal(err)
	}
	store.dropErr = errors.New("drop refused")
	if err := m.CreateCollection(context.Background(), "poems"); err != nil {
		t.Fatalf("drop failure must not abort create: %v", err)
	}
	if store.created != 2 {
		t.Errorf("created = %d, want 2", store.created)
	}
}

func TestCreateCollection_InvalidName(t *testing.T) {
	err := newManager(newFakeStore(), nil).CreateCollection(context.Background(), "bad name!")
	if !errors.Is(err, domain.ErrStoreAdmin) {
		t.Fatalf("expected ErrStoreAdmin, got %v", err)
	}
}

func TestCreateIndex_Loaded(t *testing.T) {
	store := newFakeStore()
	store.states = []domcol.LoadState{domcol.StateLoading, domcol.StateLoading, domcol.StateLoaded}
	if err := newManager(store, nil).CreateIndex(context.Background(), "poems"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.indexSpec.M != 16 || store.indexSpec.EFConstruct != 200 {
		t.Errorf("index spec = %+v", store.indexSpec)
	}
}

func TestCreateIndex_BuildFailure(t *testing.T) {
	store := newFakeStore()
	store.indexErr = errors.New("dim mismatch")
	err := newManager(store, nil).CreateIndex(context.Background(), "poems")
	if !errors.Is(err, domain.ErrStoreAdmin) {
		t.Fatalf("expected ErrStoreAdmin, got %v", err)
	}
	if errors.Is(err, domain.ErrLoadVerify) {
		t.Error("build failure must be distinct from load verification failure")
	}
}

func TestCreateIndex_LoadVerificationFails(t *testing.T) {
	store := newFakeStore()
	store.states = []domcol.LoadState{domcol.StateNotLoad}
	err := newManager(store, nil).CreateIndex(context.Background(), "poems")
	if !errors.Is(err, domain.ErrLoadVerify) || !errors.Is(err, domain.ErrStoreAdmin) {
		t.Fatalf("expected ErrLoadVerify, got %v", err)
	}
}

func TestCreateIndex_LoadRequestFails(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("no index")
	err := newManager(store, nil).CreateIndex(context.Background(), "poems")
	if !errors.Is(err, domain.ErrLoadVerify) {
		t.Fatalf("expected ErrLoadVerify, got %v", err)
	}
}

func TestDeleteCollection(t *testing.T) {
	store := newFakeStore()
	m := newManager(store, nil)
	ctx := context.Background()

	out, err := m.DeleteCollection(ctx, "poems")
	if err != nil || out != OutcomeNotFound {
		t.Fatalf("absent: got %q, %v", out, err)
	}

	if err := m.CreateCollection(ctx, "poems"); err != nil {
		t.Fatal(err)
	}
	out, err = m.DeleteCollection(ctx, "poems")
	if err != nil || out != OutcomeDeleted {
		t.Fatalf("present: got %q, %v", out, err)
	}
	if len(store.cols) != 0 {
		t.Error("collection not dropped")
	}
}

func TestDeleteCollection_Failure(t *testing.T) {
	store := newFakeStore()
	store.dropErr = errors.New("timeout")
	_, err := newManager(store, nil).DeleteCollection(context.Background(), "poems")
	if !errors.Is(err, domain.ErrStoreAdmin) {
		t.Fatalf("expected ErrStoreAdmin, got %v", err)
	}
}

func TestCreateVectorDB(t *testing.T) {
	store := newFakeStore()
	ing := &mockIngester{store: store, report: ingest.Report{Files: 1, Ingested: 1, Records: 3}}
	report, err := newManager(store, ing).CreateVectorDB(context.Background(), "poems", "data")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Records != 3 || store.records["poems"] != 3 {
		t.Errorf("report=%+v records=%d", report, store.records["poems"])
	}
	if store.indexSpec.M == 0 {
		t.Error("index was not created")
	}
}

func TestCreateVectorDB_IngestError(t *testing.T) {
	store := newFakeStore()
	ing := &mockIngester{store: store, err: errors.New("walk data: no such file or directory")}
	_, err := newManager(store, ing).CreateVectorDB(context.Background(), "poems", "data")
	if err == nil {
		t.Fatal("expected error")
	}
	if store.indexSpec.M != 0 {
		t.Error("index must not be created after a failed ingest")
	}
}

func TestCreateVectorDB_NoIngester(t *testing.T) {
	if _, err := newManager(newFakeStore(), nil).CreateVectorDB(context.Background(), "poems", "data"); err == nil {
		t.Fatal("expected error without ingester")
	}
}
