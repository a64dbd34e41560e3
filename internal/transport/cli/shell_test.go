package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
	"github.com/kailas-cloud/poemdex/internal/usecase/collection"
	"github.com/kailas-cloud/poemdex/internal/usecase/ingest"
	"github.com/kailas-cloud/poemdex/internal/usecase/search"
)

// --- Mocks ---

type mockAdmin struct {
	createFn func(ctx context.Context, name, dir string) (ingest.Report, error)
	deleteFn func(ctx context.Context, name string) (collection.Outcome, error)
	creates  []string
	deletes  []string
}

func (m *mockAdmin) CreateVectorDB(ctx context.Context, name, dir string) (ingest.Report, error) {
	m.creates = append(m.creates, name+"@"+dir)
	if m.createFn != nil {
		return m.createFn(ctx, name, dir)
	}
	return ingest.Report{}, nil
}

func (m *mockAdmin) DeleteCollection(ctx context.Context, name string) (collection.Outcome, error) {
	m.deletes = append(m.deletes, name)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return collection.OutcomeDeleted, nil
}

type mockSearcher struct {
	hits    []result.Result
	err     error
	queries []string
}

func (m *mockSearcher) Search(_ context.Context, q string) ([]result.Result, error) {
	m.queries = append(m.queries, q)
	return m.hits, m.err
}

func (m *mockSearcher) SearchByAuthor(_ context.Context, q, a string) ([]result.Result, error) {
	m.queries = append(m.queries, q+"|"+a)
	return m.hits, m.err
}

func run(t *testing.T, admin *mockAdmin, s *mockSearcher, input string) string {
	t.Helper()
	var out bytes.Buffer
	sh := New(admin, s, Config{Collection: "poems", InputDir: "data"}, strings.NewReader(input), &out, zap.NewNop())
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

// --- Tests ---

func TestRun_BannerAndExit(t *testing.T) {
	out := run(t, &mockAdmin{}, &mockSearcher{}, "exit\n")
	if !strings.Contains(out, "poemdex") || !strings.Contains(out, "commands:") {
		t.Errorf("banner missing:\n%s", out)
	}
}

func TestRun_EOFEndsLoop(t *testing.T) {
	run(t, &mockAdmin{}, &mockSearcher{}, "")
}

func TestRun_Create(t *testing.T) {
	admin := &mockAdmin{createFn: func(context.Context, string, string) (ingest.Report, error) {
		return ingest.Report{
			Files: 2, Ingested: 1, Records: 3, Elapsed: 1500 * time.Millisecond,
			Failures: []ingest.FileFailure{{Path: "data/bad.json", Err: domain.ErrParse}},
		}, nil
	}}
	out := run(t, admin, &mockSearcher{}, "create\nexit\n")

	if len(admin.creates) != 1 || admin.creates[0] != "poems@data" {
		t.Errorf("creates = %v", admin.creates)
	}
	for _, want := range []string{"3 records from 1/2 files", "1.5s", "skipped data/bad.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_CreateFailureKeepsLooping(t *testing.T) {
	admin := &mockAdmin{createFn: func(context.Context, string, string) (ingest.Report, error) {
		return ingest.Report{}, domain.ErrStoreAdmin
	}}
	out := run(t, admin, &mockSearcher{}, "create\ndelete\nexit\n")
	if !strings.Contains(out, "create failed") {
		t.Errorf("failure not reported:\n%s", out)
	}
	if len(admin.deletes) != 1 {
		t.Error("loop must continue after a failed command")
	}
}

func TestRun_Delete(t *testing.T) {
	out := run(t, &mockAdmin{}, &mockSearcher{}, "delete\nexit\n")
	if !strings.Contains(out, "collection poems deleted") {
		t.Errorf("unexpected output:\n%s", out)
	}

	admin := &mockAdmin{deleteFn: func(context.Context, string) (collection.Outcome, error) {
		return collection.OutcomeNotFound, nil
	}}
	out = run(t, admin, &mockSearcher{}, "delete\nexit\n")
	if !strings.Contains(out, "does not exist") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRun_BadInputPrintsUsage(t *testing.T) {
	admin := &mockAdmin{}
	out := run(t, admin, &mockSearcher{}, "frobnicate\ncreate now\nexit\n")
	if strings.Count(out, "commands:") < 3 {
		t.Errorf("expected usage after each bad line:\n%s", out)
	}
	if len(admin.creates) != 0 {
		t.Error("wrong arity must not run the command")
	}
}

func TestRun_SearchLoop(t *testing.T) {
	s := &mockSearcher{hits: []result.Result{{Title: "静夜思", Author: "李白", Paragraphs: "床前明月光", Distance: 0.9}}}
	out := run(t, &mockAdmin{}, s, "search\n床前的月光\n床前的月光 李白\na b c\nexit\nexit\n")

	want := []string{"床前的月光", "床前的月光|李白"}
	if strings.Join(s.queries, ",") != strings.Join(want, ",") {
		t.Errorf("queries = %v", s.queries)
	}
	if strings.Count(out, "title: 静夜思") != 2 {
		t.Errorf("expected two rendered hits:\n%s", out)
	}
	if !strings.Contains(out, searchUsage) {
		t.Errorf("three-word line must print search usage:\n%s", out)
	}
}

func TestRun_SearchNoHitAndError(t *testing.T) {
	out := run(t, &mockAdmin{}, &mockSearcher{}, "search\n明月\nexit\nexit\n")
	if !strings.Contains(out, search.NotFoundMessage) {
		t.Errorf("expected not-found message:\n%s", out)
	}

	failing := &mockSearcher{err: errors.New("boom")}
	out = run(t, &mockAdmin{}, failing, "search\n明月\nexit\nexit\n")
	if !strings.Contains(out, "search failed: boom") {
		t.Errorf("expected failure line:\n%s", out)
	}
}
