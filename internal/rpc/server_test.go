package rpc

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/classgraph/internal/classfile"
	"github.com/classgraph/internal/graph"
	"github.com/classgraph/internal/query"
	"github.com/classgraph/internal/repository"
	"github.com/classgraph/internal/scanspec"
	"github.com/classgraph/pkg/model"
)

// fakeResultRepository is a minimal in-memory repository.ResultRepository for
// exercising the query server's handlers without a database.
type fakeResultRepository struct {
	results map[string]*model.ScanResult
}

func (f *fakeResultRepository) SaveResult(ctx context.Context, result *model.ScanResult) error {
	f.results[result.JobUUID] = result
	return nil
}

func (f *fakeResultRepository) GetResultByJobUUID(ctx context.Context, jobUUID string) (*model.ScanResult, error) {
	r, ok := f.results[jobUUID]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return r, nil
}

func (f *fakeResultRepository) UpdateResult(ctx context.Context, result *model.ScanResult) error {
	f.results[result.JobUUID] = result
	return nil
}

func testEngine(t *testing.T) *query.Engine {
	t.Helper()
	spec := scanspec.New(scanspec.WithExternalClasses(true))
	cl := graph.NewCrossLinker(spec)
	records := []*classfile.UnlinkedClassRecord{
		{ClassName: "com/example/Base"},
		{ClassName: "com/example/Impl", InterfaceNames: []string{"com/example/Base"}},
	}
	for _, r := range records {
		if err := cl.Merge(r); err != nil {
			t.Fatalf("Merge: %v", err)
		}
	}
	return query.NewEngine(cl.Freeze(), spec)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cache := NewCache(4)
	cache.Put("job-1", testEngine(t))

	repos := &repository.Repositories{
		Result: &fakeResultRepository{results: map[string]*model.ScanResult{
			"job-1": {JobUUID: "job-1", ClassCount: 2},
		}},
	}

	return NewServer(":0", cache, repos, nil)
}

func TestHandleJobFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/jobs/job-1", nil)
	rec := httptest.NewRecorder()

	s.handleJob(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got model.ScanResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.JobUUID != "job-1" || got.ClassCount != 2 {
		t.Fatalf("got = %+v, want job-1 with 2 classes", got)
	}
}

func TestHandleJobNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/jobs/missing", nil)
	rec := httptest.NewRecorder()

	s.handleJob(rec, req)

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleSubtypes(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/query/subtypes?job=job-1&name=com/example/Base", nil)
	rec := httptest.NewRecorder()

	s.handleSubtypes(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []*graph.ClassRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].Name != "com/example/Impl" {
		t.Fatalf("got = %+v, want [com/example/Impl]", got)
	}
}

func TestQueryHandlerMissingJob(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/query/subtypes?job=unknown&name=com/example/Base", nil)
	rec := httptest.NewRecorder()

	s.handleSubtypes(rec, req)

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestQueryHandlerMissingParams(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/query/subtypes", nil)
	rec := httptest.NewRecorder()

	s.handleSubtypes(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	s.handleHealth(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
