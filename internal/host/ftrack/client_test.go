package ftrack_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"shothook/internal/host"
	"shothook/internal/host/ftrack"
	"shothook/internal/logging"
	"shothook/internal/services"
)

type recordedOp map[string]any

type fakeServer struct {
	t       *testing.T
	mu      sync.Mutex
	ops     []recordedOp
	headers http.Header
	respond func(op recordedOp) any
	uploads map[string]int
}

func newFakeServer(t *testing.T, respond func(op recordedOp) any) (*fakeServer, *httptest.Server) {
	t.Helper()
	fs := &fakeServer{t: t, respond: respond, uploads: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(srv.Close)
	return fs, srv
}

func (f *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPut {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.uploads[r.URL.Path] = len(body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		return
	}
	var ops []recordedOp
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		f.t.Errorf("decode request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.ops = append(f.ops, ops...)
	f.headers = r.Header.Clone()
	f.mu.Unlock()
	results := make([]any, 0, len(ops))
	for _, op := range ops {
		result := f.respond(op)
		if errPayload, ok := result.(map[string]string); ok && errPayload["exception"] != "" {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(errPayload)
			return
		}
		results = append(results, result)
	}
	_ = json.NewEncoder(w).Encode(results)
}

func (f *fakeServer) recorded() []recordedOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedOp(nil), f.ops...)
}

func queryData(rows ...map[string]any) map[string]any {
	if rows == nil {
		rows = []map[string]any{}
	}
	return map[string]any{"action": "query", "data": rows}
}

func newClient(srv *httptest.Server) *ftrack.Client {
	counter := 0
	return ftrack.New(srv.URL, "pipeline", "secret", logging.NewNop(),
		ftrack.WithHTTPClient(srv.Client()),
		ftrack.WithIDGenerator(func() string {
			counter++
			return "id-" + string(rune('0'+counter))
		}),
	)
}

func TestTaskSendsCredentialsAndDecodes(t *testing.T) {
	fs, srv := newFakeServer(t, func(op recordedOp) any {
		return queryData(map[string]any{
			"id": "task-1", "name": "Compositing", "status_id": "s1",
			"project_id": "p1", "parent_id": "shot-1",
			"object_type": map[string]any{"name": "Task"},
		})
	})
	task, err := newClient(srv).Task(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("Task: %v", err)
	}
	if task.Name != "Compositing" || task.ParentID != "shot-1" || task.ObjectType != host.ObjectTypeTask {
		t.Fatalf("unexpected task %+v", task)
	}
	if got := fs.headers.Get("ftrack-user"); got != "pipeline" {
		t.Fatalf("expected ftrack-user header, got %q", got)
	}
	if got := fs.headers.Get("ftrack-api-key"); got != "secret" {
		t.Fatalf("expected api key header, got %q", got)
	}
	expr, _ := fs.recorded()[0]["expression"].(string)
	if !strings.Contains(expr, `where id is "task-1"`) {
		t.Fatalf("unexpected expression %q", expr)
	}
}

func TestTaskNotFound(t *testing.T) {
	_, srv := newFakeServer(t, func(recordedOp) any { return queryData() })
	_, err := newClient(srv).Task(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServerExceptionIsExternal(t *testing.T) {
	_, srv := newFakeServer(t, func(recordedOp) any {
		return map[string]string{"exception": "ServerError", "content": "bad query"}
	})
	err := newClient(srv).Ping(context.Background())
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected ErrExternal, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad query") {
		t.Fatalf("expected server content in error, got %v", err)
	}
}

func TestTaskAncestorsAppendsProject(t *testing.T) {
	_, srv := newFakeServer(t, func(recordedOp) any {
		return queryData(map[string]any{
			"ancestors": []map[string]any{
				{"id": "ep", "name": "102", "object_type": map[string]any{"name": "Episode"}},
				{"id": "sh", "name": "020", "object_type": map[string]any{"name": "Shot"}},
			},
			"project": map[string]any{"id": "p1", "name": "jelly"},
		})
	})
	links, err := newClient(srv).TaskAncestors(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("TaskAncestors: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	if links[2].ObjectType != host.ObjectTypeProject || links[2].Name != "jelly" {
		t.Fatalf("expected project link last, got %+v", links[2])
	}
}

func TestProjectTaskStatusesSortedByWorkflow(t *testing.T) {
	_, srv := newFakeServer(t, func(op recordedOp) any {
		expr, _ := op["expression"].(string)
		if strings.Contains(expr, "from Project ") {
			return queryData(map[string]any{"project_schema_id": "schema-1"})
		}
		return queryData(map[string]any{"_task_workflow": map[string]any{
			"statuses": []map[string]any{
				{"id": "c", "name": "Approved", "sort": 30},
				{"id": "a", "name": "Not started", "sort": 10},
				{"id": "b", "name": "In progress", "sort": 20},
			},
		}})
	})
	statuses, err := newClient(srv).ProjectTaskStatuses(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ProjectTaskStatuses: %v", err)
	}
	if len(statuses) != 3 || statuses[0].ID != "a" || statuses[2].ID != "c" {
		t.Fatalf("unexpected order %+v", statuses)
	}
}

func TestSetTaskStatusIssuesUpdate(t *testing.T) {
	fs, srv := newFakeServer(t, func(recordedOp) any { return map[string]any{"action": "update", "data": map[string]any{}} })
	if err := newClient(srv).SetTaskStatus(context.Background(), "task-1", "status-2"); err != nil {
		t.Fatalf("SetTaskStatus: %v", err)
	}
	op := fs.recorded()[0]
	if op["action"] != "update" || op["entity_type"] != "Task" {
		t.Fatalf("unexpected op %+v", op)
	}
	data, _ := op["entity_data"].(map[string]any)
	if data["status_id"] != "status-2" {
		t.Fatalf("unexpected entity data %+v", data)
	}
}

func TestVersionComponentsPrefersUnmanagedLocation(t *testing.T) {
	_, srv := newFakeServer(t, func(recordedOp) any {
		return queryData(map[string]any{
			"id": "c1", "name": "Server link", "version_id": "v1",
			"component_locations": []map[string]any{
				{"location_id": ftrack.ServerLocationID, "resource_identifier": "c1"},
				{"location_id": ftrack.UnmanagedLocationID, "resource_identifier": "Z:/projects/show/out/a.exr"},
			},
		})
	})
	comps, err := newClient(srv).VersionComponents(context.Background(), "v1")
	if err != nil {
		t.Fatalf("VersionComponents: %v", err)
	}
	if len(comps) != 1 || comps[0].FilesystemPath != "Z:/projects/show/out/a.exr" {
		t.Fatalf("unexpected components %+v", comps)
	}
}

func TestEnsureAssetCreatesWhenMissing(t *testing.T) {
	fs, srv := newFakeServer(t, func(op recordedOp) any {
		if op["action"] == "create" {
			data, _ := op["entity_data"].(map[string]any)
			return map[string]any{"action": "create", "data": map[string]any{"id": data["id"], "name": data["name"]}}
		}
		expr, _ := op["expression"].(string)
		if strings.Contains(expr, "from AssetType") {
			return queryData(map[string]any{"id": "type-img", "name": "Image"})
		}
		return queryData()
	})
	asset, err := newClient(srv).EnsureAsset(context.Background(), "shot-1", "a_v001.exr", host.AssetTypeImage)
	if err != nil {
		t.Fatalf("EnsureAsset: %v", err)
	}
	if asset.ID != "id-1" || asset.TypeID != "type-img" || asset.ParentID != "shot-1" {
		t.Fatalf("unexpected asset %+v", asset)
	}
	ops := fs.recorded()
	last := ops[len(ops)-1]
	if last["action"] != "create" || last["entity_type"] != "Asset" {
		t.Fatalf("expected asset create, got %+v", last)
	}
}

func TestMakeReviewableUploadsAndEncodes(t *testing.T) {
	var srvURL string
	fs, srv := newFakeServer(t, func(op recordedOp) any {
		switch op["action"] {
		case "get_upload_metadata":
			return map[string]any{"url": srvURL + "/upload/blob", "headers": map[string]string{"Content-Type": "video/quicktime"}}
		case "encode_media":
			return map[string]any{"job_id": "job-1"}
		default:
			return map[string]any{"action": op["action"], "data": map[string]any{}}
		}
	})
	srvURL = srv.URL

	path := filepath.Join(t.TempDir(), "shot.mov")
	if err := os.WriteFile(path, []byte("movie-bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := newClient(srv).MakeReviewable(context.Background(), "v1", path); err != nil {
		t.Fatalf("MakeReviewable: %v", err)
	}
	if got := fs.uploads["/upload/blob"]; got != len("movie-bytes") {
		t.Fatalf("expected uploaded body, got %d bytes", got)
	}
	ops := fs.recorded()
	last := ops[len(ops)-1]
	if last["action"] != "encode_media" || last["version_id"] != "v1" || last["keep_original"] != "auto" {
		t.Fatalf("unexpected encode op %+v", last)
	}
}

func TestMakeReviewableRejectsMissingFile(t *testing.T) {
	_, srv := newFakeServer(t, func(recordedOp) any { return queryData() })
	err := newClient(srv).MakeReviewable(context.Background(), "v1", filepath.Join(t.TempDir(), "missing.mov"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
