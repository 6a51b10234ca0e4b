package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"pagecraft/internal/models"
	"pagecraft/internal/versioning"
)

var _ versioning.SnapshotArchive = (*Archive)(nil)

// fakeS3 is a minimal path-style object store.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headers map[string]http.Header
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{objects: make(map[string][]byte), headers: make(map[string]http.Header)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.objects[r.URL.Path] = body
			f.headers[r.URL.Path] = r.Header.Clone()
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func testArchive(t *testing.T, endpoint string) *Archive {
	t.Helper()
	a, err := New(Options{
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test-secret",
		Bucket:    "pagecraft",
		Prefix:    "/snapshots/",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a == nil {
		t.Fatal("expected configured archive")
	}
	return a
}

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		ID:         uuid.New(),
		TemplateID: uuid.MustParse("7f0c1e9a-3c2b-4d1e-9a8b-0c1d2e3f4a5b"),
		Rev:        4,
		FullData:   []byte(`{"pages":[]}`),
		Hash:       "c17412ca99e15f83b085916c9b4034a957c41f56ba565a072b1aac6d65edd1bd",
	}
}

func TestNewUnconfigured(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"empty", Options{}},
		{"no endpoint", Options{AccessKey: "a", SecretKey: "s", Bucket: "b"}},
		{"no credentials", Options{Endpoint: "http://localhost:9000", Bucket: "b"}},
		{"no bucket", Options{Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a != nil {
				t.Error("expected nil archive when unconfigured")
			}
		})
	}
}

func TestSnapshotKey(t *testing.T) {
	sn := testSnapshot()

	a := &Archive{bucket: "b", prefix: "snapshots"}
	want := "snapshots/7f0c1e9a-3c2b-4d1e-9a8b-0c1d2e3f4a5b/" + sn.Hash + ".json"
	if got := a.SnapshotKey(sn); got != want {
		t.Errorf("SnapshotKey: got %q, want %q", got, want)
	}

	bare := &Archive{bucket: "b"}
	if got := bare.SnapshotKey(sn); strings.HasPrefix(got, "/") {
		t.Errorf("SnapshotKey without prefix should not start with a slash: %q", got)
	}
}

func TestPutSnapshot(t *testing.T) {
	fake, srv := newFakeS3(t)
	a := testArchive(t, srv.URL+"/")
	sn := testSnapshot()
	ctx := context.Background()

	if err := a.PutSnapshot(ctx, sn); err != nil {
		t.Fatalf("PutSnapshot: %v", err)
	}

	path := "/pagecraft/" + a.SnapshotKey(sn)
	fake.mu.Lock()
	body, ok := fake.objects[path]
	hdr := fake.headers[path]
	fake.mu.Unlock()
	if !ok {
		t.Fatalf("expected object at %s, have %v", path, fake.objects)
	}
	if string(body) != `{"pages":[]}` {
		t.Errorf("body: got %q", body)
	}
	if ct := hdr.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if id := hdr.Get("X-Amz-Meta-Snapshot-Id"); id != sn.ID.String() {
		t.Errorf("snapshot-id metadata: got %q", id)
	}
}
