package client

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"clipshelf/internal/server"
	"clipshelf/internal/storage"
)

func newTestBackend(t *testing.T) *Client {
	t.Helper()
	store, err := storage.OpenFile(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(server.New(store, logger))
	t.Cleanup(func() {
		ts.Close()
		_ = store.Close()
	})
	return New(ts.URL + "/")
}

func TestHealthRoundTrip(t *testing.T) {
	c := newTestBackend(t)
	h, err := c.GetHealth(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if h.Status != "ok" || h.Storage != "file" {
		t.Fatalf("health = %+v", h)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	c := newTestBackend(t)
	doc := []byte(`{"groups":[{"id":"g1","name":"Cats"}],"videos":[{"groupId":"g1","url":"http://x","username":"u"}]}`)

	if err := c.Import(context.Background(), doc); err != nil {
		t.Fatalf("import: %v", err)
	}
	ds, err := c.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(ds.Groups) == 0 || len(ds.Videos) == 0 {
		t.Fatalf("export dataset empty: %+v", ds)
	}
}

func TestImportRejectedPayloadSurfacesError(t *testing.T) {
	c := newTestBackend(t)
	if err := c.Import(context.Background(), []byte(`{}`)); err == nil {
		t.Fatal("invalid import accepted")
	}
}
