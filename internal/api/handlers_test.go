package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"resona/internal/config"
	"resona/internal/engine"
	"resona/internal/media"
	"resona/internal/player"
	"resona/internal/storage"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	snap, err := storage.NewSnapshotStore(filepath.Join(dir, "positions.json"), 64, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = snap.Close() })

	logger := zerolog.Nop()
	manager := player.NewManager(
		media.NewScanner(nil, logger),
		player.NewResolver(store, logger),
		snap,
		nil,
		func() engine.Engine { return engine.NewClockEngine() },
		nil,
		config.PlayerConfig{},
		logger,
	)
	t.Cleanup(manager.Release)

	h := NewHandler(manager, logger)
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/player/load/folder", h.LoadFolder)
		r.Post("/player/load/files", h.LoadFiles)
		r.Post("/player/pause", h.Pause)
		r.Post("/player/mode/toggle", h.ToggleMode)
		r.Post("/player/save", h.SaveMemory)
		r.Get("/memories/continue", h.ContinueListening)
		r.Delete("/memories", h.DeleteMemory)
		r.Post("/bookmarks", h.AddBookmark)
		r.Get("/bookmarks", h.GetBookmarks)
		r.Delete("/bookmarks/{id}", h.DeleteBookmark)
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Version != Version {
		t.Errorf("health = %+v", resp)
	}
}

func TestLoadFilesReturnsState(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/player/load/files", LoadFilesRequest{
		Paths: []string{"/music/a.mp3", "/music/b.mp3"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp StateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.State.CurrentRef == nil || resp.State.CurrentRef.Identity != "/music/a.mp3" {
		t.Errorf("CurrentRef = %+v", resp.State.CurrentRef)
	}
	if resp.Playlist == nil || resp.Playlist.Len() != 2 {
		t.Errorf("Playlist = %+v", resp.Playlist)
	}
}

func TestLoadFolderValidation(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/player/load/folder", LoadFolderRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing path: status = %d, expected 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/player/load/folder", bytes.NewBufferString("{broken"))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("broken body: status = %d, expected 400", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/player/load/folder", LoadFolderRequest{Path: "/does/not/exist"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad folder: status = %d, expected 422", rec.Code)
	}
}

func TestToggleModeEndpoint(t *testing.T) {
	r := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/player/load/files", LoadFilesRequest{
		Paths: []string{"/music/a.mp3"},
	})

	rec := doJSON(t, r, http.MethodPost, "/api/v1/player/mode/toggle", nil)
	var resp ModeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.PlayMode != "shuffle" {
		t.Errorf("first toggle = %q, expected shuffle", resp.PlayMode)
	}
}

func TestSaveMemoryAndContinueListening(t *testing.T) {
	r := newTestRouter(t)

	// Nothing loaded yet.
	rec := doJSON(t, r, http.MethodPost, "/api/v1/player/save", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("save with nothing loaded: status = %d, expected 409", rec.Code)
	}

	doJSON(t, r, http.MethodPost, "/api/v1/player/load/files", LoadFilesRequest{
		Paths: []string{"/music/a.mp3"},
	})
	rec = doJSON(t, r, http.MethodPost, "/api/v1/player/save", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/memories/continue", nil)
	var resp ContinueListeningResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("continue items = %d, expected 1", len(resp.Items))
	}
	if resp.Items[0].Memory.FileIdentity != "/music/a.mp3" {
		t.Errorf("item = %+v", resp.Items[0])
	}

	// Delete requires the identity in the query.
	rec = doJSON(t, r, http.MethodDelete, "/api/v1/memories", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("delete without file: status = %d, expected 400", rec.Code)
	}
	rec = doJSON(t, r, http.MethodDelete, "/api/v1/memories?file=%2Fmusic%2Fa.mp3", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, expected 204", rec.Code)
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/bookmarks", AddBookmarkRequest{Label: "x"})
	if rec.Code != http.StatusConflict {
		t.Errorf("bookmark with nothing loaded: status = %d, expected 409", rec.Code)
	}

	doJSON(t, r, http.MethodPost, "/api/v1/player/load/files", LoadFilesRequest{
		Paths: []string{"/music/book.m4a"},
	})

	rec = doJSON(t, r, http.MethodPost, "/api/v1/bookmarks", AddBookmarkRequest{Label: "chapter 2"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add bookmark: status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var created storage.Bookmark
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.Label != "chapter 2" || created.FileIdentity != "/music/book.m4a" {
		t.Errorf("bookmark = %+v", created)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/bookmarks", nil)
	var list BookmarksResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Bookmarks) != 1 {
		t.Fatalf("bookmarks = %d, expected 1", len(list.Bookmarks))
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/bookmarks/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete bookmark: status = %d, expected 204", rec.Code)
	}
}
