package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"resona/internal/media"
	"resona/internal/player"
	"resona/internal/storage"
)

const Version = "0.1.0"

// Handler maps the player manager's commands onto HTTP. All playback
// mutations go through the manager; nothing here touches the engine or
// the stores directly.
type Handler struct {
	manager *player.Manager
	logger  zerolog.Logger
}

func NewHandler(manager *player.Manager, logger zerolog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return false
	}
	return true
}

func folderFromRequest(path, treeURI string) (media.FolderRef, bool) {
	switch {
	case path != "":
		return media.PathFolder(path), true
	case treeURI != "":
		return media.ProviderFolder(treeURI), true
	default:
		return media.FolderRef{}, false
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

func (h *Handler) LoadFolder(w http.ResponseWriter, r *http.Request) {
	var req LoadFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	folder, ok := folderFromRequest(req.Path, req.TreeURI)
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "path or tree_uri required")
		return
	}
	if err := h.manager.LoadFolderAndPlay(folder, req.StartIndex); err != nil {
		h.logger.Error().Err(err).Str("folder", folder.Identity).Msg("load folder failed")
		writeError(w, http.StatusUnprocessableEntity, "LOAD_FAILED", err.Error())
		return
	}
	h.writeState(w)
}

func (h *Handler) LoadFiles(w http.ResponseWriter, r *http.Request) {
	var req LoadFilesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.manager.LoadFilesAndPlay(req.Paths, req.StartIndex); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "LOAD_FAILED", err.Error())
		return
	}
	h.writeState(w)
}

func (h *Handler) LoadURIs(w http.ResponseWriter, r *http.Request) {
	var req LoadURIsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.manager.LoadURIsAndPlay(req.FolderURI, req.Entries, req.StartIndex); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "LOAD_FAILED", err.Error())
		return
	}
	h.writeState(w)
}

func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Play(); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	h.writeState(w)
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Pause(); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	h.writeState(w)
}

func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.manager.SeekTo(req.PositionMs); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	h.writeState(w)
}

func (h *Handler) PlayAt(w http.ResponseWriter, r *http.Request) {
	var req PlayAtRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.manager.PlayAt(req.Index); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "BAD_INDEX", err.Error())
		return
	}
	h.writeState(w)
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Next(); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	h.writeState(w)
}

func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Previous(); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	h.writeState(w)
}

func (h *Handler) ToggleMode(w http.ResponseWriter, r *http.Request) {
	mode := h.manager.ToggleMode()
	writeJSON(w, http.StatusOK, ModeResponse{PlayMode: mode.String()})
}

func (h *Handler) SetAudiobookMode(w http.ResponseWriter, r *http.Request) {
	var req AudiobookModeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.manager.SetAudiobookMode(req.Enabled)
	h.writeState(w)
}

func (h *Handler) SaveMemory(w http.ResponseWriter, r *http.Request) {
	mem := h.manager.SaveMemoryManually()
	if mem == nil {
		writeError(w, http.StatusConflict, "NO_ACTIVE_ITEM", "nothing is loaded")
		return
	}
	writeJSON(w, http.StatusOK, MemoryResponse{Memory: mem})
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeState(w)
}

func (h *Handler) writeState(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, StateResponse{
		State:    h.manager.State(),
		Playlist: h.manager.Playlist(),
	})
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	folder, ok := folderFromRequest(req.Path, req.TreeURI)
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "path or tree_uri required")
		return
	}
	refs, err := h.manager.Scan(folder)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "SCAN_FAILED", err.Error())
		return
	}
	if refs == nil {
		refs = []media.MediaRef{}
	}
	writeJSON(w, http.StatusOK, ScanResponse{Files: refs})
}

func (h *Handler) ScanDiagnostic(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	folder, ok := folderFromRequest(req.Path, req.TreeURI)
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "path or tree_uri required")
		return
	}
	result := h.manager.ScanDiagnostic(folder)
	writeJSON(w, http.StatusOK, ScanDiagnosticResponse{
		Total: result.Total(),
		Done:  result.Count(media.StatusDone),
		Pass:  result.Count(media.StatusPass),
		Err:   result.Count(media.StatusErr),
		Items: result.Items,
	})
}

func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	folder, ok := folderFromRequest(req.Path, req.TreeURI)
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "path or tree_uri required")
		return
	}
	entries, err := h.manager.Browse(folder)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "BROWSE_FAILED", err.Error())
		return
	}
	if entries == nil {
		entries = []media.BrowseEntry{}
	}
	writeJSON(w, http.StatusOK, BrowseResponse{Entries: entries})
}

func (h *Handler) ContinueListening(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	memories, err := h.manager.Resolver().Recent(limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list memories")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list memories")
		return
	}
	items := make([]ContinueListeningItem, 0, len(memories))
	for _, m := range memories {
		items = append(items, ContinueListeningItem{Memory: m, Progress: m.Progress()})
	}
	writeJSON(w, http.StatusOK, ContinueListeningResponse{Items: items})
}

// DeleteMemory removes the memory for the identity in the "file"
// query parameter. Identities are paths or URIs, so they travel as a
// query value rather than a route segment.
func (h *Handler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("file")
	if id == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "file query parameter required")
		return
	}
	if err := h.manager.Resolver().DeleteMemory(id); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete memory")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearMemories(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Resolver().ClearAll(); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to clear memories")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddBookmark marks the current position of the active item.
func (h *Handler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	var req AddBookmarkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	state := h.manager.State()
	if state.CurrentRef == nil {
		writeError(w, http.StatusConflict, "NO_ACTIVE_ITEM", "nothing is loaded")
		return
	}
	folder := ""
	if pl := h.manager.Playlist(); pl != nil {
		folder = pl.FolderIdentity
	}
	b, err := h.manager.Resolver().AddBookmark(*state.CurrentRef, state.PositionMs, state.DurationMs, req.Label, folder)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to add bookmark")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	fileIdentity := r.URL.Query().Get("file")
	if fileIdentity == "" {
		if state := h.manager.State(); state.CurrentRef != nil {
			fileIdentity = state.CurrentRef.Identity
		}
	}
	bookmarks, err := h.manager.Resolver().Bookmarks(fileIdentity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list bookmarks")
		return
	}
	if bookmarks == nil {
		bookmarks = []storage.Bookmark{}
	}
	writeJSON(w, http.StatusOK, BookmarksResponse{Bookmarks: bookmarks})
}

func (h *Handler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.manager.Resolver().DeleteBookmark(id); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete bookmark")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
