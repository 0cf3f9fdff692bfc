package api

import (
	"resona/internal/media"
	"resona/internal/player"
	"resona/internal/storage"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Load commands

type LoadFolderRequest struct {
	Path       string `json:"path,omitempty"`
	TreeURI    string `json:"tree_uri,omitempty"`
	StartIndex int    `json:"start_index"`
}

type LoadFilesRequest struct {
	Paths      []string `json:"paths"`
	StartIndex int      `json:"start_index"`
}

type LoadURIsRequest struct {
	FolderURI  string            `json:"folder_uri"`
	Entries    []player.URIEntry `json:"entries"`
	StartIndex int               `json:"start_index"`
}

type SeekRequest struct {
	PositionMs int64 `json:"position_ms"`
}

type PlayAtRequest struct {
	Index int `json:"index"`
}

type AudiobookModeRequest struct {
	Enabled bool `json:"enabled"`
}

type StateResponse struct {
	State    player.PlaybackState `json:"state"`
	Playlist *media.Playlist      `json:"playlist,omitempty"`
}

type ModeResponse struct {
	PlayMode string `json:"play_mode"`
}

// Scan / browse

type ScanRequest struct {
	Path    string `json:"path,omitempty"`
	TreeURI string `json:"tree_uri,omitempty"`
}

type ScanResponse struct {
	Files []media.MediaRef `json:"files"`
}

type ScanDiagnosticResponse struct {
	Total int                    `json:"total"`
	Done  int                    `json:"done"`
	Pass  int                    `json:"pass"`
	Err   int                    `json:"err"`
	Items []media.ScanResultItem `json:"items"`
}

type BrowseResponse struct {
	Entries []media.BrowseEntry `json:"entries"`
}

// Memories / bookmarks

type MemoryResponse struct {
	Memory *storage.PlaybackMemory `json:"memory"`
}

type ContinueListeningItem struct {
	Memory   storage.PlaybackMemory `json:"memory"`
	Progress float64                `json:"progress"`
}

type ContinueListeningResponse struct {
	Items []ContinueListeningItem `json:"items"`
}

type AddBookmarkRequest struct {
	Label string `json:"label"`
}

type BookmarksResponse struct {
	Bookmarks []storage.Bookmark `json:"bookmarks"`
}
