package player

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"resona/internal/media"
	"resona/internal/storage"
)

// Resolver owns resume-memory and bookmark persistence on top of the
// durable store. A lookup miss is a normal outcome, never an error.
type Resolver struct {
	store  MemoryStore
	logger zerolog.Logger
}

func NewResolver(store MemoryStore, logger zerolog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// ResolveResume finds the resume memory for a ref: exact identity
// first, then a fallback by display name, which bridges the same
// content across path-mode and URI-mode references.
//
// The fallback is heuristic: two different files sharing a display
// name in different folders resolve to whichever was saved last.
func (r *Resolver) ResolveResume(ref media.MediaRef) *storage.PlaybackMemory {
	mem, err := r.store.GetMemory(ref.Identity)
	if err != nil {
		r.logger.Warn().Err(err).Str("id", ref.Identity).Msg("memory lookup failed")
		return nil
	}
	if mem != nil {
		return mem
	}

	mem, err = r.store.GetMemoryByDisplayName(ref.DisplayName)
	if err != nil {
		r.logger.Warn().Err(err).Str("name", ref.DisplayName).Msg("memory fallback lookup failed")
		return nil
	}
	if mem != nil {
		r.logger.Debug().
			Str("id", ref.Identity).
			Str("matched", mem.FileIdentity).
			Msg("resume matched by display name")
	}
	return mem
}

// SaveMemory upserts the resume record for a ref.
func (r *Resolver) SaveMemory(ref media.MediaRef, positionMs, durationMs int64, folderIdentity string) (*storage.PlaybackMemory, error) {
	mem := &storage.PlaybackMemory{
		FileIdentity:   ref.Identity,
		PositionMs:     positionMs,
		DurationMs:     durationMs,
		FolderIdentity: folderIdentity,
		DisplayName:    ref.DisplayName,
		SavedAt:        time.Now(),
	}
	if err := r.store.UpsertMemory(mem); err != nil {
		return nil, err
	}
	return mem, nil
}

// AddBookmark inserts a new user-named marker; existing bookmarks for
// the same file are never touched.
func (r *Resolver) AddBookmark(ref media.MediaRef, positionMs, durationMs int64, label, folderIdentity string) (*storage.Bookmark, error) {
	b := &storage.Bookmark{
		ID:             uuid.New().String(),
		FileIdentity:   ref.Identity,
		PositionMs:     positionMs,
		DurationMs:     durationMs,
		Label:          label,
		FolderIdentity: folderIdentity,
		DisplayName:    ref.DisplayName,
		CreatedAt:      time.Now(),
	}
	if err := r.store.AddBookmark(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Resolver) Bookmarks(fileIdentity string) ([]storage.Bookmark, error) {
	return r.store.GetBookmarks(fileIdentity)
}

func (r *Resolver) DeleteBookmark(id string) error {
	return r.store.DeleteBookmark(id)
}

func (r *Resolver) DeleteMemory(fileIdentity string) error {
	return r.store.DeleteMemory(fileIdentity)
}

func (r *Resolver) ClearAll() error {
	return r.store.ClearMemories()
}

func (r *Resolver) Recent(limit int) ([]storage.PlaybackMemory, error) {
	return r.store.RecentMemories(limit)
}

func (r *Resolver) TouchPlaylist(playlistID string) error {
	return r.store.TouchPlaylist(playlistID)
}
