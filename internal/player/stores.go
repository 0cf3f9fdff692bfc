package player

import "resona/internal/storage"

// MemoryStore is the durable structured store consumed by the
// resolver. *storage.Store is the production implementation.
type MemoryStore interface {
	UpsertMemory(m *storage.PlaybackMemory) error
	GetMemory(fileIdentity string) (*storage.PlaybackMemory, error)
	GetMemoryByDisplayName(name string) (*storage.PlaybackMemory, error)
	RecentMemories(limit int) ([]storage.PlaybackMemory, error)
	DeleteMemory(fileIdentity string) error
	ClearMemories() error
	AddBookmark(b *storage.Bookmark) error
	GetBookmarks(fileIdentity string) ([]storage.Bookmark, error)
	DeleteBookmark(id string) error
	TouchPlaylist(id string) error
}

// SnapshotSink is the fast snapshot store: Put must be cheap enough to
// call on every tracker tick. *storage.SnapshotStore is the production
// implementation.
type SnapshotSink interface {
	Put(fileIdentity string, positionMs, durationMs int64, folderIdentity, displayName string)
	Flush() error
	Entries() []storage.PositionSnapshot
}
