package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the durable structured store: authoritative resume
// memories, bookmarks, and saved-playlist bookkeeping.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		file_identity TEXT PRIMARY KEY,
		position_ms INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		folder_identity TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		saved_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_memories_display ON memories(display_name);
	CREATE INDEX IF NOT EXISTS idx_memories_saved ON memories(saved_at DESC);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		file_identity TEXT NOT NULL,
		position_ms INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		folder_identity TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bookmarks_file ON bookmarks(file_identity);

	CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		last_played_at DATETIME
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertMemory writes the resume record for a file, replacing any
// prior record for the same identity.
func (s *Store) UpsertMemory(m *PlaybackMemory) error {
	_, err := s.db.Exec(`
		INSERT INTO memories (file_identity, position_ms, duration_ms, folder_identity, display_name, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_identity) DO UPDATE SET
			position_ms = excluded.position_ms,
			duration_ms = excluded.duration_ms,
			folder_identity = excluded.folder_identity,
			display_name = excluded.display_name,
			saved_at = excluded.saved_at
	`, m.FileIdentity, m.PositionMs, m.DurationMs, m.FolderIdentity, m.DisplayName, m.SavedAt)

	return err
}

func scanMemory(row *sql.Row) (*PlaybackMemory, error) {
	var m PlaybackMemory
	err := row.Scan(&m.FileIdentity, &m.PositionMs, &m.DurationMs, &m.FolderIdentity, &m.DisplayName, &m.SavedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMemory returns the memory for an exact identity, nil on miss.
func (s *Store) GetMemory(fileIdentity string) (*PlaybackMemory, error) {
	row := s.db.QueryRow(`
		SELECT file_identity, position_ms, duration_ms, folder_identity, display_name, saved_at
		FROM memories WHERE file_identity = ?
	`, fileIdentity)
	return scanMemory(row)
}

// GetMemoryByDisplayName returns the most recently saved memory whose
// display name matches, nil on miss.
func (s *Store) GetMemoryByDisplayName(name string) (*PlaybackMemory, error) {
	row := s.db.QueryRow(`
		SELECT file_identity, position_ms, duration_ms, folder_identity, display_name, saved_at
		FROM memories WHERE display_name = ? ORDER BY saved_at DESC LIMIT 1
	`, name)
	return scanMemory(row)
}

// RecentMemories lists memories newest first, for continue-listening
// views.
func (s *Store) RecentMemories(limit int) ([]PlaybackMemory, error) {
	rows, err := s.db.Query(`
		SELECT file_identity, position_ms, duration_ms, folder_identity, display_name, saved_at
		FROM memories ORDER BY saved_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []PlaybackMemory
	for rows.Next() {
		var m PlaybackMemory
		if err := rows.Scan(&m.FileIdentity, &m.PositionMs, &m.DurationMs, &m.FolderIdentity, &m.DisplayName, &m.SavedAt); err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}

	return memories, rows.Err()
}

// DeleteMemory removes the record for an identity. A missing target is
// not an error.
func (s *Store) DeleteMemory(fileIdentity string) error {
	_, err := s.db.Exec("DELETE FROM memories WHERE file_identity = ?", fileIdentity)
	return err
}

func (s *Store) ClearMemories() error {
	_, err := s.db.Exec("DELETE FROM memories")
	return err
}

// AddBookmark always inserts; bookmarks never overwrite each other.
func (s *Store) AddBookmark(b *Bookmark) error {
	_, err := s.db.Exec(`
		INSERT INTO bookmarks (id, file_identity, position_ms, duration_ms, label, folder_identity, display_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.FileIdentity, b.PositionMs, b.DurationMs, b.Label, b.FolderIdentity, b.DisplayName, b.CreatedAt)

	return err
}

func (s *Store) GetBookmarks(fileIdentity string) ([]Bookmark, error) {
	rows, err := s.db.Query(`
		SELECT id, file_identity, position_ms, duration_ms, label, folder_identity, display_name, created_at
		FROM bookmarks WHERE file_identity = ? ORDER BY position_ms
	`, fileIdentity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.FileIdentity, &b.PositionMs, &b.DurationMs, &b.Label, &b.FolderIdentity, &b.DisplayName, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, rows.Err()
}

func (s *Store) DeleteBookmark(id string) error {
	_, err := s.db.Exec("DELETE FROM bookmarks WHERE id = ?", id)
	return err
}

// TouchPlaylist records that an external playlist grouping was just
// played, creating the row if needed.
func (s *Store) TouchPlaylist(id string) error {
	_, err := s.db.Exec(`
		INSERT INTO playlists (id, last_played_at) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET last_played_at = excluded.last_played_at
	`, id, time.Now())
	return err
}
