package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PositionSnapshot is one fast-store entry: the last seen position for
// a file, written every tracker tick.
type PositionSnapshot struct {
	FileIdentity   string    `json:"file_identity"`
	PositionMs     int64     `json:"position_ms"`
	DurationMs     int64     `json:"duration_ms"`
	FolderIdentity string    `json:"folder_identity"`
	DisplayName    string    `json:"display_name"`
	SavedAt        time.Time `json:"saved_at"`
}

// SnapshotStore is the fast snapshot store: an LRU in memory, mirrored
// to a small JSON file by a background flusher so a crash loses at
// most one flush interval. Put never touches the disk.
type SnapshotStore struct {
	path    string
	cache   *lru.Cache[string, PositionSnapshot]
	mu      sync.Mutex
	dirty   bool
	stop    chan struct{}
	stopped sync.Once
	done    chan struct{}
}

func NewSnapshotStore(path string, capacity int, flushEvery time.Duration) (*SnapshotStore, error) {
	if capacity <= 0 {
		capacity = 512
	}
	cache, err := lru.New[string, PositionSnapshot](capacity)
	if err != nil {
		return nil, err
	}

	s := &SnapshotStore{
		path:  path,
		cache: cache,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	s.loadFromDisk()

	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	go s.flushLoop(flushEvery)

	return s, nil
}

func (s *SnapshotStore) loadFromDisk() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var entries []PositionSnapshot
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	for _, e := range entries {
		s.cache.Add(e.FileIdentity, e)
	}
}

// Put records the position for a file. Cheap: memory only.
func (s *SnapshotStore) Put(fileIdentity string, positionMs, durationMs int64, folderIdentity, displayName string) {
	s.cache.Add(fileIdentity, PositionSnapshot{
		FileIdentity:   fileIdentity,
		PositionMs:     positionMs,
		DurationMs:     durationMs,
		FolderIdentity: folderIdentity,
		DisplayName:    displayName,
		SavedAt:        time.Now(),
	})
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *SnapshotStore) Get(fileIdentity string) (PositionSnapshot, bool) {
	return s.cache.Get(fileIdentity)
}

// Entries returns every snapshot currently held, newest data included.
// Used at startup to reconcile crash-time positions into the durable
// store.
func (s *SnapshotStore) Entries() []PositionSnapshot {
	keys := s.cache.Keys()
	entries := make([]PositionSnapshot, 0, len(keys))
	for _, k := range keys {
		if e, ok := s.cache.Peek(k); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Flush writes the snapshot file now, regardless of the dirty flag.
func (s *SnapshotStore) Flush() error {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()

	entries := s.Entries()
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

func (s *SnapshotStore) flushLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			dirty := s.dirty
			s.mu.Unlock()
			if dirty {
				s.Flush()
			}
		}
	}
}

// Close stops the flusher and writes a final snapshot.
func (s *SnapshotStore) Close() error {
	s.stopped.Do(func() { close(s.stop) })
	<-s.done
	return s.Flush()
}
