package player

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"resona/internal/engine"
	"resona/internal/storage"
)

// fakeEngine records every call and lets tests push events by hand.
// Nothing is emitted automatically, so tests control event ordering.
type fakeEngine struct {
	mu       sync.Mutex
	items    []engine.Item
	index    int
	position int64
	duration int64
	released bool
	repeat   engine.RepeatMode
	shuffle  bool
	calls    []string
	events   chan engine.Event
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan engine.Event, 16)}
}

func (e *fakeEngine) record(call string) {
	e.calls = append(e.calls, call)
}

func (e *fakeEngine) callLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

func (e *fakeEngine) setPosition(positionMs, durationMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = positionMs
	e.duration = durationMs
}

func (e *fakeEngine) push(ev engine.Event) {
	e.events <- ev
}

func (e *fakeEngine) Load(items []engine.Item, startIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = items
	e.index = startIndex
	e.record(fmt.Sprintf("Load(%d,%d)", len(items), startIndex))
	return nil
}

func (e *fakeEngine) Prepare() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Prepare")
	return nil
}

func (e *fakeEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return errors.New("released")
	}
	e.record("Play")
	return nil
}

func (e *fakeEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Pause")
	return nil
}

func (e *fakeEngine) SeekTo(index int, positionMs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = index
	e.position = positionMs
	e.record(fmt.Sprintf("SeekTo(%d,%d)", index, positionMs))
	return nil
}

func (e *fakeEngine) Position() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *fakeEngine) Duration() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *fakeEngine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

func (e *fakeEngine) HasNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index+1 < len(e.items)
}

func (e *fakeEngine) HasPrevious() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index > 0
}

func (e *fakeEngine) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index++
	e.record("Next")
	return nil
}

func (e *fakeEngine) Previous() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index--
	e.record("Previous")
	return nil
}

func (e *fakeEngine) SetRepeatMode(mode engine.RepeatMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = mode
	return nil
}

func (e *fakeEngine) SetShuffle(enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shuffle = enabled
	return nil
}

func (e *fakeEngine) Events() <-chan engine.Event {
	return e.events
}

func (e *fakeEngine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return nil
	}
	e.released = true
	e.record("Release")
	close(e.events)
	return nil
}

func engineTransition(index int, itemID string) engine.Transition {
	return engine.Transition{Index: index, ItemID: itemID}
}

// fakeMemoryStore is an in-memory MemoryStore that counts writes.
type fakeMemoryStore struct {
	mu        sync.Mutex
	memories  map[string]storage.PlaybackMemory
	bookmarks map[string]storage.Bookmark
	touched   []string
	upserts   int
	failNext  error
}

func newFakeMemoryStore() *fakeMemoryStore {
	return &fakeMemoryStore{
		memories:  make(map[string]storage.PlaybackMemory),
		bookmarks: make(map[string]storage.Bookmark),
	}
}

func (f *fakeMemoryStore) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeMemoryStore) UpsertMemory(m *storage.PlaybackMemory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	f.upserts++
	f.memories[m.FileIdentity] = *m
	return nil
}

func (f *fakeMemoryStore) GetMemory(fileIdentity string) (*storage.PlaybackMemory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	if m, ok := f.memories[fileIdentity]; ok {
		return &m, nil
	}
	return nil, nil
}

func (f *fakeMemoryStore) GetMemoryByDisplayName(name string) (*storage.PlaybackMemory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *storage.PlaybackMemory
	for id := range f.memories {
		m := f.memories[id]
		if m.DisplayName != name {
			continue
		}
		if latest == nil || m.SavedAt.After(latest.SavedAt) {
			latest = &m
		}
	}
	return latest, nil
}

func (f *fakeMemoryStore) RecentMemories(limit int) ([]storage.PlaybackMemory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storage.PlaybackMemory, 0, len(f.memories))
	for _, m := range f.memories {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMemoryStore) DeleteMemory(fileIdentity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.memories, fileIdentity)
	return nil
}

func (f *fakeMemoryStore) ClearMemories() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memories = make(map[string]storage.PlaybackMemory)
	return nil
}

func (f *fakeMemoryStore) AddBookmark(b *storage.Bookmark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookmarks[b.ID] = *b
	return nil
}

func (f *fakeMemoryStore) GetBookmarks(fileIdentity string) ([]storage.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Bookmark
	for _, b := range f.bookmarks {
		if b.FileIdentity == fileIdentity {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PositionMs < out[j].PositionMs })
	return out, nil
}

func (f *fakeMemoryStore) DeleteBookmark(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bookmarks, id)
	return nil
}

func (f *fakeMemoryStore) TouchPlaylist(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeMemoryStore) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

func (f *fakeMemoryStore) memory(fileIdentity string) (storage.PlaybackMemory, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memories[fileIdentity]
	return m, ok
}

// fakeSnapshotSink counts puts and flushes.
type fakeSnapshotSink struct {
	mu      sync.Mutex
	puts    []storage.PositionSnapshot
	flushes int
	entries []storage.PositionSnapshot
}

func (f *fakeSnapshotSink) Put(fileIdentity string, positionMs, durationMs int64, folderIdentity, displayName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, storage.PositionSnapshot{
		FileIdentity:   fileIdentity,
		PositionMs:     positionMs,
		DurationMs:     durationMs,
		FolderIdentity: folderIdentity,
		DisplayName:    displayName,
	})
}

func (f *fakeSnapshotSink) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func (f *fakeSnapshotSink) Entries() []storage.PositionSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries
}

func (f *fakeSnapshotSink) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

func (f *fakeSnapshotSink) flushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}
