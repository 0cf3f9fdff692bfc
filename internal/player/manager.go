package player

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"resona/internal/config"
	"resona/internal/engine"
	"resona/internal/media"
	"resona/internal/storage"
)

// URIEntry pairs an opaque provider URI with its display filename,
// which the URI alone cannot carry.
type URIEntry struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// Manager is the command facade over the whole player core. It owns at
// most one live session and guarantees exactly one active playlist of
// one mode at any time.
type Manager struct {
	scanner   *media.Scanner
	builder   *media.Builder
	resolver  *Resolver
	snapshot  SnapshotSink
	metadata  *media.MetadataLoader
	newEngine func() engine.Engine
	lifecycle Lifecycle
	logger    zerolog.Logger
	cfg       config.PlayerConfig

	saveEvents chan MemorySaveEvent
	onTrack    func(media.MediaRef, *media.TrackInfo)

	mu      sync.Mutex
	session *Session
}

func NewManager(
	scanner *media.Scanner,
	resolver *Resolver,
	snapshot SnapshotSink,
	metadata *media.MetadataLoader,
	newEngine func() engine.Engine,
	lifecycle Lifecycle,
	cfg config.PlayerConfig,
	logger zerolog.Logger,
) *Manager {
	if lifecycle == nil {
		lifecycle = NopLifecycle{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultPlayerConfig().TickInterval
	}
	if cfg.DurableEveryTicks <= 0 {
		cfg.DurableEveryTicks = defaultPlayerConfig().DurableEveryTicks
	}
	if cfg.AudiobookSaveAfter <= 0 {
		cfg.AudiobookSaveAfter = defaultPlayerConfig().AudiobookSaveAfter
	}
	return &Manager{
		scanner:    scanner,
		builder:    media.NewBuilder(),
		resolver:   resolver,
		snapshot:   snapshot,
		metadata:   metadata,
		newEngine:  newEngine,
		lifecycle:  lifecycle,
		logger:     logger,
		cfg:        cfg,
		saveEvents: make(chan MemorySaveEvent, 16),
	}
}

func defaultPlayerConfig() config.PlayerConfig {
	c, _ := config.Load("")
	return c.Player
}

// SetTrackObserver registers the callback invoked after async metadata
// loads. Must be set before the first load.
func (m *Manager) SetTrackObserver(fn func(media.MediaRef, *media.TrackInfo)) {
	m.onTrack = fn
}

// SaveEvents is the observable memory-save stream.
func (m *Manager) SaveEvents() <-chan MemorySaveEvent {
	return m.saveEvents
}

func (m *Manager) current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// ensureSession creates a session on first use or after an explicit
// release; a released session is never revived implicitly.
func (m *Manager) ensureSession() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil && !m.session.Released() {
		return m.session
	}
	m.session = NewSession(
		m.newEngine(),
		m.builder,
		m.resolver,
		m.snapshot,
		m.metadata,
		m.cfg,
		m.saveEvents,
		m.onTrack,
		m.logger,
	)
	return m.session
}

func (m *Manager) ensureActive() {
	if err := m.lifecycle.EnsureActive(); err != nil {
		m.logger.Warn().Err(err).Msg("background session refused, controls degrade")
	}
}

func (m *Manager) loadAndPlay(pl *media.Playlist, startIndex int) error {
	m.ensureActive()
	return m.ensureSession().Load(pl, startIndex)
}

// LoadFolderAndPlay scans a folder (path or tree URI), builds the
// queue sorted by display name, and starts playback at startIndex.
func (m *Manager) LoadFolderAndPlay(folder media.FolderRef, startIndex int) error {
	refs, err := m.scanner.Scan(folder)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("no playable files in %q", folder.Identity)
	}
	pl, err := m.builder.Build(folder.Identity, refs)
	if err != nil {
		return err
	}
	return m.loadAndPlay(pl, startIndex)
}

// LoadFilesAndPlay plays an explicit list of local files in the given
// order. The folder identity is taken from the first file.
func (m *Manager) LoadFilesAndPlay(paths []string, startIndex int) error {
	if len(paths) == 0 {
		return fmt.Errorf("no files given")
	}
	refs := make([]media.MediaRef, 0, len(paths))
	for _, p := range paths {
		refs = append(refs, media.NewPathRef(p))
	}
	pl, err := m.builder.Build(filepath.Dir(paths[0]), refs)
	if err != nil {
		return err
	}
	return m.loadAndPlay(pl, startIndex)
}

// LoadURIsAndPlay plays an explicit list of provider URIs in order.
func (m *Manager) LoadURIsAndPlay(folderURI string, entries []URIEntry, startIndex int) error {
	if len(entries) == 0 {
		return fmt.Errorf("no uris given")
	}
	refs := make([]media.MediaRef, 0, len(entries))
	for _, e := range entries {
		refs = append(refs, media.NewProviderRef(e.URI, e.Name))
	}
	pl, err := media.NewPlaylist(media.KindProviderURI, folderURI, refs)
	if err != nil {
		return err
	}
	return m.loadAndPlay(pl, startIndex)
}

func (m *Manager) Play() error {
	s := m.current()
	if s == nil {
		return nil
	}
	return s.Play()
}

func (m *Manager) Pause() error {
	s := m.current()
	if s == nil {
		return nil
	}
	return s.Pause()
}

func (m *Manager) SeekTo(positionMs int64) error {
	s := m.current()
	if s == nil {
		return nil
	}
	return s.SeekTo(positionMs)
}

func (m *Manager) PlayAt(index int) error {
	s := m.current()
	if s == nil {
		return nil
	}
	return s.PlayAt(index)
}

func (m *Manager) Next() error {
	s := m.current()
	if s == nil {
		return nil
	}
	return s.Next()
}

func (m *Manager) Previous() error {
	s := m.current()
	if s == nil {
		return nil
	}
	return s.Previous()
}

func (m *Manager) ToggleMode() PlayMode {
	s := m.current()
	if s == nil {
		return ModeSequential
	}
	return s.ToggleMode()
}

func (m *Manager) SetAudiobookMode(enabled bool) {
	s := m.current()
	if s == nil {
		return
	}
	s.SetAudiobookMode(enabled)
}

func (m *Manager) SaveMemoryManually() *storage.PlaybackMemory {
	s := m.current()
	if s == nil {
		return nil
	}
	return s.SaveMemoryManually()
}

func (m *Manager) State() PlaybackState {
	s := m.current()
	if s == nil {
		return PlaybackState{}
	}
	return s.State()
}

func (m *Manager) Playlist() *media.Playlist {
	s := m.current()
	if s == nil {
		return nil
	}
	return s.Playlist()
}

func (m *Manager) Scan(folder media.FolderRef) ([]media.MediaRef, error) {
	return m.scanner.Scan(folder)
}

func (m *Manager) ScanDiagnostic(folder media.FolderRef) *media.ScanResult {
	return m.scanner.ScanDiagnostic(folder)
}

func (m *Manager) Browse(folder media.FolderRef) ([]media.BrowseEntry, error) {
	return m.scanner.Browse(folder)
}

func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

// ReconcileSnapshots folds fast-store positions written after the last
// durable save back into the durable store. Run once at startup so a
// crash mid-session still resumes from the last tick.
func (m *Manager) ReconcileSnapshots() {
	for _, snap := range m.snapshot.Entries() {
		mem, err := m.resolver.store.GetMemory(snap.FileIdentity)
		if err != nil {
			m.logger.Warn().Err(err).Str("id", snap.FileIdentity).Msg("reconcile lookup failed")
			continue
		}
		if mem != nil && !mem.SavedAt.Before(snap.SavedAt) {
			continue
		}
		err = m.resolver.store.UpsertMemory(&storage.PlaybackMemory{
			FileIdentity:   snap.FileIdentity,
			PositionMs:     snap.PositionMs,
			DurationMs:     snap.DurationMs,
			FolderIdentity: snap.FolderIdentity,
			DisplayName:    snap.DisplayName,
			SavedAt:        snap.SavedAt,
		})
		if err != nil {
			m.logger.Warn().Err(err).Str("id", snap.FileIdentity).Msg("reconcile upsert failed")
			continue
		}
		m.logger.Info().
			Str("id", snap.FileIdentity).
			Int64("position_ms", snap.PositionMs).
			Msg("recovered position from snapshot")
	}
}

// Release disposes the live session. Further commands are no-ops until
// the next load.
func (m *Manager) Release() {
	s := m.current()
	if s != nil {
		s.Release()
	}
}
