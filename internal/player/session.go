package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"resona/internal/config"
	"resona/internal/engine"
	"resona/internal/media"
	"resona/internal/storage"
)

// Session owns one engine handle and the playback state machine:
// Idle -> Loaded -> Playing <-> Paused -> Ended, with Loaded re-entered
// on every track transition. A released session turns every command
// into a no-op; callers may race a release against an in-flight save.
type Session struct {
	engine   engine.Engine
	builder  *media.Builder
	resolver *Resolver
	snapshot SnapshotSink
	metadata *media.MetadataLoader
	logger   zerolog.Logger
	cfg      config.PlayerConfig

	saveEvents chan<- MemorySaveEvent
	onTrack    func(media.MediaRef, *media.TrackInfo)

	mu             sync.Mutex
	released       bool
	playlist       *media.Playlist
	state          PlaybackState
	audiobookAccum time.Duration
	tracker        *tracker

	loopDone chan struct{}
}

// tracker is one cancellable periodic task; at most one is alive per
// session. Cancellation closes stop; the tick body re-checks identity
// under the session lock so a tick in flight never writes afterward.
type tracker struct {
	stop chan struct{}
	done chan struct{}
}

func NewSession(
	eng engine.Engine,
	builder *media.Builder,
	resolver *Resolver,
	snapshot SnapshotSink,
	metadata *media.MetadataLoader,
	cfg config.PlayerConfig,
	saveEvents chan<- MemorySaveEvent,
	onTrack func(media.MediaRef, *media.TrackInfo),
	logger zerolog.Logger,
) *Session {
	s := &Session{
		engine:     eng,
		builder:    builder,
		resolver:   resolver,
		snapshot:   snapshot,
		metadata:   metadata,
		logger:     logger,
		cfg:        cfg,
		saveEvents: saveEvents,
		onTrack:    onTrack,
		loopDone:   make(chan struct{}),
	}
	go s.eventLoop()
	return s
}

// Load swaps in a new playlist atomically, seeks to the resolved
// resume position for the start item, then starts playback. The resume
// lookup completes before play is issued, so playback never audibly
// starts from zero when a memory exists.
func (s *Session) Load(pl *media.Playlist, startIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	if pl.Len() == 0 {
		return fmt.Errorf("empty playlist for %q", pl.FolderIdentity)
	}
	if startIndex < 0 || startIndex >= pl.Len() {
		startIndex = 0
	}

	// List and folder identity swap together; observers never see a
	// half-replaced playlist.
	s.playlist = pl
	ref := pl.Refs[startIndex]
	s.state.CurrentIndex = startIndex
	s.state.CurrentRef = &ref
	s.state.PositionMs = 0
	s.state.DurationMs = 0

	items := s.builder.EngineItems(pl)
	if err := s.engine.Load(items, startIndex); err != nil {
		return fmt.Errorf("engine load: %w", err)
	}
	if err := s.engine.Prepare(); err != nil {
		return fmt.Errorf("engine prepare: %w", err)
	}
	s.applyModeLocked()

	if mem := s.resolver.ResolveResume(ref); mem != nil && mem.PositionMs > 0 {
		if err := s.engine.SeekTo(startIndex, mem.PositionMs); err != nil {
			s.logger.Warn().Err(err).Str("id", ref.Identity).Msg("resume seek failed")
		} else {
			s.state.PositionMs = mem.PositionMs
			s.state.DurationMs = mem.DurationMs
		}
	}

	if pl.PlaylistID != "" {
		if err := s.resolver.TouchPlaylist(pl.PlaylistID); err != nil {
			s.logger.Warn().Err(err).Str("playlist", pl.PlaylistID).Msg("failed to touch playlist")
		}
	}

	s.logger.Info().
		Str("folder", pl.FolderIdentity).
		Str("mode", pl.Mode.String()).
		Int("tracks", pl.Len()).
		Int("start", startIndex).
		Msg("playlist loaded")

	return s.engine.Play()
}

func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	return s.engine.Play()
}

// Pause saves the position through the fast snapshot path before the
// engine is told to pause.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	if ref := s.state.CurrentRef; ref != nil {
		pos := s.engine.Position()
		dur := s.engine.Duration()
		s.state.PositionMs = pos
		s.state.DurationMs = dur
		s.snapshot.Put(ref.Identity, pos, dur, s.folderIdentityLocked(), ref.DisplayName)
		if err := s.snapshot.Flush(); err != nil {
			s.logger.Warn().Err(err).Msg("snapshot flush failed")
		}
	}
	return s.engine.Pause()
}

func (s *Session) SeekTo(positionMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	if err := s.engine.SeekTo(s.state.CurrentIndex, positionMs); err != nil {
		return err
	}
	s.state.PositionMs = positionMs
	return nil
}

// PlayAt jumps to a playlist index, persisting the current position
// first.
func (s *Session) PlayAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	if index < 0 || index >= s.playlist.Len() {
		return fmt.Errorf("index %d out of range", index)
	}
	s.persistPositionLocked(false)
	if err := s.engine.SeekTo(index, 0); err != nil {
		return err
	}
	return s.engine.Play()
}

// Next advances only when the engine reports an adjacent item; the
// current position is always persisted first.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.persistPositionLocked(false)
	if !s.engine.HasNext() {
		return nil
	}
	return s.engine.Next()
}

func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.persistPositionLocked(false)
	if !s.engine.HasPrevious() {
		return nil
	}
	return s.engine.Previous()
}

// ToggleMode cycles Sequential -> Shuffle -> RepeatOne -> Sequential.
func (s *Session) ToggleMode() PlayMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return s.state.PlayMode
	}
	s.state.PlayMode = s.state.PlayMode.Next()
	s.applyModeLocked()
	return s.state.PlayMode
}

func (s *Session) SetAudiobookMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.state.AudiobookMode = enabled
	if !enabled {
		s.audiobookAccum = 0
	}
}

// SaveMemoryManually persists the current position immediately and
// raises a non-auto save event. Returns nil when nothing is loaded.
func (s *Session) SaveMemoryManually() *storage.PlaybackMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || s.state.CurrentRef == nil {
		return nil
	}
	ref := *s.state.CurrentRef
	pos := s.engine.Position()
	dur := s.engine.Duration()
	mem, err := s.resolver.SaveMemory(ref, pos, dur, s.folderIdentityLocked())
	if err != nil {
		s.logger.Error().Err(err).Str("id", ref.Identity).Msg("manual save failed")
		return nil
	}
	s.emitSave(ref, pos, false)
	return mem
}

// State returns a copy of the observable playback state.
func (s *Session) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Playlist() *media.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist
}

func (s *Session) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Release performs the one deliberate stop-time save, cancels the
// tracker, and disposes the engine handle. The session cannot be
// revived; callers start over through a new Load on a new session.
func (s *Session) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	// The explicit stop-save executes before cancellation, not after.
	s.persistPositionLocked(false)
	if err := s.snapshot.Flush(); err != nil {
		s.logger.Warn().Err(err).Msg("snapshot flush failed")
	}
	s.released = true
	s.cancelTrackerLocked()
	if err := s.engine.Release(); err != nil {
		s.logger.Warn().Err(err).Msg("engine release failed")
	}
	s.mu.Unlock()

	<-s.loopDone
	s.logger.Info().Msg("session released")
}

// eventLoop consumes the ordered engine event stream until the engine
// closes it on release.
func (s *Session) eventLoop() {
	defer close(s.loopDone)
	for ev := range s.engine.Events() {
		switch e := ev.(type) {
		case engine.IsPlayingChanged:
			s.handlePlayingChanged(e.IsPlaying)
		case engine.StateChanged:
			if e.State == engine.StateEnded {
				s.handleEnded()
			}
		case engine.Transition:
			s.handleTransition(e)
		}
	}
}

func (s *Session) handlePlayingChanged(isPlaying bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.state.IsPlaying = isPlaying
	if isPlaying {
		s.startTrackerLocked()
	} else {
		s.cancelTrackerLocked()
		s.persistPositionLocked(false)
	}
}

func (s *Session) handleEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.state.IsPlaying = false
	s.cancelTrackerLocked()
	s.persistPositionLocked(false)
}

func (s *Session) handleTransition(e engine.Transition) {
	s.mu.Lock()
	if s.released || s.playlist == nil {
		s.mu.Unlock()
		return
	}
	idx := s.playlist.IndexOf(e.ItemID)
	if idx < 0 {
		idx = e.Index
	}
	if idx < 0 || idx >= s.playlist.Len() {
		s.mu.Unlock()
		return
	}
	ref := s.playlist.Refs[idx]
	same := s.state.CurrentRef != nil && s.state.CurrentRef.Identity == ref.Identity
	s.state.CurrentIndex = idx
	s.state.CurrentRef = &ref
	if !same {
		s.state.PositionMs = 0
		s.state.DurationMs = 0
	}
	s.mu.Unlock()

	go s.loadMetadata(ref)
	// Load already resolved the start item before play; only genuine
	// track changes look up a resume position here.
	if !same {
		go s.resumeTransition(ref, idx)
	}
}

func (s *Session) loadMetadata(ref media.MediaRef) {
	if s.metadata == nil {
		return
	}
	info := s.metadata.Load(ref)
	s.mu.Lock()
	stale := s.released || s.state.CurrentRef == nil || s.state.CurrentRef.Identity != ref.Identity
	cb := s.onTrack
	s.mu.Unlock()
	if stale || cb == nil {
		return
	}
	cb(ref, info)
}

func (s *Session) resumeTransition(ref media.MediaRef, index int) {
	mem := s.resolver.ResolveResume(ref)
	if mem == nil || mem.PositionMs <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || s.state.CurrentRef == nil || s.state.CurrentRef.Identity != ref.Identity {
		return
	}
	if err := s.engine.SeekTo(index, mem.PositionMs); err != nil {
		s.logger.Warn().Err(err).Str("id", ref.Identity).Msg("transition resume seek failed")
		return
	}
	s.state.PositionMs = mem.PositionMs
}

func (s *Session) applyModeLocked() {
	var repeat engine.RepeatMode
	var shuffle bool
	switch s.state.PlayMode {
	case ModeShuffle:
		repeat, shuffle = engine.RepeatAll, true
	case ModeRepeatOne:
		repeat, shuffle = engine.RepeatOne, false
	default:
		repeat, shuffle = engine.RepeatAll, false
	}
	if err := s.engine.SetRepeatMode(repeat); err != nil {
		s.logger.Warn().Err(err).Msg("failed to set repeat mode")
	}
	if err := s.engine.SetShuffle(shuffle); err != nil {
		s.logger.Warn().Err(err).Msg("failed to set shuffle")
	}
}

func (s *Session) folderIdentityLocked() string {
	if s.playlist == nil {
		return ""
	}
	return s.playlist.FolderIdentity
}

// persistPositionLocked writes the current position to the durable
// store, optionally raising an auto-save event.
func (s *Session) persistPositionLocked(autoSave bool) {
	ref := s.state.CurrentRef
	if ref == nil {
		return
	}
	pos := s.engine.Position()
	dur := s.engine.Duration()
	s.state.PositionMs = pos
	s.state.DurationMs = dur
	if _, err := s.resolver.SaveMemory(*ref, pos, dur, s.folderIdentityLocked()); err != nil {
		s.logger.Error().Err(err).Str("id", ref.Identity).Msg("failed to persist position")
		return
	}
	if autoSave {
		s.emitSave(*ref, pos, true)
	}
}

func (s *Session) emitSave(ref media.MediaRef, positionMs int64, autoSave bool) {
	if s.saveEvents == nil {
		return
	}
	ev := MemorySaveEvent{
		FileIdentity: ref.Identity,
		DisplayName:  ref.DisplayName,
		PositionMs:   positionMs,
		IsAutoSave:   autoSave,
		SavedAt:      time.Now(),
	}
	select {
	case s.saveEvents <- ev:
	default:
	}
}

// startTrackerLocked replaces any live tracker; two trackers never
// coexist for one session.
func (s *Session) startTrackerLocked() {
	s.cancelTrackerLocked()
	t := &tracker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.tracker = t
	go s.trackLoop(t)
}

func (s *Session) cancelTrackerLocked() {
	if s.tracker == nil {
		return
	}
	close(s.tracker.stop)
	s.tracker = nil
}

// trackLoop is the periodic polling task. Every tick publishes the
// engine position and writes the fast snapshot; every Nth tick also
// writes the durable store. Audiobook listening time accumulates per
// tick and forces a durable write plus one auto-save event at the
// configured threshold.
func (s *Session) trackLoop(t *tracker) {
	defer close(t.done)
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}
		tick++
		if !s.tick(t, tick) {
			return
		}
	}
}

// tick runs one poll cycle and reports false once the tracker has been
// cancelled.
func (s *Session) tick(t *tracker, tick int) bool {
	s.mu.Lock()
	// A cancel that won the lock race means this tick must not write
	// anything.
	if s.tracker != t || s.released {
		s.mu.Unlock()
		return false
	}

	ref := s.state.CurrentRef
	if ref == nil {
		s.mu.Unlock()
		return true
	}
	pos := s.engine.Position()
	dur := s.engine.Duration()
	s.state.PositionMs = pos
	s.state.DurationMs = dur
	s.snapshot.Put(ref.Identity, pos, dur, s.folderIdentityLocked(), ref.DisplayName)

	autoSave := false
	if s.state.AudiobookMode && s.state.IsPlaying {
		s.audiobookAccum += s.cfg.TickInterval
		if s.audiobookAccum >= s.cfg.AudiobookSaveAfter {
			s.audiobookAccum = 0
			autoSave = true
		}
	}

	// One durable write per tick at most: the audiobook trigger
	// absorbs a coinciding cadence write.
	if autoSave || tick%s.cfg.DurableEveryTicks == 0 {
		s.persistPositionLocked(autoSave)
	}
	s.mu.Unlock()
	return true
}
