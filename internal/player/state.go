package player

import (
	"time"

	"resona/internal/media"
)

// PlayMode is the user-facing playback policy. It maps onto engine
// repeat/shuffle settings in Session.applyModeLocked.
type PlayMode int

const (
	ModeSequential PlayMode = iota
	ModeShuffle
	ModeRepeatOne
)

// Next cycles Sequential -> Shuffle -> RepeatOne -> Sequential.
func (m PlayMode) Next() PlayMode {
	switch m {
	case ModeSequential:
		return ModeShuffle
	case ModeShuffle:
		return ModeRepeatOne
	default:
		return ModeSequential
	}
}

func (m PlayMode) String() string {
	switch m {
	case ModeShuffle:
		return "shuffle"
	case ModeRepeatOne:
		return "repeat_one"
	default:
		return "sequential"
	}
}

// PlaybackState is the observable player snapshot. Mutated only by the
// session controller and its tracker; callers get copies.
type PlaybackState struct {
	CurrentRef    *media.MediaRef `json:"current_ref,omitempty"`
	CurrentIndex  int             `json:"current_index"`
	PositionMs    int64           `json:"position_ms"`
	DurationMs    int64           `json:"duration_ms"`
	IsPlaying     bool            `json:"is_playing"`
	PlayMode      PlayMode        `json:"play_mode"`
	AudiobookMode bool            `json:"audiobook_mode"`
}

// MemorySaveEvent notifies observers that a resume memory was
// persisted. IsAutoSave marks the audiobook five-minute trigger;
// manual saves carry false.
type MemorySaveEvent struct {
	FileIdentity string    `json:"file_identity"`
	DisplayName  string    `json:"display_name"`
	PositionMs   int64     `json:"position_ms"`
	IsAutoSave   bool      `json:"is_auto_save"`
	SavedAt      time.Time `json:"saved_at"`
}

// Lifecycle is the background-session hook consulted on load.
// EnsureActive is idempotent and its failure is never fatal.
type Lifecycle interface {
	EnsureActive() error
}

// NopLifecycle satisfies Lifecycle when no external surface exists.
type NopLifecycle struct{}

func (NopLifecycle) EnsureActive() error { return nil }
