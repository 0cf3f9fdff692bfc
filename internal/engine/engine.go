// Package engine defines the contract with the media playback engine.
// Decoding and rendering live behind this interface; the player core
// only loads items, issues commands, and consumes events.
package engine

// Item is one entry handed to the engine. ID is the owning MediaRef
// identity, which makes transition events correlate exactly.
type Item struct {
	ID       string
	URI      string
	MimeType string // "" lets the engine sniff the container itself
}

type RepeatMode int

const (
	RepeatAll RepeatMode = iota
	RepeatOne
)

type State int

const (
	StateIdle State = iota
	StateBuffering
	StateReady
	StateEnded
)

// Event is the tagged engine event variant the session controller
// consumes with a type switch.
type Event interface{ isEvent() }

type IsPlayingChanged struct {
	IsPlaying bool
}

type StateChanged struct {
	State State
}

// Transition fires when the engine moves to another item.
type Transition struct {
	Index  int
	ItemID string
}

func (IsPlayingChanged) isEvent() {}
func (StateChanged) isEvent()     {}
func (Transition) isEvent()       {}

// Engine is the playback engine handle owned by the session
// controller. Implementations deliver events in order on the Events
// channel and close it on Release.
type Engine interface {
	Load(items []Item, startIndex int) error
	Prepare() error
	Play() error
	Pause() error
	SeekTo(index int, positionMs int64) error
	Position() int64
	Duration() int64
	CurrentIndex() int
	HasNext() bool
	HasPrevious() bool
	Next() error
	Previous() error
	SetRepeatMode(mode RepeatMode) error
	SetShuffle(enabled bool) error
	Events() <-chan Event
	Release() error
}
