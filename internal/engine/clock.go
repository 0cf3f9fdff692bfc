package engine

import (
	"errors"
	"sync"
	"time"
)

// ClockEngine is a headless engine that advances position on the wall
// clock instead of decoding audio. It drives the player core when no
// real renderer is attached (dry runs, the control server, development
// against remote shares).
type ClockEngine struct {
	mu        sync.Mutex
	items     []Item
	index     int
	playing   bool
	released  bool
	played    int64 // position accumulated up to the last pause
	resumedAt time.Time
	durations map[string]int64
	repeat    RepeatMode
	shuffle   bool
	events    chan Event
}

var errReleased = errors.New("engine released")

func NewClockEngine() *ClockEngine {
	return &ClockEngine{
		durations: make(map[string]int64),
		events:    make(chan Event, 16),
	}
}

// SetItemDuration registers a known duration for an item, typically
// fed back from the metadata loader.
func (e *ClockEngine) SetItemDuration(itemID string, durationMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.durations[itemID] = durationMs
}

func (e *ClockEngine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
	}
}

func (e *ClockEngine) Load(items []Item, startIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return errReleased
	}
	if startIndex < 0 || startIndex >= len(items) {
		startIndex = 0
	}
	e.items = items
	e.index = startIndex
	e.played = 0
	e.playing = false
	if len(items) > 0 {
		e.emit(Transition{Index: startIndex, ItemID: items[startIndex].ID})
	}
	return nil
}

func (e *ClockEngine) Prepare() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return errReleased
	}
	e.emit(StateChanged{State: StateReady})
	return nil
}

func (e *ClockEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released || len(e.items) == 0 {
		return errReleased
	}
	if !e.playing {
		e.playing = true
		e.resumedAt = time.Now()
		e.emit(IsPlayingChanged{IsPlaying: true})
	}
	return nil
}

func (e *ClockEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return errReleased
	}
	if e.playing {
		e.played += time.Since(e.resumedAt).Milliseconds()
		e.playing = false
		e.emit(IsPlayingChanged{IsPlaying: false})
	}
	return nil
}

func (e *ClockEngine) SeekTo(index int, positionMs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return errReleased
	}
	if index >= 0 && index < len(e.items) && index != e.index {
		e.index = index
		e.emit(Transition{Index: index, ItemID: e.items[index].ID})
	}
	e.played = positionMs
	e.resumedAt = time.Now()
	return nil
}

func (e *ClockEngine) Position() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		return e.played + time.Since(e.resumedAt).Milliseconds()
	}
	return e.played
}

func (e *ClockEngine) Duration() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index >= 0 && e.index < len(e.items) {
		return e.durations[e.items[e.index].ID]
	}
	return 0
}

func (e *ClockEngine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

func (e *ClockEngine) HasNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index+1 < len(e.items) || (e.repeat == RepeatAll && len(e.items) > 1)
}

func (e *ClockEngine) HasPrevious() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index > 0 || (e.repeat == RepeatAll && len(e.items) > 1)
}

func (e *ClockEngine) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released || len(e.items) == 0 {
		return errReleased
	}
	next := e.index + 1
	if next >= len(e.items) {
		if e.repeat != RepeatAll {
			return nil
		}
		next = 0
	}
	e.index = next
	e.played = 0
	e.resumedAt = time.Now()
	e.emit(Transition{Index: next, ItemID: e.items[next].ID})
	return nil
}

func (e *ClockEngine) Previous() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released || len(e.items) == 0 {
		return errReleased
	}
	prev := e.index - 1
	if prev < 0 {
		if e.repeat != RepeatAll {
			return nil
		}
		prev = len(e.items) - 1
	}
	e.index = prev
	e.played = 0
	e.resumedAt = time.Now()
	e.emit(Transition{Index: prev, ItemID: e.items[prev].ID})
	return nil
}

func (e *ClockEngine) SetRepeatMode(mode RepeatMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = mode
	return nil
}

func (e *ClockEngine) SetShuffle(enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shuffle = enabled
	return nil
}

func (e *ClockEngine) Events() <-chan Event {
	return e.events
}

func (e *ClockEngine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return nil
	}
	e.released = true
	e.playing = false
	close(e.events)
	return nil
}
