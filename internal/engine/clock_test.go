package engine

import (
	"testing"
	"time"
)

func loadedClock(t *testing.T) *ClockEngine {
	t.Helper()
	e := NewClockEngine()
	items := []Item{
		{ID: "a", URI: "a", MimeType: "audio/mpeg"},
		{ID: "b", URI: "b", MimeType: "audio/mpeg"},
		{ID: "c", URI: "c", MimeType: "audio/mpeg"},
	}
	if err := e.Load(items, 0); err != nil {
		t.Fatal(err)
	}
	return e
}

func drainEvents(e *ClockEngine) []Event {
	var out []Event
	for {
		select {
		case ev := <-e.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestClockEnginePositionAdvancesWhilePlaying(t *testing.T) {
	e := loadedClock(t)
	defer e.Release()

	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if pos := e.Position(); pos <= 0 {
		t.Errorf("position = %d after playing, expected > 0", pos)
	}

	if err := e.Pause(); err != nil {
		t.Fatal(err)
	}
	paused := e.Position()
	time.Sleep(30 * time.Millisecond)
	if e.Position() != paused {
		t.Error("position advanced while paused")
	}
}

func TestClockEngineSeekAndDuration(t *testing.T) {
	e := loadedClock(t)
	defer e.Release()
	e.SetItemDuration("a", 90000)

	if err := e.SeekTo(0, 42000); err != nil {
		t.Fatal(err)
	}
	if pos := e.Position(); pos < 42000 {
		t.Errorf("position = %d, expected at least the seek target", pos)
	}
	if dur := e.Duration(); dur != 90000 {
		t.Errorf("duration = %d, expected 90000", dur)
	}
}

func TestClockEngineNextPreviousBounds(t *testing.T) {
	e := loadedClock(t)
	defer e.Release()

	if e.HasPrevious() {
		t.Error("HasPrevious at index 0 without repeat-all wrap items")
	}
	if !e.HasNext() {
		t.Error("HasNext false at index 0")
	}

	if err := e.Next(); err != nil {
		t.Fatal(err)
	}
	if err := e.Next(); err != nil {
		t.Fatal(err)
	}
	if e.CurrentIndex() != 2 {
		t.Fatalf("index = %d, expected 2", e.CurrentIndex())
	}
	// Without repeat, Next at the end stays put.
	if err := e.Next(); err != nil {
		t.Fatal(err)
	}
	if e.CurrentIndex() != 2 {
		t.Errorf("index = %d after Next at end, expected 2", e.CurrentIndex())
	}

	// Repeat-all wraps around.
	if err := e.SetRepeatMode(RepeatAll); err != nil {
		t.Fatal(err)
	}
	if err := e.Next(); err != nil {
		t.Fatal(err)
	}
	if e.CurrentIndex() != 0 {
		t.Errorf("index = %d after wrap, expected 0", e.CurrentIndex())
	}
}

func TestClockEngineEmitsTransitions(t *testing.T) {
	e := loadedClock(t)
	defer e.Release()

	events := drainEvents(e)
	var tr *Transition
	for _, ev := range events {
		if got, ok := ev.(Transition); ok {
			tr = &got
		}
	}
	if tr == nil {
		t.Fatalf("no transition after load, events: %v", events)
	}
	if tr.Index != 0 || tr.ItemID != "a" {
		t.Errorf("transition = %+v", *tr)
	}

	if err := e.Next(); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, ev := range drainEvents(e) {
		if got, ok := ev.(Transition); ok && got.Index == 1 && got.ItemID == "b" {
			found = true
		}
	}
	if !found {
		t.Error("no transition for Next")
	}
}

func TestClockEngineReleaseClosesEvents(t *testing.T) {
	e := loadedClock(t)

	if err := e.Release(); err != nil {
		t.Fatal(err)
	}
	// Double release stays quiet.
	if err := e.Release(); err != nil {
		t.Fatal(err)
	}
	for {
		if _, ok := <-e.Events(); !ok {
			break
		}
	}
	if err := e.Play(); err == nil {
		t.Error("Play succeeded on a released engine")
	}
}
