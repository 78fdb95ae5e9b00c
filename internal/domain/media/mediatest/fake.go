// Package mediatest provides an in-memory media handle for tests.
package mediatest

import (
	"sync"
	"time"

	"github.com/osa030/groove/internal/domain/media"
)

// Fake is a synchronous media.Handle.
// Operations update state immediately and queue the events a real handle
// would emit; tests deliver them with Drain.
type Fake struct {
	mu sync.Mutex

	source    string
	paused    bool
	position  time.Duration
	volume    float64
	durations map[string]time.Duration
	pending   []media.Event
	events    chan media.Event

	Loads int // Number of Load calls
	Plays int // Number of Play calls
}

// NewFake creates a fake handle. durations maps locators to the duration
// reported on load.
func NewFake(durations map[string]time.Duration) *Fake {
	if durations == nil {
		durations = make(map[string]time.Duration)
	}
	return &Fake{
		paused:    true,
		volume:    1,
		durations: durations,
		events:    make(chan media.Event, 64),
	}
}

func (f *Fake) SetSource(locator string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.source = locator
}

func (f *Fake) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}

func (f *Fake) Load() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Loads++
	f.position = 0
	if !f.paused {
		f.paused = true
		f.emitLocked(media.EventPause)
	}
	f.emitLocked(media.EventLoadedMetadata)
}

func (f *Fake) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Plays++
	if f.paused {
		f.paused = false
		f.emitLocked(media.EventPlay)
	}
}

func (f *Fake) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.paused {
		f.paused = true
		f.emitLocked(media.EventPause)
	}
}

func (f *Fake) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *Fake) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *Fake) SetPosition(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = d
	f.emitLocked(media.EventTimeUpdate)
}

func (f *Fake) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.durations[f.source]
}

func (f *Fake) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *Fake) SetVolume(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
}

// Events returns a channel fed by Flush.
func (f *Fake) Events() <-chan media.Event {
	return f.events
}

// Advance moves the position forward as if time passed while playing.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position += d
	f.emitLocked(media.EventTimeUpdate)
}

// End simulates the source playing to its end.
func (f *Fake) End() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = f.durations[f.source]
	f.paused = true
	f.emitLocked(media.EventPause)
	f.emitLocked(media.EventEnded)
}

// Drain returns and clears the queued events.
func (f *Fake) Drain() []media.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := f.pending
	f.pending = nil
	return events
}

// Flush moves the queued events onto the Events channel.
func (f *Fake) Flush() {
	for _, ev := range f.Drain() {
		f.events <- ev
	}
}

func (f *Fake) emitLocked(t media.EventType) {
	f.pending = append(f.pending, media.Event{
		Type:     t,
		Source:   f.source,
		Position: f.position,
		Duration: f.durations[f.source],
	})
}
