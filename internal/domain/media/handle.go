// Package media defines the contract of a native media-playback handle.
package media

import "time"

// Handle is a native media-playback primitive.
// Operations are fire-and-forget: their effects are reported asynchronously
// as Events, which are the source of truth for play state, time and duration.
type Handle interface {
	// SetSource binds the handle to an audio locator without loading it.
	SetSource(locator string)
	// Source returns the bound locator, or "" when none is bound.
	Source() string
	// Load (re)loads the bound source and resets the position to zero.
	Load()
	// Play starts or resumes playback.
	Play()
	// Pause pauses playback.
	Pause()
	// Paused reports whether playback is paused.
	Paused() bool
	// Position returns the current playback position.
	Position() time.Duration
	// SetPosition moves the playback position.
	SetPosition(d time.Duration)
	// Duration returns the loaded source's duration, or zero while unknown.
	Duration() time.Duration
	// Volume returns the output volume in [0,1].
	Volume() float64
	// SetVolume sets the output volume in [0,1].
	SetVolume(v float64)
}

// Emitter delivers a handle's events.
type Emitter interface {
	Events() <-chan Event
}
