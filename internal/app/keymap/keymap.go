// Package keymap maps keyboard shortcuts onto playback operations.
package keymap

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Key is a shortcut key understood by the player.
type Key int

const (
	KeyUnknown Key = iota
	KeySpace
	KeyArrowLeft
	KeyArrowRight
	KeyArrowUp
	KeyArrowDown
)

// String returns the DOM-style key name.
func (k Key) String() string {
	switch k {
	case KeySpace:
		return "Space"
	case KeyArrowLeft:
		return "ArrowLeft"
	case KeyArrowRight:
		return "ArrowRight"
	case KeyArrowUp:
		return "ArrowUp"
	case KeyArrowDown:
		return "ArrowDown"
	default:
		return "Unknown"
	}
}

// ParseKey accepts both DOM key names ("ArrowLeft", "Space", " ") and
// terminal key names ("left", "space").
func ParseKey(s string) Key {
	if s == " " {
		return KeySpace
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "space", "spacebar":
		return KeySpace
	case "arrowleft", "left":
		return KeyArrowLeft
	case "arrowright", "right":
		return KeyArrowRight
	case "arrowup", "up":
		return KeyArrowUp
	case "arrowdown", "down":
		return KeyArrowDown
	default:
		return KeyUnknown
	}
}

// Target is the playback surface the shortcuts drive.
type Target interface {
	TogglePlayPause()
	Position() time.Duration
	Duration() time.Duration
	Seek(position time.Duration)
	Volume() float64
	SetVolume(v float64)
}

// Config holds shortcut step sizes.
type Config struct {
	SeekStep   time.Duration
	VolumeStep float64
}

// DefaultConfig returns the standard steps: 5 seconds and 5% volume.
func DefaultConfig() Config {
	return Config{
		SeekStep:   5 * time.Second,
		VolumeStep: 0.05,
	}
}

// Dispatcher applies shortcuts to a target.
type Dispatcher struct {
	target Target
	config Config
}

// NewDispatcher creates a dispatcher. Zero steps fall back to the defaults.
func NewDispatcher(target Target, config Config) *Dispatcher {
	defaults := DefaultConfig()
	if config.SeekStep <= 0 {
		config.SeekStep = defaults.SeekStep
	}
	if config.VolumeStep <= 0 {
		config.VolumeStep = defaults.VolumeStep
	}
	return &Dispatcher{target: target, config: config}
}

// Dispatch applies key and reports whether it was consumed. Nothing happens
// while focus is in a text input so typing a query is never hijacked.
func (d *Dispatcher) Dispatch(key Key, inTextInput bool) bool {
	if inTextInput {
		return false
	}

	switch key {
	case KeySpace:
		d.target.TogglePlayPause()
	case KeyArrowRight:
		pos := d.target.Position() + d.config.SeekStep
		if dur := d.target.Duration(); dur > 0 {
			pos = min(pos, dur)
		}
		d.target.Seek(pos)
	case KeyArrowLeft:
		d.target.Seek(max(d.target.Position()-d.config.SeekStep, 0))
	case KeyArrowUp:
		d.target.SetVolume(lo.Clamp(d.target.Volume()+d.config.VolumeStep, 0, 1))
	case KeyArrowDown:
		d.target.SetVolume(lo.Clamp(d.target.Volume()-d.config.VolumeStep, 0, 1))
	default:
		return false
	}
	return true
}

// DispatchName parses name and dispatches it.
func (d *Dispatcher) DispatchName(name string, inTextInput bool) bool {
	return d.Dispatch(ParseKey(name), inTextInput)
}
