// Package playback provides the playback controller that keeps a track list,
// a native media handle and the rendered views in sync.
package playback

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/groove/internal/domain/track"
)

// RepeatMode controls what happens when a track ends.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Stop after the last track
	RepeatAll                   // Wrap around to the first track
	RepeatOne                   // Replay the current track
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the following mode in the Off -> All -> One cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ParseRepeatMode converts a string to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return RepeatOff, nil
	case "all":
		return RepeatAll, nil
	case "one", "track":
		return RepeatOne, nil
	default:
		return RepeatOff, errors.Newf("unknown repeat mode: %q", s)
	}
}

// Direction selects the track to advance to.
type Direction int

const (
	Previous Direction = iota
	Next
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// State is a point-in-time copy of the controller state.
type State struct {
	Index     int
	Track     track.Track
	Loaded    bool
	IsPlaying bool
	Shuffle   bool
	Repeat    RepeatMode
	Volume    float64
	Muted     bool
	Position  time.Duration
	Duration  time.Duration
	Filter    string
}
