package media

import "time"

// EventType represents a native media event type.
type EventType int

const (
	EventPlay           EventType = iota // Playback started or resumed
	EventPause                           // Playback paused
	EventLoadedMetadata                  // Duration of the loaded source is known
	EventTimeUpdate                      // Periodic position update
	EventEnded                           // Source played to the end
	EventError                           // Source could not be loaded or played
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventTimeUpdate:
		return "timeupdate"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a native media event.
type Event struct {
	Type     EventType
	Source   string        // Locator the event refers to
	Position time.Duration // Position at the time of the event
	Duration time.Duration // Duration of the source (zero while unknown)
	Err      error         // Set for EventError
}
