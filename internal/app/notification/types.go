package notification

import (
	"time"

	"github.com/osa030/groove/internal/app/playback"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/domain/track"
)

// Type identifies the payload of a notification.
type Type string

const (
	TypeInitialState Type = "initial_state"
	TypeTrack        Type = "track"
	TypeList         Type = "list"
	TypePlaying      Type = "playing"
	TypeProgress     Type = "progress"
	TypeModes        Type = "modes"
	TypeVolume       Type = "volume"
)

// Notification is one update sent to subscribers.
type Notification struct {
	Type       Type   `json:"type"`
	SequenceNo uint64 `json:"sequence_no"`
	Payload    any    `json:"payload"`
}

// TrackView is the wire form of a track.
type TrackView struct {
	Index        int     `json:"index"`
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Cover        string  `json:"cover"`
	Duration     float64 `json:"duration"`
	DurationText string  `json:"duration_text"`
}

// ListPayload is the visible list and the highlighted index.
type ListPayload struct {
	Entries []TrackView `json:"entries"`
	Active  int         `json:"active"`
}

type PlayingPayload struct {
	Playing bool `json:"playing"`
}

// ProgressPayload carries times in seconds plus their m:ss rendering.
type ProgressPayload struct {
	Position     float64 `json:"position"`
	Duration     float64 `json:"duration"`
	PositionText string  `json:"position_text"`
	DurationText string  `json:"duration_text"`
}

type ModesPayload struct {
	Shuffle bool   `json:"shuffle"`
	Repeat  string `json:"repeat"`
}

type VolumePayload struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

// StatePayload is a full snapshot, sent first on every new subscription.
type StatePayload struct {
	Name     string          `json:"name"`
	Track    TrackView       `json:"track"`
	Loaded   bool            `json:"loaded"`
	Playing  bool            `json:"playing"`
	Modes    ModesPayload    `json:"modes"`
	Volume   VolumePayload   `json:"volume"`
	Progress ProgressPayload `json:"progress"`
	Filter   string          `json:"filter"`
	Count    int             `json:"count"`
}

// CoverURL returns the path the web surface serves a track's cover from.
func CoverURL(id string) string {
	return "/covers/" + id
}

// NewTrackView converts a track at index i.
func NewTrackView(i int, t track.Track) TrackView {
	return TrackView{
		Index:        i,
		ID:           t.ID,
		Title:        t.Title,
		Artist:       t.Artist,
		Cover:        CoverURL(t.ID),
		Duration:     t.Duration.Seconds(),
		DurationText: track.FormatTime(t.Duration),
	}
}

// NewTrackViews converts playlist entries.
func NewTrackViews(entries []playlist.Entry) []TrackView {
	views := make([]TrackView, len(entries))
	for i, e := range entries {
		views[i] = NewTrackView(e.Index, e.Track)
	}
	return views
}

// NewProgressPayload converts a position and duration.
func NewProgressPayload(position, duration time.Duration) ProgressPayload {
	return ProgressPayload{
		Position:     position.Seconds(),
		Duration:     duration.Seconds(),
		PositionText: track.FormatTime(position),
		DurationText: track.FormatTime(duration),
	}
}

// NewStatePayload converts a controller snapshot.
func NewStatePayload(name string, count int, s playback.State) StatePayload {
	return StatePayload{
		Name:     name,
		Track:    NewTrackView(s.Index, s.Track),
		Loaded:   s.Loaded,
		Playing:  s.IsPlaying,
		Modes:    ModesPayload{Shuffle: s.Shuffle, Repeat: s.Repeat.String()},
		Volume:   VolumePayload{Volume: s.Volume, Muted: s.Muted},
		Progress: NewProgressPayload(s.Position, s.Duration),
		Filter:   s.Filter,
		Count:    count,
	}
}
