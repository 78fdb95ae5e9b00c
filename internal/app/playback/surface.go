package playback

import (
	"time"

	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/domain/track"
)

// Surface renders controller state. Implementations must not block and
// must not call back into the controller synchronously.
type Surface interface {
	// ShowTrack displays the title, artist and cover of the current track.
	ShowTrack(index int, t track.Track)
	// RenderList rebuilds the visible list and highlights active.
	// active may be absent from entries when the filter hides it.
	RenderList(entries []playlist.Entry, active int)
	// ShowPlaying displays the play/pause state.
	ShowPlaying(playing bool)
	// ShowProgress displays the elapsed time and duration.
	ShowProgress(position, duration time.Duration)
	// ShowModes displays shuffle and repeat settings.
	ShowModes(shuffle bool, repeat RepeatMode)
	// ShowVolume displays the volume and whether it counts as muted.
	ShowVolume(volume float64, muted bool)
}

// Surfaces fans every call out to several surfaces.
type Surfaces []Surface

func (s Surfaces) ShowTrack(index int, t track.Track) {
	for _, sf := range s {
		sf.ShowTrack(index, t)
	}
}

func (s Surfaces) RenderList(entries []playlist.Entry, active int) {
	for _, sf := range s {
		sf.RenderList(entries, active)
	}
}

func (s Surfaces) ShowPlaying(playing bool) {
	for _, sf := range s {
		sf.ShowPlaying(playing)
	}
}

func (s Surfaces) ShowProgress(position, duration time.Duration) {
	for _, sf := range s {
		sf.ShowProgress(position, duration)
	}
}

func (s Surfaces) ShowModes(shuffle bool, repeat RepeatMode) {
	for _, sf := range s {
		sf.ShowModes(shuffle, repeat)
	}
}

func (s Surfaces) ShowVolume(volume float64, muted bool) {
	for _, sf := range s {
		sf.ShowVolume(volume, muted)
	}
}

// NopSurface renders nothing.
type NopSurface struct{}

func (NopSurface) ShowTrack(int, track.Track) {}
func (NopSurface) RenderList([]playlist.Entry, int) {}
func (NopSurface) ShowPlaying(bool) {}
func (NopSurface) ShowProgress(time.Duration, time.Duration) {}
func (NopSurface) ShowModes(bool, RepeatMode) {}
func (NopSurface) ShowVolume(float64, bool) {}
