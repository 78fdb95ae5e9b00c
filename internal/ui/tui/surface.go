// Package tui renders the player in a terminal with bubbletea.
package tui

import (
	"sync"
	"time"

	"github.com/osa030/groove/internal/app/playback"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/domain/track"
)

// View is what the terminal currently shows.
type View struct {
	Index    int
	Track    track.Track
	Entries  []playlist.Entry
	Active   int
	Playing  bool
	Position time.Duration
	Duration time.Duration
	Shuffle  bool
	Repeat   playback.RepeatMode
	Volume   float64
	Muted    bool
}

// Surface stores render calls for the bubbletea program. Every call marks
// the view dirty; the program picks it up through WaitRefresh.
type Surface struct {
	mu      sync.Mutex
	view    View
	refresh chan struct{}
}

var _ playback.Surface = (*Surface)(nil)

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{refresh: make(chan struct{}, 1)}
}

// View returns a copy of the current view.
func (s *Surface) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	v.Entries = append([]playlist.Entry(nil), s.view.Entries...)
	return v
}

func (s *Surface) update(fn func(v *View)) {
	s.mu.Lock()
	fn(&s.view)
	s.mu.Unlock()

	// Coalesce: one pending signal is enough.
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

func (s *Surface) ShowTrack(index int, t track.Track) {
	s.update(func(v *View) {
		v.Index = index
		v.Track = t
	})
}

func (s *Surface) RenderList(entries []playlist.Entry, active int) {
	copied := append([]playlist.Entry(nil), entries...)
	s.update(func(v *View) {
		v.Entries = copied
		v.Active = active
	})
}

func (s *Surface) ShowPlaying(playing bool) {
	s.update(func(v *View) { v.Playing = playing })
}

func (s *Surface) ShowProgress(position, duration time.Duration) {
	s.update(func(v *View) {
		v.Position = position
		v.Duration = duration
	})
}

func (s *Surface) ShowModes(shuffle bool, repeat playback.RepeatMode) {
	s.update(func(v *View) {
		v.Shuffle = shuffle
		v.Repeat = repeat
	})
}

func (s *Surface) ShowVolume(volume float64, muted bool) {
	s.update(func(v *View) {
		v.Volume = volume
		v.Muted = muted
	})
}
