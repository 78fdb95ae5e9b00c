package notification

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/app/playback"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/domain/track"
)

// Surface turns render calls into broadcasts. Calls only enqueue; Run
// delivers them so the controller is never blocked by subscribers.
type Surface struct {
	manager *Manager
	queue   chan *Notification
}

var _ playback.Surface = (*Surface)(nil)

// NewSurface creates a surface broadcasting through manager.
func NewSurface(manager *Manager, size int) *Surface {
	if size <= 0 {
		size = 256
	}
	return &Surface{
		manager: manager,
		queue:   make(chan *Notification, size),
	}
}

// Run broadcasts queued notifications until ctx is done.
func (s *Surface) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-s.queue:
			s.manager.Broadcast(n)
		}
	}
}

func (s *Surface) enqueue(t Type, payload any) {
	select {
	case s.queue <- &Notification{Type: t, Payload: payload}:
	default:
		zlog.Debug().Msgf("notification: queue full, dropping %s", t)
	}
}

func (s *Surface) ShowTrack(index int, t track.Track) {
	s.enqueue(TypeTrack, NewTrackView(index, t))
}

func (s *Surface) RenderList(entries []playlist.Entry, active int) {
	s.enqueue(TypeList, ListPayload{Entries: NewTrackViews(entries), Active: active})
}

func (s *Surface) ShowPlaying(playing bool) {
	s.enqueue(TypePlaying, PlayingPayload{Playing: playing})
}

func (s *Surface) ShowProgress(position, duration time.Duration) {
	s.enqueue(TypeProgress, NewProgressPayload(position, duration))
}

func (s *Surface) ShowModes(shuffle bool, repeat playback.RepeatMode) {
	s.enqueue(TypeModes, ModesPayload{Shuffle: shuffle, Repeat: repeat.String()})
}

func (s *Surface) ShowVolume(volume float64, muted bool) {
	s.enqueue(TypeVolume, VolumePayload{Volume: volume, Muted: muted})
}
