package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/groove/internal/app/playback"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/domain/track"
)

type recordingStream struct {
	mu    sync.Mutex
	got   []*Notification
	err   error
	block chan struct{}
}

func (r *recordingStream) Send(n *Notification) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recordingStream) received() []*Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Notification(nil), r.got...)
}

func TestManager_Broadcast(t *testing.T) {
	m := NewManager()
	a := &recordingStream{}
	b := &recordingStream{err: errors.New("closed")}

	idA := m.Subscribe(a)
	m.Subscribe(b)
	assert.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(&Notification{Type: TypePlaying, Payload: PlayingPayload{Playing: true}})
	m.Broadcast(&Notification{Type: TypePlaying, Payload: PlayingPayload{Playing: false}})

	got := a.received()
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].SequenceNo)
	assert.Equal(t, uint64(2), got[1].SequenceNo)
	assert.Len(t, b.received(), 2)

	m.Unsubscribe(idA)
	m.Broadcast(&Notification{Type: TypeVolume})
	assert.Len(t, a.received(), 2)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	slow := &recordingStream{block: make(chan struct{})}
	defer close(slow.block)
	fast := &recordingStream{}
	m.Subscribe(slow)
	m.Subscribe(fast)

	start := time.Now()
	m.Broadcast(&Notification{Type: TypeModes})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, fast.received(), 1)
}

func TestManager_Send(t *testing.T) {
	m := NewManager()
	a := &recordingStream{}
	b := &recordingStream{}
	idA := m.Subscribe(a)
	m.Subscribe(b)

	require.NoError(t, m.Send(idA, &Notification{Type: TypeInitialState}))
	require.NoError(t, m.Send("unknown", &Notification{Type: TypeInitialState}))

	assert.Len(t, a.received(), 1)
	assert.Empty(t, b.received())
}

func TestSurface(t *testing.T) {
	m := NewManager()
	stream := &recordingStream{}
	m.Subscribe(stream)

	s := NewSurface(m, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	tr := track.Track{ID: "x", Title: "Song", Artist: "Band", Duration: 95 * time.Second}
	s.ShowTrack(2, tr)
	s.RenderList([]playlist.Entry{{Index: 2, Track: tr}}, 2)
	s.ShowPlaying(true)
	s.ShowProgress(5*time.Second, 95*time.Second)
	s.ShowModes(true, playback.RepeatOne)
	s.ShowVolume(0, true)

	require.Eventually(t, func() bool { return len(stream.received()) == 6 }, 2*time.Second, 10*time.Millisecond)

	got := stream.received()
	types := make([]Type, len(got))
	for i, n := range got {
		types[i] = n.Type
	}
	assert.Equal(t, []Type{TypeTrack, TypeList, TypePlaying, TypeProgress, TypeModes, TypeVolume}, types)

	view := got[0].Payload.(TrackView)
	assert.Equal(t, "/covers/x", view.Cover)
	assert.Equal(t, "1:35", view.DurationText)
	assert.Equal(t, "one", got[4].Payload.(ModesPayload).Repeat)
	assert.Equal(t, "0:05", got[3].Payload.(ProgressPayload).PositionText)
}
