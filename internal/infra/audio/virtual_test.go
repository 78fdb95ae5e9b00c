package audio

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/groove/internal/domain/media"
)

type proberFunc func(ctx context.Context, locator string) (time.Duration, error)

func (f proberFunc) Probe(ctx context.Context, locator string) (time.Duration, error) {
	return f(ctx, locator)
}

func fixedProber(d time.Duration) Prober {
	return proberFunc(func(context.Context, string) (time.Duration, error) {
		return d, nil
	})
}

// waitFor reads events until one of type want arrives and returns all read.
func waitFor(t *testing.T, h Handle, want media.EventType) []media.Event {
	t.Helper()

	var seen []media.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-h.Events():
			seen = append(seen, ev)
			if ev.Type == want {
				return seen
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s, saw %v", want, seen)
			return nil
		}
	}
}

func TestVirtual_PlaysToEnd(t *testing.T) {
	v := NewVirtual(fixedProber(150*time.Millisecond), 10*time.Millisecond)
	defer v.Close()

	v.SetSource("a.mp3")
	v.Load()
	meta := waitFor(t, v, media.EventLoadedMetadata)
	assert.Equal(t, 150*time.Millisecond, meta[len(meta)-1].Duration)
	assert.Equal(t, 150*time.Millisecond, v.Duration())

	v.Play()
	assert.False(t, v.Paused())

	events := waitFor(t, v, media.EventEnded)
	types := make([]media.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, media.EventPlay)
	assert.Contains(t, types, media.EventTimeUpdate)
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, media.EventPause, types[len(types)-2])
	assert.True(t, v.Paused())
	assert.Equal(t, 150*time.Millisecond, v.Position())
}

func TestVirtual_PlayAfterEndRestarts(t *testing.T) {
	v := NewVirtual(fixedProber(50*time.Millisecond), 10*time.Millisecond)
	defer v.Close()

	v.SetSource("a.mp3")
	v.Load()
	waitFor(t, v, media.EventLoadedMetadata)
	v.Play()
	waitFor(t, v, media.EventEnded)

	v.Play()
	events := waitFor(t, v, media.EventPlay)
	assert.Equal(t, time.Duration(0), events[len(events)-1].Position)
}

func TestVirtual_LoadWhilePlayingEmitsPause(t *testing.T) {
	v := NewVirtual(fixedProber(time.Minute), time.Hour)
	defer v.Close()

	v.SetSource("a.mp3")
	v.Load()
	waitFor(t, v, media.EventLoadedMetadata)
	v.Play()
	waitFor(t, v, media.EventPlay)

	v.SetSource("b.mp3")
	v.Load()
	events := waitFor(t, v, media.EventLoadedMetadata)
	assert.Equal(t, media.EventPause, events[0].Type)
	assert.Equal(t, "b.mp3", events[len(events)-1].Source)
	assert.True(t, v.Paused())
}

func TestVirtual_SetPositionClamps(t *testing.T) {
	v := NewVirtual(fixedProber(time.Minute), time.Hour)
	defer v.Close()

	v.SetSource("a.mp3")
	v.Load()
	waitFor(t, v, media.EventLoadedMetadata)

	v.SetPosition(2 * time.Minute)
	assert.Equal(t, time.Minute, v.Position())
	v.SetPosition(-time.Second)
	assert.Equal(t, time.Duration(0), v.Position())
}

func TestVirtual_ProbeError(t *testing.T) {
	v := NewVirtual(proberFunc(func(context.Context, string) (time.Duration, error) {
		return 0, errors.New("unreadable")
	}), time.Hour)
	defer v.Close()

	v.SetSource("broken.mp3")
	v.Load()
	events := waitFor(t, v, media.EventError)
	assert.Error(t, events[len(events)-1].Err)
}

func TestVirtual_PlayWithoutSource(t *testing.T) {
	v := NewVirtual(nil, time.Hour)
	defer v.Close()

	v.Play()
	waitFor(t, v, media.EventError)
	assert.True(t, v.Paused())
}
