package audio

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/domain/media"
)

// Virtual is a silent handle that advances position with the wall clock.
// It is used for headless runs and when no audio device is present.
type Virtual struct {
	mu sync.Mutex

	prober Prober
	queue  *eventQueue
	now    func() time.Time

	source   string
	gen      uint64
	paused   bool
	position time.Duration
	duration time.Duration
	volume   float64
	lastTick time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewVirtual creates a silent handle. prober may be nil, in which case
// durations stay unknown and tracks never end on their own.
func NewVirtual(prober Prober, tick time.Duration) *Virtual {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	v := &Virtual{
		prober: prober,
		queue:  newEventQueue(64),
		now:    time.Now,
		paused: true,
		volume: 1,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go v.run(ctx, tick)
	return v
}

func (v *Virtual) SetSource(locator string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.source = locator
}

func (v *Virtual) Source() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.source
}

// Load resets the position and resolves the duration in the background.
func (v *Virtual) Load() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.position = 0
	v.duration = 0
	if !v.paused {
		v.paused = true
		v.emitLocked(media.EventPause, nil)
	}
	if v.source == "" {
		return
	}
	if v.prober == nil {
		v.emitLocked(media.EventLoadedMetadata, nil)
		return
	}

	go v.resolve(v.gen, v.source)
}

func (v *Virtual) resolve(gen uint64, source string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d, err := v.prober.Probe(ctx, source)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return
	}
	if err != nil {
		zlog.Debug().Err(err).Msgf("audio: virtual duration unknown: source=%s", source)
		v.emitLocked(media.EventError, errors.Wrap(err, "failed to read duration"))
		return
	}
	v.duration = d
	v.emitLocked(media.EventLoadedMetadata, nil)
}

// Play starts the clock. Playing an ended source starts it over.
func (v *Virtual) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.source == "" {
		v.emitLocked(media.EventError, errors.New("no source bound"))
		return
	}
	if !v.paused {
		return
	}
	if v.duration > 0 && v.position >= v.duration {
		v.position = 0
	}
	v.paused = false
	v.lastTick = v.now()
	v.emitLocked(media.EventPlay, nil)
}

func (v *Virtual) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.paused {
		return
	}
	v.advanceLocked()
	v.paused = true
	v.emitLocked(media.EventPause, nil)
}

func (v *Virtual) Paused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.paused
}

func (v *Virtual) Position() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advanceLocked()
	return v.position
}

func (v *Virtual) SetPosition(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if d < 0 {
		d = 0
	}
	if v.duration > 0 && d > v.duration {
		d = v.duration
	}
	v.position = d
	v.lastTick = v.now()
	v.emitLocked(media.EventTimeUpdate, nil)
}

func (v *Virtual) Duration() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.duration
}

func (v *Virtual) Volume() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume
}

func (v *Virtual) SetVolume(vol float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = vol
}

func (v *Virtual) Events() <-chan media.Event {
	return v.queue.events()
}

// Close stops the clock and the event stream.
func (v *Virtual) Close() error {
	v.cancel()
	<-v.done
	v.queue.close()
	return nil
}

func (v *Virtual) run(ctx context.Context, tick time.Duration) {
	defer close(v.done)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.tick()
		}
	}
}

func (v *Virtual) tick() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.paused {
		return
	}
	v.advanceLocked()

	if v.duration > 0 && v.position >= v.duration {
		v.position = v.duration
		v.paused = true
		v.emitLocked(media.EventTimeUpdate, nil)
		v.emitLocked(media.EventPause, nil)
		v.emitLocked(media.EventEnded, nil)
		return
	}
	v.emitLocked(media.EventTimeUpdate, nil)
}

// advanceLocked moves the position by the wall time since the last tick.
func (v *Virtual) advanceLocked() {
	if v.paused {
		return
	}
	now := v.now()
	v.position += now.Sub(v.lastTick)
	v.lastTick = now
	if v.duration > 0 && v.position > v.duration {
		v.position = v.duration
	}
}

func (v *Virtual) emitLocked(t media.EventType, err error) {
	v.queue.push(media.Event{
		Type:     t,
		Source:   v.source,
		Position: v.position,
		Duration: v.duration,
		Err:      err,
	})
}
