//go:build (linux && cgo) || windows || darwin

package audio

import (
	"bytes"
	"context"
	"io"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/domain/media"
	infmedia "github.com/osa030/groove/internal/infra/media"
)

const speakerSampleRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
	})
	return speakerErr
}

// Speaker plays through the default audio device.
type Speaker struct {
	mu sync.Mutex

	opener *infmedia.Opener
	queue  *eventQueue

	source   string
	gen      uint64 // Incremented on every Load; stale decodes and end callbacks are dropped
	paused   bool
	ended    bool
	volume   float64
	duration time.Duration

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	gain     *effects.Volume

	cancel context.CancelFunc
	done   chan struct{}
}

func newSpeaker(cfg Config) (Handle, error) {
	if err := initSpeaker(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize speaker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Speaker{
		opener: cfg.Opener,
		queue:  newEventQueue(64),
		paused: true,
		volume: 1,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, cfg.TickInterval)
	return s, nil
}

func (s *Speaker) SetSource(locator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = locator
}

func (s *Speaker) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Load stops the current stream and decodes the bound source in the
// background.
func (s *Speaker) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.stopLocked()
	s.duration = 0
	s.ended = false
	if !s.paused {
		s.paused = true
		s.emitLocked(media.EventPause, 0, nil)
	}
	if s.source == "" {
		return
	}

	go s.decode(s.gen, s.source)
}

func (s *Speaker) decode(gen uint64, source string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	streamer, format, err := s.open(ctx, source)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		if streamer != nil {
			streamer.Close()
		}
		return
	}
	if err != nil {
		s.emitLocked(media.EventError, 0, err)
		return
	}

	s.streamer = streamer
	s.format = format
	s.duration = format.SampleRate.D(streamer.Len())
	s.startLocked()
	s.emitLocked(media.EventLoadedMetadata, 0, nil)
	zlog.Debug().Msgf("audio: decoded source=%s rate=%d duration=%s", source, format.SampleRate, s.duration)
}

func (s *Speaker) open(ctx context.Context, source string) (beep.StreamSeekCloser, beep.Format, error) {
	data, err := s.opener.ReadAll(ctx, source)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	r := bytes.NewReader(data)
	switch ext := infmedia.Ext(source); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(io.NopCloser(r))
	case ".flac":
		streamer, format, err = flac.Decode(r)
	case ".wav":
		streamer, format, err = wav.Decode(r)
	default:
		return nil, beep.Format{}, errors.Newf("unsupported audio format: %q", ext)
	}
	if err != nil {
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", source)
	}
	return streamer, format, nil
}

// startLocked queues the decoded stream on the speaker.
func (s *Speaker) startLocked() {
	gen := s.gen
	resampled := beep.Resample(4, s.format.SampleRate, speakerSampleRate, s.streamer)
	s.ctrl = &beep.Ctrl{Streamer: resampled, Paused: s.paused}
	s.gain = &effects.Volume{Streamer: s.ctrl, Base: 2}
	s.applyVolumeLocked()

	speaker.Play(beep.Seq(s.gain, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker locked.
		go s.finish(gen)
	})))
}

func (s *Speaker) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.ended {
		return
	}
	s.ended = true
	s.paused = true
	s.emitLocked(media.EventPause, s.duration, nil)
	s.emitLocked(media.EventEnded, s.duration, nil)
}

func (s *Speaker) stopLocked() {
	speaker.Lock()
	if s.ctrl != nil {
		s.ctrl.Streamer = nil
	}
	speaker.Unlock()

	if s.streamer != nil {
		s.streamer.Close()
	}
	s.streamer = nil
	s.ctrl = nil
	s.gain = nil
}

// Play resumes output. Playing an ended stream starts it over.
func (s *Speaker) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == "" {
		s.emitLocked(media.EventError, 0, errors.New("no source bound"))
		return
	}
	if !s.paused {
		return
	}
	s.paused = false

	if s.ended && s.streamer != nil {
		s.ended = false
		speaker.Lock()
		err := s.streamer.Seek(0)
		speaker.Unlock()
		if err != nil {
			zlog.Warn().Err(err).Msgf("audio: rewind failed: source=%s", s.source)
		}
		s.startLocked()
	} else if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = false
		speaker.Unlock()
	}
	s.emitLocked(media.EventPlay, s.positionLocked(), nil)
}

func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return
	}
	s.paused = true
	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		speaker.Unlock()
	}
	s.emitLocked(media.EventPause, s.positionLocked(), nil)
}

func (s *Speaker) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *Speaker) positionLocked() time.Duration {
	if s.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos)
}

// SetPosition seeks within the decoded stream. Seeking an ended stream
// leaves it ended until Play.
func (s *Speaker) SetPosition(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return
	}

	n := s.format.SampleRate.N(d)
	n = max(0, min(n, s.streamer.Len()-1))

	speaker.Lock()
	err := s.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		zlog.Warn().Err(err).Msgf("audio: seek failed: source=%s", s.source)
		return
	}
	s.emitLocked(media.EventTimeUpdate, s.format.SampleRate.D(n), nil)
}

func (s *Speaker) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Speaker) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *Speaker) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
	s.applyVolumeLocked()
}

// applyVolumeLocked maps the linear volume onto the base-2 gain curve.
func (s *Speaker) applyVolumeLocked() {
	if s.gain == nil {
		return
	}
	speaker.Lock()
	s.gain.Silent = s.volume <= 0
	if s.volume > 0 {
		s.gain.Volume = math.Log2(s.volume)
	}
	speaker.Unlock()
}

func (s *Speaker) Events() <-chan media.Event {
	return s.queue.events()
}

// Close stops output and releases the stream.
func (s *Speaker) Close() error {
	s.cancel()
	<-s.done

	s.mu.Lock()
	s.gen++
	s.stopLocked()
	s.mu.Unlock()

	speaker.Clear()
	s.queue.close()
	return nil
}

func (s *Speaker) run(ctx context.Context, tick time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.paused && s.streamer != nil {
				s.emitLocked(media.EventTimeUpdate, s.positionLocked(), nil)
			}
			s.mu.Unlock()
		}
	}
}

func (s *Speaker) emitLocked(t media.EventType, position time.Duration, err error) {
	s.queue.push(media.Event{
		Type:     t,
		Source:   s.source,
		Position: position,
		Duration: s.duration,
		Err:      err,
	})
}
