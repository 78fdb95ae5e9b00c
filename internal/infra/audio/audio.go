// Package audio provides native media handles: speaker output through beep
// and a silent clock-driven handle.
package audio

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/domain/media"
	infmedia "github.com/osa030/groove/internal/infra/media"
)

// ErrAudioUnavailable is returned when the build has no audio output.
var ErrAudioUnavailable = errors.New("audio output not available in this build")

// DefaultTickInterval is how often a playing handle reports its position.
const DefaultTickInterval = 250 * time.Millisecond

// Handle is a media handle that reports events and owns resources.
type Handle interface {
	media.Handle
	media.Emitter
	Close() error
}

// Prober reads the duration behind a locator.
type Prober interface {
	Probe(ctx context.Context, locator string) (time.Duration, error)
}

// Config holds handle configuration.
type Config struct {
	Silent       bool
	Opener       *infmedia.Opener
	Prober       Prober
	TickInterval time.Duration
}

// New returns the speaker handle, or the silent handle when Silent is set
// or no audio device can be used.
func New(cfg Config) Handle {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Opener == nil {
		cfg.Opener = infmedia.NewOpener(nil)
	}

	if !cfg.Silent {
		h, err := newSpeaker(cfg)
		if err == nil {
			zlog.Info().Msg("audio: using speaker output")
			return h
		}
		zlog.Warn().Err(err).Msg("audio: speaker unavailable, falling back to silent playback")
	}

	zlog.Info().Msg("audio: using silent playback")
	return NewVirtual(cfg.Prober, cfg.TickInterval)
}
