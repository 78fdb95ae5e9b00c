// Package prefetch resolves unknown track durations in the background.
package prefetch

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/infra/metrics"
)

// Prober reads the duration of the media behind a locator.
type Prober interface {
	Probe(ctx context.Context, locator string) (time.Duration, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, locator string) (time.Duration, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, locator string) (time.Duration, error) {
	return f(ctx, locator)
}

// Prefetcher probes every track whose duration is still zero.
type Prefetcher struct {
	prober   Prober
	playlist *playlist.Playlist
	wg       sync.WaitGroup
}

// New creates a prefetcher for pl.
func New(prober Prober, pl *playlist.Playlist) *Prefetcher {
	return &Prefetcher{
		prober:   prober,
		playlist: pl,
	}
}

// Start launches one probe per track with an unknown duration and returns
// the number launched. It does not wait for them.
func (p *Prefetcher) Start(ctx context.Context) int {
	started := 0
	for i, t := range p.playlist.Tracks() {
		if t.Duration != 0 || t.Source == "" {
			continue
		}
		started++
		p.wg.Add(1)
		go p.probe(ctx, i, t.Source)
	}
	zlog.Debug().Msgf("prefetch: started %d duration probes", started)
	return started
}

// Wait blocks until all launched probes have finished.
func (p *Prefetcher) Wait() {
	p.wg.Wait()
}

func (p *Prefetcher) probe(ctx context.Context, index int, locator string) {
	defer p.wg.Done()

	d, err := p.prober.Probe(ctx, locator)
	if err != nil {
		metrics.DurationProbesTotal.WithLabelValues("error").Inc()
		zlog.Debug().Err(err).Msgf("prefetch: probe failed: index=%d source=%s", index, locator)
		return
	}
	if d <= 0 {
		metrics.DurationProbesTotal.WithLabelValues("unknown").Inc()
		return
	}

	// Metadata from the handle may have arrived first.
	if !p.playlist.SetDurationIfUnknown(index, d) {
		metrics.DurationProbesTotal.WithLabelValues("superseded").Inc()
		return
	}
	metrics.DurationProbesTotal.WithLabelValues("ok").Inc()
}
