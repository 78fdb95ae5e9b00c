package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/groove/internal/domain/track"
)

// ErrNoTracks is returned when no provider produced a track.
var ErrNoTracks = errors.New("no tracks found in any source")

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Chain collects tracks from several providers in order.
type Chain struct {
	providers []ProviderWithMetadata
}

// NewChain creates a new provider chain.
func NewChain(providers []ProviderWithMetadata) *Chain {
	return &Chain{
		providers: providers,
	}
}

// Collect concatenates the tracks of every provider. A failing provider is
// logged and skipped; a repeated ID keeps its first occurrence.
func (c *Chain) Collect(ctx context.Context) ([]track.Track, error) {
	var all []track.Track

	for i, pm := range c.providers {
		zlog.Debug().Msgf("collecting from source: index=%d total=%d name=%s type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		tracks, err := pm.Provider.Tracks(ctx)
		if err != nil {
			zlog.Warn().Msgf("source failed, skipping: source=%s error=%v", pm.DisplayName, err)
			continue
		}
		if len(tracks) == 0 {
			zlog.Debug().Msgf("source returned no tracks: source=%s", pm.DisplayName)
			continue
		}

		all = append(all, tracks...)
		zlog.Info().Msgf("source returned tracks: source=%s count=%d total_so_far=%d",
			pm.DisplayName, len(tracks), len(all))
	}

	unique := lo.UniqBy(all, func(t track.Track) string { return t.ID })
	if dropped := len(all) - len(unique); dropped > 0 {
		zlog.Warn().Msgf("dropped tracks with duplicate ids: count=%d", dropped)
	}

	if len(unique) == 0 {
		return nil, ErrNoTracks
	}
	return unique, nil
}

// Len returns the number of providers.
func (c *Chain) Len() int {
	return len(c.providers)
}
