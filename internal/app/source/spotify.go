package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/domain/track"
)

type SpotifyProviderConfig struct {
	PlaylistURL string `mapstructure:"playlist_url" validate:"required"`
	Limit       int    `mapstructure:"limit" validate:"gte=0"` // 0 keeps every track
}

// SpotifyProvider provides the preview clips of a Spotify playlist.
type SpotifyProvider struct {
	spotify SpotifyClient
	config  *SpotifyProviderConfig
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(spotify SpotifyClient, settings map[string]any) (*SpotifyProvider, error) {
	var config SpotifyProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("spotify provider config: %+v", config)
	return &SpotifyProvider{spotify: spotify, config: &config}, nil
}

// Tracks fetches the playlist.
func (p *SpotifyProvider) Tracks(ctx context.Context) ([]track.Track, error) {
	tracks, err := p.spotify.GetPlaylistTracks(ctx, p.config.PlaylistURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist tracks")
	}
	if p.config.Limit > 0 && len(tracks) > p.config.Limit {
		tracks = tracks[:p.config.Limit]
	}
	return tracks, nil
}

// Name returns the provider name.
func (p *SpotifyProvider) Name() string {
	return "spotify"
}
