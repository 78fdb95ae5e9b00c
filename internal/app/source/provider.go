// Package source assembles the startup track list from configured providers.
package source

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/groove/internal/domain/track"
)

// Provider supplies tracks from one origin.
type Provider interface {
	// Tracks returns the provider's tracks in display order.
	Tracks(ctx context.Context) ([]track.Track, error)

	// Name returns the provider type (used in config).
	Name() string
}

// SpotifyClient defines the Spotify operations needed by the spotify provider.
type SpotifyClient interface {
	GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error)
}

// decodeSettings fills a provider config from its settings map, applies
// defaults and validates it.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create settings decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
