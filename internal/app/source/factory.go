package source

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/infra/config"
)

// NewChainFromConfig creates a provider chain from configuration.
// spotify may be nil when no spotify source is configured.
func NewChainFromConfig(cfg *config.Config, spotify SpotifyClient) (*Chain, error) {
	if len(cfg.Sources) == 0 {
		return nil, errors.New("no track sources configured")
	}

	var providers []ProviderWithMetadata

	for i, scfg := range cfg.Sources {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating source: index=%d type=%s settings=%+v", i+1, scfg.Type, scfg.Settings)
		switch scfg.Type {
		case config.SourceManifest:
			provider, err = NewManifestProvider(scfg.Settings)

		case config.SourceDirectory:
			provider, err = NewDirectoryProvider(scfg.Settings)

		case config.SourceSpotify:
			if spotify == nil {
				return nil, errors.Newf("spotify source configured without a spotify client (source index %d)", i)
			}
			provider, err = NewSpotifyProvider(spotify, scfg.Settings)

		default:
			return nil, errors.Newf("unsupported source type: %s (source index %d)", scfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create source (index %d, type %s)", i, scfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: scfg.DisplayName,
		})

		zlog.Info().Msgf("registered source: index=%d type=%s display_name=%s", i+1, scfg.Type, scfg.DisplayName)
	}

	return NewChain(providers), nil
}
