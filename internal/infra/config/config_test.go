package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
sources:
  - type: directory
    display_name: Local
    settings:
      path: ./music
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "Groove", cfg.Player.Name)
	assert.Equal(t, 0.8, cfg.Player.InitialVolume)
	assert.Equal(t, 3*time.Second, cfg.Player.RestartThreshold())
	assert.Equal(t, 0.01, cfg.Player.MuteThreshold)
	assert.Equal(t, 0.8, cfg.Player.UnmuteVolume)
	assert.Equal(t, 5*time.Second, cfg.Keys.SeekStep())
	assert.Equal(t, 0.05, cfg.Keys.VolumeStep)
	assert.Equal(t, "assets/images/placeholder.jpg", cfg.Covers.Placeholder)
	assert.Equal(t, 200, cfg.Covers.ThumbnailSize)
	assert.Equal(t, ":8080", cfg.Web.Addr)
	assert.Equal(t, "JP", cfg.Spotify.Market)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.UsesSpotify())
}

func TestConfig_Validate(t *testing.T) {
	localSource := SourceConfig{
		Type:        SourceDirectory,
		DisplayName: "Local",
		Settings:    map[string]any{"path": "./music"},
	}
	spotifySource := SourceConfig{
		Type:        SourceSpotify,
		DisplayName: "Spotify",
		Settings:    map[string]any{"playlist_url": "spotify:playlist:abc"},
	}
	credentials := SpotifyConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RefreshToken: "test-refresh-token",
	}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid local config",
			config: Config{Sources: []SourceConfig{localSource}},
		},
		{
			name:   "valid spotify config",
			config: Config{Sources: []SourceConfig{spotifySource}, Spotify: credentials},
		},
		{
			name:    "no sources",
			config:  Config{},
			wantErr: true,
			errMsg:  "Sources",
		},
		{
			name: "unknown source type",
			config: Config{Sources: []SourceConfig{
				{Type: "lastfm", DisplayName: "Last.fm", Settings: map[string]any{}},
			}},
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name: "missing display name",
			config: Config{Sources: []SourceConfig{
				{Type: SourceManifest, Settings: map[string]any{}},
			}},
			wantErr: true,
			errMsg:  "DisplayName",
		},
		{
			name:    "spotify source without credentials",
			config:  Config{Sources: []SourceConfig{spotifySource}},
			wantErr: true,
			errMsg:  "client_id",
		},
		{
			name: "spotify source without refresh token",
			config: Config{
				Sources: []SourceConfig{spotifySource},
				Spotify: SpotifyConfig{ClientID: "id", ClientSecret: "secret"},
			},
			wantErr: true,
			errMsg:  "refresh_token",
		},
		{
			name: "volume out of range",
			config: Config{
				Sources: []SourceConfig{localSource},
				Player:  PlayerConfig{InitialVolume: 1.5},
			},
			wantErr: true,
			errMsg:  "InitialVolume",
		},
		{
			name: "unknown log level",
			config: Config{
				Sources: []SourceConfig{localSource},
				Log:     LogConfig{Level: "loud"},
			},
			wantErr: true,
			errMsg:  "Level",
		},
		{
			name: "invalid market length",
			config: Config{
				Sources: []SourceConfig{localSource},
				Spotify: SpotifyConfig{Market: "JAPAN"},
			},
			wantErr: true,
			errMsg:  "Market",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, defaults.Set(&tt.config))
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groove.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  token: from-file
sources:
  - type: spotify
    display_name: Spotify
    settings:
      playlist_url: spotify:playlist:abc
`), 0o644))

	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "env-refresh")
	t.Setenv("GROOVE_WEB_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.Spotify.ClientID)
	assert.Equal(t, "env-secret", cfg.Spotify.ClientSecret)
	assert.Equal(t, "env-refresh", cfg.Spotify.RefreshToken)
	assert.Equal(t, "env-token", cfg.Web.Token)
	assert.True(t, cfg.UsesSpotify())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
