// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Source types
const (
	SourceManifest  = "manifest"
	SourceDirectory = "directory"
	SourceSpotify   = "spotify"
)

// Config represents the application configuration.
type Config struct {
	Player  PlayerConfig   `yaml:"player"`
	Log     LogConfig      `yaml:"log"`
	Keys    KeysConfig     `yaml:"keys"`
	Covers  CoversConfig   `yaml:"covers"`
	Web     WebConfig      `yaml:"web"`
	Sources []SourceConfig `yaml:"sources" validate:"required,min=1,dive"`
	Spotify SpotifyConfig  `yaml:"spotify"`
	Hooks   HooksConfig    `yaml:"hooks"`
}

// PlayerConfig represents playback configuration.
type PlayerConfig struct {
	Name               string  `yaml:"name" default:"Groove"`
	InitialVolume      float64 `yaml:"initial_volume" default:"0.8" validate:"gte=0,lte=1"`
	RestartThresholdMs int     `yaml:"restart_threshold_ms" default:"3000" validate:"gte=0,lte=60000"`
	MuteThreshold      float64 `yaml:"mute_threshold" default:"0.01" validate:"gte=0,lt=1"`
	UnmuteVolume       float64 `yaml:"unmute_volume" default:"0.8" validate:"gt=0,lte=1"`
	Silent             bool    `yaml:"silent"`        // Use the clock-driven handle instead of the speaker
	SkipPrefetch       bool    `yaml:"skip_prefetch"` // Do not probe durations at startup
}

// LogConfig represents logging configuration. Command line flags win.
type LogConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	File  string `yaml:"file"` // Empty logs to stdout, or nowhere while the TUI runs
}

// KeysConfig represents keyboard shortcut step sizes.
type KeysConfig struct {
	SeekStepMs int     `yaml:"seek_step_ms" default:"5000" validate:"gt=0"`
	VolumeStep float64 `yaml:"volume_step" default:"0.05" validate:"gt=0,lte=1"`
}

// CoversConfig represents cover image configuration.
type CoversConfig struct {
	Placeholder   string `yaml:"placeholder" default:"assets/images/placeholder.jpg"`
	ThumbnailSize int    `yaml:"thumbnail_size" default:"200" validate:"gte=16,lte=2048"`
}

// WebConfig represents the HTTP surface configuration.
type WebConfig struct {
	Addr  string `yaml:"addr" default:":8080"`
	Token string `yaml:"token"` // Control endpoints require X-Groove-Token when set
}

// HooksConfig represents shell commands run around the player's lifetime.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// SourceConfig represents a single track source configuration.
type SourceConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=manifest directory spotify"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings" validate:"required"`
}

// SpotifyConfig represents Spotify API configuration.
// Credentials are only required when a spotify source is configured.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("GROOVE_WEB_TOKEN"); v != "" {
		c.Web.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.UsesSpotify() {
		if err := c.validateSpotifyCredentials(); err != nil {
			return err
		}
	}

	return nil
}

// UsesSpotify reports whether any source needs the Spotify API.
func (c *Config) UsesSpotify() bool {
	for _, s := range c.Sources {
		if s.Type == SourceSpotify {
			return true
		}
	}
	return false
}

func (c *Config) validateSpotifyCredentials() error {
	switch {
	case c.Spotify.ClientID == "":
		return errors.New("spotify.client_id is required for spotify sources")
	case c.Spotify.ClientSecret == "":
		return errors.New("spotify.client_secret is required for spotify sources")
	case c.Spotify.RefreshToken == "":
		return errors.New("spotify.refresh_token is required for spotify sources")
	}
	return nil
}

// RestartThreshold returns the restart threshold as a duration.
func (p PlayerConfig) RestartThreshold() time.Duration {
	return time.Duration(p.RestartThresholdMs) * time.Millisecond
}

// SeekStep returns the seek step as a duration.
func (k KeysConfig) SeekStep() time.Duration {
	return time.Duration(k.SeekStepMs) * time.Millisecond
}
