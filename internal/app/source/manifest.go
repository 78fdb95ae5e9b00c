package source

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/osa030/groove/internal/domain/track"
	"github.com/osa030/groove/internal/infra/media"
)

// ManifestEntry is one explicitly listed track.
type ManifestEntry struct {
	ID       string  `yaml:"id" mapstructure:"id"`
	Title    string  `yaml:"title" mapstructure:"title" validate:"required"`
	Artist   string  `yaml:"artist" mapstructure:"artist"`
	Src      string  `yaml:"src" mapstructure:"src" validate:"required"`
	Cover    string  `yaml:"cover" mapstructure:"cover"`
	Duration float64 `yaml:"duration" mapstructure:"duration" validate:"gte=0"` // Seconds, 0 when unknown
}

type ManifestProviderConfig struct {
	Path    string          `mapstructure:"path"`     // YAML file with a top-level tracks list
	BaseDir string          `mapstructure:"base_dir"` // Relative locators resolve against this
	Tracks  []ManifestEntry `mapstructure:"tracks" validate:"required_without=Path,dive"`
}

// ManifestProvider provides tracks listed in config or in a manifest file.
type ManifestProvider struct {
	config *ManifestProviderConfig
}

// NewManifestProvider creates a new ManifestProvider.
func NewManifestProvider(settings map[string]any) (*ManifestProvider, error) {
	var config ManifestProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("manifest provider config: path=%s entries=%d", config.Path, len(config.Tracks))
	return &ManifestProvider{config: &config}, nil
}

// Tracks returns the inline entries followed by those of the manifest file.
func (p *ManifestProvider) Tracks(_ context.Context) ([]track.Track, error) {
	entries := append([]ManifestEntry(nil), p.config.Tracks...)
	baseDir := p.config.BaseDir

	if p.config.Path != "" {
		fromFile, err := readManifest(p.config.Path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromFile...)
		if baseDir == "" {
			baseDir = filepath.Dir(p.config.Path)
		}
	}

	tracks := make([]track.Track, 0, len(entries))
	for _, e := range entries {
		tracks = append(tracks, e.toTrack(baseDir))
	}
	return tracks, nil
}

// Name returns the provider name.
func (p *ManifestProvider) Name() string {
	return "manifest"
}

func readManifest(path string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}

	var doc struct {
		Tracks []ManifestEntry `yaml:"tracks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	for i, e := range doc.Tracks {
		if e.Title == "" || e.Src == "" {
			return nil, errors.Newf("manifest entry %d: title and src are required", i)
		}
	}
	return doc.Tracks, nil
}

func (e ManifestEntry) toTrack(baseDir string) track.Track {
	src := resolveLocator(baseDir, e.Src)
	id := e.ID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(src)).String()
	}
	return track.Track{
		ID:       id,
		Title:    e.Title,
		Artist:   e.Artist,
		Source:   src,
		Cover:    resolveLocator(baseDir, e.Cover),
		Duration: time.Duration(e.Duration * float64(time.Second)),
	}
}

// resolveLocator joins relative file paths onto baseDir.
func resolveLocator(baseDir, locator string) string {
	if locator == "" || baseDir == "" || media.IsRemote(locator) || filepath.IsAbs(locator) {
		return locator
	}
	return filepath.Join(baseDir, locator)
}
