package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/domain/track"
	"github.com/osa030/groove/internal/infra/probe"
)

// coverNames are sibling files used as a folder's cover, in order of preference.
var coverNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png"}

type DirectoryProviderConfig struct {
	Path      string `mapstructure:"path" validate:"required"`
	Recursive bool   `mapstructure:"recursive"`
}

// DirectoryProvider provides the audio files found in a folder.
type DirectoryProvider struct {
	config *DirectoryProviderConfig
}

// NewDirectoryProvider creates a new DirectoryProvider.
func NewDirectoryProvider(settings map[string]any) (*DirectoryProvider, error) {
	var config DirectoryProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("directory provider config: %+v", config)
	return &DirectoryProvider{config: &config}, nil
}

// Tracks scans the folder for supported audio files sorted by path.
func (p *DirectoryProvider) Tracks(ctx context.Context) ([]track.Track, error) {
	root := p.config.Path
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat music directory")
	}
	if !info.IsDir() {
		return nil, errors.Newf("%s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && (!p.config.Recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if probe.IsSupported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan music directory")
	}
	sort.Strings(paths)

	covers := make(map[string]string)
	tracks := make([]track.Track, 0, len(paths))
	for _, path := range paths {
		dir := filepath.Dir(path)
		cover, ok := covers[dir]
		if !ok {
			cover = findCover(dir)
			covers[dir] = cover
		}

		tags := readFileTags(path)
		tracks = append(tracks, track.Track{
			ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String(),
			Title:  tags.Title,
			Artist: tags.Artist,
			Source: path,
			Cover:  cover,
		})
	}
	return tracks, nil
}

// Name returns the provider name.
func (p *DirectoryProvider) Name() string {
	return "directory"
}

func readFileTags(path string) probe.Tags {
	f, err := os.Open(path)
	if err != nil {
		return probe.ReadTags(path, nil)
	}
	defer f.Close()
	return probe.ReadTags(path, f)
}

func findCover(dir string) string {
	for _, name := range coverNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
