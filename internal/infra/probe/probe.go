// Package probe reads durations and tags from audio files.
package probe

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"

	"github.com/osa030/groove/internal/infra/media"
)

// ErrUnsupportedFormat is returned for extensions other than .mp3, .flac and .wav.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// SupportedExtensions lists the audio extensions the player understands.
var SupportedExtensions = []string{".mp3", ".flac", ".wav"}

// IsSupported reports whether locator has a supported audio extension.
func IsSupported(locator string) bool {
	ext := media.Ext(locator)
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Prober measures the duration of audio behind a locator.
type Prober struct {
	opener *media.Opener
}

// NewProber creates a prober reading through opener.
func NewProber(opener *media.Opener) *Prober {
	return &Prober{opener: opener}
}

// Probe returns the duration of the audio at locator.
func (p *Prober) Probe(ctx context.Context, locator string) (time.Duration, error) {
	ext := media.Ext(locator)
	if !IsSupported(locator) {
		return 0, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}

	data, err := p.opener.ReadAll(ctx, locator)
	if err != nil {
		return 0, err
	}
	return Duration(ext, bytes.NewReader(data))
}

// Duration decodes the duration of an audio stream with the given extension.
func Duration(ext string, r io.ReadSeeker) (time.Duration, error) {
	switch strings.ToLower(ext) {
	case ".mp3":
		return durationMP3(r)
	case ".flac":
		return durationFLAC(r)
	case ".wav":
		return durationWAV(r)
	default:
		return 0, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
}

// durationMP3 sums frame durations.
func durationMP3(r io.Reader) (time.Duration, error) {
	dec := mp3.NewDecoder(r)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) || frames > 0 {
				break
			}
			return 0, errors.Wrap(err, "failed to decode mp3 frame")
		}
		total += fr.Duration()
		frames++
	}
	if frames == 0 {
		return 0, errors.New("mp3 stream has no frames")
	}
	return total, nil
}

// durationFLAC reads the STREAMINFO block.
func durationFLAC(r io.Reader) (time.Duration, error) {
	stream, err := flac.New(r)
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse flac stream")
	}
	defer stream.Close()

	si := stream.Info
	if si.NSamples == 0 || si.SampleRate == 0 {
		return 0, errors.New("flac stream missing sample info")
	}
	return time.Duration(float64(si.NSamples) / float64(si.SampleRate) * float64(time.Second)), nil
}

// durationWAV derives the duration from the data chunk size.
func durationWAV(r io.ReadSeeker) (time.Duration, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return 0, errors.New("invalid wav file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return 0, errors.Wrap(err, "failed to locate wav data chunk")
	}

	bytesPerSecond := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth/8)
	if bytesPerSecond <= 0 {
		return 0, errors.New("invalid wav header")
	}
	return time.Duration(dec.PCMLen() * int64(time.Second) / bytesPerSecond), nil
}

// Tags holds the descriptive metadata of an audio file.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// ReadTags reads ID3/Vorbis/MP4 tags. Missing title falls back to the file
// name and missing artist to "Unknown Artist".
func ReadTags(path string, r io.ReadSeeker) Tags {
	fallback := Tags{
		Title:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Artist: "Unknown Artist",
	}

	if r == nil {
		return fallback
	}
	m, err := tag.ReadFrom(r)
	if err != nil {
		return fallback
	}

	tags := Tags{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}
	if tags.Title == "" {
		tags.Title = fallback.Title
	}
	if tags.Artist == "" {
		tags.Artist = fallback.Artist
	}
	return tags
}
