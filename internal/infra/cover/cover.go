// Package cover loads cover art as thumbnails, substituting a placeholder
// when a cover is missing or cannot be decoded.
package cover

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/disintegration/imaging"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/infra/media"
	"github.com/osa030/groove/internal/infra/metrics"
)

// ContentType of every thumbnail produced by the resolver.
const ContentType = "image/jpeg"

const jpegQuality = 80

// Resolver produces cover thumbnails.
type Resolver struct {
	opener      *media.Opener
	placeholder string
	size        int

	mu       sync.Mutex
	cache    map[string][]byte
	fallback []byte
}

// NewResolver creates a resolver. placeholder is the locator of the image
// used when a cover fails; size is the thumbnail bounding box in pixels.
func NewResolver(opener *media.Opener, placeholder string, size int) *Resolver {
	if size <= 0 {
		size = 200
	}
	return &Resolver{
		opener:      opener,
		placeholder: placeholder,
		size:        size,
		cache:       make(map[string][]byte),
	}
}

// Locator returns the cover locator to display, or the placeholder locator
// when the track has none.
func (r *Resolver) Locator(cover string) string {
	if cover == "" {
		return r.placeholder
	}
	return cover
}

// Thumbnail returns a JPEG thumbnail for the cover at locator. It never
// fails: on any error the placeholder is returned and fallback is true.
func (r *Resolver) Thumbnail(ctx context.Context, locator string) (data []byte, fallback bool) {
	r.mu.Lock()
	cached, ok := r.cache[locator]
	r.mu.Unlock()
	if ok {
		return cached, false
	}

	data, err := r.render(ctx, locator)
	if err != nil {
		metrics.CoverFallbacksTotal.Inc()
		zlog.Debug().Err(err).Msgf("cover: using placeholder: locator=%s", locator)
		return r.placeholderThumbnail(ctx), true
	}

	r.mu.Lock()
	r.cache[locator] = data
	r.mu.Unlock()
	return data, false
}

func (r *Resolver) render(ctx context.Context, locator string) ([]byte, error) {
	if locator == "" {
		return nil, errors.New("no cover")
	}
	raw, err := r.opener.ReadAll(ctx, locator)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode cover")
	}
	return r.encode(imaging.Fit(img, r.size, r.size, imaging.Lanczos))
}

// placeholderThumbnail renders the placeholder once. A missing placeholder
// file degrades to a flat gray square.
func (r *Resolver) placeholderThumbnail(ctx context.Context) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fallback != nil {
		return r.fallback
	}

	data, err := r.render(ctx, r.placeholder)
	if err != nil {
		zlog.Warn().Err(err).Msgf("cover: placeholder unavailable: locator=%s", r.placeholder)
		data, err = r.encode(imaging.New(r.size, r.size, color.Gray{Y: 0x33}))
		if err != nil {
			return nil
		}
	}
	r.fallback = data
	return data
}

func (r *Resolver) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, errors.Wrap(err, "failed to encode thumbnail")
	}
	return buf.Bytes(), nil
}
