// Package media opens track and cover locators, which are either local file
// paths or http(s) URLs.
package media

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultMaxSize bounds ReadAll so a misconfigured URL cannot exhaust memory.
const DefaultMaxSize = 256 << 20

var (
	ErrEmptyLocator = errors.New("empty locator")
	ErrTooLarge     = errors.New("resource exceeds size limit")
)

// Opener resolves locators into readers.
type Opener struct {
	client  *http.Client
	maxSize int64
}

// NewOpener creates an opener. A nil client uses a client with a 30s timeout.
func NewOpener(client *http.Client) *Opener {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Opener{client: client, maxSize: DefaultMaxSize}
}

// IsRemote reports whether locator is an http(s) URL.
func IsRemote(locator string) bool {
	u, err := url.Parse(locator)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Ext returns the lowercase file extension of locator, ignoring any URL
// query or fragment.
func Ext(locator string) string {
	if IsRemote(locator) {
		u, _ := url.Parse(locator)
		return strings.ToLower(path.Ext(u.Path))
	}
	return strings.ToLower(filepath.Ext(locator))
}

// Open returns a reader for locator. The caller must close it.
func (o *Opener) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	if locator == "" {
		return nil, ErrEmptyLocator
	}
	if !IsRemote(locator) {
		f, err := os.Open(locator)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", locator)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", locator)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", locator)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf("failed to fetch %s: status %d", locator, resp.StatusCode)
	}
	return resp.Body, nil
}

// ReadAll reads the whole resource behind locator into memory.
func (o *Opener) ReadAll(ctx context.Context, locator string) ([]byte, error) {
	rc, err := o.Open(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, o.maxSize+1))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", locator)
	}
	if int64(len(data)) > o.maxSize {
		return nil, errors.Wrapf(ErrTooLarge, "%s", locator)
	}
	return data, nil
}
