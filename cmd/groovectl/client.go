package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/groove/internal/api/web"
	"github.com/osa030/groove/internal/app/notification"
)

const requestTimeout = 10 * time.Second

type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient(base, token string) *client {
	return &client{
		base:  strings.TrimSuffix(base, "/"),
		token: token,
		http:  &http.Client{Timeout: requestTimeout},
	}
}

func (c *client) state() (*notification.StatePayload, error) {
	var state notification.StatePayload
	if err := c.do(http.MethodGet, "/api/state", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *client) tracks(query string) ([]notification.TrackView, error) {
	path := "/api/tracks"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var views []notification.TrackView
	if err := c.do(http.MethodGet, path, nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// control posts an action and returns the state the server answers with.
func (c *client) control(path string, body any) (*notification.StatePayload, error) {
	var state notification.StatePayload
	if err := c.do(http.MethodPost, path, body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *client) do(method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.base+path, r)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(web.TokenHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return errors.Newf("%s %s: %s (%d)", method, path, e.Error, resp.StatusCode)
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "failed to decode response")
}
