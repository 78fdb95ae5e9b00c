package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/app/keymap"
	"github.com/osa030/groove/internal/app/playback"
	"github.com/osa030/groove/internal/infra/metrics"
)

// errBadRequest marks errors caused by the request body.
var errBadRequest = errors.New("bad request")

// control wraps an action: it counts the request, runs fn and answers with
// the resulting state.
func (s *Server) control(action string, fn func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.ControlRequestsTotal.WithLabelValues(action).Inc()

		if err := fn(r); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, errBadRequest):
				status = http.StatusBadRequest
			case errors.Is(err, playback.ErrIndexOutOfRange):
				status = http.StatusNotFound
			}
			zlog.Debug().Err(err).Msgf("web: control failed: action=%s", action)
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.state())
	}
}

// decode reads an optional JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Mark(errors.Wrap(err, "invalid JSON body"), errBadRequest)
	}
	return nil
}

func (s *Server) load(r *http.Request) error {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return errors.Mark(errors.Wrap(err, "invalid track index"), errBadRequest)
	}
	return s.player.LoadTrack(index)
}

type seekRequest struct {
	Position *float64 `json:"position"` // Seconds
}

func (s *Server) seek(r *http.Request) error {
	var req seekRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Position == nil {
		return errors.Mark(errors.New("position is required"), errBadRequest)
	}
	s.player.Seek(time.Duration(*req.Position * float64(time.Second)))
	return nil
}

type volumeRequest struct {
	Volume *float64 `json:"volume"`
}

func (s *Server) volume(r *http.Request) error {
	var req volumeRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Volume == nil {
		return errors.Mark(errors.New("volume is required"), errBadRequest)
	}
	s.player.SetVolume(*req.Volume)
	return nil
}

type shuffleRequest struct {
	Enabled *bool `json:"enabled"`
}

// shuffle sets shuffle when "enabled" is given and toggles it otherwise.
func (s *Server) shuffle(r *http.Request) error {
	var req shuffleRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Enabled == nil {
		s.player.ToggleShuffle()
		return nil
	}
	s.player.SetShuffle(*req.Enabled)
	return nil
}

type repeatRequest struct {
	Mode string `json:"mode"`
}

// repeat sets the mode when given and cycles it otherwise.
func (s *Server) repeat(r *http.Request) error {
	var req repeatRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Mode == "" {
		s.player.CycleRepeatMode()
		return nil
	}
	mode, err := playback.ParseRepeatMode(req.Mode)
	if err != nil {
		return errors.Mark(err, errBadRequest)
	}
	s.player.SetRepeatMode(mode)
	return nil
}

type filterRequest struct {
	Query string `json:"query"`
}

func (s *Server) filter(r *http.Request) error {
	var req filterRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	s.player.FilterList(req.Query)
	return nil
}

type keyRequest struct {
	Key         string `json:"key"`
	InTextInput bool   `json:"in_text_input"`
}

// key applies a keyboard shortcut. A key pressed inside a text input is
// accepted and ignored.
func (s *Server) key(r *http.Request) error {
	var req keyRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	k := keymap.ParseKey(req.Key)
	if k == keymap.KeyUnknown {
		return errors.Mark(errors.Newf("unknown key %q", req.Key), errBadRequest)
	}
	s.keys.Dispatch(k, req.InTextInput)
	return nil
}
