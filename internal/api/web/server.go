// Package web serves the player over HTTP: a JSON control API, cover
// thumbnails and a websocket feed of player updates.
package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/app/keymap"
	"github.com/osa030/groove/internal/app/notification"
	"github.com/osa030/groove/internal/app/playback"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/infra/config"
	"github.com/osa030/groove/internal/infra/cover"
)

// apiTimeout bounds every request except the websocket.
const apiTimeout = 15 * time.Second

// Player is the controller surface the API drives.
type Player interface {
	keymap.Target
	Play()
	Pause()
	Previous()
	Next()
	LoadTrack(i int) error
	ToggleMute()
	SetShuffle(enabled bool)
	ToggleShuffle() bool
	SetRepeatMode(mode playback.RepeatMode)
	CycleRepeatMode() playback.RepeatMode
	FilterList(query string) []playlist.Entry
	Snapshot() playback.State
	Playlist() *playlist.Playlist
}

// Server is the HTTP surface of the player.
type Server struct {
	player        Player
	notifications *notification.Manager
	covers        *cover.Resolver
	keys          *keymap.Dispatcher
	token         string
}

// NewServer creates a server.
func NewServer(player Player, notifications *notification.Manager, covers *cover.Resolver, keys keymap.Config, cfg config.WebConfig) *Server {
	return &Server{
		player:        player,
		notifications: notifications,
		covers:        covers,
		keys:          keymap.NewDispatcher(player, keys),
		token:         cfg.Token,
	}
}

// Router creates the chi router with all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(apiTimeout))

		r.Get("/covers/{id}", s.handleCover)
		r.Get("/api/state", s.handleState)
		r.Get("/api/tracks", s.handleTracks)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/api/toggle", s.control("toggle", func(*http.Request) error { s.player.TogglePlayPause(); return nil }))
			r.Post("/api/play", s.control("play", func(*http.Request) error { s.player.Play(); return nil }))
			r.Post("/api/pause", s.control("pause", func(*http.Request) error { s.player.Pause(); return nil }))
			r.Post("/api/next", s.control("next", func(*http.Request) error { s.player.Next(); return nil }))
			r.Post("/api/previous", s.control("previous", func(*http.Request) error { s.player.Previous(); return nil }))
			r.Post("/api/mute", s.control("mute", func(*http.Request) error { s.player.ToggleMute(); return nil }))
			r.Post("/api/tracks/{index}/load", s.control("load", s.load))
			r.Post("/api/seek", s.control("seek", s.seek))
			r.Post("/api/volume", s.control("volume", s.volume))
			r.Post("/api/shuffle", s.control("shuffle", s.shuffle))
			r.Post("/api/repeat", s.control("repeat", s.repeat))
			r.Post("/api/filter", s.control("filter", s.filter))
			r.Post("/api/keys", s.control("keys", s.key))
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": s.notifications.SubscriberCount(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

// handleTracks lists the playlist, optionally filtered by ?q=. It does not
// touch the list shown by the player.
func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	entries := s.player.Playlist().Filter(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, notification.NewTrackViews(entries))
}

func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	pl := s.player.Playlist()
	i, ok := pl.IndexOf(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown track")
		return
	}
	t, _ := pl.Track(i)

	data, fallback := s.covers.Thumbnail(r.Context(), s.covers.Locator(t.Cover))
	if data == nil {
		writeError(w, http.StatusInternalServerError, "cover unavailable")
		return
	}

	w.Header().Set("Content-Type", cover.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if fallback {
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) state() notification.StatePayload {
	pl := s.player.Playlist()
	return notification.NewStatePayload(pl.Name(), pl.Len(), s.player.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Debug().Err(err).Msg("web: failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
