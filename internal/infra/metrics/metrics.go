// Package metrics defines the Prometheus metrics exported by groove.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Playback metrics
	TracksLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groove_tracks_loaded_total",
			Help: "Total number of tracks bound to the playback handle",
		},
	)

	TrackEndsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groove_track_ends_total",
			Help: "Total number of tracks that played to the end, by resulting action",
		},
		[]string{"action"}, // replay, advance, stop
	)

	PlaybackTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groove_playback_transitions_total",
			Help: "Total number of play/pause transitions reported by the handle",
		},
		[]string{"state"},
	)

	MediaErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groove_media_errors_total",
			Help: "Total number of errors reported by the playback handle",
		},
	)

	// Prefetch metrics
	DurationProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groove_duration_probes_total",
			Help: "Total number of background duration probes",
		},
		[]string{"result"}, // ok, error, unknown, superseded
	)

	// Cover metrics
	CoverFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groove_cover_fallbacks_total",
			Help: "Total number of covers replaced by the placeholder image",
		},
	)

	// Web metrics
	SubscribersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "groove_web_subscribers",
			Help: "Number of connected websocket subscribers",
		},
	)

	ControlRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groove_control_requests_total",
			Help: "Total number of control API requests",
		},
		[]string{"action"},
	)
)
