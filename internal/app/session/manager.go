// Package session wires a playlist, a media handle and the render surfaces
// into a running player.
package session

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/app/notification"
	"github.com/osa030/groove/internal/app/playback"
	"github.com/osa030/groove/internal/app/prefetch"
	"github.com/osa030/groove/internal/domain/media"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/domain/track"
	"github.com/osa030/groove/internal/infra/config"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrNoHandle       = errors.New("media handle is required")
)

// Handle is a media handle that reports events and owns resources.
type Handle interface {
	media.Handle
	media.Emitter
	Close() error
}

// Options holds the collaborators of a session.
type Options struct {
	Handle   Handle
	Prober   prefetch.Prober    // Optional; durations are only learned on load without it
	Surfaces []playback.Surface // Rendered in addition to the notification surface
}

// Manager manages the player session.
type Manager struct {
	mu      sync.Mutex
	started bool

	config *config.Config

	// Components
	playlist     *playlist.Playlist
	handle       Handle
	controller   *playback.Controller
	prefetcher   *prefetch.Prefetcher
	notification *notification.Manager
	notifier     *notification.Surface

	// Channels
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a session over tracks.
func NewManager(cfg *config.Config, tracks []track.Track, opts Options) (*Manager, error) {
	if opts.Handle == nil {
		return nil, ErrNoHandle
	}

	pl, err := playlist.New(cfg.Player.Name, tracks)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create playlist")
	}

	notifications := notification.NewManager()
	notifier := notification.NewSurface(notifications, 0)

	surfaces := make(playback.Surfaces, 0, len(opts.Surfaces)+1)
	surfaces = append(surfaces, notifier)
	surfaces = append(surfaces, opts.Surfaces...)

	controller := playback.NewController(pl, opts.Handle, surfaces, playback.Config{
		RestartThreshold: cfg.Player.RestartThreshold(),
		MuteThreshold:    cfg.Player.MuteThreshold,
		UnmuteVolume:     cfg.Player.UnmuteVolume,
	})

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:       cfg,
		playlist:     pl,
		handle:       opts.Handle,
		controller:   controller,
		notification: notifications,
		notifier:     notifier,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	if opts.Prober != nil {
		m.prefetcher = prefetch.New(opts.Prober, pl)
	}
	return m, nil
}

// Start initializes the controller and begins forwarding handle events.
// It returns immediately; Done is closed when the session stops.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true

	// Stop with the caller's context as well as on Close.
	go func() {
		select {
		case <-ctx.Done():
			m.cancel()
		case <-m.ctx.Done():
		}
	}()

	go m.notifier.Run(m.ctx)

	m.controller.Init(m.config.Player.InitialVolume)
	zlog.Info().Msgf("session started: playlist=%s tracks=%d", m.playlist.Name(), m.playlist.Len())

	if m.prefetcher != nil && !m.config.Player.SkipPrefetch {
		if n := m.prefetcher.Start(m.ctx); n > 0 {
			go m.refreshAfterPrefetch()
		}
	}

	go m.eventLoop()
	return nil
}

// Done returns a channel closed when the event loop has stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Controller returns the playback controller.
func (m *Manager) Controller() *playback.Controller {
	return m.controller
}

// Playlist returns the session playlist.
func (m *Manager) Playlist() *playlist.Playlist {
	return m.playlist
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// InitialState builds the snapshot sent to new subscribers.
func (m *Manager) InitialState() *notification.Notification {
	return &notification.Notification{
		Type:    notification.TypeInitialState,
		Payload: notification.NewStatePayload(m.playlist.Name(), m.playlist.Len(), m.controller.Snapshot()),
	}
}

// Close stops the session and releases the handle.
func (m *Manager) Close() error {
	m.cancel()
	m.notification.Close()
	if err := m.handle.Close(); err != nil {
		return errors.Wrap(err, "failed to close media handle")
	}
	return nil
}

func (m *Manager) eventLoop() {
	defer close(m.done)
	for m.forwardEvents() {
		zlog.Info().Msg("restarting event loop")
	}
}

// forwardEvents delivers handle events to the controller until the session
// stops. It reports true when it returned because of a panic.
func (m *Manager) forwardEvents() (restart bool) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("event loop panicked: %v", r)
			restart = m.ctx.Err() == nil
		}
	}()

	events := m.handle.Events()
	for {
		select {
		case <-m.ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				zlog.Info().Msg("media handle closed its event stream")
				return false
			}
			m.controller.HandleMediaEvent(ev)
		}
	}
}

// refreshAfterPrefetch re-renders the list once probed durations are in.
func (m *Manager) refreshAfterPrefetch() {
	m.prefetcher.Wait()
	if m.ctx.Err() != nil {
		return
	}
	m.controller.RefreshList()
	zlog.Debug().Msg("prefetch complete, list refreshed")
}
