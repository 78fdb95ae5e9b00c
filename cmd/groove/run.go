package main

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/groove/internal/api/web"
	"github.com/osa030/groove/internal/app/keymap"
	"github.com/osa030/groove/internal/app/playback"
	"github.com/osa030/groove/internal/app/session"
	"github.com/osa030/groove/internal/app/source"
	"github.com/osa030/groove/internal/domain/track"
	"github.com/osa030/groove/internal/infra/audio"
	"github.com/osa030/groove/internal/infra/config"
	"github.com/osa030/groove/internal/infra/cover"
	"github.com/osa030/groove/internal/infra/media"
	"github.com/osa030/groove/internal/infra/probe"
	"github.com/osa030/groove/internal/infra/spotify"
	"github.com/osa030/groove/internal/ui/tui"
)

const shutdownTimeout = 10 * time.Second

// collectTracks builds the playlist contents from the configured sources.
func collectTracks(ctx context.Context, cfg *config.Config) ([]track.Track, error) {
	var spotifyClient source.SpotifyClient
	if cfg.UsesSpotify() {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Spotify client")
		}
		spotifyClient = client
	}

	chain, err := source.NewChainFromConfig(cfg, spotifyClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create source chain")
	}
	return chain.Collect(ctx)
}

// newSession assembles the session with the configured handle.
func newSession(ctx context.Context, cfg *config.Config, opener *media.Opener, surfaces ...playback.Surface) (*session.Manager, error) {
	tracks, err := collectTracks(ctx, cfg)
	if err != nil {
		return nil, err
	}

	prober := probe.NewProber(opener)
	handle := audio.New(audio.Config{
		Silent: cfg.Player.Silent,
		Opener: opener,
		Prober: prober,
	})

	sm, err := session.NewManager(cfg, tracks, session.Options{
		Handle:   handle,
		Prober:   prober,
		Surfaces: surfaces,
	})
	if err != nil {
		_ = handle.Close()
		return nil, errors.Wrap(err, "failed to create session manager")
	}
	return sm, nil
}

// startHTTP serves the web API. Errors after startup arrive on the channel.
func startHTTP(cfg *config.Config, sm *session.Manager, opener *media.Opener) (*http.Server, <-chan error) {
	covers := cover.NewResolver(opener, cfg.Covers.Placeholder, cfg.Covers.ThumbnailSize)
	srv := web.NewServer(sm.Controller(), sm.GetNotificationManager(), covers, keyConfig(cfg), cfg.Web)

	server := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           h2c.NewHandler(srv.Router(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting web server: addr=%s", cfg.Web.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error().Msgf("Web server failed: %v", err)
			errCh <- err
		}
	}()
	return server, errCh
}

func keyConfig(cfg *config.Config) keymap.Config {
	return keymap.Config{
		SeekStep:   cfg.Keys.SeekStep(),
		VolumeStep: cfg.Keys.VolumeStep,
	}
}

func shutdownHTTP(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error().Msgf("Failed to shutdown web server: %v", err)
	}
}

// runServe plays headless until a signal arrives.
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opener := media.NewOpener(nil)
	sm, err := newSession(ctx, cfg, opener)
	if err != nil {
		return err
	}
	if err := sm.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	server, serverErrCh := startHTTP(cfg, sm, opener)
	executeHooks(cfg.Hooks.OnStarted, "on_started")

	select {
	case <-ctx.Done():
		zlog.Info().Msg("Received shutdown signal...")
	case <-sm.Done():
		zlog.Info().Msg("Session ended, shutting down...")
	case err := <-serverErrCh:
		_ = sm.Close()
		return errors.Wrap(err, "server error")
	}

	// Close the session first to end websocket streams
	if err := sm.Close(); err != nil {
		zlog.Error().Msgf("Failed to close session: %v", err)
	}
	shutdownHTTP(server)
	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Hooks.OnStopped, "on_stopped")
	return nil
}

// runPlay runs the terminal UI, optionally alongside the web API.
func runPlay(cfg *config.Config, withWeb bool) error {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	opener := media.NewOpener(nil)
	surface := tui.NewSurface()
	sm, err := newSession(ctx, cfg, opener, surface)
	if err != nil {
		return err
	}
	defer func() {
		if err := sm.Close(); err != nil {
			zlog.Error().Msgf("Failed to close session: %v", err)
		}
	}()

	if err := sm.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	if withWeb {
		server, serverErrCh := startHTTP(cfg, sm, opener)
		defer shutdownHTTP(server)
		// A failing web server ends the terminal UI too
		go func() {
			select {
			case err := <-serverErrCh:
				cancel(errors.Wrap(err, "server error"))
			case <-ctx.Done():
			}
		}()
	}

	executeHooks(cfg.Hooks.OnStarted, "on_started")
	defer executeHooks(cfg.Hooks.OnStopped, "on_stopped")

	return tui.Run(ctx, tui.New(cfg.Player.Name, sm.Controller(), surface, keyConfig(cfg)))
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
