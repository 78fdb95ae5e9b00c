package playback

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/groove/internal/domain/media"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/infra/metrics"
)

// Errors
var (
	ErrIndexOutOfRange = errors.New("track index out of range")
)

// Config holds controller configuration.
type Config struct {
	RestartThreshold time.Duration   // Elapsed time after which Previous restarts the current track
	MuteThreshold    float64         // Volumes at or below this count as muted
	UnmuteVolume     float64         // Volume restored by unmute when none was captured
	Intn             func(n int) int // Random source for shuffle, [0,n)
}

// DefaultConfig returns the controller defaults.
func DefaultConfig() Config {
	return Config{
		RestartThreshold: 3 * time.Second,
		MuteThreshold:    0.01,
		UnmuteVolume:     0.8,
		Intn:             rand.IntN,
	}
}

// Controller owns the cursor into the playlist and mediates between control
// actions, the native media handle and the render surface.
type Controller struct {
	mu sync.Mutex

	playlist *playlist.Playlist
	handle   media.Handle
	surface  Surface
	config   Config

	// Cursor
	currentIndex int
	loaded       bool

	// Derived from handle events only
	isPlaying bool
	position  time.Duration
	duration  time.Duration

	// Settings
	shuffle        bool
	repeat         RepeatMode
	previousVolume float64
	hasPrevious    bool

	// List view
	filter  string
	visible []playlist.Entry
}

// NewController creates a new playback controller.
func NewController(pl *playlist.Playlist, handle media.Handle, surface Surface, config Config) *Controller {
	defaults := DefaultConfig()
	if config.RestartThreshold <= 0 {
		config.RestartThreshold = defaults.RestartThreshold
	}
	if config.MuteThreshold <= 0 {
		config.MuteThreshold = defaults.MuteThreshold
	}
	if config.UnmuteVolume <= 0 {
		config.UnmuteVolume = defaults.UnmuteVolume
	}
	if config.Intn == nil {
		config.Intn = defaults.Intn
	}
	if surface == nil {
		surface = NopSurface{}
	}

	return &Controller{
		playlist: pl,
		handle:   handle,
		surface:  surface,
		config:   config,
		repeat:   RepeatOff,
		visible:  pl.Entries(),
	}
}

// Init applies the initial volume, renders the full list and loads the
// first track without starting playback.
func (c *Controller) Init(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.applyVolumeLocked(volume)
	c.surface.ShowModes(c.shuffle, c.repeat)
	c.surface.ShowPlaying(c.isPlaying)
	c.surface.RenderList(c.visible, c.currentIndex)
	c.loadTrackLocked(0)
}

// LoadTrack makes track i current. Playback continues on the new track if
// it was playing.
func (c *Controller) LoadTrack(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= c.playlist.Len() {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %d", i, c.playlist.Len())
	}
	c.loadTrackLocked(i)
	return nil
}

// TogglePlayPause flips the paused state, binding the current track first
// if nothing has been loaded yet.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle.Source() == "" {
		c.loadTrackLocked(c.currentIndex)
	}
	if c.handle.Paused() {
		c.handle.Play()
	} else {
		c.handle.Pause()
	}
}

// Play starts playback if paused.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle.Source() == "" {
		c.loadTrackLocked(c.currentIndex)
	}
	c.handle.Play()
}

// Pause pauses playback.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handle.Pause()
}

// Advance moves to the previous or next track.
func (c *Controller) Advance(direction Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if direction == Previous {
		c.previousLocked()
		return
	}
	c.nextLocked()
}

// Previous restarts the current track when it has played past the restart
// threshold, otherwise moves to the preceding track.
func (c *Controller) Previous() {
	c.Advance(Previous)
}

// Next moves to the following (or, when shuffling, a random) track.
func (c *Controller) Next() {
	c.Advance(Next)
}

// HandleMediaEvent applies an event reported by the media handle.
func (c *Controller) HandleMediaEvent(ev media.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Type != media.EventError && !c.isCurrentSourceLocked(ev) {
		// Queued before the current track was loaded
		zlog.Debug().Msgf("playback: dropping stale media event: type=%s source=%s", ev.Type, ev.Source)
		return
	}

	switch ev.Type {
	case media.EventPlay:
		c.onPlayLocked()
	case media.EventPause:
		c.onPauseLocked()
	case media.EventLoadedMetadata:
		c.onLoadedMetadataLocked(ev)
	case media.EventTimeUpdate:
		c.onTimeUpdateLocked(ev)
	case media.EventEnded:
		c.onTrackEndedLocked()
	case media.EventError:
		metrics.MediaErrorsTotal.Inc()
		zlog.Warn().Err(ev.Err).Msgf("playback: media error: source=%s", ev.Source)
	default:
		zlog.Debug().Msgf("playback: ignoring media event: type=%s", ev.Type)
	}
}

// SetShuffle enables or disables shuffle.
func (c *Controller) SetShuffle(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shuffle = enabled
	c.surface.ShowModes(c.shuffle, c.repeat)
}

// ToggleShuffle flips shuffle and returns the new setting.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shuffle = !c.shuffle
	c.surface.ShowModes(c.shuffle, c.repeat)
	return c.shuffle
}

// CycleRepeatMode advances the repeat mode and returns the new mode.
func (c *Controller) CycleRepeatMode() RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.repeat = c.repeat.Next()
	c.surface.ShowModes(c.shuffle, c.repeat)
	return c.repeat
}

// SetRepeatMode sets the repeat mode directly.
func (c *Controller) SetRepeatMode(mode RepeatMode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch mode {
	case RepeatOff, RepeatAll, RepeatOne:
		c.repeat = mode
	default:
		return
	}
	c.surface.ShowModes(c.shuffle, c.repeat)
}

// Seek moves the playback position, clamped to [0, duration] when the
// duration is known.
func (c *Controller) Seek(position time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if position < 0 {
		position = 0
	}
	if d := c.handle.Duration(); d > 0 && position > d {
		position = d
	}
	c.handle.SetPosition(position)
}

// SetVolume sets the output volume, clamped to [0,1].
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyVolumeLocked(v)
}

// ToggleMute mutes, remembering the current volume, or restores the
// remembered volume.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if vol := c.handle.Volume(); vol > c.config.MuteThreshold {
		c.previousVolume = vol
		c.hasPrevious = true
		c.applyVolumeLocked(0)
		return
	}

	restore := c.config.UnmuteVolume
	if c.hasPrevious {
		restore = c.previousVolume
	}
	c.applyVolumeLocked(restore)
}

// FilterList rebuilds the visible list from the query. The current track
// and playback are not affected.
func (c *Controller) FilterList(query string) []playlist.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter = query
	c.visible = c.playlist.Filter(query)
	c.surface.RenderList(c.visible, c.currentIndex)

	result := make([]playlist.Entry, len(c.visible))
	copy(result, c.visible)
	return result
}

// RefreshList re-derives the visible entries under the current filter,
// picking up durations resolved since the last render.
func (c *Controller) RefreshList() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.visible = c.playlist.Filter(c.filter)
	c.surface.RenderList(c.visible, c.currentIndex)
}

// Visible returns the entries shown under the current filter.
func (c *Controller) Visible() []playlist.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]playlist.Entry, len(c.visible))
	copy(result, c.visible)
	return result
}

// CurrentIndex returns the index of the current track.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentIndex
}

// IsPlaying reports the play state last reported by the handle.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPlaying
}

// Shuffle reports whether shuffle is enabled.
func (c *Controller) Shuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuffle
}

// RepeatMode returns the repeat mode.
func (c *Controller) RepeatMode() RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repeat
}

// Position returns the handle's playback position.
func (c *Controller) Position() time.Duration {
	return c.handle.Position()
}

// Duration returns the handle's duration for the loaded source.
func (c *Controller) Duration() time.Duration {
	return c.handle.Duration()
}

// Volume returns the handle's volume.
func (c *Controller) Volume() float64 {
	return c.handle.Volume()
}

// Playlist returns the controlled playlist.
func (c *Controller) Playlist() *playlist.Playlist {
	return c.playlist
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, _ := c.playlist.Track(c.currentIndex)
	vol := c.handle.Volume()
	return State{
		Index:     c.currentIndex,
		Track:     t,
		Loaded:    c.loaded,
		IsPlaying: c.isPlaying,
		Shuffle:   c.shuffle,
		Repeat:    c.repeat,
		Volume:    vol,
		Muted:     vol <= c.config.MuteThreshold,
		Position:  c.handle.Position(),
		Duration:  c.handle.Duration(),
		Filter:    c.filter,
	}
}

// loadTrackLocked binds track i to the handle.
// Must be called with lock held.
func (c *Controller) loadTrackLocked(i int) {
	t, ok := c.playlist.Track(i)
	if !ok {
		return
	}

	c.currentIndex = i
	c.loaded = true
	c.position = 0
	c.duration = t.Duration

	c.handle.SetSource(t.Source)
	c.surface.ShowTrack(i, t)
	c.surface.RenderList(c.visible, i)
	c.surface.ShowProgress(0, t.Duration)
	c.handle.Load()

	metrics.TracksLoadedTotal.Inc()
	zlog.Debug().Msgf("playback: track loaded: index=%d id=%s title=%s playing=%v", i, t.ID, t.Title, c.isPlaying)

	if c.isPlaying {
		c.handle.Play()
	}
}

// previousLocked must be called with lock held.
func (c *Controller) previousLocked() {
	if c.handle.Position() > c.config.RestartThreshold {
		c.handle.SetPosition(0)
		return
	}

	n := c.playlist.Len()
	c.loadTrackLocked((c.currentIndex - 1 + n) % n)
	c.handle.Play()
}

// nextLocked must be called with lock held.
func (c *Controller) nextLocked() {
	n := c.playlist.Len()

	var i int
	if c.shuffle {
		i = c.config.Intn(n)
	} else {
		i = (c.currentIndex + 1) % n
	}
	c.loadTrackLocked(i)
	c.handle.Play()
}

func (c *Controller) onPlayLocked() {
	c.isPlaying = true
	metrics.PlaybackTransitionsTotal.WithLabelValues("playing").Inc()
	c.surface.ShowPlaying(true)
}

func (c *Controller) onPauseLocked() {
	c.isPlaying = false
	metrics.PlaybackTransitionsTotal.WithLabelValues("paused").Inc()
	c.surface.ShowPlaying(false)
}

// isCurrentSourceLocked reports whether ev refers to the loaded track.
func (c *Controller) isCurrentSourceLocked(ev media.Event) bool {
	t, ok := c.playlist.Track(c.currentIndex)
	return ok && ev.Source == t.Source
}

func (c *Controller) onLoadedMetadataLocked(ev media.Event) {
	c.duration = ev.Duration
	if ev.Duration > 0 && c.playlist.SetDuration(c.currentIndex, ev.Duration) {
		c.visible = c.playlist.Filter(c.filter)
		c.surface.RenderList(c.visible, c.currentIndex)
	}
	c.surface.ShowProgress(c.position, c.duration)
}

func (c *Controller) onTimeUpdateLocked(ev media.Event) {
	c.position = ev.Position
	if ev.Duration > 0 {
		c.duration = ev.Duration
	}
	c.surface.ShowProgress(c.position, c.duration)
}

// onTrackEndedLocked decides what plays after the current track ends.
//
//	RepeatOne           -> replay current track
//	RepeatAll           -> next (random when shuffling)
//	Off, shuffle        -> next (random)
//	Off, not last track -> next
//	Off, last track     -> pause at position 0
func (c *Controller) onTrackEndedLocked() {
	switch c.repeat {
	case RepeatOne:
		metrics.TrackEndsTotal.WithLabelValues("replay").Inc()
		c.handle.SetPosition(0)
		c.handle.Play()
	case RepeatAll:
		metrics.TrackEndsTotal.WithLabelValues("advance").Inc()
		c.nextLocked()
	default:
		if c.shuffle || c.currentIndex < c.playlist.Len()-1 {
			metrics.TrackEndsTotal.WithLabelValues("advance").Inc()
			c.nextLocked()
			return
		}
		metrics.TrackEndsTotal.WithLabelValues("stop").Inc()
		c.handle.Pause()
		c.handle.SetPosition(0)
	}
}

// applyVolumeLocked must be called with lock held.
func (c *Controller) applyVolumeLocked(v float64) {
	v = lo.Clamp(v, 0, 1)
	c.handle.SetVolume(v)
	c.surface.ShowVolume(v, v <= c.config.MuteThreshold)
}
