package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/groove/internal/domain/media/mediatest"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/domain/track"
)

type recordingSurface struct {
	mu       sync.Mutex
	tracks   []int
	lists    [][]playlist.Entry
	actives  []int
	playing  []bool
	shuffle  bool
	repeat   RepeatMode
	volume   float64
	muted    bool
	position time.Duration
	duration time.Duration
}

func (s *recordingSurface) ShowTrack(index int, _ track.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append(s.tracks, index)
}

func (s *recordingSurface) RenderList(entries []playlist.Entry, active int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = append(s.lists, entries)
	s.actives = append(s.actives, active)
}

func (s *recordingSurface) ShowPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = append(s.playing, playing)
}

func (s *recordingSurface) ShowProgress(position, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = position
	s.duration = duration
}

func (s *recordingSurface) ShowModes(shuffle bool, repeat RepeatMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuffle = shuffle
	s.repeat = repeat
}

func (s *recordingSurface) ShowVolume(volume float64, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	s.muted = muted
}

func (s *recordingSurface) lastList() ([]playlist.Entry, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lists) == 0 {
		return nil, -1
	}
	return s.lists[len(s.lists)-1], s.actives[len(s.actives)-1]
}

func testTracks() []track.Track {
	return []track.Track{
		{ID: "a", Title: "Nightfall", Artist: "Alpha", Source: "a.mp3", Cover: "a.jpg"},
		{ID: "b", Title: "Daybreak", Artist: "Beta", Source: "b.mp3", Cover: "b.jpg"},
		{ID: "c", Title: "Echo Chamber", Artist: "Gamma", Source: "c.mp3", Cover: "c.jpg"},
	}
}

type fixture struct {
	ctrl    *Controller
	fake    *mediatest.Fake
	surface *recordingSurface
}

func newFixture(t *testing.T, intn func(int) int) *fixture {
	t.Helper()

	pl, err := playlist.New("test", testTracks())
	require.NoError(t, err)

	fake := mediatest.NewFake(map[string]time.Duration{
		"a.mp3": 3 * time.Minute,
		"b.mp3": 4 * time.Minute,
		"c.mp3": 5 * time.Minute,
	})
	surface := &recordingSurface{}
	cfg := DefaultConfig()
	if intn != nil {
		cfg.Intn = intn
	}

	f := &fixture{
		ctrl:    NewController(pl, fake, surface, cfg),
		fake:    fake,
		surface: surface,
	}
	f.ctrl.Init(1)
	f.pump()
	return f
}

// pump delivers queued handle events until none remain.
func (f *fixture) pump() {
	for {
		events := f.fake.Drain()
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			f.ctrl.HandleMediaEvent(ev)
		}
	}
}

func (f *fixture) play(t *testing.T) {
	t.Helper()
	f.ctrl.TogglePlayPause()
	f.pump()
	require.True(t, f.ctrl.IsPlaying())
}

func TestController_Init(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, 0, f.ctrl.CurrentIndex())
	assert.False(t, f.ctrl.IsPlaying())
	assert.Equal(t, "a.mp3", f.fake.Source())
	assert.True(t, f.fake.Paused())
	assert.Equal(t, 1, f.fake.Loads)

	entries, active := f.surface.lastList()
	assert.Len(t, entries, 3)
	assert.Equal(t, 0, active)
	assert.Equal(t, 3*time.Minute, f.surface.duration)
}

func TestController_LoadTrack(t *testing.T) {
	t.Run("highlights loaded track", func(t *testing.T) {
		f := newFixture(t, nil)

		require.NoError(t, f.ctrl.LoadTrack(2))
		f.pump()

		assert.Equal(t, 2, f.ctrl.CurrentIndex())
		assert.Equal(t, "c.mp3", f.fake.Source())
		entries, active := f.surface.lastList()
		assert.Len(t, entries, 3)
		assert.Equal(t, 2, active)
		assert.False(t, f.ctrl.IsPlaying())
	})

	t.Run("keeps playing across load", func(t *testing.T) {
		f := newFixture(t, nil)
		f.play(t)

		require.NoError(t, f.ctrl.LoadTrack(1))
		f.pump()

		assert.True(t, f.ctrl.IsPlaying())
		assert.False(t, f.fake.Paused())
		assert.Equal(t, 1, f.ctrl.CurrentIndex())
	})

	t.Run("rejects out of range", func(t *testing.T) {
		f := newFixture(t, nil)

		err := f.ctrl.LoadTrack(3)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		err = f.ctrl.LoadTrack(-1)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.Equal(t, 0, f.ctrl.CurrentIndex())
	})
}

func TestController_TogglePlayPause(t *testing.T) {
	f := newFixture(t, nil)

	f.ctrl.TogglePlayPause()
	f.pump()
	assert.True(t, f.ctrl.IsPlaying())
	assert.Equal(t, []bool{true}, f.surface.playing[len(f.surface.playing)-1:])

	f.ctrl.TogglePlayPause()
	f.pump()
	assert.False(t, f.ctrl.IsPlaying())
	assert.True(t, f.fake.Paused())
}

func TestController_TogglePlayPause_LoadsWhenUnbound(t *testing.T) {
	pl, err := playlist.New("test", testTracks())
	require.NoError(t, err)
	fake := mediatest.NewFake(nil)
	ctrl := NewController(pl, fake, nil, DefaultConfig())

	ctrl.TogglePlayPause()

	assert.Equal(t, "a.mp3", fake.Source())
	assert.Equal(t, 1, fake.Loads)
	assert.False(t, fake.Paused())
}

func TestController_Previous(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		elapsed   time.Duration
		wantIndex int
		wantLoads int
	}{
		{name: "restarts after threshold", start: 1, elapsed: 4 * time.Second, wantIndex: 1, wantLoads: 0},
		{name: "goes back at threshold", start: 1, elapsed: 3 * time.Second, wantIndex: 0, wantLoads: 1},
		{name: "goes back early", start: 1, elapsed: time.Second, wantIndex: 0, wantLoads: 1},
		{name: "wraps to last", start: 0, elapsed: 0, wantIndex: 2, wantLoads: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			require.NoError(t, f.ctrl.LoadTrack(tt.start))
			f.play(t)
			f.fake.Advance(tt.elapsed)
			f.pump()
			loads := f.fake.Loads

			f.ctrl.Previous()
			f.pump()

			assert.Equal(t, tt.wantIndex, f.ctrl.CurrentIndex())
			assert.Equal(t, tt.wantLoads, f.fake.Loads-loads)
			assert.True(t, f.ctrl.IsPlaying())
			if tt.wantLoads == 0 {
				assert.Equal(t, time.Duration(0), f.fake.Position())
			}
		})
	}
}

func TestController_Next(t *testing.T) {
	t.Run("sequential wraps", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.ctrl.LoadTrack(2))

		f.ctrl.Next()
		f.pump()

		assert.Equal(t, 0, f.ctrl.CurrentIndex())
		assert.True(t, f.ctrl.IsPlaying())
	})

	t.Run("shuffle uses random index", func(t *testing.T) {
		f := newFixture(t, func(n int) int {
			assert.Equal(t, 3, n)
			return 2
		})
		f.ctrl.SetShuffle(true)

		f.ctrl.Next()
		f.pump()

		assert.Equal(t, 2, f.ctrl.CurrentIndex())
		assert.True(t, f.ctrl.IsPlaying())
	})
}

func TestController_TrackEnded(t *testing.T) {
	tests := []struct {
		name       string
		repeat     RepeatMode
		shuffle    bool
		start      int
		wantIndex  int
		wantPlay   bool
		wantReload bool
	}{
		{name: "repeat one replays", repeat: RepeatOne, start: 1, wantIndex: 1, wantPlay: true},
		{name: "repeat one replays last", repeat: RepeatOne, start: 2, wantIndex: 2, wantPlay: true},
		{name: "repeat all wraps", repeat: RepeatAll, start: 2, wantIndex: 0, wantPlay: true, wantReload: true},
		{name: "repeat all advances", repeat: RepeatAll, start: 0, wantIndex: 1, wantPlay: true, wantReload: true},
		{name: "repeat one with shuffle replays", repeat: RepeatOne, shuffle: true, start: 2, wantIndex: 2, wantPlay: true},
		{name: "repeat all with shuffle picks randomly", repeat: RepeatAll, shuffle: true, start: 2, wantIndex: 1, wantPlay: true, wantReload: true},
		{name: "off with shuffle advances randomly", repeat: RepeatOff, shuffle: true, start: 2, wantIndex: 1, wantPlay: true, wantReload: true},
		{name: "off advances", repeat: RepeatOff, start: 0, wantIndex: 1, wantPlay: true, wantReload: true},
		{name: "off stops at last", repeat: RepeatOff, start: 2, wantIndex: 2, wantPlay: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(int) int { return 1 })
			f.ctrl.SetRepeatMode(tt.repeat)
			f.ctrl.SetShuffle(tt.shuffle)
			require.NoError(t, f.ctrl.LoadTrack(tt.start))
			f.play(t)
			loads := f.fake.Loads

			f.fake.End()
			f.pump()

			assert.Equal(t, tt.wantIndex, f.ctrl.CurrentIndex())
			assert.Equal(t, tt.wantPlay, f.ctrl.IsPlaying())
			assert.Equal(t, tt.wantReload, f.fake.Loads > loads)
			assert.Equal(t, time.Duration(0), f.fake.Position())
		})
	}
}

func TestController_IgnoresEventsFromPreviousTrack(t *testing.T) {
	tests := []struct {
		name   string
		target int
	}{
		{name: "pick last track", target: 2},
		{name: "pick next track", target: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.play(t)

			// The first track ends while the user picks another one.
			f.fake.End()
			stale := f.fake.Drain()
			require.NoError(t, f.ctrl.LoadTrack(tt.target))

			for _, ev := range stale {
				f.ctrl.HandleMediaEvent(ev)
			}
			assert.Equal(t, tt.target, f.ctrl.CurrentIndex())
			assert.True(t, f.ctrl.IsPlaying())

			f.pump()
			assert.Equal(t, tt.target, f.ctrl.CurrentIndex())
			assert.True(t, f.ctrl.IsPlaying())
			assert.False(t, f.fake.Paused())
			assert.Equal(t, testTracks()[tt.target].Source, f.fake.Source())
		})
	}
}

func TestController_LoadedMetadataUpdatesList(t *testing.T) {
	f := newFixture(t, nil)

	visible := f.ctrl.Visible()
	require.Len(t, visible, 3)
	assert.Equal(t, 3*time.Minute, visible[0].Track.Duration)
	assert.Zero(t, visible[1].Track.Duration)

	entries, active := f.surface.lastList()
	require.Len(t, entries, 3)
	assert.Equal(t, 0, active)
	assert.Equal(t, 3*time.Minute, entries[0].Track.Duration)
}

func TestController_RefreshList(t *testing.T) {
	f := newFixture(t, nil)
	f.ctrl.FilterList("beta")

	require.True(t, f.ctrl.Playlist().SetDuration(1, 4*time.Minute))
	assert.Zero(t, f.ctrl.Visible()[0].Track.Duration)

	f.ctrl.RefreshList()

	visible := f.ctrl.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "b", visible[0].Track.ID)
	assert.Equal(t, 4*time.Minute, visible[0].Track.Duration)
	assert.Equal(t, "beta", f.ctrl.Snapshot().Filter)

	entries, _ := f.surface.lastList()
	assert.Len(t, entries, 1)
}

func TestController_PlaysThroughThenStops(t *testing.T) {
	f := newFixture(t, nil)
	f.play(t)

	var played []int
	for range 3 {
		played = append(played, f.ctrl.CurrentIndex())
		f.fake.End()
		f.pump()
	}

	assert.Equal(t, []int{0, 1, 2}, played)
	assert.Equal(t, 2, f.ctrl.CurrentIndex())
	assert.False(t, f.ctrl.IsPlaying())
	assert.Equal(t, time.Duration(0), f.fake.Position())
}

func TestController_CycleRepeatMode(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, RepeatAll, f.ctrl.CycleRepeatMode())
	assert.Equal(t, RepeatOne, f.ctrl.CycleRepeatMode())
	assert.Equal(t, RepeatOff, f.ctrl.CycleRepeatMode())
	assert.Equal(t, RepeatOff, f.surface.repeat)
}

func TestController_Shuffle(t *testing.T) {
	f := newFixture(t, nil)

	assert.True(t, f.ctrl.ToggleShuffle())
	assert.True(t, f.surface.shuffle)
	assert.False(t, f.ctrl.ToggleShuffle())
	assert.False(t, f.ctrl.Shuffle())
}

func TestController_Seek(t *testing.T) {
	tests := []struct {
		name   string
		target time.Duration
		want   time.Duration
	}{
		{name: "within range", target: time.Minute, want: time.Minute},
		{name: "before start", target: -5 * time.Second, want: 0},
		{name: "past end", target: 10 * time.Minute, want: 3 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			f.ctrl.Seek(tt.target)
			f.pump()

			assert.Equal(t, tt.want, f.fake.Position())
			assert.Equal(t, tt.want, f.surface.position)
		})
	}
}

func TestController_Volume(t *testing.T) {
	t.Run("clamps", func(t *testing.T) {
		f := newFixture(t, nil)

		f.ctrl.SetVolume(1.5)
		assert.Equal(t, 1.0, f.ctrl.Volume())
		f.ctrl.SetVolume(-0.2)
		assert.Equal(t, 0.0, f.ctrl.Volume())
		assert.True(t, f.surface.muted)
	})

	t.Run("mute restores previous volume", func(t *testing.T) {
		f := newFixture(t, nil)
		f.ctrl.SetVolume(0.37)

		f.ctrl.ToggleMute()
		assert.Equal(t, 0.0, f.ctrl.Volume())
		assert.True(t, f.surface.muted)

		f.ctrl.ToggleMute()
		assert.Equal(t, 0.37, f.ctrl.Volume())
		assert.False(t, f.surface.muted)
	})

	t.Run("unmute without captured volume", func(t *testing.T) {
		f := newFixture(t, nil)
		f.ctrl.SetVolume(0.005)

		f.ctrl.ToggleMute()
		assert.Equal(t, 0.8, f.ctrl.Volume())
	})
}

func TestController_FilterList(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.LoadTrack(1))
	f.play(t)

	visible := f.ctrl.FilterList("echo")
	require.Len(t, visible, 1)
	assert.Equal(t, 2, visible[0].Index)

	entries, active := f.surface.lastList()
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, f.ctrl.CurrentIndex())
	assert.True(t, f.ctrl.IsPlaying())

	assert.Len(t, f.ctrl.FilterList(""), 3)
	assert.Equal(t, "", f.ctrl.Snapshot().Filter)
}

func TestController_LoadedMetadataRecordsDuration(t *testing.T) {
	pl, err := playlist.New("test", testTracks())
	require.NoError(t, err)
	fake := mediatest.NewFake(map[string]time.Duration{"a.mp3": 90 * time.Second})
	ctrl := NewController(pl, fake, nil, DefaultConfig())

	ctrl.Init(0.5)
	for _, ev := range fake.Drain() {
		ctrl.HandleMediaEvent(ev)
	}

	tr, ok := pl.Track(0)
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, tr.Duration)

	state := ctrl.Snapshot()
	assert.True(t, state.Loaded)
	assert.Equal(t, 0.5, state.Volume)
	assert.Equal(t, 90*time.Second, state.Duration)
}
