package playlist

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/groove/internal/domain/track"
)

func sampleTracks() []track.Track {
	return []track.Track{
		{ID: "t1", Title: "Lost in the Night", Artist: "Neon Echo", Source: "song1.mp3"},
		{ID: "t2", Title: "Daybreak", Artist: "Luma", Source: "song2.mp3"},
		{ID: "t3", Title: "City Lights", Artist: "Atlas Prime", Source: "song3.mp3"},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		tracks  []track.Track
		wantErr error
	}{
		{name: "valid", tracks: sampleTracks()},
		{name: "empty", tracks: []track.Track{}, wantErr: ErrEmpty},
		{name: "nil", tracks: nil, wantErr: ErrEmpty},
		{
			name:    "duplicate id",
			tracks:  []track.Track{{ID: "a"}, {ID: "a"}},
			wantErr: ErrDuplicateID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New("test", tt.tracks)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.tracks), p.Len())
		})
	}
}

func TestPlaylist_Filter(t *testing.T) {
	p, err := New("test", sampleTracks())
	require.NoError(t, err)

	tests := []struct {
		name     string
		query    string
		expected []int
	}{
		{name: "empty query shows all", query: "", expected: []int{0, 1, 2}},
		{name: "artist match", query: "echo", expected: []int{0}},
		{name: "title match", query: "city", expected: []int{2}},
		{name: "substring inside word", query: "igh", expected: []int{0, 2}},
		{name: "upper case query", query: "LUMA", expected: []int{1}},
		{name: "no match", query: "zzz", expected: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := p.Filter(tt.query)
			indices := make([]int, 0, len(entries))
			for _, e := range entries {
				indices = append(indices, e.Index)
			}
			assert.Equal(t, tt.expected, indices)
		})
	}
}

func TestPlaylist_Track(t *testing.T) {
	p, err := New("test", sampleTracks())
	require.NoError(t, err)

	trk, ok := p.Track(1)
	assert.True(t, ok)
	assert.Equal(t, "Daybreak", trk.Title)

	_, ok = p.Track(3)
	assert.False(t, ok)
	_, ok = p.Track(-1)
	assert.False(t, ok)

	idx, ok := p.IndexOf("t3")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	assert.Equal(t, []string{"t1", "t2", "t3"}, p.TrackIDs())
}

func TestPlaylist_Durations(t *testing.T) {
	p, err := New("test", sampleTracks())
	require.NoError(t, err)

	assert.True(t, p.SetDurationIfUnknown(0, 2*time.Minute))
	assert.False(t, p.SetDurationIfUnknown(0, 5*time.Minute), "known duration must not be overwritten")
	assert.True(t, p.SetDuration(1, 3*time.Minute))
	assert.False(t, p.SetDuration(7, time.Minute))

	trk, _ := p.Track(0)
	assert.Equal(t, 2*time.Minute, trk.Duration)
	assert.Equal(t, 5*time.Minute, p.TotalDuration())
}

func TestPlaylist_ConcurrentDurationWrites(t *testing.T) {
	p, err := New("test", sampleTracks())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < p.Len(); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.SetDurationIfUnknown(i, time.Duration(i+1)*time.Minute)
		}(i)
	}
	wg.Wait()

	for i, trk := range p.Tracks() {
		assert.Equal(t, time.Duration(i+1)*time.Minute, trk.Duration)
	}
}

func TestPlaylist_LookupsDuringDurationWrites(t *testing.T) {
	p, err := New("test", sampleTracks())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < p.Len(); i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			p.SetDuration(i, time.Duration(i+1)*time.Minute)
		}(i)
		go func() {
			defer wg.Done()
			idx, ok := p.IndexOf("t3")
			assert.True(t, ok)
			assert.Equal(t, 2, idx)
			assert.Equal(t, []string{"t1", "t2", "t3"}, p.TrackIDs())
		}()
	}
	wg.Wait()
}

func TestPlaylist_TracksIsCopy(t *testing.T) {
	p, err := New("mine", sampleTracks())
	require.NoError(t, err)

	tracks := p.Tracks()
	tracks[0].Title = "changed"

	trk, _ := p.Track(0)
	assert.Equal(t, "Lost in the Night", trk.Title)
	assert.Equal(t, "mine", p.Name())
}
