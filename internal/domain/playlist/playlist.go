// Package playlist provides the Playlist domain entity.
package playlist

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/osa030/groove/internal/domain/track"
)

var (
	ErrEmpty       = errors.New("playlist has no tracks")
	ErrDuplicateID = errors.New("duplicate track id")
)

// Entry is a track together with its position in the playlist.
type Entry struct {
	Index int
	Track track.Track
}

// Playlist is an ordered track list fixed at construction.
// Only track durations may change afterwards.
type Playlist struct {
	mu     sync.RWMutex
	name   string
	tracks []track.Track
}

// New creates a playlist. It fails when tracks is empty or IDs repeat.
func New(name string, tracks []track.Track) (*Playlist, error) {
	if len(tracks) == 0 {
		return nil, ErrEmpty
	}

	seen := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		if seen[t.ID] {
			return nil, errors.Wrapf(ErrDuplicateID, "id %q", t.ID)
		}
		seen[t.ID] = true
	}

	copied := make([]track.Track, len(tracks))
	copy(copied, tracks)
	return &Playlist{name: name, tracks: copied}, nil
}

// Name returns the playlist name.
func (p *Playlist) Name() string {
	return p.name
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Track returns the track at index i.
func (p *Playlist) Track(i int) (track.Track, bool) {
	if i < 0 || i >= len(p.tracks) {
		return track.Track{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracks[i], true
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []track.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]track.Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// IndexOf returns the index of the track with the given ID.
func (p *Playlist) IndexOf(id string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i, t := range p.tracks {
		if t.ID == id {
			return i, true
		}
	}
	return -1, false
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, len(p.tracks))
	for i, t := range p.tracks {
		ids[i] = t.ID
	}
	return ids
}

// SetDuration records the duration of the track at index i.
func (p *Playlist) SetDuration(i int, d time.Duration) bool {
	if i < 0 || i >= len(p.tracks) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks[i].Duration = d
	return true
}

// SetDurationIfUnknown records the duration only while it is still zero.
func (p *Playlist) SetDurationIfUnknown(i int, d time.Duration) bool {
	if i < 0 || i >= len(p.tracks) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tracks[i].Duration != 0 {
		return false
	}
	p.tracks[i].Duration = d
	return true
}

// TotalDuration returns the sum of all known track durations.
func (p *Playlist) TotalDuration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var total time.Duration
	for _, t := range p.tracks {
		total += t.Duration
	}
	return total
}

// Entries returns every track with its index.
func (p *Playlist) Entries() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return lo.Map(p.tracks, func(t track.Track, i int) Entry {
		return Entry{Index: i, Track: t}
	})
}

// Filter returns the entries whose title or artist contains query.
func (p *Playlist) Filter(query string) []Entry {
	return lo.Filter(p.Entries(), func(e Entry, _ int) bool {
		return e.Track.Matches(query)
	})
}
