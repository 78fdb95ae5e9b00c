// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Track represents a playable audio track.
// All fields except Duration are fixed once the playlist is built.
type Track struct {
	ID       string        // Unique track ID
	Title    string        // Track title
	Artist   string        // Artist name
	Source   string        // Audio locator (file path or URL)
	Cover    string        // Cover image locator (file path or URL)
	Duration time.Duration // Zero until metadata resolves
}

// SearchText returns the text matched by list filtering.
func (t *Track) SearchText() string {
	return t.Title + " " + t.Artist
}

// Matches reports whether the track matches the search query.
// Matching is a case-insensitive substring test against title and artist.
// An empty (or blank) query matches every track.
func (t *Track) Matches(query string) bool {
	q := NormalizeQuery(query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.SearchText()), q)
}

// NormalizeQuery trims and lowercases a search query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// FormatDuration formats seconds as m:ss.
// Minutes are unpadded, seconds are zero-padded and both are truncated.
// NaN, zero, negative and infinite inputs render as "0:00".
func FormatDuration(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	m := math.Floor(seconds / 60)
	s := math.Floor(math.Mod(seconds, 60))
	return fmt.Sprintf("%d:%02d", int64(m), int64(s))
}

// FormatTime formats a duration as m:ss.
func FormatTime(d time.Duration) string {
	return FormatDuration(d.Seconds())
}
