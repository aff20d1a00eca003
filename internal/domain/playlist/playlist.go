// Package playlist provides the Playlist domain entity.
package playlist

import (
	"github.com/samber/lo"

	"github.com/osa030/musicbox/internal/domain/track"
)

// Source identifies the listing a playlist was taken from.
type Source string

const (
	SourceSongs  Source = "songs"
	SourceSearch Source = "search"
	SourceAlbum  Source = "album"
	SourceArtist Source = "artist"
	SourceShared Source = "shared"
)

// Playlist is an ordered sequence of tracks.
// Insertion order defines next/previous in sequential play. A playlist is
// replaced wholesale when playback starts from another listing.
type Playlist struct {
	Source Source        // Listing the tracks came from
	Name   string        // Display name (search term, album title, ...)
	Tracks []track.Track // Tracks in listing order
}

// New creates a playlist holding its own copy of tracks.
func New(source Source, name string, tracks []track.Track) Playlist {
	owned := make([]track.Track, len(tracks))
	copy(owned, tracks)
	return Playlist{
		Source: source,
		Name:   name,
		Tracks: owned,
	}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.Tracks)
}

// IsEmpty returns true if the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return len(p.Tracks) == 0
}

// At returns the track at index i.
func (p *Playlist) At(i int) track.Track {
	return p.Tracks[i]
}

// IndexOf returns the index of the track with the given ID, or -1.
func (p *Playlist) IndexOf(trackID string) int {
	_, idx, ok := lo.FindIndexOf(p.Tracks, func(t track.Track) bool {
		return t.ID == trackID
	})
	if !ok {
		return -1
	}
	return idx
}

// Contains reports whether a track with the given ID is in the playlist.
func (p *Playlist) Contains(trackID string) bool {
	return p.IndexOf(trackID) >= 0
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	return lo.Map(p.Tracks, func(t track.Track, _ int) string {
		return t.ID
	})
}
