// Package catalog provides the Artist and Album domain entities and the
// aggregates shown by shared deep links.
package catalog

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/musicbox/internal/domain/track"
)

// Errors
var (
	ErrNotFound           = errors.New("not found") // Requested row does not exist
	ErrInvalidContentType = errors.New("invalid content type")
)

// ContentType is the kind of entity a shared link points to.
type ContentType string

const (
	ContentSong   ContentType = "song"
	ContentAlbum  ContentType = "album"
	ContentArtist ContentType = "artist"
)

// ParseContentType converts a string to a ContentType.
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(s); ct {
	case ContentSong, ContentAlbum, ContentArtist:
		return ct, nil
	default:
		return "", errors.Wrapf(ErrInvalidContentType, "%q", s)
	}
}

// Artist represents an artist row.
type Artist struct {
	ID     string `json:"id"`
	Name   string `json:"name" validate:"required"`
	UserID string `json:"user_id,omitempty"`
}

// Album represents an album row.
type Album struct {
	ID         string `json:"id"`
	Title      string `json:"title" validate:"required"`
	ArtistID   string `json:"artist_id"`
	ArtistName string `json:"artist_name,omitempty"` // joined from artists
	ArtworkURL string `json:"artwork_url,omitempty"`
	UserID     string `json:"user_id,omitempty"`
}

// SongDetail is a song with its album and artist, as shown by a song link.
type SongDetail struct {
	Song   track.Track `json:"song"`
	Album  Album       `json:"album"`
	Artist Artist      `json:"artist"`
}

// AlbumDetail is an album with its artist and songs.
type AlbumDetail struct {
	Album  Album         `json:"album"`
	Artist Artist        `json:"artist"`
	Songs  []track.Track `json:"songs"`
}

// ArtistDetail is an artist with all albums and their songs.
type ArtistDetail struct {
	Artist Artist        `json:"artist"`
	Albums []AlbumDetail `json:"albums"`
}

// Tracks flattens the artist's albums into one ordered song list.
func (d *ArtistDetail) Tracks() []track.Track {
	var tracks []track.Track
	for _, a := range d.Albums {
		tracks = append(tracks, a.Songs...)
	}
	return tracks
}

// SearchResults groups search hits by entity kind.
type SearchResults struct {
	Songs   []track.Track `json:"songs"`
	Albums  []Album       `json:"albums"`
	Artists []Artist      `json:"artists"`
}

// IsEmpty returns true if nothing matched.
func (r *SearchResults) IsEmpty() bool {
	return len(r.Songs) == 0 && len(r.Albums) == 0 && len(r.Artists) == 0
}
