package library

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/playlist"
	"github.com/osa030/musicbox/internal/domain/track"
)

// Shared is the content behind a shared link. Exactly one of Song, Album
// and Artist is set, matching Type.
type Shared struct {
	Type   catalog.ContentType   `json:"type"`
	Song   *catalog.SongDetail   `json:"song,omitempty"`
	Album  *catalog.AlbumDetail  `json:"album,omitempty"`
	Artist *catalog.ArtistDetail `json:"artist,omitempty"`
}

// Tracks returns the playable songs of the shared content in display order.
func (s *Shared) Tracks() []track.Track {
	switch {
	case s.Song != nil:
		return []track.Track{s.Song.Song}
	case s.Album != nil:
		return s.Album.Songs
	case s.Artist != nil:
		return s.Artist.Tracks()
	default:
		return nil
	}
}

// Playlist returns the shared content as a playlist.
func (s *Shared) Playlist() playlist.Playlist {
	return playlist.New(playlist.SourceShared, s.name(), s.Tracks())
}

func (s *Shared) name() string {
	switch {
	case s.Song != nil:
		return s.Song.Song.Title
	case s.Album != nil:
		return s.Album.Album.Title
	case s.Artist != nil:
		return s.Artist.Artist.Name
	default:
		return ""
	}
}

// Shared fetches the content a shared link points to.
func (s *Service) Shared(ctx context.Context, contentType, id string) (*Shared, error) {
	ct, err := catalog.ParseContentType(contentType)
	if err != nil {
		return nil, err
	}

	shared := &Shared{Type: ct}
	switch ct {
	case catalog.ContentSong:
		d, err := s.store.GetSong(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch song %s", id)
		}
		shared.Song = &d
	case catalog.ContentAlbum:
		d, err := s.store.GetAlbum(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch album %s", id)
		}
		shared.Album = &d
	case catalog.ContentArtist:
		d, err := s.store.GetArtist(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch artist %s", id)
		}
		shared.Artist = &d
	}
	return shared, nil
}

// Album fetches an album with its songs.
func (s *Service) Album(ctx context.Context, id string) (catalog.AlbumDetail, error) {
	d, err := s.store.GetAlbum(ctx, id)
	if err != nil {
		return catalog.AlbumDetail{}, errors.Wrapf(err, "failed to fetch album %s", id)
	}
	return d, nil
}

// Artist fetches an artist with its albums and songs.
func (s *Service) Artist(ctx context.Context, id string) (catalog.ArtistDetail, error) {
	d, err := s.store.GetArtist(ctx, id)
	if err != nil {
		return catalog.ArtistDetail{}, errors.Wrapf(err, "failed to fetch artist %s", id)
	}
	return d, nil
}
