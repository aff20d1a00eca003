package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

const (
	artistQuery = `SELECT id, name, COALESCE(user_id, '') FROM artists`

	albumQuery = `SELECT al.id, al.title, COALESCE(al.artist_id, ''), COALESCE(ar.name, ''),
		COALESCE(al.artwork_url, ''), COALESCE(al.user_id, '')
		FROM albums al LEFT JOIN artists ar ON ar.id = al.artist_id`

	songQuery = `SELECT s.id, s.title, COALESCE(s.album_id, ''), COALESCE(al.title, ''),
		COALESCE(al.artwork_url, ''), COALESCE(s.file_path, ''), COALESCE(s.user_id, '')
		FROM songs s LEFT JOIN albums al ON al.id = s.album_id`
)

func (s *Store) queryArtists(ctx context.Context, query string, args ...any) ([]catalog.Artist, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query artists")
	}
	defer rows.Close()

	var artists []catalog.Artist
	for rows.Next() {
		var a catalog.Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.UserID); err != nil {
			return nil, errors.Wrap(err, "failed to scan artist row")
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

func (s *Store) queryAlbums(ctx context.Context, query string, args ...any) ([]catalog.Album, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query albums")
	}
	defer rows.Close()

	var albums []catalog.Album
	for rows.Next() {
		var a catalog.Album
		if err := rows.Scan(&a.ID, &a.Title, &a.ArtistID, &a.ArtistName, &a.ArtworkURL, &a.UserID); err != nil {
			return nil, errors.Wrap(err, "failed to scan album row")
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

func (s *Store) querySongs(ctx context.Context, query string, args ...any) ([]track.Track, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query songs")
	}
	defer rows.Close()

	var songs []track.Track
	for rows.Next() {
		var t track.Track
		if err := rows.Scan(&t.ID, &t.Title, &t.AlbumID, &t.AlbumTitle, &t.ArtworkURL, &t.FilePath, &t.UserID); err != nil {
			return nil, errors.Wrap(err, "failed to scan song row")
		}
		songs = append(songs, t)
	}
	return songs, rows.Err()
}
