// Package store provides a local catalog store on sqlite with uploaded
// objects kept in a directory.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/osa030/musicbox/internal/domain/account"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

// tables maps each catalog table to its sqlite definition.
var tables = map[string]string{
	"user_profiles": `CREATE TABLE IF NOT EXISTS user_profiles (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT ''
	)`,
	"artists": `CREATE TABLE IF NOT EXISTS artists (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		user_id TEXT
	)`,
	"albums": `CREATE TABLE IF NOT EXISTS albums (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist_id TEXT REFERENCES artists(id),
		artwork_url TEXT,
		user_id TEXT
	)`,
	"songs": `CREATE TABLE IF NOT EXISTS songs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		album_id TEXT REFERENCES albums(id),
		file_path TEXT,
		user_id TEXT
	)`,
}

// Store is a sqlite-backed catalog store.
type Store struct {
	db         *sql.DB
	objectsDir string
}

// Open opens (or creates) the database at dbPath and stores objects under
// objectsDir.
func Open(dbPath, objectsDir string) (*Store, error) {
	for _, dir := range []string{filepath.Dir(dbPath), objectsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to run %s", pragma)
		}
	}

	zlog.Info().Msgf("Local store opened: db=%s objects=%s", dbPath, objectsDir)
	return &Store{db: db, objectsDir: objectsDir}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTable creates a catalog table. The column list is written for the
// remote backend, so the local definition of the table is used instead.
func (s *Store) CreateTable(ctx context.Context, name, _ string) error {
	ddl, ok := tables[name]
	if !ok {
		return errors.Newf("unknown table %q", name)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrapf(err, "failed to create table %s", name)
	}
	return nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Mark(errors.Newf("%s %s not found", what, id), catalog.ErrNotFound)
	}
	return errors.Wrapf(err, "failed to get %s %s", what, id)
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + strings.ToLower(r.Replace(term)) + "%"
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func newID() string {
	return uuid.NewString()
}

// ListArtists returns all artists ordered by name.
func (s *Store) ListArtists(ctx context.Context) ([]catalog.Artist, error) {
	return s.queryArtists(ctx, artistQuery+` ORDER BY name`)
}

// SearchArtists returns up to limit artists whose name contains term.
func (s *Store) SearchArtists(ctx context.Context, term string, limit int) ([]catalog.Artist, error) {
	return s.queryArtists(ctx, artistQuery+` WHERE lower(name) LIKE ? ESCAPE '\' ORDER BY name LIMIT ?`, likePattern(term), limit)
}

// ListAlbums returns all albums with their artist name ordered by title.
func (s *Store) ListAlbums(ctx context.Context) ([]catalog.Album, error) {
	return s.queryAlbums(ctx, albumQuery+` ORDER BY al.title`)
}

// SearchAlbums returns up to limit albums whose title contains term.
func (s *Store) SearchAlbums(ctx context.Context, term string, limit int) ([]catalog.Album, error) {
	return s.queryAlbums(ctx, albumQuery+` WHERE lower(al.title) LIKE ? ESCAPE '\' ORDER BY al.title LIMIT ?`, likePattern(term), limit)
}

// ListSongs returns all songs with their album title ordered by title.
func (s *Store) ListSongs(ctx context.Context) ([]track.Track, error) {
	return s.querySongs(ctx, songQuery+` ORDER BY s.title`)
}

// SearchSongs returns up to limit songs whose title contains term.
func (s *Store) SearchSongs(ctx context.Context, term string, limit int) ([]track.Track, error) {
	return s.querySongs(ctx, songQuery+` WHERE lower(s.title) LIKE ? ESCAPE '\' ORDER BY s.title LIMIT ?`, likePattern(term), limit)
}

// InsertArtist inserts an artist and returns it with its new ID.
func (s *Store) InsertArtist(ctx context.Context, a catalog.Artist) (catalog.Artist, error) {
	a.ID = newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artists (id, name, user_id) VALUES (?, ?, ?)`,
		a.ID, a.Name, nullable(a.UserID),
	)
	if err != nil {
		return catalog.Artist{}, errors.Wrap(err, "failed to insert artist")
	}
	return a, nil
}

// InsertAlbum inserts an album and returns it with its new ID.
func (s *Store) InsertAlbum(ctx context.Context, a catalog.Album) (catalog.Album, error) {
	a.ID = newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO albums (id, title, artist_id, artwork_url, user_id) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Title, nullable(a.ArtistID), nullable(a.ArtworkURL), nullable(a.UserID),
	)
	if err != nil {
		return catalog.Album{}, errors.Wrap(err, "failed to insert album")
	}
	return a, nil
}

// InsertSong inserts a song and returns it with its new ID.
func (s *Store) InsertSong(ctx context.Context, t track.Track) (track.Track, error) {
	t.ID = newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO songs (id, title, album_id, file_path, user_id) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Title, nullable(t.AlbumID), nullable(t.FilePath), nullable(t.UserID),
	)
	if err != nil {
		return track.Track{}, errors.Wrap(err, "failed to insert song")
	}
	return t, nil
}

// GetSong returns a song with its album and the album's artist.
func (s *Store) GetSong(ctx context.Context, id string) (catalog.SongDetail, error) {
	songs, err := s.querySongs(ctx, songQuery+` WHERE s.id = ?`, id)
	if err != nil {
		return catalog.SongDetail{}, err
	}
	if len(songs) == 0 {
		return catalog.SongDetail{}, notFound(sql.ErrNoRows, "song", id)
	}

	d := catalog.SongDetail{Song: songs[0]}
	if d.Song.AlbumID == "" {
		return d, nil
	}
	album, err := s.GetAlbum(ctx, d.Song.AlbumID)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return catalog.SongDetail{}, err
	}
	d.Album = album.Album
	d.Artist = album.Artist
	return d, nil
}

// GetAlbum returns an album with its artist and songs.
func (s *Store) GetAlbum(ctx context.Context, id string) (catalog.AlbumDetail, error) {
	albums, err := s.queryAlbums(ctx, albumQuery+` WHERE al.id = ?`, id)
	if err != nil {
		return catalog.AlbumDetail{}, err
	}
	if len(albums) == 0 {
		return catalog.AlbumDetail{}, notFound(sql.ErrNoRows, "album", id)
	}

	d := catalog.AlbumDetail{Album: albums[0]}
	if d.Album.ArtistID != "" {
		d.Artist = catalog.Artist{ID: d.Album.ArtistID, Name: d.Album.ArtistName}
	}
	d.Songs, err = s.querySongs(ctx, songQuery+` WHERE s.album_id = ? ORDER BY s.title`, id)
	if err != nil {
		return catalog.AlbumDetail{}, err
	}
	return d, nil
}

// GetArtist returns an artist with its albums and their songs.
func (s *Store) GetArtist(ctx context.Context, id string) (catalog.ArtistDetail, error) {
	artists, err := s.queryArtists(ctx, artistQuery+` WHERE id = ?`, id)
	if err != nil {
		return catalog.ArtistDetail{}, err
	}
	if len(artists) == 0 {
		return catalog.ArtistDetail{}, notFound(sql.ErrNoRows, "artist", id)
	}

	d := catalog.ArtistDetail{Artist: artists[0]}
	albums, err := s.queryAlbums(ctx, albumQuery+` WHERE al.artist_id = ? ORDER BY al.title`, id)
	if err != nil {
		return catalog.ArtistDetail{}, err
	}
	for _, a := range albums {
		songs, err := s.querySongs(ctx, songQuery+` WHERE s.album_id = ? ORDER BY s.title`, a.ID)
		if err != nil {
			return catalog.ArtistDetail{}, err
		}
		d.Albums = append(d.Albums, catalog.AlbumDetail{Album: a, Artist: d.Artist, Songs: songs})
	}
	return d, nil
}

// GetProfile returns the user's profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (account.Profile, error) {
	var p account.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, bio FROM user_profiles WHERE id = ?`, userID,
	).Scan(&p.ID, &p.Username, &p.Bio)
	if err != nil {
		return account.Profile{}, notFound(err, "profile", userID)
	}
	return p, nil
}

// UpsertProfile creates or replaces the user's profile.
func (s *Store) UpsertProfile(ctx context.Context, p account.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (id, username, bio) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET username = excluded.username, bio = excluded.bio`,
		p.ID, p.Username, p.Bio,
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert profile")
	}
	return nil
}
