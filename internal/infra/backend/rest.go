package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/osa030/musicbox/internal/domain/account"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

const (
	// Accept header that makes single-row requests return an object
	// (and PGRST116 when no row matched).
	acceptObject = "application/vnd.pgrst.object+json"

	songSelect   = "*,albums(title,artwork_url)"
	albumSelect  = "*,artists(name)"
	artistSelect = "*"
)

// artistRow represents an artists row with optional embedded albums.
type artistRow struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	UserID string     `json:"user_id"`
	Albums []albumRow `json:"albums,omitempty"`
}

// albumRow represents an albums row with optional embedded artist and songs.
type albumRow struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	ArtistID   string     `json:"artist_id"`
	ArtworkURL string     `json:"artwork_url"`
	UserID     string     `json:"user_id"`
	Artist     *artistRow `json:"artists,omitempty"`
	Songs      []songRow  `json:"songs,omitempty"`
}

// songRow represents a songs row with its optional embedded album.
type songRow struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	AlbumID  string    `json:"album_id"`
	FilePath string    `json:"file_path"`
	UserID   string    `json:"user_id"`
	Album    *albumRow `json:"albums,omitempty"`
}

// insertRow is the body of inserts; empty optional columns are sent as null.
type insertRow map[string]any

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r artistRow) toArtist() catalog.Artist {
	return catalog.Artist{ID: r.ID, Name: r.Name, UserID: r.UserID}
}

func (r albumRow) toAlbum() catalog.Album {
	a := catalog.Album{
		ID:         r.ID,
		Title:      r.Title,
		ArtistID:   r.ArtistID,
		ArtworkURL: r.ArtworkURL,
		UserID:     r.UserID,
	}
	if r.Artist != nil {
		a.ArtistName = r.Artist.Name
	}
	return a
}

// toTrack converts the row; album is the parent row when the song was
// embedded in an album.
func (r songRow) toTrack(album *albumRow) track.Track {
	t := track.Track{
		ID:       r.ID,
		Title:    r.Title,
		AlbumID:  r.AlbumID,
		FilePath: r.FilePath,
		UserID:   r.UserID,
	}
	if album == nil {
		album = r.Album
	}
	if album != nil {
		t.AlbumTitle = album.Title
		t.ArtworkURL = album.ArtworkURL
	}
	return t
}

func toTracks(rows []songRow, album *albumRow) []track.Track {
	return lo.Map(rows, func(r songRow, _ int) track.Track { return r.toTrack(album) })
}

func (r albumRow) toDetail(artist *artistRow) catalog.AlbumDetail {
	if artist == nil {
		artist = r.Artist
	}
	d := catalog.AlbumDetail{
		Album: r.toAlbum(),
		Songs: toTracks(r.Songs, &r),
	}
	if artist != nil {
		d.Artist = artist.toArtist()
		d.Album.ArtistName = artist.Name
	}
	return d
}

// ilike builds a case-insensitive substring filter.
// PostgREST uses * as the wildcard in URLs.
func ilike(term string) string {
	return "ilike.*" + strings.NewReplacer("*", "", ",", " ", "(", " ", ")", " ").Replace(term) + "*"
}

func (c *Client) list(ctx context.Context, table string, query url.Values, out any) error {
	err := c.do(ctx, request{method: http.MethodGet, path: "/rest/v1/" + table, query: query}, out)
	if err != nil {
		return errors.Wrapf(err, "failed to query %s", table)
	}
	return nil
}

func (c *Client) single(ctx context.Context, table string, query url.Values, out any) error {
	err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/rest/v1/" + table,
		query:   query,
		headers: map[string]string{"Accept": acceptObject},
	}, out)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch from %s", table)
	}
	return nil
}

func (c *Client) insert(ctx context.Context, table string, row insertRow, out any) error {
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/" + table,
		body:    []insertRow{row},
		headers: map[string]string{"Prefer": "return=representation", "Accept": acceptObject},
	}, out)
	if err != nil {
		return errors.Wrapf(err, "failed to insert into %s", table)
	}
	return nil
}

// ListArtists returns all artists ordered by name.
func (c *Client) ListArtists(ctx context.Context) ([]catalog.Artist, error) {
	var rows []artistRow
	q := url.Values{"select": {artistSelect}, "order": {"name.asc"}}
	if err := c.list(ctx, "artists", q, &rows); err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r artistRow, _ int) catalog.Artist { return r.toArtist() }), nil
}

// ListAlbums returns all albums with their artist name ordered by title.
func (c *Client) ListAlbums(ctx context.Context) ([]catalog.Album, error) {
	var rows []albumRow
	q := url.Values{"select": {albumSelect}, "order": {"title.asc"}}
	if err := c.list(ctx, "albums", q, &rows); err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r albumRow, _ int) catalog.Album { return r.toAlbum() }), nil
}

// ListSongs returns all songs with their album title ordered by title.
func (c *Client) ListSongs(ctx context.Context) ([]track.Track, error) {
	var rows []songRow
	q := url.Values{"select": {songSelect}, "order": {"title.asc"}}
	if err := c.list(ctx, "songs", q, &rows); err != nil {
		return nil, err
	}
	return toTracks(rows, nil), nil
}

// SearchSongs returns up to limit songs whose title contains term.
func (c *Client) SearchSongs(ctx context.Context, term string, limit int) ([]track.Track, error) {
	var rows []songRow
	q := url.Values{"select": {songSelect}, "title": {ilike(term)}, "limit": {strconv.Itoa(limit)}}
	if err := c.list(ctx, "songs", q, &rows); err != nil {
		return nil, err
	}
	return toTracks(rows, nil), nil
}

// SearchAlbums returns up to limit albums whose title contains term.
func (c *Client) SearchAlbums(ctx context.Context, term string, limit int) ([]catalog.Album, error) {
	var rows []albumRow
	q := url.Values{"select": {albumSelect}, "title": {ilike(term)}, "limit": {strconv.Itoa(limit)}}
	if err := c.list(ctx, "albums", q, &rows); err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r albumRow, _ int) catalog.Album { return r.toAlbum() }), nil
}

// SearchArtists returns up to limit artists whose name contains term.
func (c *Client) SearchArtists(ctx context.Context, term string, limit int) ([]catalog.Artist, error) {
	var rows []artistRow
	q := url.Values{"select": {artistSelect}, "name": {ilike(term)}, "limit": {strconv.Itoa(limit)}}
	if err := c.list(ctx, "artists", q, &rows); err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r artistRow, _ int) catalog.Artist { return r.toArtist() }), nil
}

// InsertArtist inserts an artist and returns the stored row.
func (c *Client) InsertArtist(ctx context.Context, a catalog.Artist) (catalog.Artist, error) {
	var row artistRow
	err := c.insert(ctx, "artists", insertRow{
		"name":    a.Name,
		"user_id": nullable(a.UserID),
	}, &row)
	if err != nil {
		return catalog.Artist{}, err
	}
	return row.toArtist(), nil
}

// InsertAlbum inserts an album and returns the stored row.
func (c *Client) InsertAlbum(ctx context.Context, a catalog.Album) (catalog.Album, error) {
	var row albumRow
	err := c.insert(ctx, "albums", insertRow{
		"title":       a.Title,
		"artist_id":   nullable(a.ArtistID),
		"artwork_url": nullable(a.ArtworkURL),
		"user_id":     nullable(a.UserID),
	}, &row)
	if err != nil {
		return catalog.Album{}, err
	}
	return row.toAlbum(), nil
}

// InsertSong inserts a song and returns the stored row.
func (c *Client) InsertSong(ctx context.Context, t track.Track) (track.Track, error) {
	var row songRow
	err := c.insert(ctx, "songs", insertRow{
		"title":     t.Title,
		"album_id":  nullable(t.AlbumID),
		"file_path": nullable(t.FilePath),
		"user_id":   nullable(t.UserID),
	}, &row)
	if err != nil {
		return track.Track{}, err
	}
	return row.toTrack(nil), nil
}

// GetSong returns a song with its album and the album's artist.
func (c *Client) GetSong(ctx context.Context, id string) (catalog.SongDetail, error) {
	var row songRow
	q := url.Values{"select": {"*,albums(*,artists(*))"}, "id": {"eq." + id}}
	if err := c.single(ctx, "songs", q, &row); err != nil {
		return catalog.SongDetail{}, err
	}

	d := catalog.SongDetail{Song: row.toTrack(nil)}
	if row.Album != nil {
		d.Album = row.Album.toAlbum()
		if row.Album.Artist != nil {
			d.Artist = row.Album.Artist.toArtist()
		}
	}
	return d, nil
}

// GetAlbum returns an album with its artist and songs.
func (c *Client) GetAlbum(ctx context.Context, id string) (catalog.AlbumDetail, error) {
	var row albumRow
	q := url.Values{
		"select":      {"*,artists(*),songs(*)"},
		"id":          {"eq." + id},
		"songs.order": {"title.asc"},
	}
	if err := c.single(ctx, "albums", q, &row); err != nil {
		return catalog.AlbumDetail{}, err
	}
	return row.toDetail(nil), nil
}

// GetArtist returns an artist with its albums and their songs.
func (c *Client) GetArtist(ctx context.Context, id string) (catalog.ArtistDetail, error) {
	var row artistRow
	q := url.Values{
		"select":             {"*,albums(*,songs(*))"},
		"id":                 {"eq." + id},
		"albums.order":       {"title.asc"},
		"albums.songs.order": {"title.asc"},
	}
	if err := c.single(ctx, "artists", q, &row); err != nil {
		return catalog.ArtistDetail{}, err
	}

	d := catalog.ArtistDetail{Artist: row.toArtist()}
	for _, a := range row.Albums {
		d.Albums = append(d.Albums, a.toDetail(&row))
	}
	return d, nil
}

// GetProfile returns the user's profile.
func (c *Client) GetProfile(ctx context.Context, userID string) (account.Profile, error) {
	var p account.Profile
	q := url.Values{"select": {"*"}, "id": {"eq." + userID}}
	if err := c.single(ctx, "user_profiles", q, &p); err != nil {
		return account.Profile{}, err
	}
	return p, nil
}

// UpsertProfile creates or replaces the user's profile.
func (c *Client) UpsertProfile(ctx context.Context, p account.Profile) error {
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/user_profiles",
		body:    p,
		headers: map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"},
	}, nil)
	if err != nil {
		return errors.Wrap(err, "failed to upsert user_profiles")
	}
	return nil
}

// CreateTable calls the create_table_if_not_exists procedure.
func (c *Client) CreateTable(ctx context.Context, name, columns string) error {
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/rpc/create_table_if_not_exists",
		body: map[string]string{
			"p_table_name":         name,
			"p_column_definitions": columns,
		},
	}, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create table %s", name)
	}
	return nil
}
