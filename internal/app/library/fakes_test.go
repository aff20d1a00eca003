package library

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/musicbox/internal/domain/account"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

// memStore is an in-memory Store.
type memStore struct {
	mu       sync.Mutex
	artists  []catalog.Artist
	albums   []catalog.Album
	songs    []track.Track
	profiles map[string]account.Profile
	seq      int

	createCalls  map[string]int
	createErrors map[string][]error // returned in order, then success
	err          error              // returned by every call when set
}

func newMemStore() *memStore {
	return &memStore{
		profiles:     make(map[string]account.Profile),
		createCalls:  make(map[string]int),
		createErrors: make(map[string][]error),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

func (s *memStore) ListArtists(ctx context.Context) ([]catalog.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := append([]catalog.Artist(nil), s.artists...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) ListAlbums(ctx context.Context) ([]catalog.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := append([]catalog.Album(nil), s.albums...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *memStore) ListSongs(ctx context.Context) ([]track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := append([]track.Track(nil), s.songs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func contains(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

func (s *memStore) SearchSongs(ctx context.Context, term string, limit int) ([]track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []track.Track
	for _, t := range s.songs {
		if contains(t.Title, term) && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, s.err
}

func (s *memStore) SearchAlbums(ctx context.Context, term string, limit int) ([]catalog.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []catalog.Album
	for _, a := range s.albums {
		if contains(a.Title, term) && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, s.err
}

func (s *memStore) SearchArtists(ctx context.Context, term string, limit int) ([]catalog.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []catalog.Artist
	for _, a := range s.artists {
		if contains(a.Name, term) && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, s.err
}

func (s *memStore) InsertArtist(ctx context.Context, a catalog.Artist) (catalog.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return catalog.Artist{}, s.err
	}
	a.ID = s.nextID("artist")
	s.artists = append(s.artists, a)
	return a, nil
}

func (s *memStore) InsertAlbum(ctx context.Context, a catalog.Album) (catalog.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return catalog.Album{}, s.err
	}
	a.ID = s.nextID("album")
	s.albums = append(s.albums, a)
	return a, nil
}

func (s *memStore) InsertSong(ctx context.Context, t track.Track) (track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return track.Track{}, s.err
	}
	t.ID = s.nextID("song")
	s.songs = append(s.songs, t)
	return t, nil
}

func (s *memStore) findAlbum(id string) (catalog.Album, bool) {
	for _, a := range s.albums {
		if a.ID == id {
			return a, true
		}
	}
	return catalog.Album{}, false
}

func (s *memStore) findArtist(id string) (catalog.Artist, bool) {
	for _, a := range s.artists {
		if a.ID == id {
			return a, true
		}
	}
	return catalog.Artist{}, false
}

func (s *memStore) albumSongs(albumID string) []track.Track {
	var out []track.Track
	for _, t := range s.songs {
		if t.AlbumID == albumID {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) GetSong(ctx context.Context, id string) (catalog.SongDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.songs {
		if t.ID == id {
			album, _ := s.findAlbum(t.AlbumID)
			artist, _ := s.findArtist(album.ArtistID)
			return catalog.SongDetail{Song: t, Album: album, Artist: artist}, nil
		}
	}
	return catalog.SongDetail{}, errors.Mark(errors.Newf("song %s", id), catalog.ErrNotFound)
}

func (s *memStore) GetAlbum(ctx context.Context, id string) (catalog.AlbumDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	album, ok := s.findAlbum(id)
	if !ok {
		return catalog.AlbumDetail{}, errors.Mark(errors.Newf("album %s", id), catalog.ErrNotFound)
	}
	artist, _ := s.findArtist(album.ArtistID)
	return catalog.AlbumDetail{Album: album, Artist: artist, Songs: s.albumSongs(id)}, nil
}

func (s *memStore) GetArtist(ctx context.Context, id string) (catalog.ArtistDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	artist, ok := s.findArtist(id)
	if !ok {
		return catalog.ArtistDetail{}, errors.Mark(errors.Newf("artist %s", id), catalog.ErrNotFound)
	}
	d := catalog.ArtistDetail{Artist: artist}
	for _, a := range s.albums {
		if a.ArtistID == id {
			d.Albums = append(d.Albums, catalog.AlbumDetail{Album: a, Artist: artist, Songs: s.albumSongs(a.ID)})
		}
	}
	return d, nil
}

func (s *memStore) GetProfile(ctx context.Context, userID string) (account.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return account.Profile{}, s.err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return account.Profile{}, errors.Mark(errors.Newf("profile %s", userID), catalog.ErrNotFound)
	}
	return p, nil
}

func (s *memStore) UpsertProfile(ctx context.Context, p account.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return nil
}

func (s *memStore) CreateTable(ctx context.Context, name, columns string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls[name]++
	if errs := s.createErrors[name]; len(errs) > 0 {
		s.createErrors[name] = errs[1:]
		return errs[0]
	}
	return nil
}

// memObjects is an in-memory ObjectStorage.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemObjects() *memObjects {
	return &memObjects{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (o *memObjects) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.objects[bucket+"/"+path] = data
	o.types[bucket+"/"+path] = contentType
	return nil
}

func (o *memObjects) PublicURL(bucket, path string) string {
	return "https://cdn.test/" + bucket + "/" + path
}
