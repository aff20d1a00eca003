package library

import (
	"bytes"
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/musicbox/internal/app/upload"
	"github.com/osa030/musicbox/internal/domain/account"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

// Errors
var (
	ErrNotSignedIn  = errors.New("not signed in")
	ErrMissingFile  = errors.New("file is required")
	ErrMissingField = errors.New("required field is empty")
)

// Config holds service configuration.
type Config struct {
	SongsBucket   string
	ArtworkBucket string

	// Schema bootstrap retry policy
	SetupAttempts  int
	SetupBaseDelay time.Duration
}

// Service implements the catalog operations on top of a Store and an
// ObjectStorage.
type Service struct {
	store   Store
	objects ObjectStorage
	uploads *upload.Chain
	config  Config
}

// NewService creates a new catalog service. A nil chain accepts every upload.
func NewService(store Store, objects ObjectStorage, uploads *upload.Chain, config Config) *Service {
	if uploads == nil {
		uploads = upload.NewChain()
	}
	if config.SetupAttempts <= 0 {
		config.SetupAttempts = 3
	}
	return &Service{
		store:   store,
		objects: objects,
		uploads: uploads,
		config:  config,
	}
}

// ListArtists returns all artists ordered by name.
func (s *Service) ListArtists(ctx context.Context) ([]catalog.Artist, error) {
	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list artists")
	}
	return artists, nil
}

// ListAlbums returns all albums ordered by title.
func (s *Service) ListAlbums(ctx context.Context) ([]catalog.Album, error) {
	albums, err := s.store.ListAlbums(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list albums")
	}
	return albums, nil
}

// ListSongs returns all songs ordered by title.
func (s *Service) ListSongs(ctx context.Context) ([]track.Track, error) {
	songs, err := s.store.ListSongs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list songs")
	}
	return songs, nil
}

// AddArtist creates an artist owned by userID.
func (s *Service) AddArtist(ctx context.Context, userID, name string) (catalog.Artist, error) {
	if userID == "" {
		return catalog.Artist{}, ErrNotSignedIn
	}
	if name == "" {
		return catalog.Artist{}, errors.Wrap(ErrMissingField, "name")
	}

	artist, err := s.store.InsertArtist(ctx, catalog.Artist{Name: name, UserID: userID})
	if err != nil {
		return catalog.Artist{}, errors.Wrap(err, "failed to add artist")
	}
	zlog.Info().Msgf("artist added: id=%s name=%q", artist.ID, artist.Name)
	return artist, nil
}

// AddAlbum creates an album. The artwork is optional and uploaded first.
func (s *Service) AddAlbum(ctx context.Context, userID, title, artistID string, artwork *upload.File) (catalog.Album, error) {
	if userID == "" {
		return catalog.Album{}, ErrNotSignedIn
	}
	if title == "" {
		return catalog.Album{}, errors.Wrap(ErrMissingField, "title")
	}

	album := catalog.Album{Title: title, ArtistID: artistID, UserID: userID}
	if artwork != nil {
		artwork.Kind = upload.KindImage
		url, err := s.putObject(ctx, s.config.ArtworkBucket, userID, *artwork)
		if err != nil {
			return catalog.Album{}, err
		}
		album.ArtworkURL = url
	}

	added, err := s.store.InsertAlbum(ctx, album)
	if err != nil {
		if album.ArtworkURL != "" {
			orphaned(album.ArtworkURL, err)
			return catalog.Album{}, errors.Wrapf(err, "failed to add album, artwork left at %s", album.ArtworkURL)
		}
		return catalog.Album{}, errors.Wrap(err, "failed to add album")
	}
	zlog.Info().Msgf("album added: id=%s title=%q", added.ID, added.Title)
	return added, nil
}

// AddSong uploads the audio file and creates the song row pointing at it.
func (s *Service) AddSong(ctx context.Context, userID, title, albumID string, file *upload.File) (track.Track, error) {
	if userID == "" {
		return track.Track{}, ErrNotSignedIn
	}
	if file == nil {
		return track.Track{}, ErrMissingFile
	}
	if title == "" {
		return track.Track{}, errors.Wrap(ErrMissingField, "title")
	}

	file.Kind = upload.KindAudio
	url, err := s.putObject(ctx, s.config.SongsBucket, userID, *file)
	if err != nil {
		return track.Track{}, err
	}

	song, err := s.store.InsertSong(ctx, track.Track{
		Title:    title,
		AlbumID:  albumID,
		FilePath: url,
		UserID:   userID,
	})
	if err != nil {
		orphaned(url, err)
		return track.Track{}, errors.Wrapf(err, "failed to add song, file left at %s", url)
	}
	zlog.Info().Msgf("song added: id=%s title=%q", song.ID, song.Title)
	return song, nil
}

// putObject checks and uploads a file to <userID>/<uuid><ext> and returns its
// public URL.
func (s *Service) putObject(ctx context.Context, bucket, userID string, f upload.File) (string, error) {
	if err := s.uploads.Check(ctx, f); err != nil {
		return "", err
	}

	path := userID + "/" + uuid.NewString() + f.Ext()
	if err := s.objects.Upload(ctx, bucket, path, bytes.NewReader(f.Data), f.ContentType()); err != nil {
		return "", errors.Wrapf(err, "failed to upload %s", f.Name)
	}
	zlog.Debug().Msgf("uploaded: bucket=%s path=%s size=%d", bucket, path, f.Size())
	return s.objects.PublicURL(bucket, path), nil
}

// orphaned reports an uploaded object whose row could not be written. The
// object stays in storage; ObjectStorage has no delete.
func orphaned(url string, cause error) {
	zlog.Warn().Err(cause).Msgf("uploaded object is orphaned: url=%s", url)
}

// Profile returns the user's profile, creating an empty one when missing.
func (s *Service) Profile(ctx context.Context, userID string) (account.Profile, error) {
	if userID == "" {
		return account.Profile{}, ErrNotSignedIn
	}

	p, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return account.Profile{}, errors.Wrap(err, "failed to fetch profile")
	}

	zlog.Info().Msgf("profile not found, creating: user=%s", userID)
	p = account.NewProfile(userID)
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return account.Profile{}, errors.Wrap(err, "failed to create profile")
	}
	return p, nil
}

// SaveProfile creates or updates a profile.
func (s *Service) SaveProfile(ctx context.Context, p account.Profile) error {
	if p.ID == "" {
		return ErrNotSignedIn
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return errors.Wrap(err, "failed to save profile")
	}
	return nil
}
