// Package library provides the catalog operations: listings, search,
// uploads, shared links and user profiles.
package library

import (
	"context"
	"io"

	"github.com/osa030/musicbox/internal/domain/account"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

// Store is the catalog data source.
// Lookups of a single row return an error marked with catalog.ErrNotFound
// when the row does not exist.
type Store interface {
	ListArtists(ctx context.Context) ([]catalog.Artist, error)
	ListAlbums(ctx context.Context) ([]catalog.Album, error)
	ListSongs(ctx context.Context) ([]track.Track, error)

	SearchSongs(ctx context.Context, term string, limit int) ([]track.Track, error)
	SearchAlbums(ctx context.Context, term string, limit int) ([]catalog.Album, error)
	SearchArtists(ctx context.Context, term string, limit int) ([]catalog.Artist, error)

	InsertArtist(ctx context.Context, a catalog.Artist) (catalog.Artist, error)
	InsertAlbum(ctx context.Context, a catalog.Album) (catalog.Album, error)
	InsertSong(ctx context.Context, t track.Track) (track.Track, error)

	GetSong(ctx context.Context, id string) (catalog.SongDetail, error)
	GetAlbum(ctx context.Context, id string) (catalog.AlbumDetail, error)
	GetArtist(ctx context.Context, id string) (catalog.ArtistDetail, error)

	GetProfile(ctx context.Context, userID string) (account.Profile, error)
	UpsertProfile(ctx context.Context, p account.Profile) error

	// CreateTable creates a table if it does not exist yet.
	CreateTable(ctx context.Context, name, columns string) error
}

// ObjectStorage stores uploaded files.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error
	PublicURL(bucket, path string) string
}
