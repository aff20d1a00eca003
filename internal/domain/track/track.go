// Package track provides the Track domain entity.
package track

import (
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Track represents a song row of the catalog.
// Tracks are immutable once fetched; the player only references them by ID.
type Track struct {
	// Song ID (uuid)
	ID    string `json:"id" yaml:"id" validate:"required"`
	Title string `json:"title" yaml:"title" validate:"required"`

	// Owning album and its joined display fields
	AlbumID    string `json:"album_id" yaml:"album_id"`
	AlbumTitle string `json:"album_title,omitempty" yaml:"album_title"`
	ArtworkURL string `json:"artwork_url,omitempty" yaml:"artwork_url"`

	// Playable media locator (URL or local path)
	FilePath string `json:"file_path" yaml:"file_path"`
	UserID   string `json:"user_id,omitempty" yaml:"user_id"`
}

// ErrInvalid marks validation failures.
var ErrInvalid = errors.New("invalid track")

var validate = validator.New()

// Validate checks the required fields of a track fetched from a data source.
func (t *Track) Validate() error {
	if err := validate.Struct(t); err != nil {
		return errors.Mark(errors.Wrapf(err, "invalid track %q", t.ID), ErrInvalid)
	}
	return nil
}

// IsPlayable reports whether the track has a media locator.
func (t *Track) IsPlayable() bool {
	return t.FilePath != ""
}

// DisplayName returns "title - album" the way listings show a song.
func (t *Track) DisplayName() string {
	if t.AlbumTitle == "" {
		return t.Title
	}
	return t.Title + " - " + t.AlbumTitle
}
