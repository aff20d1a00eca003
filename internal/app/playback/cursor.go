package playback

import (
	"math/rand/v2"

	"github.com/cockroachdb/errors"

	"github.com/osa030/musicbox/internal/domain/playlist"
	"github.com/osa030/musicbox/internal/domain/track"
)

// Errors
var (
	ErrNoTrack       = errors.New("no track selected")
	ErrEmptyPlaylist = errors.New("playlist is empty")
	ErrTrackNotFound = errors.New("current track not in playlist")
)

// Picker returns a random index in [0, n).
type Picker func(n int) int

// Cursor holds the active playlist and the current track and computes the
// neighbor tracks. It is not safe for concurrent use; the Controller owns it.
type Cursor struct {
	playlist playlist.Playlist
	current  *track.Track
	pick     Picker
}

// NewCursor creates an empty cursor. A nil picker uses math/rand.
func NewCursor(pick Picker) *Cursor {
	if pick == nil {
		pick = rand.IntN
	}
	return &Cursor{pick: pick}
}

// Adopt replaces the playlist and sets the current track.
// Membership of t in p is not checked here; a later Next or Previous fails
// with ErrTrackNotFound if t is not part of p.
func (c *Cursor) Adopt(t track.Track, p playlist.Playlist) {
	c.playlist = p
	c.current = &t
}

// Current returns the current track.
func (c *Cursor) Current() (track.Track, bool) {
	if c.current == nil {
		return track.Track{}, false
	}
	return *c.current, true
}

// Playlist returns the active playlist.
func (c *Cursor) Playlist() playlist.Playlist {
	return c.playlist
}

// Index returns the position of the current track, or -1.
func (c *Cursor) Index() int {
	if c.current == nil {
		return -1
	}
	return c.playlist.IndexOf(c.current.ID)
}

// IsLast reports whether the current track is the last of the playlist.
func (c *Cursor) IsLast() bool {
	i := c.Index()
	return i >= 0 && i == c.playlist.Len()-1
}

// Clear drops the current selection. The playlist is kept.
func (c *Cursor) Clear() {
	c.current = nil
}

// Next moves to the following track, wrapping from the last to the first.
func (c *Cursor) Next() (track.Track, error) {
	return c.step(1)
}

// Previous moves to the preceding track, wrapping from the first to the last.
func (c *Cursor) Previous() (track.Track, error) {
	return c.step(-1)
}

// Shuffle moves to a uniformly random track of the playlist. The current
// track may be picked again; there is no no-repeat memory.
func (c *Cursor) Shuffle() (track.Track, error) {
	n := c.playlist.Len()
	if n == 0 {
		return track.Track{}, ErrEmptyPlaylist
	}
	return c.moveTo(c.pick(n)), nil
}

func (c *Cursor) step(delta int) (track.Track, error) {
	n := c.playlist.Len()
	if n == 0 {
		return track.Track{}, ErrEmptyPlaylist
	}
	if c.current == nil {
		return track.Track{}, ErrNoTrack
	}
	i := c.playlist.IndexOf(c.current.ID)
	if i < 0 {
		return track.Track{}, errors.Wrapf(ErrTrackNotFound, "track %s", c.current.ID)
	}
	return c.moveTo((i + delta + n) % n), nil
}

func (c *Cursor) moveTo(i int) track.Track {
	t := c.playlist.At(i)
	c.current = &t
	return t
}
