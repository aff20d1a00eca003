package playback

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/musicbox/internal/domain/playlist"
	"github.com/osa030/musicbox/internal/domain/track"
)

var (
	trackA = track.Track{ID: "a", Title: "A", FilePath: "a.mp3"}
	trackB = track.Track{ID: "b", Title: "B", FilePath: "b.mp3"}
	trackC = track.Track{ID: "c", Title: "C", FilePath: "c.mp3"}
	trackX = track.Track{ID: "x", Title: "X", FilePath: "x.mp3"}
)

func abc() playlist.Playlist {
	return playlist.New(playlist.SourceSongs, "songs", []track.Track{trackA, trackB, trackC})
}

// fixedPicker returns the given indices in order, repeating the last one.
func fixedPicker(indices ...int) Picker {
	i := 0
	return func(n int) int {
		v := indices[i]
		if i < len(indices)-1 {
			i++
		}
		return v % n
	}
}

func TestCursor_Next(t *testing.T) {
	tests := []struct {
		name     string
		current  track.Track
		expected string
	}{
		{name: "first to second", current: trackA, expected: "b"},
		{name: "middle to last", current: trackB, expected: "c"},
		{name: "last wraps to first", current: trackC, expected: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(nil)
			c.Adopt(tt.current, abc())

			next, err := c.Next()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, next.ID)

			cur, ok := c.Current()
			require.True(t, ok)
			assert.Equal(t, tt.expected, cur.ID, "next becomes current")
		})
	}
}

func TestCursor_Previous(t *testing.T) {
	tests := []struct {
		name     string
		current  track.Track
		expected string
	}{
		{name: "first wraps to last", current: trackA, expected: "c"},
		{name: "middle to first", current: trackB, expected: "a"},
		{name: "last to middle", current: trackC, expected: "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(nil)
			c.Adopt(tt.current, abc())

			prev, err := c.Previous()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, prev.ID)
		})
	}
}

func TestCursor_NextPreviousAreInverse(t *testing.T) {
	for _, start := range []track.Track{trackA, trackB, trackC} {
		t.Run(start.ID, func(t *testing.T) {
			c := NewCursor(nil)
			c.Adopt(start, abc())

			_, err := c.Next()
			require.NoError(t, err)
			back, err := c.Previous()
			require.NoError(t, err)
			assert.Equal(t, start.ID, back.ID)

			_, err = c.Previous()
			require.NoError(t, err)
			back, err = c.Next()
			require.NoError(t, err)
			assert.Equal(t, start.ID, back.ID)
		})
	}
}

func TestCursor_SingleTrackPlaylist(t *testing.T) {
	c := NewCursor(nil)
	c.Adopt(trackA, playlist.New(playlist.SourceAlbum, "single", []track.Track{trackA}))

	next, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", next.ID)

	prev, err := c.Previous()
	require.NoError(t, err)
	assert.Equal(t, "a", prev.ID)

	shuffled, err := c.Shuffle()
	require.NoError(t, err)
	assert.Equal(t, "a", shuffled.ID)
}

func TestCursor_Errors(t *testing.T) {
	t.Run("empty playlist", func(t *testing.T) {
		c := NewCursor(nil)
		c.Adopt(trackA, playlist.New(playlist.SourceSearch, "nothing", nil))

		_, err := c.Next()
		assert.ErrorIs(t, err, ErrEmptyPlaylist)
		_, err = c.Previous()
		assert.ErrorIs(t, err, ErrEmptyPlaylist)
		_, err = c.Shuffle()
		assert.ErrorIs(t, err, ErrEmptyPlaylist)
	})

	t.Run("empty playlist is reported before missing selection", func(t *testing.T) {
		c := NewCursor(nil)
		_, err := c.Next()
		assert.ErrorIs(t, err, ErrEmptyPlaylist)
	})

	t.Run("no current track", func(t *testing.T) {
		c := NewCursor(nil)
		c.Adopt(trackA, abc())
		c.Clear()

		_, err := c.Next()
		assert.ErrorIs(t, err, ErrNoTrack)
		_, err = c.Previous()
		assert.ErrorIs(t, err, ErrNoTrack)
	})

	t.Run("adopted track not in playlist", func(t *testing.T) {
		c := NewCursor(nil)
		c.Adopt(trackX, abc())

		_, err := c.Next()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTrackNotFound))
		assert.Contains(t, err.Error(), "track x")

		_, err = c.Previous()
		assert.ErrorIs(t, err, ErrTrackNotFound)

		cur, ok := c.Current()
		require.True(t, ok)
		assert.Equal(t, "x", cur.ID, "failed navigation leaves the selection untouched")
	})
}

func TestCursor_Shuffle(t *testing.T) {
	t.Run("uses picker index", func(t *testing.T) {
		c := NewCursor(fixedPicker(2, 0, 1))
		c.Adopt(trackA, abc())

		var got []string
		for range 3 {
			next, err := c.Shuffle()
			require.NoError(t, err)
			got = append(got, next.ID)
		}
		assert.Equal(t, []string{"c", "a", "b"}, got)
	})

	t.Run("may reselect the current track", func(t *testing.T) {
		c := NewCursor(fixedPicker(1))
		c.Adopt(trackB, abc())

		next, err := c.Shuffle()
		require.NoError(t, err)
		assert.Equal(t, "b", next.ID)
	})

	t.Run("works without a current track", func(t *testing.T) {
		c := NewCursor(fixedPicker(0))
		c.Adopt(trackA, abc())
		c.Clear()

		next, err := c.Shuffle()
		require.NoError(t, err)
		assert.Equal(t, "a", next.ID)
	})

	t.Run("draws stay in range and reach every index", func(t *testing.T) {
		c := NewCursor(nil)
		p := abc()
		c.Adopt(trackA, p)

		seen := map[string]int{}
		for range 3000 {
			next, err := c.Shuffle()
			require.NoError(t, err)
			require.True(t, p.Contains(next.ID))
			seen[next.ID]++
		}
		assert.Len(t, seen, 3)
		for id, n := range seen {
			assert.Greater(t, n, 0, "track %s never drawn", id)
		}
	})
}

func TestCursor_IndexAndIsLast(t *testing.T) {
	c := NewCursor(nil)
	assert.Equal(t, -1, c.Index())
	assert.False(t, c.IsLast())

	c.Adopt(trackB, abc())
	assert.Equal(t, 1, c.Index())
	assert.False(t, c.IsLast())

	c.Adopt(trackC, abc())
	assert.Equal(t, 2, c.Index())
	assert.True(t, c.IsLast())

	c.Adopt(trackX, abc())
	assert.Equal(t, -1, c.Index())
	assert.False(t, c.IsLast())
}
