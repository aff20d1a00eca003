package share

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/musicbox/internal/domain/catalog"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		ct       catalog.ContentType
		id       string
		expected string
	}{
		{name: "song", base: "https://music.example.com", ct: catalog.ContentSong, id: "s1", expected: "https://music.example.com/shared/song/s1"},
		{name: "trailing slash", base: "https://music.example.com/", ct: catalog.ContentAlbum, id: "a1", expected: "https://music.example.com/shared/album/a1"},
		{name: "base with path", base: "http://localhost:8080/app", ct: catalog.ContentArtist, id: "r1", expected: "http://localhost:8080/app/shared/artist/r1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildURL(tt.base, tt.ct, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildURL_Errors(t *testing.T) {
	_, err := BuildURL("https://x.test", "playlist", "p1")
	assert.True(t, errors.Is(err, catalog.ErrInvalidContentType))

	_, err = BuildURL("https://x.test", catalog.ContentSong, "")
	assert.True(t, errors.Is(err, ErrInvalidLink))
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Link
		wantErr  error
	}{
		{name: "absolute", raw: "https://music.example.com/shared/song/s1", expected: Link{Type: catalog.ContentSong, ID: "s1"}},
		{name: "path only", raw: "/shared/album/a1", expected: Link{Type: catalog.ContentAlbum, ID: "a1"}},
		{name: "base path and trailing slash", raw: " http://h/app/shared/artist/r1/ ", expected: Link{Type: catalog.ContentArtist, ID: "r1"}},
		{name: "not a share link", raw: "https://music.example.com/songs/s1", wantErr: ErrInvalidLink},
		{name: "missing id", raw: "/shared/song/", wantErr: ErrInvalidLink},
		{name: "extra segment", raw: "/shared/song/s1/x", wantErr: ErrInvalidLink},
		{name: "unknown type", raw: "/shared/playlist/p1", wantErr: catalog.ErrInvalidContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.raw)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	u, err := BuildURL("https://music.example.com", catalog.ContentAlbum, "a-1")
	require.NoError(t, err)
	link, err := ParseURL(u)
	require.NoError(t, err)
	assert.Equal(t, Link{Type: catalog.ContentAlbum, ID: "a-1"}, link)
}

func TestQRCode(t *testing.T) {
	out, err := QRCode("https://music.example.com/shared/song/s1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.NotEmpty(t, lines)
	width := len([]rune(lines[0]))
	for _, line := range lines {
		assert.Len(t, []rune(line), width)
	}
	assert.Contains(t, out, "█")
}
