package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/musicbox/internal/app/library"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

type fakeSource struct{}

func (fakeSource) Shared(_ context.Context, contentType, id string) (*library.Shared, error) {
	ct, err := catalog.ParseContentType(contentType)
	if err != nil {
		return nil, err
	}
	switch id {
	case "a1":
		return &library.Shared{
			Type: ct,
			Album: &catalog.AlbumDetail{
				Album: catalog.Album{ID: "a1", Title: "Kind of Blue"},
				Songs: []track.Track{{ID: "s1", Title: "So What"}, {ID: "s2", Title: "Blue in Green"}},
			},
		}, nil
	case "boom":
		return nil, errors.New("backend down")
	default:
		return nil, errors.Mark(errors.Newf("album %s", id), catalog.ErrNotFound)
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouter_Shared(t *testing.T) {
	router := NewRouter(fakeSource{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shared/album/a1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body sharedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, catalog.ContentAlbum, body.Type)
	require.NotNil(t, body.Album)
	assert.Equal(t, "Kind of Blue", body.Album.Album.Title)
	require.Len(t, body.Tracks, 2)
	assert.Equal(t, "s1", body.Tracks[0].ID)
}

func TestRouter_SharedErrors(t *testing.T) {
	router := NewRouter(fakeSource{})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "bad type", path: "/shared/playlist/a1", status: http.StatusBadRequest},
		{name: "missing", path: "/shared/album/zzz", status: http.StatusNotFound},
		{name: "backend failure", path: "/shared/album/boom", status: http.StatusInternalServerError},
		{name: "no id", path: "/shared/album", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouter_Healthz(t *testing.T) {
	called := false
	router := NewRouter(fakeSource{}, func(c *gin.Context) {
		called = true
		c.Next()
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.True(t, called)
}
