// Package web serves the public HTTP surface behind shared links.
package web

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/musicbox/internal/app/library"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

// SharedSource resolves shared links to catalog content.
type SharedSource interface {
	Shared(ctx context.Context, contentType, id string) (*library.Shared, error)
}

// sharedResponse is the JSON body of a resolved shared link.
type sharedResponse struct {
	*library.Shared
	Tracks []track.Track `json:"tracks"`
}

// NewRouter builds the gin engine. Extra middleware runs after recovery.
func NewRouter(source SharedSource, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/shared/:type/:id", func(c *gin.Context) {
		shared, err := source.Shared(c.Request.Context(), c.Param("type"), c.Param("id"))
		if err != nil {
			status := statusOf(err)
			if status == http.StatusInternalServerError {
				zlog.Error().Err(err).Msgf("failed to resolve shared link: %s", c.Request.URL.Path)
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sharedResponse{Shared: shared, Tracks: shared.Tracks()})
	})

	return router
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, catalog.ErrInvalidContentType):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
