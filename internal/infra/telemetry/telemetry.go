// Package telemetry reports errors to Sentry. Without a DSN every call is a
// no-op.
package telemetry

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
)

// Config represents Sentry configuration.
type Config struct {
	DSN         string
	Environment string
	Release     string
}

// Init initializes the Sentry client. Returns false when no DSN is set.
func Init(cfg Config) (bool, error) {
	if cfg.DSN == "" {
		zlog.Debug().Msg("sentry disabled: no DSN")
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to initialize sentry")
	}
	zlog.Info().Msgf("sentry enabled: environment=%s", cfg.Environment)
	return true, nil
}

// Flush waits for buffered events to be sent.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// CaptureError reports err with optional tags.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// AddBreadcrumb records a breadcrumb on the current hub.
func AddBreadcrumb(category, message string) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Level:    sentry.LevelInfo,
	})
}

// GinMiddleware returns the Sentry middleware for gin routers.
func GinMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}
