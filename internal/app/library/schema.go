package library

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Table is a table created by EnsureSchema.
type Table struct {
	Name    string
	Columns string
}

// Tables lists the catalog tables in creation order.
var Tables = []Table{
	{Name: "user_profiles", Columns: "id uuid references auth.users(id) primary key, username text, bio text"},
	{Name: "artists", Columns: "id uuid default uuid_generate_v4() primary key, name text not null, user_id uuid references auth.users(id)"},
	{Name: "albums", Columns: "id uuid default uuid_generate_v4() primary key, title text not null, artist_id uuid references artists(id), artwork_url text, user_id uuid references auth.users(id)"},
	{Name: "songs", Columns: "id uuid default uuid_generate_v4() primary key, title text not null, album_id uuid references albums(id), file_path text, user_id uuid references auth.users(id)"},
}

// EnsureSchema creates the catalog tables if they do not exist.
// Each table is retried on failure with a doubling delay.
func (s *Service) EnsureSchema(ctx context.Context) error {
	for _, t := range Tables {
		err := retry(ctx, s.config.SetupAttempts, s.config.SetupBaseDelay, "create table "+t.Name, func(ctx context.Context) error {
			return s.store.CreateTable(ctx, t.Name, t.Columns)
		})
		if err != nil {
			return errors.Wrapf(err, "failed to create table %s", t.Name)
		}
		zlog.Info().Msgf("Table %s created or already exists", t.Name)
	}
	zlog.Info().Msg("Database setup completed")
	return nil
}

// retry runs fn up to attempts times. The delay before attempt i (1-based,
// i > 1) is baseDelay * 2^(i-2).
func retry(ctx context.Context, attempts int, baseDelay time.Duration, what string, fn func(ctx context.Context) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := baseDelay * time.Duration(1<<uint(i-1))
			zlog.Info().Msgf("Retrying %s in %v...", what, delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := fn(ctx); err != nil {
			lastErr = err
			zlog.Warn().Msgf("Failed to %s (attempt %d/%d): %v", what, i+1, attempts, err)
			continue
		}
		return nil
	}
	return errors.Wrapf(lastErr, "failed after %d attempts", attempts)
}
