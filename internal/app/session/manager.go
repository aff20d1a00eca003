// Package session provides the session manager. It ties the catalog, the
// transport controller and the notification manager together.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/musicbox/internal/api/playerv1"
	"github.com/osa030/musicbox/internal/app/library"
	"github.com/osa030/musicbox/internal/app/notification"
	"github.com/osa030/musicbox/internal/app/playback"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/playlist"
	"github.com/osa030/musicbox/internal/domain/track"
	"github.com/osa030/musicbox/internal/infra/telemetry"
)

var (
	ErrSessionClosed = errors.New("session is closed")
	ErrUnknownSource = errors.New("unknown playlist source")
	ErrSongNotListed = errors.New("song is not in the listing")
)

// Catalog provides the listings a playlist can be taken from.
type Catalog interface {
	ListSongs(ctx context.Context) ([]track.Track, error)
	Search(ctx context.Context, term string) (catalog.SearchResults, error)
	Album(ctx context.Context, id string) (catalog.AlbumDetail, error)
	Artist(ctx context.Context, id string) (catalog.ArtistDetail, error)
	Shared(ctx context.Context, contentType, id string) (*library.Shared, error)
}

// Manager manages the player session.
type Manager struct {
	// Components
	catalog      Catalog
	playback     *playback.Controller
	notification *notification.Manager

	// Lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewManager creates a new session manager.
func NewManager(cat Catalog, engine playback.Engine, cfg playback.Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		catalog:      cat,
		playback:     playback.NewController(engine, cfg),
		notification: notification.NewManager(),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Start starts forwarding playback events to watchers.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		go m.playbackLoop()
		zlog.Info().Msg("session started")
	})
}

// Done is closed when the session is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops playback and ends all watch streams.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.playback.Close()
		m.notification.Close()
		close(m.done)
		zlog.Info().Msg("session closed")
	})
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// ResolvePlaylist fetches the listing named by source:
// "songs", "search:<term>", "album:<id>", "artist:<id>" or
// "shared:<type>:<id>".
func (m *Manager) ResolvePlaylist(ctx context.Context, source string) (playlist.Playlist, error) {
	kind, arg, _ := strings.Cut(source, ":")

	switch playlist.Source(kind) {
	case playlist.SourceSongs:
		songs, err := m.catalog.ListSongs(ctx)
		if err != nil {
			return playlist.Playlist{}, err
		}
		return playlist.New(playlist.SourceSongs, "All songs", songs), nil

	case playlist.SourceSearch:
		results, err := m.catalog.Search(ctx, arg)
		if err != nil {
			return playlist.Playlist{}, err
		}
		return playlist.New(playlist.SourceSearch, arg, results.Songs), nil

	case playlist.SourceAlbum:
		d, err := m.catalog.Album(ctx, arg)
		if err != nil {
			return playlist.Playlist{}, err
		}
		return playlist.New(playlist.SourceAlbum, d.Album.Title, d.Songs), nil

	case playlist.SourceArtist:
		d, err := m.catalog.Artist(ctx, arg)
		if err != nil {
			return playlist.Playlist{}, err
		}
		return playlist.New(playlist.SourceArtist, d.Artist.Name, d.Tracks()), nil

	case playlist.SourceShared:
		contentType, id, _ := strings.Cut(arg, ":")
		shared, err := m.catalog.Shared(ctx, contentType, id)
		if err != nil {
			return playlist.Playlist{}, err
		}
		return shared.Playlist(), nil

	default:
		return playlist.Playlist{}, errors.Wrapf(ErrUnknownSource, "%q", source)
	}
}

// Play resolves the listing named by source and plays songID from it,
// making the listing the current playlist. An empty songID plays the first
// song. An empty source resumes or restarts the current selection.
func (m *Manager) Play(ctx context.Context, source, songID string) error {
	if m.ctx.Err() != nil {
		return ErrSessionClosed
	}
	if source == "" {
		return m.playback.Play()
	}

	p, err := m.ResolvePlaylist(ctx, source)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", source)
	}
	if p.IsEmpty() {
		return errors.Wrapf(playback.ErrEmptyPlaylist, "%s", source)
	}

	idx := 0
	if songID != "" {
		if idx = p.IndexOf(songID); idx < 0 {
			return errors.Wrapf(ErrSongNotListed, "song %s in %s", songID, source)
		}
	}
	return m.Adopt(p.At(idx), p)
}

// Adopt makes p the current playlist and plays t.
func (m *Manager) Adopt(t track.Track, p playlist.Playlist) error {
	if m.ctx.Err() != nil {
		return ErrSessionClosed
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return m.playback.Adopt(t, p)
}

// Next skips to the next track.
func (m *Manager) Next() error {
	return m.playback.ClickNext()
}

// Previous skips to the previous track.
func (m *Manager) Previous() error {
	return m.playback.ClickPrevious()
}

// Ended handles the natural end of trackID ("" for the current track).
func (m *Manager) Ended(trackID string) error {
	return m.playback.OnEnded(trackID)
}

// EngineFailed handles a load or decode failure reported by the engine.
func (m *Manager) EngineFailed(err error) {
	telemetry.CaptureError(m.ctx, err, map[string]string{"component": "audio"})
	m.playback.OnEngineError(err)
}

// Resume resumes paused playback.
func (m *Manager) Resume() error {
	return m.playback.Resume()
}

// Pause pauses playback.
func (m *Manager) Pause() error {
	return m.playback.Pause()
}

// Stop stops playback and keeps the selection.
func (m *Manager) Stop() error {
	return m.playback.Stop()
}

// ToggleShuffle flips shuffle and returns the new value.
func (m *Manager) ToggleShuffle() bool {
	return m.playback.ToggleShuffle()
}

// CycleRepeat advances the repeat mode and returns the new value.
func (m *Manager) CycleRepeat() playback.RepeatMode {
	return m.playback.CycleRepeat()
}

// GetStatus returns the current player status.
func (m *Manager) GetStatus() *playerv1.Status {
	return StatusMessage(m.playback.Status())
}

// playbackLoop forwards playback events to watchers.
func (m *Manager) playbackLoop() {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("playback loop panicked: %v", r)
			zlog.Info().Msg("restarting playback loop")
			go m.playbackLoop()
		}
	}()

	events := m.playback.Events()
	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			m.handlePlaybackEvent(event)
		}
	}
}

// handlePlaybackEvent broadcasts a playback event with the status after it.
func (m *Manager) handlePlaybackEvent(event playback.Event) {
	zlog.Info().Msgf("playback event: type=%s track=%s state=%s", event.Type, trackID(event.Track), event.State)
	if event.Type == playback.EventTrackStarted && event.Track != nil {
		telemetry.AddBreadcrumb("playback", "track started: "+event.Track.ID)
	}

	m.notification.Broadcast(&playerv1.Notification{
		Type:   playerv1.NotificationType(event.Type.String()),
		Track:  TrackMessage(event.Track),
		Status: m.GetStatus(),
	})
}

func trackID(t *track.Track) string {
	if t == nil {
		return "-"
	}
	return t.ID
}
