// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/musicbox/internal/api/playerv1"
	"github.com/osa030/musicbox/internal/app/playback"
	"github.com/osa030/musicbox/internal/app/session"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	session *session.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(session *session.Manager) *PlayerService {
	return &PlayerService{
		session: session,
	}
}

// Ensure PlayerService implements the interface.
var _ playerv1.PlayerServiceHandler = (*PlayerService)(nil)

// Play plays a song from a catalog listing.
func (s *PlayerService) Play(
	ctx context.Context,
	req *connect.Request[playerv1.PlayRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	if err := s.session.Play(ctx, req.Msg.Source, req.Msg.SongId); err != nil {
		return nil, toConnectError(err)
	}
	return s.status(), nil
}

// Adopt plays a track from a playlist supplied by the caller.
func (s *PlayerService) Adopt(
	ctx context.Context,
	req *connect.Request[playerv1.AdoptRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	t := session.TrackFromMessage(req.Msg.Track)
	p := session.PlaylistFromMessages(req.Msg.Source, req.Msg.Name, req.Msg.Playlist)
	if err := s.session.Adopt(t, p); err != nil {
		return nil, toConnectError(err)
	}
	return s.status(), nil
}

// Next skips to the next track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	return s.control(s.session.Next)
}

// Previous skips to the previous track.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	return s.control(s.session.Previous)
}

// Ended reports the natural end of a track from a remote player.
func (s *PlayerService) Ended(
	ctx context.Context,
	req *connect.Request[playerv1.EndedRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	return s.control(func() error {
		return s.session.Ended(req.Msg.TrackId)
	})
}

// Pause pauses playback.
func (s *PlayerService) Pause(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	return s.control(s.session.Pause)
}

// Resume resumes paused playback.
func (s *PlayerService) Resume(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	return s.control(s.session.Resume)
}

// Stop stops playback.
func (s *PlayerService) Stop(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	return s.control(s.session.Stop)
}

// ToggleShuffle flips shuffle.
func (s *PlayerService) ToggleShuffle(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	s.session.ToggleShuffle()
	return s.status(), nil
}

// CycleRepeat advances the repeat mode.
func (s *PlayerService) CycleRepeat(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	s.session.CycleRepeat()
	return s.status(), nil
}

// GetStatus returns the current player status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.StatusResponse], error) {
	return s.status(), nil
}

// Watch streams player notifications, starting with the current state.
func (s *PlayerService) Watch(
	ctx context.Context,
	req *connect.Request[playerv1.WatchRequest],
	stream *connect.ServerStream[playerv1.Notification],
) error {
	notifManager := s.session.GetNotificationManager()

	initial := &playerv1.Notification{
		Type:       playerv1.NotificationTypeInitialState,
		SequenceNo: notifManager.NextSequenceNo(),
		Status:     s.session.GetStatus(),
	}
	initial.Track = initial.Status.Track
	if err := stream.Send(initial); err != nil {
		return err
	}

	subscriptionID := notifManager.Subscribe(stream)
	defer notifManager.Unsubscribe(subscriptionID)

	// Wait for context cancellation, session end or the watcher being dropped
	select {
	case <-ctx.Done():
	case <-s.session.Done():
	case <-notifManager.Done(subscriptionID):
	}
	return nil
}

func (s *PlayerService) control(fn func() error) (*connect.Response[playerv1.StatusResponse], error) {
	if err := fn(); err != nil {
		return nil, toConnectError(err)
	}
	return s.status(), nil
}

func (s *PlayerService) status() *connect.Response[playerv1.StatusResponse] {
	return connect.NewResponse(&playerv1.StatusResponse{Status: *s.session.GetStatus()})
}

// toConnectError maps domain errors to RPC codes.
func toConnectError(err error) error {
	code := connect.CodeInternal
	switch {
	case errors.IsAny(err, playback.ErrNoTrack, playback.ErrEmptyPlaylist, playback.ErrNotPlaying, playback.ErrNotPaused):
		code = connect.CodeFailedPrecondition
	case errors.IsAny(err, catalog.ErrNotFound, session.ErrSongNotListed, playback.ErrTrackNotFound):
		code = connect.CodeNotFound
	case errors.IsAny(err, session.ErrUnknownSource, catalog.ErrInvalidContentType, track.ErrInvalid):
		code = connect.CodeInvalidArgument
	case errors.Is(err, session.ErrSessionClosed):
		code = connect.CodeUnavailable
	default:
		zlog.Error().Err(err).Msg("player request failed")
	}
	return connect.NewError(code, err)
}
