package playerv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// PlayerServiceName is the fully-qualified name of the PlayerService.
const PlayerServiceName = "musicbox.player.v1.PlayerService"

// Procedure names of the PlayerService.
const (
	PlayerServicePlayProcedure          = "/musicbox.player.v1.PlayerService/Play"
	PlayerServiceAdoptProcedure         = "/musicbox.player.v1.PlayerService/Adopt"
	PlayerServiceNextProcedure          = "/musicbox.player.v1.PlayerService/Next"
	PlayerServicePreviousProcedure      = "/musicbox.player.v1.PlayerService/Previous"
	PlayerServiceEndedProcedure         = "/musicbox.player.v1.PlayerService/Ended"
	PlayerServicePauseProcedure         = "/musicbox.player.v1.PlayerService/Pause"
	PlayerServiceResumeProcedure        = "/musicbox.player.v1.PlayerService/Resume"
	PlayerServiceStopProcedure          = "/musicbox.player.v1.PlayerService/Stop"
	PlayerServiceToggleShuffleProcedure = "/musicbox.player.v1.PlayerService/ToggleShuffle"
	PlayerServiceCycleRepeatProcedure   = "/musicbox.player.v1.PlayerService/CycleRepeat"
	PlayerServiceGetStatusProcedure     = "/musicbox.player.v1.PlayerService/GetStatus"
	PlayerServiceWatchProcedure         = "/musicbox.player.v1.PlayerService/Watch"
)

// PlayerServiceHandler is implemented by the server.
type PlayerServiceHandler interface {
	Play(context.Context, *connect.Request[PlayRequest]) (*connect.Response[StatusResponse], error)
	Adopt(context.Context, *connect.Request[AdoptRequest]) (*connect.Response[StatusResponse], error)
	Next(context.Context, *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error)
	Previous(context.Context, *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error)
	Ended(context.Context, *connect.Request[EndedRequest]) (*connect.Response[StatusResponse], error)
	Pause(context.Context, *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error)
	Resume(context.Context, *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error)
	Stop(context.Context, *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error)
	ToggleShuffle(context.Context, *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error)
	CycleRepeat(context.Context, *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error)
	GetStatus(context.Context, *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error)
	Watch(context.Context, *connect.Request[WatchRequest], *connect.ServerStream[Notification]) error
}

// NewPlayerServiceHandler builds an HTTP handler for the service and returns
// the path to mount it on.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	control := map[string]func(context.Context, *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error){
		PlayerServiceNextProcedure:          svc.Next,
		PlayerServicePreviousProcedure:      svc.Previous,
		PlayerServicePauseProcedure:         svc.Pause,
		PlayerServiceResumeProcedure:        svc.Resume,
		PlayerServiceStopProcedure:          svc.Stop,
		PlayerServiceToggleShuffleProcedure: svc.ToggleShuffle,
		PlayerServiceCycleRepeatProcedure:   svc.CycleRepeat,
		PlayerServiceGetStatusProcedure:     svc.GetStatus,
	}

	mux := http.NewServeMux()
	mux.Handle(PlayerServicePlayProcedure, connect.NewUnaryHandler(PlayerServicePlayProcedure, svc.Play, opts...))
	mux.Handle(PlayerServiceAdoptProcedure, connect.NewUnaryHandler(PlayerServiceAdoptProcedure, svc.Adopt, opts...))
	mux.Handle(PlayerServiceEndedProcedure, connect.NewUnaryHandler(PlayerServiceEndedProcedure, svc.Ended, opts...))
	for procedure, fn := range control {
		mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
	}
	mux.Handle(PlayerServiceWatchProcedure, connect.NewServerStreamHandler(PlayerServiceWatchProcedure, svc.Watch, opts...))

	return "/" + PlayerServiceName + "/", mux
}

// PlayerServiceClient is a client for the PlayerService.
type PlayerServiceClient struct {
	play    *connect.Client[PlayRequest, StatusResponse]
	adopt   *connect.Client[AdoptRequest, StatusResponse]
	ended   *connect.Client[EndedRequest, StatusResponse]
	control map[string]*connect.Client[ControlRequest, StatusResponse]
	watch   *connect.Client[WatchRequest, Notification]
}

// NewPlayerServiceClient creates a client for the service at baseURL.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)

	c := &PlayerServiceClient{
		play:    connect.NewClient[PlayRequest, StatusResponse](httpClient, baseURL+PlayerServicePlayProcedure, opts...),
		adopt:   connect.NewClient[AdoptRequest, StatusResponse](httpClient, baseURL+PlayerServiceAdoptProcedure, opts...),
		ended:   connect.NewClient[EndedRequest, StatusResponse](httpClient, baseURL+PlayerServiceEndedProcedure, opts...),
		control: make(map[string]*connect.Client[ControlRequest, StatusResponse]),
		watch:   connect.NewClient[WatchRequest, Notification](httpClient, baseURL+PlayerServiceWatchProcedure, opts...),
	}
	for _, procedure := range []string{
		PlayerServiceNextProcedure,
		PlayerServicePreviousProcedure,
		PlayerServicePauseProcedure,
		PlayerServiceResumeProcedure,
		PlayerServiceStopProcedure,
		PlayerServiceToggleShuffleProcedure,
		PlayerServiceCycleRepeatProcedure,
		PlayerServiceGetStatusProcedure,
	} {
		c.control[procedure] = connect.NewClient[ControlRequest, StatusResponse](httpClient, baseURL+procedure, opts...)
	}
	return c
}

// Play calls PlayerService.Play.
func (c *PlayerServiceClient) Play(ctx context.Context, req *connect.Request[PlayRequest]) (*connect.Response[StatusResponse], error) {
	return c.play.CallUnary(ctx, req)
}

// Adopt calls PlayerService.Adopt.
func (c *PlayerServiceClient) Adopt(ctx context.Context, req *connect.Request[AdoptRequest]) (*connect.Response[StatusResponse], error) {
	return c.adopt.CallUnary(ctx, req)
}

// Ended calls PlayerService.Ended.
func (c *PlayerServiceClient) Ended(ctx context.Context, req *connect.Request[EndedRequest]) (*connect.Response[StatusResponse], error) {
	return c.ended.CallUnary(ctx, req)
}

// Control calls one of the transport procedures that take a ControlRequest,
// e.g. PlayerServiceNextProcedure.
func (c *PlayerServiceClient) Control(ctx context.Context, procedure string, req *connect.Request[ControlRequest]) (*connect.Response[StatusResponse], error) {
	client, ok := c.control[procedure]
	if !ok {
		return nil, connect.NewError(connect.CodeUnimplemented, nil)
	}
	return client.CallUnary(ctx, req)
}

// Watch calls PlayerService.Watch.
func (c *PlayerServiceClient) Watch(ctx context.Context, req *connect.Request[WatchRequest]) (*connect.ServerStreamForClient[Notification], error) {
	return c.watch.CallServerStream(ctx, req)
}
