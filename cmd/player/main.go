// Package main provides the player control CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/musicbox/internal/api/connect"
	"github.com/osa030/musicbox/internal/api/playerv1"
)

var (
	app    = kingpin.New("musicbox-player", "musicbox player control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Player token (or set PLAYER_TOKEN env)").Envar("PLAYER_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Show the player status")

	// play command
	playCmd    = app.Command("play", "Play a song from a listing, or resume the current selection")
	playSource = playCmd.Arg("source", "songs, search:<term>, album:<id>, artist:<id> or shared:<type>:<id>").String()
	playSongID = playCmd.Arg("song-id", "Song to start from (default: first)").String()

	nextCmd    = app.Command("next", "Skip to the next track").Alias("skip")
	prevCmd    = app.Command("prev", "Skip to the previous track").Alias("previous")
	pauseCmd   = app.Command("pause", "Pause playback")
	resumeCmd  = app.Command("resume", "Resume playback")
	stopCmd    = app.Command("stop", "Stop playback")
	shuffleCmd = app.Command("shuffle", "Toggle shuffle")
	repeatCmd  = app.Command("repeat", "Cycle the repeat mode (off, all, one)")

	// watch command
	watchCmd = app.Command("watch", "Stream player notifications")
)

var controls = map[string]string{
	nextCmd.FullCommand():    playerv1.PlayerServiceNextProcedure,
	prevCmd.FullCommand():    playerv1.PlayerServicePreviousProcedure,
	pauseCmd.FullCommand():   playerv1.PlayerServicePauseProcedure,
	resumeCmd.FullCommand():  playerv1.PlayerServiceResumeProcedure,
	stopCmd.FullCommand():    playerv1.PlayerServiceStopProcedure,
	shuffleCmd.FullCommand(): playerv1.PlayerServiceToggleShuffleProcedure,
	repeatCmd.FullCommand():  playerv1.PlayerServiceCycleRepeatProcedure,
	statusCmd.FullCommand():  playerv1.PlayerServiceGetStatusProcedure,
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Println("Error: player token is required (use --token or PLAYER_TOKEN env)")
		os.Exit(1)
	}

	client := playerv1.NewPlayerServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewTokenInterceptor(*token)),
	)

	ctx := context.Background()

	switch command {
	case playCmd.FullCommand():
		play(ctx, client, *playSource, *playSongID)
	case watchCmd.FullCommand():
		watch(ctx, client)
	default:
		control(ctx, client, controls[command])
	}
}

func play(ctx context.Context, client *playerv1.PlayerServiceClient, source, songID string) {
	resp, err := client.Play(ctx, connect.NewRequest(&playerv1.PlayRequest{
		Source: source,
		SongId: songID,
	}))
	if err != nil {
		fail(err)
	}
	printStatus(&resp.Msg.Status)
}

func control(ctx context.Context, client *playerv1.PlayerServiceClient, procedure string) {
	resp, err := client.Control(ctx, procedure, connect.NewRequest(&playerv1.ControlRequest{}))
	if err != nil {
		fail(err)
	}
	printStatus(&resp.Msg.Status)
}

func watch(ctx context.Context, client *playerv1.PlayerServiceClient) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream, err := client.Watch(ctx, connect.NewRequest(&playerv1.WatchRequest{}))
	if err != nil {
		fail(err)
	}
	defer stream.Close()

	fmt.Println("Watching the player. Press Ctrl+C to exit.")

	for stream.Receive() {
		printNotification(stream.Msg())
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		fmt.Printf("Stream error: %v\n", err)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Printf("Error [%s]: %v\n", connect.CodeOf(err), err)
	os.Exit(1)
}

func formatState(state string) string {
	switch state {
	case "playing":
		return text.FgGreen.Sprint("▶  Playing")
	case "paused":
		return text.FgYellow.Sprint("⏸  Paused")
	case "idle":
		return text.FgHiBlack.Sprint("⏹  Idle")
	default:
		return "❓ " + state
	}
}

func printStatus(s *playerv1.Status) {
	fmt.Printf("State:    %s\n", formatState(s.State))
	if s.Track != nil {
		fmt.Printf("Track:    %s (%s)\n", text.Bold.Sprint(s.Track.Title), s.Track.Id)
		if s.Track.AlbumTitle != "" {
			fmt.Printf("Album:    %s\n", s.Track.AlbumTitle)
		}
		fmt.Printf("Position: %d/%d\n", s.Index+1, s.PlaylistLength)
	}
	if s.Source != "" {
		fmt.Printf("Playlist: %s [%s]\n", s.PlaylistName, s.Source)
	}
	fmt.Printf("Shuffle:  %v\n", s.Mode.Shuffle)
	fmt.Printf("Repeat:   %s\n", s.Mode.Repeat)
}

func printNotification(n *playerv1.Notification) {
	fmt.Printf("\n[Sequence: %d] %s  %s\n", n.SequenceNo, text.FgCyan.Sprint(n.Type), n.Time.Format("15:04:05"))
	if n.Track != nil {
		fmt.Printf("  Track: %s (%s)\n", n.Track.Title, n.Track.Id)
	}
	if n.Status != nil {
		fmt.Printf("  State: %s  shuffle=%v repeat=%s\n", formatState(n.Status.State), n.Status.Mode.Shuffle, n.Status.Mode.Repeat)
	}
}
