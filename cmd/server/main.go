// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/musicbox/internal/api/connect"
	"github.com/osa030/musicbox/internal/api/playerv1"
	"github.com/osa030/musicbox/internal/api/web"
	"github.com/osa030/musicbox/internal/app/library"
	"github.com/osa030/musicbox/internal/app/playback"
	"github.com/osa030/musicbox/internal/app/session"
	"github.com/osa030/musicbox/internal/app/share"
	"github.com/osa030/musicbox/internal/app/upload"
	"github.com/osa030/musicbox/internal/infra/audio"
	"github.com/osa030/musicbox/internal/infra/backend"
	"github.com/osa030/musicbox/internal/infra/config"
	"github.com/osa030/musicbox/internal/infra/logger"
	"github.com/osa030/musicbox/internal/infra/store"
	"github.com/osa030/musicbox/internal/infra/telemetry"
)

var version = "dev"

var (
	app        = kingpin.New("musicbox-server", "musicbox player server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available upload filters and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
	app.Version(version)
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{
		Output:  "stdout",
		Level:   "info",
		Service: "musicbox-server",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %+v", err)
		logCloser.Close()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	sentryEnabled, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     "musicbox@" + version,
	})
	if err != nil {
		return err
	}
	defer telemetry.Flush(2 * time.Second)

	uploads, err := upload.Build(enabledFilters(cfg))
	if err != nil {
		return errors.Wrap(err, "invalid upload filter config")
	}

	catalogStore, objects, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend.Close()

	lib := library.NewService(catalogStore, objects, uploads, library.Config{
		SongsBucket:    cfg.Storage.SongsBucket,
		ArtworkBucket:  cfg.Storage.ArtworkBucket,
		SetupAttempts:  cfg.Backend.Setup.Retries,
		SetupBaseDelay: time.Duration(cfg.Backend.Setup.BaseDelayMs) * time.Millisecond,
	})
	if err := lib.EnsureSchema(ctx); err != nil {
		return errors.Wrap(err, "database setup failed")
	}

	engine := audio.NewEngine(time.Duration(cfg.Backend.TimeoutSec) * time.Second)
	if !audio.Available {
		zlog.Warn().Msg("Audio output is not available in this build, tracks play silently")
	}

	repeat, err := playback.ParseRepeatMode(cfg.Playback.Repeat)
	if err != nil {
		return err
	}
	mode := playback.Mode{Shuffle: cfg.Playback.Shuffle, Repeat: repeat}
	zlog.Info().Msgf("Playback: stop_at_end=%t shuffle=%t repeat=%s", cfg.Playback.StopAtEnd, mode.Shuffle, mode.Repeat)
	sessionMgr := session.NewManager(lib, engine, playback.Config{StopAtEnd: cfg.Playback.StopAtEnd, Mode: mode})
	engine.SetCallbacks(
		func(trackID string) {
			if err := sessionMgr.Ended(trackID); err != nil {
				zlog.Warn().Msgf("Failed to advance after track end: %v", err)
			}
		},
		sessionMgr.EngineFailed,
	)

	mux := http.NewServeMux()

	playerPath, playerHandler := playerv1.NewPlayerServiceHandler(
		apiconnect.NewPlayerService(sessionMgr),
		connect.WithInterceptors(apiconnect.NewPlayerAuthInterceptor(cfg.Player.Token)),
	)
	mux.Handle(playerPath, playerHandler)

	gin.SetMode(gin.ReleaseMode)
	var middleware []gin.HandlerFunc
	if sentryEnabled {
		middleware = append(middleware, telemetry.GinMiddleware())
	}
	mux.Handle("/", web.NewRouter(lib, middleware...))

	serverAddr := cfg.Server.Addr
	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	sessionMgr.Start()

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	if cfg.Server.PublicBaseURL != "" {
		zlog.Info().Msgf("Shared links: %s%s<type>/<id>", strings.TrimRight(cfg.Server.PublicBaseURL, "/"), share.PathPrefix)
	}

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
		if err := sessionMgr.Stop(); err != nil && !errors.Is(err, playback.ErrNoTrack) {
			zlog.Warn().Msgf("Failed to stop playback: %v", err)
		}
	case <-sessionMgr.Done():
		zlog.Info().Msg("Session ended, shutting down...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close session manager first to terminate active streams
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// openBackend connects to the configured catalog backend.
func openBackend(ctx context.Context, cfg *config.Config) (library.Store, library.ObjectStorage, io.Closer, error) {
	switch cfg.Backend.Type {
	case config.BackendLocal:
		zlog.Info().Msgf("Using local backend: db=%s objects=%s", cfg.Backend.DBPath, cfg.Backend.ObjectsDir)
		s, err := store.Open(cfg.Backend.DBPath, cfg.Backend.ObjectsDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s.Objects(), s, nil

	default:
		zlog.Info().Msgf("Using remote backend: url=%s", cfg.Backend.URL)
		client, err := backend.New(backend.Config{
			URL:     cfg.Backend.URL,
			AnonKey: cfg.Backend.AnonKey,
			Timeout: time.Duration(cfg.Backend.TimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.HasCredentials() {
			s, err := client.SignIn(ctx, cfg.Backend.Email, cfg.Backend.Password)
			if err != nil {
				return nil, nil, nil, errors.Wrap(err, "backend sign-in failed")
			}
			zlog.Info().Msgf("Signed in to backend: user=%s", s.User.Email)
		}
		return client, client, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// enabledFilters returns the settings of the enabled upload filters.
func enabledFilters(cfg *config.Config) map[string]map[string]any {
	enabled := make(map[string]map[string]any)
	for name := range cfg.Uploads.Filters {
		if cfg.IsFilterEnabled(name) {
			enabled[name] = cfg.GetFilterSettings(name)
		}
	}
	return enabled
}

// printFilters prints available upload filters.
func printFilters() {
	registered := upload.GetRegistered()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available Filters:")
	for _, name := range names {
		f := registered[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
