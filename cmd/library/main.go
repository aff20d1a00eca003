// Package main provides the catalog CLI: accounts, listings, uploads,
// shared links and profiles.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/atotto/clipboard"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/musicbox/internal/app/library"
	"github.com/osa030/musicbox/internal/app/share"
	"github.com/osa030/musicbox/internal/app/upload"
	"github.com/osa030/musicbox/internal/domain/account"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/infra/backend"
	"github.com/osa030/musicbox/internal/infra/logger"
	"github.com/osa030/musicbox/internal/infra/store"
)

var (
	app     = kingpin.New("musicbox-library", "musicbox catalog client")
	verbose = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()

	backendType = app.Flag("backend", "Catalog backend").Default("remote").Envar("BACKEND_TYPE").Enum("remote", "local")
	backendURL  = app.Flag("url", "Backend URL").Envar("BACKEND_URL").String()
	anonKey     = app.Flag("anon-key", "Backend anon key").Envar("BACKEND_ANON_KEY").String()
	sessionPath = app.Flag("session", "Saved session file").Default(backend.DefaultSessionPath()).String()
	dbPath      = app.Flag("db", "Local database file").Default("data/musicbox.db").String()
	objectsDir  = app.Flag("objects", "Local object storage directory").Default("data/objects").String()
	localUser   = app.Flag("user", "User ID for the local backend").Default("local").String()
	baseURL     = app.Flag("base-url", "Public base URL of shared links").Default("http://localhost:8080").Envar("PUBLIC_BASE_URL").String()

	signupCmd      = app.Command("signup", "Create an account")
	signupEmail    = signupCmd.Arg("email", "Email").Required().String()
	signupPassword = signupCmd.Flag("password", "Password").Envar("BACKEND_PASSWORD").Required().String()

	loginCmd      = app.Command("login", "Sign in and save the session")
	loginEmail    = loginCmd.Arg("email", "Email").Required().String()
	loginPassword = loginCmd.Flag("password", "Password").Envar("BACKEND_PASSWORD").Required().String()

	logoutCmd = app.Command("logout", "Sign out and delete the saved session")
	whoamiCmd = app.Command("whoami", "Show the signed-in user")

	artistsCmd = app.Command("artists", "List artists")
	albumsCmd  = app.Command("albums", "List albums")
	songsCmd   = app.Command("songs", "List songs")

	searchCmd  = app.Command("search", "Search songs, albums and artists")
	searchTerm = searchCmd.Arg("term", "Search term").Required().String()

	addArtistCmd  = app.Command("add-artist", "Add an artist")
	addArtistName = addArtistCmd.Arg("name", "Artist name").Required().String()

	addAlbumCmd     = app.Command("add-album", "Add an album")
	addAlbumTitle   = addAlbumCmd.Arg("title", "Album title").Required().String()
	addAlbumArtist  = addAlbumCmd.Flag("artist", "Artist ID").String()
	addAlbumArtwork = addAlbumCmd.Flag("artwork", "Artwork image file").ExistingFile()

	addSongCmd   = app.Command("add-song", "Upload a song")
	addSongTitle = addSongCmd.Arg("title", "Song title").Required().String()
	addSongFile  = addSongCmd.Arg("file", "Audio file").Required().ExistingFile()
	addSongAlbum = addSongCmd.Flag("album", "Album ID").String()

	shareCmd  = app.Command("share", "Build a shared link and copy it to the clipboard")
	shareType = shareCmd.Arg("type", "song, album or artist").Required().Enum("song", "album", "artist")
	shareID   = shareCmd.Arg("id", "Content ID").Required().String()
	shareQR   = shareCmd.Flag("qr", "Also print the link as a QR code").Bool()

	sharedCmd  = app.Command("shared", "Show the content behind a shared link")
	sharedLink = sharedCmd.Arg("link", "Shared link").Required().String()

	profileCmd         = app.Command("profile", "Show or edit the profile")
	profileShowCmd     = profileCmd.Command("show", "Show the profile").Default()
	profileSetCmd      = profileCmd.Command("set", "Update the profile")
	profileSetUsername = profileSetCmd.Flag("username", "Username").String()
	profileSetBio      = profileSetCmd.Flag("bio", "Bio").String()

	setupCmd = app.Command("setup-db", "Create the catalog tables")
)

// cli holds the opened backend.
type cli struct {
	client *backend.Client // nil for the local backend
	store  *store.Store    // nil for the remote backend
	lib    *library.Service
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := "warn"
	if *verbose {
		level = "debug"
	}
	if _, err := logger.Init(logger.Config{Output: "stderr", Level: level}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	ctx := context.Background()

	c, err := openBackend()
	if err != nil {
		fail(err)
	}
	defer c.close()

	if err := c.run(ctx, command); err != nil {
		fail(err)
	}
}

func fail(err error) {
	zlog.Debug().Msgf("%+v", err)
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func openBackend() (*cli, error) {
	if *backendType == "local" {
		s, err := store.Open(*dbPath, *objectsDir)
		if err != nil {
			return nil, err
		}
		lib := library.NewService(s, s.Objects(), nil, library.Config{
			SongsBucket:   "songs",
			ArtworkBucket: "album-artworks",
		})
		return &cli{store: s, lib: lib}, nil
	}

	client, err := backend.New(backend.Config{
		URL:     *backendURL,
		AnonKey: *anonKey,
		Timeout: 60 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "use --url and --anon-key, or --backend=local")
	}

	s, err := backend.LoadSession(*sessionPath)
	switch {
	case err == nil:
		client.UseSession(s)
	case errors.Is(err, backend.ErrNoSession):
	default:
		return nil, err
	}
	client.OnRefresh(func(s *account.Session) {
		if err := backend.SaveSession(*sessionPath, s); err != nil {
			zlog.Warn().Msgf("Failed to save refreshed session: %v", err)
		}
	})

	lib := library.NewService(client, client, nil, library.Config{
		SongsBucket:   "songs",
		ArtworkBucket: "album-artworks",
	})
	return &cli{client: client, lib: lib}, nil
}

func (c *cli) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

func (c *cli) userID() string {
	if c.client == nil {
		return *localUser
	}
	return c.client.UserID()
}

func (c *cli) remote() (*backend.Client, error) {
	if c.client == nil {
		return nil, errors.New("accounts are only available with the remote backend")
	}
	return c.client, nil
}

func (c *cli) run(ctx context.Context, command string) error {
	switch command {
	case signupCmd.FullCommand():
		return c.signup(ctx)
	case loginCmd.FullCommand():
		return c.login(ctx)
	case logoutCmd.FullCommand():
		return c.logout(ctx)
	case whoamiCmd.FullCommand():
		return c.whoami(ctx)

	case artistsCmd.FullCommand():
		artists, err := c.lib.ListArtists(ctx)
		if err != nil {
			return err
		}
		printArtists(artists)
	case albumsCmd.FullCommand():
		albums, err := c.lib.ListAlbums(ctx)
		if err != nil {
			return err
		}
		printAlbums(albums)
	case songsCmd.FullCommand():
		songs, err := c.lib.ListSongs(ctx)
		if err != nil {
			return err
		}
		printSongs(songs)
	case searchCmd.FullCommand():
		results, err := c.lib.Search(ctx, *searchTerm)
		if err != nil {
			return err
		}
		printSearch(results)

	case addArtistCmd.FullCommand():
		artist, err := c.lib.AddArtist(ctx, c.userID(), *addArtistName)
		if err != nil {
			return err
		}
		fmt.Printf("Added artist %s (%s)\n", artist.Name, artist.ID)
	case addAlbumCmd.FullCommand():
		return c.addAlbum(ctx)
	case addSongCmd.FullCommand():
		return c.addSong(ctx)

	case shareCmd.FullCommand():
		return c.share()
	case sharedCmd.FullCommand():
		return c.showShared(ctx)

	case profileShowCmd.FullCommand():
		p, err := c.lib.Profile(ctx, c.userID())
		if err != nil {
			return err
		}
		printProfile(p)
	case profileSetCmd.FullCommand():
		return c.setProfile(ctx)

	case setupCmd.FullCommand():
		return c.lib.EnsureSchema(ctx)
	}
	return nil
}

func (c *cli) signup(ctx context.Context) error {
	client, err := c.remote()
	if err != nil {
		return err
	}
	s, err := client.SignUp(ctx, *signupEmail, *signupPassword)
	if err != nil {
		return err
	}
	if s.AccessToken == "" {
		fmt.Printf("Account created for %s. Confirm your email, then run login.\n", s.User.Email)
		return nil
	}
	if err := backend.SaveSession(*sessionPath, s); err != nil {
		return err
	}
	fmt.Printf("Account created and signed in as %s\n", s.User.Email)
	return nil
}

func (c *cli) login(ctx context.Context) error {
	client, err := c.remote()
	if err != nil {
		return err
	}
	s, err := client.SignIn(ctx, *loginEmail, *loginPassword)
	if err != nil {
		return err
	}
	if err := backend.SaveSession(*sessionPath, s); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", s.User.Email)
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	client, err := c.remote()
	if err != nil {
		return err
	}
	if err := client.SignOut(ctx); err != nil {
		zlog.Warn().Msgf("Sign-out request failed: %v", err)
	}
	if err := backend.DeleteSession(*sessionPath); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	client, err := c.remote()
	if err != nil {
		return err
	}
	u, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", u.Email, u.ID)
	return nil
}

func (c *cli) addAlbum(ctx context.Context) error {
	var artwork *upload.File
	if *addAlbumArtwork != "" {
		f, err := readFile(*addAlbumArtwork)
		if err != nil {
			return err
		}
		artwork = f
	}
	album, err := c.lib.AddAlbum(ctx, c.userID(), *addAlbumTitle, *addAlbumArtist, artwork)
	if err != nil {
		return err
	}
	fmt.Printf("Added album %s (%s)\n", album.Title, album.ID)
	return nil
}

func (c *cli) addSong(ctx context.Context) error {
	f, err := readFile(*addSongFile)
	if err != nil {
		return err
	}
	song, err := c.lib.AddSong(ctx, c.userID(), *addSongTitle, *addSongAlbum, f)
	if err != nil {
		return err
	}
	fmt.Printf("Added song %s (%s)\n", song.Title, song.ID)
	return nil
}

func (c *cli) share() error {
	link, err := share.BuildURL(*baseURL, catalog.ContentType(*shareType), *shareID)
	if err != nil {
		return err
	}
	fmt.Println(link)

	if err := clipboard.WriteAll(link); err != nil {
		zlog.Debug().Msgf("clipboard unavailable: %v", err)
	} else {
		fmt.Println("Copied to clipboard")
	}

	if *shareQR {
		qr, err := share.QRCode(link)
		if err != nil {
			return err
		}
		fmt.Print(qr)
	}
	return nil
}

func (c *cli) showShared(ctx context.Context) error {
	link, err := share.ParseURL(*sharedLink)
	if err != nil {
		return err
	}
	shared, err := c.lib.Shared(ctx, string(link.Type), link.ID)
	if err != nil {
		return err
	}

	p := shared.Playlist()
	fmt.Printf("%s: %s\n", shared.Type, p.Name)
	printSongs(shared.Tracks())
	fmt.Printf("Play it with: musicbox-player play shared:%s:%s\n", link.Type, link.ID)
	return nil
}

func (c *cli) setProfile(ctx context.Context) error {
	p, err := c.lib.Profile(ctx, c.userID())
	if err != nil {
		return err
	}
	if *profileSetUsername != "" {
		p.Username = *profileSetUsername
	}
	if *profileSetBio != "" {
		p.Bio = *profileSetBio
	}
	if err := c.lib.SaveProfile(ctx, p); err != nil {
		return err
	}
	printProfile(p)
	return nil
}

func readFile(path string) (*upload.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return &upload.File{Name: filepath.Base(path), Data: data}, nil
}
