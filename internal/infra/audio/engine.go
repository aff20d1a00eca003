// Package audio provides the playback engine: it fetches a track's media,
// decodes it and plays it on the speaker.
package audio

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/musicbox/internal/domain/track"
)

// maxMediaSize bounds the size of a fetched media file.
const maxMediaSize = 200 << 20

// ErrNotPlayable is reported when a track has no media locator.
var ErrNotPlayable = errors.New("track has no media locator")

// output plays decoded media. done is called once when playback reaches the
// end on its own; it is not called after stop.
type output interface {
	play(data []byte, done func()) error
	pause()
	resume()
	stop()
}

// Engine plays one track at a time. Play returns immediately; the media is
// loaded in the background and the outcome is reported through the
// callbacks: onEnded with the track ID when the track finished, onError when it could not be
// loaded or decoded.
type Engine struct {
	mu     sync.Mutex
	out    output
	client *http.Client

	// Incremented by every Play and Stop; stale loads and end callbacks
	// compare against it and are dropped.
	gen    uint64
	cancel context.CancelFunc

	onEnded func(trackID string)
	onError func(error)
}

// NewEngine creates an engine on the speaker. Builds without audio support
// play silently for the track's duration.
func NewEngine(fetchTimeout time.Duration) *Engine {
	return newEngine(newOutput(), fetchTimeout)
}

func newEngine(out output, fetchTimeout time.Duration) *Engine {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Engine{
		out:    out,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// SetCallbacks registers the end-of-track and error callbacks. They are
// called from the engine's goroutines, never from Play.
func (e *Engine) SetCallbacks(onEnded func(trackID string), onError func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnded = onEnded
	e.onError = onError
}

// Play stops the current track and starts loading t.
func (e *Engine) Play(t track.Track) error {
	if !t.IsPlayable() {
		return errors.Wrapf(ErrNotPlayable, "track %s", t.ID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	gen := e.gen

	go e.load(ctx, gen, t)
	return nil
}

// Pause pauses the current track.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.out.pause()
	return nil
}

// Resume resumes the current track.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.out.resume()
	return nil
}

// Stop stops playback. Pending loads are cancelled and no callback fires for
// the stopped track.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	return nil
}

func (e *Engine) stopLocked() {
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.out.stop()
}

func (e *Engine) load(ctx context.Context, gen uint64, t track.Track) {
	start := time.Now()
	data, err := e.fetch(ctx, t.FilePath)
	if err != nil {
		e.fail(gen, errors.Wrapf(err, "failed to load track %s", t.ID))
		return
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	err = e.out.play(data, func() { e.ended(gen, t.ID) })
	e.mu.Unlock()

	if err != nil {
		e.fail(gen, errors.Wrapf(err, "failed to decode track %s", t.ID))
		return
	}
	zlog.Debug().Msgf("track loaded: id=%s size=%d took=%v", t.ID, len(data), time.Since(start))
}

func (e *Engine) ended(gen uint64, trackID string) {
	e.mu.Lock()
	current := gen == e.gen
	onEnded := e.onEnded
	e.mu.Unlock()

	if current && onEnded != nil {
		onEnded(trackID)
	}
}

func (e *Engine) fail(gen uint64, err error) {
	e.mu.Lock()
	current := gen == e.gen
	onError := e.onError
	e.mu.Unlock()

	if !current {
		return
	}
	zlog.Warn().Err(err).Msg("playback failed")
	if onError != nil {
		onError(err)
	}
}

// fetch reads the media at locator, an http(s) URL or a local file path.
func (e *Engine) fetch(ctx context.Context, locator string) ([]byte, error) {
	if !strings.HasPrefix(locator, "http://") && !strings.HasPrefix(locator, "https://") {
		f, err := os.Open(strings.TrimPrefix(locator, "file://"))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readLimited(f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status %d", resp.StatusCode)
	}
	return readLimited(resp.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxMediaSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxMediaSize {
		return nil, errors.Newf("media larger than %d bytes", maxMediaSize)
	}
	return data, nil
}
