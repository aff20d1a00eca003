package playback

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/musicbox/internal/domain/playlist"
	"github.com/osa030/musicbox/internal/domain/track"
)

// Errors
var (
	ErrNotPlaying = errors.New("not playing")
	ErrNotPaused  = errors.New("not paused")
)

// Engine is the audio output driven by the controller.
// Implementations must report the natural end of a track asynchronously
// (never from inside Play), since the controller holds its lock while
// calling into the engine.
type Engine interface {
	// Play starts t from the beginning, replacing whatever was playing.
	Play(t track.Track) error
	Resume() error
	Pause() error
	Stop() error
}

// Config holds controller configuration.
type Config struct {
	// StopAtEnd stops playback after the last track when repeat is off and
	// shuffle is off, instead of wrapping to the first track.
	StopAtEnd bool

	// Mode is the initial transport mode.
	Mode Mode

	// Picker overrides the random source used by shuffle.
	Picker Picker
}

// Status is a snapshot of the controller.
type Status struct {
	State        State
	Track        *track.Track
	Index        int // Position of Track in the playlist, -1 if none
	PlaylistLen  int
	Source       playlist.Source
	PlaylistName string
	Mode         Mode
}

// Controller decides what plays next. It owns the cursor and the transport
// mode and serializes user actions and engine callbacks.
type Controller struct {
	mu sync.Mutex

	cursor *Cursor
	mode   Mode
	state  State
	engine Engine
	config Config

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new transport controller.
func NewController(engine Engine, config Config) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cursor:  NewCursor(config.Picker),
		mode:    config.Mode,
		state:   StateIdle,
		engine:  engine,
		config:  config,
		eventCh: make(chan Event, 32),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Adopt makes p the current playlist and starts playing t.
// This is the only way a listing becomes the current playlist.
func (c *Controller) Adopt(t track.Track, p playlist.Playlist) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.IsEmpty() {
		return errors.Wrapf(ErrEmptyPlaylist, "adopt %s", t.ID)
	}
	c.cursor.Adopt(t, p)
	zlog.Debug().Msgf("playback: adopted playlist: source=%s name=%q tracks=%d current=%s",
		p.Source, p.Name, p.Len(), t.ID)

	c.sendEventLocked(EventPlaylistAdopted, &t)
	return c.startLocked(t)
}

// ClickNext handles a user skip forward.
// Shuffle is honored; the repeat setting is not consulted.
func (c *Controller) ClickNext() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.skipLocked(true)
}

// ClickPrevious handles a user skip backward.
// With shuffle on this is a random pick, like ClickNext.
func (c *Controller) ClickPrevious() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.skipLocked(false)
}

// OnEnded handles the natural end of trackID. An empty trackID means the
// current track. Ends reported while not playing, or for a track that is no
// longer current, are stale and ignored.
func (c *Controller) OnEnded(trackID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ended, ok := c.cursor.Current()
	if !ok {
		return ErrNoTrack
	}
	if trackID != "" && trackID != ended.ID {
		zlog.Debug().Msgf("playback: ignoring stale end: ended=%s current=%s", trackID, ended.ID)
		return nil
	}
	if c.state != StatePlaying {
		zlog.Debug().Msgf("playback: ignoring end while %s: track=%s", c.state, ended.ID)
		return nil
	}
	c.sendEventLocked(EventTrackEnded, &ended)

	switch {
	case c.mode.Repeat == RepeatOne:
		// Replay in place; the cursor is not consulted.
		return c.startLocked(ended)

	case c.mode.advancesOnEnd():
		next, err := c.advanceLocked(true)
		if err != nil {
			return c.failLocked(err)
		}
		return c.startLocked(next)

	case c.config.StopAtEnd && c.cursor.IsLast():
		c.state = StateIdle
		zlog.Debug().Msgf("playback: reached end of playlist, stopping: track=%s", ended.ID)
		c.sendEventLocked(EventStopped, &ended)
		return nil

	default:
		next, err := c.cursor.Next()
		if err != nil {
			return c.failLocked(err)
		}
		return c.startLocked(next)
	}
}

// OnEngineError records a failure reported asynchronously by the engine.
// The selection is kept so that Play can retry it.
func (c *Controller) OnEngineError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, _ := c.cursor.Current()
	zlog.Error().Err(err).Msgf("playback: engine failed: track=%s", current.ID)
	c.state = StateIdle
	c.sendEventLocked(EventStateChanged, c.currentLocked())
}

// Play starts playback. Paused playback resumes; a stopped selection
// restarts from the beginning of the current track.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		return nil
	case StatePaused:
		return c.resumeLocked()
	}

	current, ok := c.cursor.Current()
	if !ok {
		return ErrNoTrack
	}
	return c.startLocked(current)
}

// Pause pauses the current playback.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying {
		return ErrNotPlaying
	}
	if err := c.engine.Pause(); err != nil {
		return errors.Wrap(err, "failed to pause engine")
	}
	c.state = StatePaused
	c.sendEventLocked(EventStateChanged, c.currentLocked())
	return nil
}

// Resume resumes paused playback.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.resumeLocked()
}

func (c *Controller) resumeLocked() error {
	if c.state != StatePaused {
		return ErrNotPaused
	}
	if err := c.engine.Resume(); err != nil {
		return errors.Wrap(err, "failed to resume engine")
	}
	c.state = StatePlaying
	c.sendEventLocked(EventStateChanged, c.currentLocked())
	return nil
}

// Stop stops playback. The selection and playlist are kept.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.engine.Stop(); err != nil {
		return errors.Wrap(err, "failed to stop engine")
	}
	c.state = StateIdle
	c.sendEventLocked(EventStateChanged, c.currentLocked())
	return nil
}

// ToggleShuffle flips shuffle and returns the new value.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode.Shuffle = !c.mode.Shuffle
	c.sendEventLocked(EventModeChanged, c.currentLocked())
	return c.mode.Shuffle
}

// CycleRepeat advances the repeat mode (off -> all -> one -> off) and
// returns the new value.
func (c *Controller) CycleRepeat() RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode.Repeat = c.mode.Repeat.Next()
	c.sendEventLocked(EventModeChanged, c.currentLocked())
	return c.mode.Repeat
}

// Mode returns the transport mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// GetState returns the current playback state.
func (c *Controller) GetState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GetCurrentTrack returns the current track.
func (c *Controller) GetCurrentTrack() (track.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.Current()
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.cursor.Playlist()
	return Status{
		State:        c.state,
		Track:        c.currentLocked(),
		Index:        c.cursor.Index(),
		PlaylistLen:  p.Len(),
		Source:       p.Source,
		PlaylistName: p.Name,
		Mode:         c.mode,
	}
}

// Close closes the controller and releases resources.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil {
		return
	}
	c.cancel()
	if err := c.engine.Stop(); err != nil {
		zlog.Warn().Err(err).Msg("playback: failed to stop engine on close")
	}
	c.state = StateIdle
	close(c.eventCh)
}

// skipLocked moves to the neighbor track on a user action.
// Must be called with lock held.
func (c *Controller) skipLocked(forward bool) error {
	left := c.currentLocked()

	next, err := c.advanceLocked(forward)
	if err != nil {
		return c.failLocked(err)
	}
	if left != nil {
		c.sendEventLocked(EventTrackSkipped, left)
	}
	return c.startLocked(next)
}

// advanceLocked computes the next track honoring shuffle.
// Must be called with lock held.
func (c *Controller) advanceLocked(forward bool) (track.Track, error) {
	switch {
	case c.mode.Shuffle:
		return c.cursor.Shuffle()
	case forward:
		return c.cursor.Next()
	default:
		return c.cursor.Previous()
	}
}

// startLocked hands t to the engine.
// Must be called with lock held.
func (c *Controller) startLocked(t track.Track) error {
	if err := c.engine.Play(t); err != nil {
		c.state = StateIdle
		c.sendEventLocked(EventStateChanged, &t)
		return errors.Wrapf(err, "failed to play track %s", t.ID)
	}
	c.state = StatePlaying
	zlog.Debug().Msgf("playback: track started: id=%s title=%q shuffle=%v repeat=%s",
		t.ID, t.Title, c.mode.Shuffle, c.mode.Repeat)
	c.sendEventLocked(EventTrackStarted, &t)
	return nil
}

// failLocked stops playback and clears the selection after a cursor failure.
// Must be called with lock held.
func (c *Controller) failLocked(cause error) error {
	zlog.Warn().Msgf("playback: cannot advance, clearing selection: %v", cause)
	if err := c.engine.Stop(); err != nil {
		zlog.Warn().Err(err).Msg("playback: failed to stop engine")
	}
	c.cursor.Clear()
	c.state = StateIdle
	c.sendEventLocked(EventStopped, nil)
	return cause
}

func (c *Controller) currentLocked() *track.Track {
	t, ok := c.cursor.Current()
	if !ok {
		return nil
	}
	return &t
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(typ EventType, t *track.Track) {
	if c.ctx.Err() != nil {
		// Controller closed, don't send
		return
	}
	e := Event{
		Type:  typ,
		Track: t,
		State: c.state,
		Mode:  c.mode,
	}
	select {
	case c.eventCh <- e:
	default:
		// Channel full, drop event
	}
}
