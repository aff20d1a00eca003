package playback

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/musicbox/internal/domain/playlist"
	"github.com/osa030/musicbox/internal/domain/track"
)

// fakeEngine records the commands it receives.
type fakeEngine struct {
	mu      sync.Mutex
	played  []string
	paused  int
	resumed int
	stopped int
	playErr error
}

func (e *fakeEngine) Play(t track.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playErr != nil {
		return e.playErr
	}
	e.played = append(e.played, t.ID)
	return nil
}

func (e *fakeEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumed++
	return nil
}

func (e *fakeEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused++
	return nil
}

func (e *fakeEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped++
	return nil
}

func (e *fakeEngine) Played() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.played...)
}

func newTestController(t *testing.T, config Config) (*Controller, *fakeEngine) {
	t.Helper()
	engine := &fakeEngine{}
	c := NewController(engine, config)
	t.Cleanup(c.Close)
	return c, engine
}

func currentID(t *testing.T, c *Controller) string {
	t.Helper()
	cur, ok := c.GetCurrentTrack()
	if !ok {
		return ""
	}
	return cur.ID
}

func drain(c *Controller) []EventType {
	var types []EventType
	for {
		select {
		case e := <-c.Events():
			types = append(types, e.Type)
		default:
			return types
		}
	}
}

func TestController_Adopt(t *testing.T) {
	c, engine := newTestController(t, Config{})

	require.NoError(t, c.Adopt(trackB, abc()))

	assert.Equal(t, []string{"b"}, engine.Played())
	assert.Equal(t, StatePlaying, c.GetState())

	status := c.Status()
	assert.Equal(t, 1, status.Index)
	assert.Equal(t, 3, status.PlaylistLen)
	assert.Equal(t, playlist.SourceSongs, status.Source)
	require.NotNil(t, status.Track)
	assert.Equal(t, "b", status.Track.ID)

	assert.Equal(t, []EventType{EventPlaylistAdopted, EventTrackStarted}, drain(c))
}

func TestController_AdoptEmptyPlaylist(t *testing.T) {
	c, engine := newTestController(t, Config{})

	err := c.Adopt(trackA, playlist.New(playlist.SourceSearch, "nothing", nil))
	assert.ErrorIs(t, err, ErrEmptyPlaylist)

	_, ok := c.GetCurrentTrack()
	assert.False(t, ok)
	assert.Equal(t, StateIdle, c.GetState())
	assert.Empty(t, engine.Played())
	assert.Empty(t, drain(c))
}

func TestController_OnEnded(t *testing.T) {
	tests := []struct {
		name      string
		start     track.Track
		shuffle   bool
		repeat    RepeatMode
		stopAtEnd bool
		picks     []int
		expected  string
		wantState State
	}{
		{
			name:      "repeat off advances sequentially",
			start:     trackA,
			expected:  "b",
			wantState: StatePlaying,
		},
		{
			name:      "repeat off wraps from last to first",
			start:     trackC,
			expected:  "a",
			wantState: StatePlaying,
		},
		{
			name:      "repeat one replays current",
			start:     trackB,
			repeat:    RepeatOne,
			expected:  "b",
			wantState: StatePlaying,
		},
		{
			name:      "repeat one wins over shuffle",
			start:     trackB,
			shuffle:   true,
			repeat:    RepeatOne,
			picks:     []int{0},
			expected:  "b",
			wantState: StatePlaying,
		},
		{
			name:      "repeat all wraps from last to first",
			start:     trackC,
			repeat:    RepeatAll,
			expected:  "a",
			wantState: StatePlaying,
		},
		{
			name:      "repeat all with shuffle picks randomly",
			start:     trackA,
			shuffle:   true,
			repeat:    RepeatAll,
			picks:     []int{2},
			expected:  "c",
			wantState: StatePlaying,
		},
		{
			name:      "shuffle with repeat off picks randomly",
			start:     trackA,
			shuffle:   true,
			picks:     []int{2},
			expected:  "c",
			wantState: StatePlaying,
		},
		{
			name:      "stop at end stops after last track",
			start:     trackC,
			stopAtEnd: true,
			expected:  "c",
			wantState: StateIdle,
		},
		{
			name:      "stop at end still advances mid playlist",
			start:     trackA,
			stopAtEnd: true,
			expected:  "b",
			wantState: StatePlaying,
		},
		{
			name:      "stop at end ignored with repeat all",
			start:     trackC,
			repeat:    RepeatAll,
			stopAtEnd: true,
			expected:  "a",
			wantState: StatePlaying,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var picker Picker
			if tt.picks != nil {
				picker = fixedPicker(tt.picks...)
			}
			c, _ := newTestController(t, Config{StopAtEnd: tt.stopAtEnd, Picker: picker})

			if tt.shuffle {
				c.ToggleShuffle()
			}
			for c.Mode().Repeat != tt.repeat {
				c.CycleRepeat()
			}
			require.NoError(t, c.Adopt(tt.start, abc()))

			require.NoError(t, c.OnEnded(tt.start.ID))
			assert.Equal(t, tt.expected, currentID(t, c))
			assert.Equal(t, tt.wantState, c.GetState())
		})
	}
}

func TestController_StaleEndIsIgnored(t *testing.T) {
	tests := []struct {
		name      string
		act       func(c *Controller) error
		ended     string
		expected  string
		wantState State
		played    []string
	}{
		{
			name:      "after stop",
			act:       (*Controller).Stop,
			ended:     "a",
			expected:  "a",
			wantState: StateIdle,
			played:    []string{"a"},
		},
		{
			name:      "after pause",
			act:       (*Controller).Pause,
			ended:     "",
			expected:  "a",
			wantState: StatePaused,
			played:    []string{"a"},
		},
		{
			name:      "late end of a skipped track",
			act:       (*Controller).ClickNext,
			ended:     "a",
			expected:  "b",
			wantState: StatePlaying,
			played:    []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, engine := newTestController(t, Config{})
			require.NoError(t, c.Adopt(trackA, abc()))
			require.NoError(t, tt.act(c))
			drain(c)

			require.NoError(t, c.OnEnded(tt.ended))
			assert.Equal(t, tt.expected, currentID(t, c))
			assert.Equal(t, tt.wantState, c.GetState())
			assert.Equal(t, tt.played, engine.Played())
			assert.NotContains(t, drain(c), EventTrackEnded)
		})
	}
}

func TestController_InitialMode(t *testing.T) {
	c, engine := newTestController(t, Config{Mode: Mode{Repeat: RepeatOne}})

	require.NoError(t, c.Adopt(trackB, abc()))
	require.NoError(t, c.OnEnded("b"))
	assert.Equal(t, []string{"b", "b"}, engine.Played())
	assert.Equal(t, RepeatOne, c.Status().Mode.Repeat)
}

func TestController_SequentialScenario(t *testing.T) {
	c, engine := newTestController(t, Config{})

	// Start at A, skip forward twice, skip back once.
	require.NoError(t, c.Adopt(trackA, abc()))
	require.NoError(t, c.ClickNext())
	require.NoError(t, c.ClickNext())
	require.NoError(t, c.ClickPrevious())

	assert.Equal(t, []string{"a", "b", "c", "b"}, engine.Played())
	assert.Equal(t, "b", currentID(t, c))
}

func TestController_ShuffleScenario(t *testing.T) {
	c, engine := newTestController(t, Config{Picker: fixedPicker(2, 0, 0)})

	require.NoError(t, c.Adopt(trackB, abc()))
	assert.True(t, c.ToggleShuffle())

	// Both skip directions draw randomly under shuffle.
	require.NoError(t, c.ClickNext())
	require.NoError(t, c.ClickPrevious())
	require.NoError(t, c.ClickPrevious())

	assert.Equal(t, []string{"b", "c", "a", "a"}, engine.Played())
}

func TestController_ClickIgnoresRepeat(t *testing.T) {
	c, engine := newTestController(t, Config{})

	c.CycleRepeat()
	c.CycleRepeat()
	require.Equal(t, RepeatOne, c.Mode().Repeat)

	require.NoError(t, c.Adopt(trackA, abc()))
	require.NoError(t, c.ClickNext())
	require.NoError(t, c.ClickPrevious())
	require.NoError(t, c.ClickPrevious())

	assert.Equal(t, []string{"a", "b", "a", "c"}, engine.Played())
}

func TestController_RepeatOneReplaysIndefinitely(t *testing.T) {
	c, engine := newTestController(t, Config{})
	c.CycleRepeat()
	c.CycleRepeat()

	require.NoError(t, c.Adopt(trackB, abc()))
	for range 3 {
		require.NoError(t, c.OnEnded("b"))
	}
	assert.Equal(t, []string{"b", "b", "b", "b"}, engine.Played())
}

func TestController_RepeatAllCyclesThroughPlaylist(t *testing.T) {
	c, engine := newTestController(t, Config{})
	assert.Equal(t, RepeatAll, c.CycleRepeat())

	require.NoError(t, c.Adopt(trackA, abc()))
	for range 4 {
		require.NoError(t, c.OnEnded(""))
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b"}, engine.Played())
}

func TestController_CursorFailureStopsAndClears(t *testing.T) {
	tests := []struct {
		name    string
		act     func(c *Controller) error
		wantErr error
	}{
		{name: "click next", act: (*Controller).ClickNext, wantErr: ErrTrackNotFound},
		{name: "click previous", act: (*Controller).ClickPrevious, wantErr: ErrTrackNotFound},
		{name: "ended", act: func(c *Controller) error { return c.OnEnded("x") }, wantErr: ErrTrackNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, engine := newTestController(t, Config{})

			require.NoError(t, c.Adopt(trackX, abc()))
			drain(c)

			err := tt.act(c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))

			_, ok := c.GetCurrentTrack()
			assert.False(t, ok, "selection cleared")
			assert.Equal(t, StateIdle, c.GetState())
			assert.Equal(t, 1, engine.stopped)
			assert.Contains(t, drain(c), EventStopped)
		})
	}
}

func TestController_EmptyPlaylist(t *testing.T) {
	c, _ := newTestController(t, Config{})

	err := c.ClickNext()
	assert.ErrorIs(t, err, ErrEmptyPlaylist)

	err = c.OnEnded("")
	assert.ErrorIs(t, err, ErrNoTrack)

	c.ToggleShuffle()
	err = c.ClickPrevious()
	assert.ErrorIs(t, err, ErrEmptyPlaylist)
}

func TestController_Transport(t *testing.T) {
	c, engine := newTestController(t, Config{})

	assert.ErrorIs(t, c.Play(), ErrNoTrack)
	assert.ErrorIs(t, c.Pause(), ErrNotPlaying)

	require.NoError(t, c.Adopt(trackA, abc()))
	require.NoError(t, c.Play(), "play while playing is a no-op")
	assert.Equal(t, []string{"a"}, engine.Played())

	require.NoError(t, c.Pause())
	assert.Equal(t, StatePaused, c.GetState())
	assert.ErrorIs(t, c.Pause(), ErrNotPlaying)

	require.NoError(t, c.Play())
	assert.Equal(t, StatePlaying, c.GetState())
	assert.Equal(t, 1, engine.resumed)

	require.NoError(t, c.Stop())
	assert.Equal(t, StateIdle, c.GetState())
	assert.ErrorIs(t, c.Resume(), ErrNotPaused)
	assert.Equal(t, "a", currentID(t, c), "stop keeps the selection")

	require.NoError(t, c.Play())
	assert.Equal(t, []string{"a", "a"}, engine.Played(), "play after stop restarts the track")
}

func TestController_EnginePlayFailure(t *testing.T) {
	c, engine := newTestController(t, Config{})
	engine.playErr = errors.New("device busy")

	err := c.Adopt(trackA, abc())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device busy")
	assert.Equal(t, StateIdle, c.GetState())
	assert.Equal(t, "a", currentID(t, c))
}

func TestController_OnEngineError(t *testing.T) {
	c, _ := newTestController(t, Config{})
	require.NoError(t, c.Adopt(trackA, abc()))

	c.OnEngineError(errors.New("decode failed"))
	assert.Equal(t, StateIdle, c.GetState())
	assert.Equal(t, "a", currentID(t, c))
}

func TestController_ModeEvents(t *testing.T) {
	c, _ := newTestController(t, Config{})

	assert.True(t, c.ToggleShuffle())
	assert.False(t, c.ToggleShuffle())
	assert.Equal(t, RepeatAll, c.CycleRepeat())

	events := drain(c)
	assert.Equal(t, []EventType{EventModeChanged, EventModeChanged, EventModeChanged}, events)
	assert.Equal(t, Mode{Shuffle: false, Repeat: RepeatAll}, c.Mode())
}

func TestController_ConcurrentCallbacks(t *testing.T) {
	c, _ := newTestController(t, Config{})
	require.NoError(t, c.Adopt(trackA, abc()))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.OnEnded("")
		}()
		go func() {
			defer wg.Done()
			_ = c.ClickNext()
		}()
	}
	wg.Wait()

	// 100 forward steps on a 3-track playlist from A lands on B.
	assert.Equal(t, "b", currentID(t, c))
}
