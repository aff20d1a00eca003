//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"sync"
	"time"
)

// Available indicates whether this build plays sound.
// Audio requires cgo on linux.
const Available = false

// silentOutput plays nothing but still ends each track after its duration.
type silentOutput struct {
	mu sync.Mutex

	timer     *time.Timer
	done      func()
	started   time.Time
	remaining time.Duration
	paused    bool
}

func newOutput() output {
	return &silentOutput{}
}

func (s *silentOutput) play(data []byte, done func()) error {
	streamer, format, err := decode(data)
	if err != nil {
		return err
	}
	length := format.SampleRate.D(streamer.Len())
	streamer.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.done = done
	s.remaining = length
	s.startLocked()
	return nil
}

func (s *silentOutput) startLocked() {
	s.started = time.Now()
	s.paused = false
	s.timer = time.AfterFunc(s.remaining, s.done)
}

func (s *silentOutput) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil && !s.paused && s.timer.Stop() {
		s.remaining -= time.Since(s.started)
		s.paused = true
	}
}

func (s *silentOutput) resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		s.startLocked()
	}
}

func (s *silentOutput) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *silentOutput) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.done = nil
	s.paused = false
}
