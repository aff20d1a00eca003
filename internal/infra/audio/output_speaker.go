//go:build (linux && cgo) || windows || darwin

package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Available indicates whether this build plays sound.
const Available = true

// speakerOutput plays tracks on the system speaker.
type speakerOutput struct {
	mu sync.Mutex

	initialized bool
	ctrl        *beep.Ctrl
	streamer    beep.StreamSeekCloser
}

func newOutput() output {
	return &speakerOutput{}
}

func (p *speakerOutput) play(data []byte, done func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	streamer, format, err := decode(data)
	if err != nil {
		return err
	}

	if !p.initialized {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return err
		}
		p.initialized = true
	}

	p.streamer = streamer
	p.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, sampleRate, streamer)}

	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		// Runs under the speaker lock
		go done()
	})))
	return nil
}

func (p *speakerOutput) pause() {
	p.setPaused(true)
}

func (p *speakerOutput) resume() {
	p.setPaused(false)
}

func (p *speakerOutput) setPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = paused
		speaker.Unlock()
	}
}

func (p *speakerOutput) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *speakerOutput) stopLocked() {
	if p.initialized {
		speaker.Clear()
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.ctrl = nil
}
