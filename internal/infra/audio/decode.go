package audio

import (
	"bytes"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
)

// sampleRate is the speaker's sample rate; tracks are resampled to it.
const sampleRate = beep.SampleRate(44100)

func decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	return mp3.Decode(io.NopCloser(bytes.NewReader(data)))
}
