package playback

import "github.com/cockroachdb/errors"

// RepeatMode represents the repeat setting of the player.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Advance through the playlist
	RepeatAll                   // Keep advancing, shuffle-aware
	RepeatOne                   // Replay the current track
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m when the repeat control is pressed.
// The cycle is off -> all -> one -> off.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ParseRepeatMode converts a string to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "off", "":
		return RepeatOff, nil
	case "all":
		return RepeatAll, nil
	case "one":
		return RepeatOne, nil
	default:
		return RepeatOff, errors.Newf("unknown repeat mode: %q", s)
	}
}

// Mode is the transport mode: shuffle and repeat are independent flags.
type Mode struct {
	Shuffle bool
	Repeat  RepeatMode
}

// advancesOnEnd reports whether a natural end of track takes the
// shuffle-aware skip path.
func (m Mode) advancesOnEnd() bool {
	return m.Repeat == RepeatAll || m.Shuffle
}
