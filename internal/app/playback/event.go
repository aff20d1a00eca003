package playback

import "github.com/osa030/musicbox/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted    EventType = iota // Track started playing (also on replay)
	EventTrackEnded                       // Track reached its natural end
	EventTrackSkipped                     // Track was left by a user skip
	EventStateChanged                     // Playback state changed (pause/resume/stop)
	EventModeChanged                      // Shuffle or repeat toggled
	EventPlaylistAdopted                  // A new playlist became current
	EventStopped                          // Playback stopped at end or selection cleared
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventTrackSkipped:
		return "track_skipped"
	case EventStateChanged:
		return "state_changed"
	case EventModeChanged:
		return "mode_changed"
	case EventPlaylistAdopted:
		return "playlist_adopted"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track // Track the event refers to (nil for some events)
	State State        // Playback state after the event
	Mode  Mode         // Transport mode after the event
}
