// Package playerv1 defines the musicbox.player.v1 PlayerService: its
// messages, procedure names, handler and client.
package playerv1

import "time"

// NotificationType identifies the kind of a Notification.
type NotificationType string

const (
	NotificationTypeInitialState    NotificationType = "initial_state"
	NotificationTypeTrackStarted    NotificationType = "track_started"
	NotificationTypeTrackEnded      NotificationType = "track_ended"
	NotificationTypeTrackSkipped    NotificationType = "track_skipped"
	NotificationTypeStateChanged    NotificationType = "state_changed"
	NotificationTypeModeChanged     NotificationType = "mode_changed"
	NotificationTypePlaylistAdopted NotificationType = "playlist_adopted"
	NotificationTypeStopped         NotificationType = "stopped"
)

// Track is a playable song.
type Track struct {
	Id         string `json:"id"`
	Title      string `json:"title"`
	AlbumId    string `json:"album_id,omitempty"`
	AlbumTitle string `json:"album_title,omitempty"`
	ArtworkUrl string `json:"artwork_url,omitempty"`
	FilePath   string `json:"file_path"`
}

// Mode is the shuffle and repeat setting.
type Mode struct {
	Shuffle bool   `json:"shuffle"`
	Repeat  string `json:"repeat"`
}

// Status is a snapshot of the player.
type Status struct {
	State          string `json:"state"`
	Track          *Track `json:"track,omitempty"`
	Index          int32  `json:"index"`
	PlaylistLength int32  `json:"playlist_length"`
	Source         string `json:"source,omitempty"`
	PlaylistName   string `json:"playlist_name,omitempty"`
	Mode           Mode   `json:"mode"`
}

// PlayRequest selects a song within a catalog listing. Source is one of
// "songs", "search:<term>", "album:<id>", "artist:<id>" or
// "shared:<type>:<id>". An empty SongId plays the first song.
type PlayRequest struct {
	Source string `json:"source"`
	SongId string `json:"song_id,omitempty"`
}

// AdoptRequest makes the given list the current playlist and plays Track.
type AdoptRequest struct {
	Track    Track   `json:"track"`
	Playlist []Track `json:"playlist"`
	Source   string  `json:"source,omitempty"`
	Name     string  `json:"name,omitempty"`
}

// ControlRequest is the empty request of the transport procedures.
type ControlRequest struct{}

// EndedRequest reports the natural end of a track. An empty TrackId means
// the current track.
type EndedRequest struct {
	TrackId string `json:"track_id,omitempty"`
}

// StatusResponse carries the player status after a procedure ran.
type StatusResponse struct {
	Status Status `json:"status"`
}

// WatchRequest subscribes to player notifications.
type WatchRequest struct{}

// Notification is a player event sent to watchers.
type Notification struct {
	SequenceNo uint64           `json:"sequence_no"`
	Type       NotificationType `json:"type"`
	Track      *Track           `json:"track,omitempty"`
	Status     *Status          `json:"status,omitempty"`
	Time       time.Time        `json:"time"`
}
