package session

import (
	"github.com/samber/lo"

	"github.com/osa030/musicbox/internal/api/playerv1"
	"github.com/osa030/musicbox/internal/app/playback"
	"github.com/osa030/musicbox/internal/domain/playlist"
	"github.com/osa030/musicbox/internal/domain/track"
)

// TrackMessage converts a track to its wire form. Returns nil for nil.
func TrackMessage(t *track.Track) *playerv1.Track {
	if t == nil {
		return nil
	}
	return &playerv1.Track{
		Id:         t.ID,
		Title:      t.Title,
		AlbumId:    t.AlbumID,
		AlbumTitle: t.AlbumTitle,
		ArtworkUrl: t.ArtworkURL,
		FilePath:   t.FilePath,
	}
}

// TrackFromMessage converts a wire track to a domain track.
func TrackFromMessage(m playerv1.Track) track.Track {
	return track.Track{
		ID:         m.Id,
		Title:      m.Title,
		AlbumID:    m.AlbumId,
		AlbumTitle: m.AlbumTitle,
		ArtworkURL: m.ArtworkUrl,
		FilePath:   m.FilePath,
	}
}

// PlaylistFromMessages builds a playlist from wire tracks. An empty source
// is reported as a song listing.
func PlaylistFromMessages(source, name string, tracks []playerv1.Track) playlist.Playlist {
	if source == "" {
		source = string(playlist.SourceSongs)
	}
	return playlist.New(playlist.Source(source), name, lo.Map(tracks, func(m playerv1.Track, _ int) track.Track {
		return TrackFromMessage(m)
	}))
}

// StatusMessage converts a controller snapshot to its wire form.
func StatusMessage(s playback.Status) *playerv1.Status {
	return &playerv1.Status{
		State:          s.State.String(),
		Track:          TrackMessage(s.Track),
		Index:          int32(s.Index),
		PlaylistLength: int32(s.PlaylistLen),
		Source:         string(s.Source),
		PlaylistName:   s.PlaylistName,
		Mode: playerv1.Mode{
			Shuffle: s.Mode.Shuffle,
			Repeat:  s.Mode.Repeat.String(),
		},
	}
}
