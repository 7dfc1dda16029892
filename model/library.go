package model

// Library is the root aggregate persisted as pretty-printed JSON under the
// application data directory. It is the single source of truth for which
// assets are alive: anything on disk it does not reference is reclaimable
// cache. Loaded at startup, mutated in memory, persisted wholesale on save
// (single writer, last write wins).
type Library struct {
	Playlists []LocalPlaylist `json:"playlists"`
	Audios    []LocalAudio    `json:"audios,omitempty"`
	Theme     string          `json:"theme,omitempty"`
	LastAudio string          `json:"last_audio,omitempty"`
}

// FindPlaylist returns the playlist with the given id, or nil.
func (l *Library) FindPlaylist(id string) *LocalPlaylist {
	for i := range l.Playlists {
		if l.Playlists[i].ID == id {
			return &l.Playlists[i]
		}
	}
	return nil
}
