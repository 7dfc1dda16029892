package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mfbox/logger"
	"mfbox/model"
)

// LibraryRepository persists the library aggregate as pretty-printed JSON
// in the application data directory. Single writer, last write wins; there
// is no file locking by contract.
type LibraryRepository struct {
	path string
}

// NewLibraryRepository creates a repository backed by the given JSON file.
func NewLibraryRepository(path string) *LibraryRepository {
	return &LibraryRepository{path: path}
}

// Path returns the backing file path.
func (r *LibraryRepository) Path() string {
	return r.path
}

// Load reads the library. An absent file is a valid empty library, not an
// error.
func (r *LibraryRepository) Load() (*model.Library, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Library{}, nil
		}
		return nil, fmt.Errorf("read library: %w", err)
	}

	var lib model.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("decode library: %w", err)
	}
	return &lib, nil
}

// Save persists the library wholesale. The JSON is written to a sibling
// temp file and renamed into place so a crashed save never leaves a
// truncated library behind.
func (r *LibraryRepository) Save(lib *model.Library) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create app dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp library: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write library: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp library: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace library: %w", err)
	}
	return nil
}

// Merge folds an imported library into the local one. Playlists merge by
// id; within an existing playlist only audios whose id is not already
// present are appended, and existing audios are left untouched. Unknown
// playlists are appended whole. Returns the number of playlists and audios
// added.
func Merge(local, imported *model.Library) (playlistsAdded, audiosAdded int) {
	for _, importPlaylist := range imported.Playlists {
		target := findPlaylist(local, importPlaylist.ID)
		if target == nil {
			local.Playlists = append(local.Playlists, importPlaylist)
			playlistsAdded++
			audiosAdded += len(importPlaylist.Audios)
			continue
		}

		existing := make(map[string]struct{}, len(target.Audios))
		for _, audio := range target.Audios {
			existing[audio.Audio.ID] = struct{}{}
		}
		for _, audio := range importPlaylist.Audios {
			if _, ok := existing[audio.Audio.ID]; ok {
				continue
			}
			target.Audios = append(target.Audios, audio)
			audiosAdded++
		}
	}

	if playlistsAdded > 0 || audiosAdded > 0 {
		logger.Info("library merged",
			logger.Int("playlistsAdded", playlistsAdded),
			logger.Int("audiosAdded", audiosAdded))
	}
	return playlistsAdded, audiosAdded
}

func findPlaylist(lib *model.Library, id string) *model.LocalPlaylist {
	for i := range lib.Playlists {
		if lib.Playlists[i].ID == id {
			return &lib.Playlists[i]
		}
	}
	return nil
}
