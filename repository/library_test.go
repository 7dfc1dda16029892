package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfbox/model"
)

func TestLoadAbsentFileIsEmptyLibrary(t *testing.T) {
	repo := NewLibraryRepository(filepath.Join(t.TempDir(), "mfbox.json"))

	lib, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, lib.Playlists)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mfbox.json")
	repo := NewLibraryRepository(path)

	lib := &model.Library{
		Theme:     "dark",
		LastAudio: "a1",
		Playlists: []model.LocalPlaylist{
			{
				ID:       "pl1",
				Title:    "favorites",
				Platform: model.PlatformNetease,
				Audios: []model.LocalAudio{
					{
						Path:  "assets/netease/audios/a1.mp3",
						Audio: model.Audio{ID: "a1", Title: "one", DownloadURL: "u", Platform: model.PlatformNetease},
					},
				},
			},
		},
	}
	require.NoError(t, repo.Save(lib))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, lib, loaded)

	// Pretty-printed, optional fields omitted when empty.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "\n  "), "library JSON is indented")
	assert.NotContains(t, string(raw), "cover_path")
}

func TestLoadMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mfbox.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0644))

	_, err := NewLibraryRepository(path).Load()
	assert.Error(t, err)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo := NewLibraryRepository(filepath.Join(dir, "mfbox.json"))
	require.NoError(t, repo.Save(&model.Library{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMergeNewPlaylist(t *testing.T) {
	local := &model.Library{}
	imported := &model.Library{
		Playlists: []model.LocalPlaylist{
			{ID: "pl1", Audios: []model.LocalAudio{{Audio: model.Audio{ID: "a1"}}}},
		},
	}

	playlists, audios := Merge(local, imported)
	assert.Equal(t, 1, playlists)
	assert.Equal(t, 1, audios)
	require.Len(t, local.Playlists, 1)
}

func TestMergeExistingPlaylistAddsOnlyNewAudios(t *testing.T) {
	local := &model.Library{
		Playlists: []model.LocalPlaylist{
			{
				ID: "pl1",
				Audios: []model.LocalAudio{
					{Path: "local-a1", Audio: model.Audio{ID: "a1", Title: "local title"}},
				},
			},
		},
	}
	imported := &model.Library{
		Playlists: []model.LocalPlaylist{
			{
				ID: "pl1",
				Audios: []model.LocalAudio{
					{Path: "import-a1", Audio: model.Audio{ID: "a1", Title: "import title"}},
					{Path: "import-a2", Audio: model.Audio{ID: "a2"}},
				},
			},
		},
	}

	playlists, audios := Merge(local, imported)
	assert.Zero(t, playlists)
	assert.Equal(t, 1, audios)

	pl := local.Playlists[0]
	require.Len(t, pl.Audios, 2)
	assert.Equal(t, "local-a1", pl.Audios[0].Path, "duplicate id keeps the local record")
	assert.Equal(t, "a2", pl.Audios[1].Audio.ID)
}

func TestMergeIsIdempotent(t *testing.T) {
	imported := &model.Library{
		Playlists: []model.LocalPlaylist{
			{ID: "pl1", Audios: []model.LocalAudio{{Audio: model.Audio{ID: "a1"}}}},
		},
	}

	local := &model.Library{}
	Merge(local, imported)
	playlists, audios := Merge(local, imported)
	assert.Zero(t, playlists)
	assert.Zero(t, audios)
	assert.Len(t, local.Playlists, 1)
	assert.Len(t, local.Playlists[0].Audios, 1)
}
