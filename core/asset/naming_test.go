package asset

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfbox/model"
)

func TestAudioFilenameDeterminism(t *testing.T) {
	audio := model.Audio{
		ID:          "BV1xx411c7mD",
		DownloadURL: "https://example.com/a.mp3?expires=123",
		Platform:    model.PlatformBilibili,
	}

	first := AudioFilename(audio)
	second := AudioFilename(audio)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "BV1xx411c7mD_"))
	assert.True(t, strings.HasSuffix(first, ".mp3"), "format defaults to mp3")
}

func TestAudioFilenameFormat(t *testing.T) {
	audio := model.Audio{
		ID:          "id1",
		DownloadURL: "https://example.com/a",
		Format:      model.FormatFlac,
	}
	assert.True(t, strings.HasSuffix(AudioFilename(audio), ".flac"))
}

func TestAudioFilenameNoCollisions(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 500; i++ {
		url := fmt.Sprintf("https://example.com/audio/%d.mp3", i)
		name := AudioFilename(model.Audio{ID: "x", DownloadURL: url})
		prev, ok := seen[name]
		require.False(t, ok, "collision between %q and %q", prev, url)
		seen[name] = url
	}
}

func TestCoverFilename(t *testing.T) {
	url := "https://img.example.com/covers/q.jpg"
	name := CoverFilename(url)

	assert.Equal(t, name, CoverFilename(url))
	assert.True(t, strings.HasSuffix(name, "_q.jpg"))

	// URL without a path component falls back to a default basename.
	assert.True(t, strings.HasSuffix(CoverFilename("https://img.example.com/"), "_cover.jpg"))
}

func TestRelPathsUseForwardSlashes(t *testing.T) {
	audio := model.Audio{ID: "id1", DownloadURL: "u", Platform: model.PlatformNetease}

	audioPath := AudioRelPath(audio)
	assert.False(t, strings.Contains(audioPath, "\\"))
	assert.True(t, strings.HasPrefix(audioPath, "assets/netease/audios/"))

	coverPath := CoverRelPath("https://x/y.png", model.PlatformNetease)
	assert.True(t, strings.HasPrefix(coverPath, "assets/netease/covers/"))
}
