package model

// Platform identifies the source site an audio was extracted from.
type Platform string

const (
	PlatformBilibili Platform = "bilibili"
	PlatformNetease  Platform = "netease"
	PlatformYoutube  Platform = "youtube"
	PlatformLocal    Platform = "local"
)

// AudioFormat is the container format of a downloaded audio file.
type AudioFormat string

const (
	FormatMp3  AudioFormat = "mp3"
	FormatM4a  AudioFormat = "m4a"
	FormatFlac AudioFormat = "flac"
	FormatWav  AudioFormat = "wav"
	FormatOgg  AudioFormat = "ogg"
)

// Extension returns the filename extension for the format, dot included.
func (f AudioFormat) Extension() string {
	if f == "" {
		return "." + string(FormatMp3)
	}
	return "." + string(f)
}

// Audio is a platform-tagged track descriptor returned by the extraction
// service. Immutable once obtained; the download URL is the identity the
// asset store hashes for content addressing.
type Audio struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	DownloadURL string      `json:"download_url"`
	Cover       string      `json:"cover,omitempty"`
	Format      AudioFormat `json:"format,omitempty"`
	Duration    float64     `json:"duration,omitempty"`
	Platform    Platform    `json:"platform"`
}

// Playlist is the extraction result for a playlist URL.
type Playlist struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title,omitempty"`
	Cover    string   `json:"cover,omitempty"`
	Platform Platform `json:"platform"`
	Audios   []Audio  `json:"audios,omitempty"`
}

// LocalAudio is an audio whose bytes have been materialized under the asset
// root. Path and CoverPath are app-dir-relative with forward slashes and
// are the stable identifiers into the asset store.
type LocalAudio struct {
	Path      string `json:"path"`
	CoverPath string `json:"cover_path,omitempty"`
	Audio     Audio  `json:"audio"`
}

// LocalPlaylist is a playlist of downloaded audios. Identity is ID; merge
// operations key on it.
type LocalPlaylist struct {
	ID          string       `json:"id,omitempty"`
	DownloadURL string       `json:"download_url,omitempty"`
	Title       string       `json:"title,omitempty"`
	CoverPath   string       `json:"cover_path,omitempty"`
	Cover       string       `json:"cover,omitempty"`
	Audios      []LocalAudio `json:"audios,omitempty"`
	Platform    Platform     `json:"platform"`
}
