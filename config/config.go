package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Asset layout constants. Stored library paths are always relative to
// AppDir and use forward slashes, so the same library JSON is portable
// across machines and into backup archives.
const (
	AssetsDirName = "assets"
	AudiosDirName = "audios"
	CoversDirName = "covers"
	LibraryFile   = "mfbox.json"
)

// Config stores the application configuration. Every directory is a field
// rather than a package constant so tests can redirect the whole store to
// an isolated temporary root.
type Config struct {
	AppDir    string // Application data directory, holds mfbox.json and assets/
	BackupDir string // Where export writes and import looks for backup archives

	ServerAddr      string // HTTP listen address for the streaming server
	ExtractorAPIURL string // Base URL of the extraction sidecar service

	// Remote sync (GitHub contents API)
	SyncRepo   string // owner/repo or full https URL
	SyncToken  string // Bearer token, never logged
	SyncBranch string // Target branch for updates
	SyncPath   string // Remote blob name, the CRDT-encoded library

	// MinIO backup replication
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Logging
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		AppDir:    getEnv("MFBOX_APP_DIR", defaultAppDir()),
		BackupDir: getEnv("MFBOX_BACKUP_DIR", defaultBackupDir()),

		ServerAddr:      getEnv("MFBOX_ADDR", ":8080"),
		ExtractorAPIURL: getEnv("EXTRACTOR_API_URL", "http://localhost:3000"),

		SyncRepo:   getEnv("SYNC_REPO", ""),
		SyncToken:  os.Getenv("SYNC_TOKEN"), // For credentials, better not to have a hardcoded default
		SyncBranch: getEnv("SYNC_BRANCH", "main"),
		SyncPath:   getEnv("SYNC_PATH", "mfbox.yjs"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "mfbox"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}

// LibraryPath returns the absolute path of the library JSON file.
func (c *Config) LibraryPath() string {
	return filepath.Join(c.AppDir, LibraryFile)
}

// AssetsPath returns the absolute path of the asset root.
func (c *Config) AssetsPath() string {
	return filepath.Join(c.AppDir, AssetsDirName)
}

func defaultAppDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(dir, "mfbox")
}

func defaultBackupDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
