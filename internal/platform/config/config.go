package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. Everything comes from the
// environment so main stays lean; zero values select the in-memory backends.
type Config struct {
	// DatabaseURL enables the Postgres-backed stores when set. Empty selects
	// the in-memory stores.
	DatabaseURL string

	// KeystorePath is the file holding the sealed signing key. Empty selects
	// the in-memory key provider.
	KeystorePath string

	// KeystorePassphrase seals the signing key at rest.
	KeystorePassphrase string

	// PhotoDir is the root directory of the photo blob store.
	PhotoDir string

	// MaxPhotosPerVisit caps photo attachments on a single visit.
	MaxPhotosPerVisit int

	// JournalBuffer sizes the change-journal channel between publisher and
	// worker.
	JournalBuffer int
}

// RedisConfig configures a Redis client. It is filled in by whichever
// component opens the connection; the process itself holds no Redis
// endpoint.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultMaxPhotosPerVisit bounds attachments when the environment does not
// override it.
const DefaultMaxPhotosPerVisit = 5

// DefaultJournalBuffer is the change-journal channel capacity.
const DefaultJournalBuffer = 256

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		DatabaseURL:        os.Getenv("WAYMARK_DB_URL"),
		KeystorePath:       os.Getenv("WAYMARK_KEYSTORE_PATH"),
		KeystorePassphrase: os.Getenv("WAYMARK_KEYSTORE_PASSPHRASE"),
		PhotoDir:           os.Getenv("WAYMARK_PHOTO_DIR"),
		MaxPhotosPerVisit:  intFromEnv("WAYMARK_MAX_PHOTOS", DefaultMaxPhotosPerVisit),
		JournalBuffer:      intFromEnv("WAYMARK_JOURNAL_BUFFER", DefaultJournalBuffer),
	}
	if cfg.PhotoDir == "" {
		cfg.PhotoDir = "photos"
	}
	return cfg
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
