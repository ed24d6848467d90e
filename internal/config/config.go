package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the environment-driven configuration surface.
type Config struct {
	HTTPAddr string

	MaxConcurrent  int
	DefaultTimeout time.Duration
	PollInterval   time.Duration
	QueueDepth     int

	DownloadRoot string
	RecordsFile  string

	RedisAddr   string // empty disables the cache tier
	PostgresDSN string // empty disables the document-store tier

	NotifyURL string // empty falls back to log-only notifications

	YtDlpPath  string
	SpotDLPath string
}

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		MaxConcurrent:  envIntOr("MAX_CONCURRENT", 4),
		DefaultTimeout: time.Duration(envIntOr("DEFAULT_TIMEOUT_SECONDS", 600)) * time.Second,
		PollInterval:   time.Duration(envIntOr("POLL_INTERVAL_SECONDS", 5)) * time.Second,
		QueueDepth:     envIntOr("QUEUE_DEPTH", 256),
		DownloadRoot:   envOr("DOWNLOAD_ROOT", "./downloads"),
		RecordsFile:    envOr("RECORDS_FILE", "fetch_records.json"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		NotifyURL:      os.Getenv("NOTIFY_WEBHOOK_URL"),
		YtDlpPath:      envOr("YTDLP_PATH", "yt-dlp"),
		SpotDLPath:     envOr("SPOTDL_PATH", "spotdl"),
	}
}

func envOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return i
}
