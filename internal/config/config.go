package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type CacheDriver string

const (
	CacheMemory CacheDriver = "memory"
	CacheRedis  CacheDriver = "redis"
)

type Config struct {
	ClientSecretsFile string
	TokenFile         string
	TokenPassphrase   string
	CallbackAddr      string

	AttachmentMarker string
	ShowMissing      bool
	NoColor          bool

	CacheDriver CacheDriver
	RedisAddr   string
	CacheTTL    time.Duration

	HistoryDriver string // none|sqlite|postgres
	HistoryDSN    string

	ExportDir string
}

// LoadDotEnv loads path (default .env) into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func FromEnv() Config {
	return Config{
		ClientSecretsFile: envOr("OCULAR_CLIENT_SECRETS", "credentials.json"),
		TokenFile:         envOr("OCULAR_TOKEN_FILE", "token.json"),
		TokenPassphrase:   os.Getenv("OCULAR_TOKEN_PASSPHRASE"),
		CallbackAddr:      envOr("OCULAR_CALLBACK_ADDR", "127.0.0.1:0"),

		AttachmentMarker: envOr("OCULAR_ATTACHMENT_MARKER", ".gslides"),
		ShowMissing:      envBool("OCULAR_SHOW_MISSING", false),
		NoColor:          envBool("OCULAR_NO_COLOR", os.Getenv("NO_COLOR") != ""),

		CacheDriver: CacheDriver(strings.ToLower(envOr("OCULAR_CACHE_DRIVER", string(CacheMemory)))),
		RedisAddr:   envOr("OCULAR_REDIS_ADDR", "localhost:6379"),
		CacheTTL:    envDuration("OCULAR_CACHE_TTL", 0),

		HistoryDriver: strings.ToLower(envOr("OCULAR_HISTORY_DRIVER", "none")),
		HistoryDSN:    os.Getenv("OCULAR_HISTORY_DSN"),

		ExportDir: os.Getenv("OCULAR_EXPORT_DIR"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
