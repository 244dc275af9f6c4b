package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session store backends.
const (
	SessionMemory = "memory"
	SessionFile   = "file"
	SessionRedis  = "redis"
)

var defaultTabRoutes = []string{
	"/pages/index/index",
	"/pages/blog/index",
	"/pages/question-bank/index",
	"/pages/tools/index",
}

type Config struct {
	Port string

	// Remote backend
	ServerURL   string
	HTTPTimeout time.Duration

	// Gateway auth; empty disables it
	GatewayAPIKey string
	CORSOrigins   []string

	// Session store
	SessionBackend string
	SessionFile    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string

	// RSS
	FeedsFile     string
	FeedMaxItems  int
	FeedUserAgent string

	// Image export
	AlbumDir  string
	SaveDelay time.Duration
	BatchTTL  time.Duration

	// Import uploads
	MaxUploadBytes  int64
	PDFTextFallback bool

	// Reader
	ScrollThreshold float64

	// Navigation
	LoginRoute string
	TabRoutes  []string

	// Pages idle longer than this are unloaded
	PageTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		ServerURL:   strings.TrimRight(envOr("SERVER_URL", "http://localhost:5000"), "/"),
		HTTPTimeout: envDuration("HTTP_TIMEOUT", 30*time.Second),

		GatewayAPIKey: os.Getenv("GATEWAY_API_KEY"),
		CORSOrigins:   envList("CORS_ORIGINS", []string{"*"}),

		SessionBackend: strings.ToLower(envOr("SESSION_BACKEND", SessionFile)),
		SessionFile:    envOr("SESSION_FILE", "./rssmd-session.json"),
		RedisAddr:      envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envInt("REDIS_DB", 0),
		RedisPrefix:    envOr("REDIS_PREFIX", "rssmd:"),

		FeedsFile:     os.Getenv("FEEDS_FILE"),
		FeedMaxItems:  envInt("FEED_MAX_ITEMS", 20),
		FeedUserAgent: envOr("FEED_USER_AGENT", "rssmd/1.0"),

		AlbumDir:  envOr("ALBUM_DIR", "./album"),
		SaveDelay: envDuration("SAVE_DELAY", 500*time.Millisecond),
		BatchTTL:  envDuration("BATCH_TTL", 1*time.Hour),

		MaxUploadBytes:  envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB
		PDFTextFallback: envBool("PDF_FALLBACK_PDFTOTEXT", false),

		ScrollThreshold: envFloat("SCROLL_THRESHOLD", 150),

		LoginRoute: envOr("LOGIN_ROUTE", "/pages/index/index"),
		TabRoutes:  envList("TAB_ROUTES", defaultTabRoutes),

		PageTTL: envDuration("PAGE_TTL", 30*time.Minute),
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.FeedMaxItems <= 0 {
		cfg.FeedMaxItems = 20
	}
	if cfg.SaveDelay < 0 {
		cfg.SaveDelay = 0
	}
	if cfg.BatchTTL <= 0 {
		cfg.BatchTTL = 1 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.ScrollThreshold <= 0 {
		cfg.ScrollThreshold = 150
	}
	if cfg.PageTTL <= 0 {
		cfg.PageTTL = 30 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SERVER_URL must be an http(s) URL, got %q", c.ServerURL)
	}
	switch c.SessionBackend {
	case SessionMemory, SessionRedis:
	case SessionFile:
		if c.SessionFile == "" {
			return fmt.Errorf("SESSION_FILE is required for the file session backend")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be memory, file or redis, got %q", c.SessionBackend)
	}
	if !strings.HasPrefix(c.LoginRoute, "/") {
		return fmt.Errorf("LOGIN_ROUTE must be an absolute route, got %q", c.LoginRoute)
	}
	if len(c.TabRoutes) == 0 {
		return fmt.Errorf("TAB_ROUTES must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
