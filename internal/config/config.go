// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names the record backend the server talks to.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendSupabase Backend = "supabase"

	// BackendNone serves the bundled data only. The admin panel stays
	// reachable but every write fails.
	BackendNone Backend = "none"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	PublicURL  string
	SiteTitle  string
	Tagline    string

	Backend Backend
	DBPath  string

	// MediaDir is where the sqlite backend keeps uploaded images.
	MediaDir string

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// AdminEmails are granted the admin role at startup (sqlite backend).
	AdminEmails []string

	SessionTTL   time.Duration
	SuccessDelay time.Duration
	CookieSecure bool
}

// LoadEnvFile reads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables and returns a validated Config.
// Optional variables with defaults: FOLIO_LISTEN_ADDR (127.0.0.1:8080),
// FOLIO_PUBLIC_URL (http://<listen addr>), FOLIO_BACKEND (sqlite),
// FOLIO_DB_PATH (folio.db), FOLIO_MEDIA_DIR (media), FOLIO_SESSION_TTL (168h),
// FOLIO_SUCCESS_DELAY (1.5s), FOLIO_COOKIE_SECURE (false).
// The supabase backend requires FOLIO_SUPABASE_URL and FOLIO_SUPABASE_ANON_KEY.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:   "127.0.0.1:8080",
		SiteTitle:    "Folio",
		Backend:      BackendSQLite,
		DBPath:       "folio.db",
		MediaDir:     "media",
		AdminEmails:  []string{},
		SessionTTL:   7 * 24 * time.Hour,
		SuccessDelay: 1500 * time.Millisecond,
	}

	if v, ok := os.LookupEnv("FOLIO_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	cfg.PublicURL = "http://" + cfg.ListenAddr
	if v, ok := os.LookupEnv("FOLIO_PUBLIC_URL"); ok && v != "" {
		cfg.PublicURL = strings.TrimSuffix(v, "/")
	}
	if v, ok := os.LookupEnv("FOLIO_SITE_TITLE"); ok && v != "" {
		cfg.SiteTitle = v
	}
	cfg.Tagline = os.Getenv("FOLIO_TAGLINE")

	if v, ok := os.LookupEnv("FOLIO_BACKEND"); ok && v != "" {
		cfg.Backend = Backend(strings.ToLower(strings.TrimSpace(v)))
	}
	switch cfg.Backend {
	case BackendSQLite, BackendSupabase, BackendNone:
	default:
		return nil, fmt.Errorf("FOLIO_BACKEND must be sqlite, supabase or none, got %q", cfg.Backend)
	}

	if v, ok := os.LookupEnv("FOLIO_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("FOLIO_MEDIA_DIR"); ok {
		cfg.MediaDir = v
	}

	cfg.SupabaseURL = os.Getenv("FOLIO_SUPABASE_URL")
	cfg.SupabaseAnonKey = os.Getenv("FOLIO_SUPABASE_ANON_KEY")
	cfg.SupabaseServiceKey = os.Getenv("FOLIO_SUPABASE_SERVICE_KEY")
	if cfg.Backend == BackendSupabase {
		if cfg.SupabaseURL == "" {
			return nil, errors.New("FOLIO_SUPABASE_URL is required for the supabase backend")
		}
		if cfg.SupabaseAnonKey == "" {
			return nil, errors.New("FOLIO_SUPABASE_ANON_KEY is required for the supabase backend")
		}
	}

	if v, ok := os.LookupEnv("FOLIO_ADMIN_EMAILS"); ok && v != "" {
		for _, email := range strings.Split(v, ",") {
			email = strings.ToLower(strings.TrimSpace(email))
			if email != "" {
				cfg.AdminEmails = append(cfg.AdminEmails, email)
			}
		}
	}

	var err error
	if cfg.SessionTTL, err = durationEnv("FOLIO_SESSION_TTL", cfg.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.SuccessDelay, err = durationEnv("FOLIO_SUCCESS_DELAY", cfg.SuccessDelay); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("FOLIO_COOKIE_SECURE"); ok && v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("FOLIO_COOKIE_SECURE has invalid boolean %q: %w", v, err)
		}
		cfg.CookieSecure = secure
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}
