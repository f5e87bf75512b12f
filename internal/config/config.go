// Package config loads settings for the page host and the storefront client
// from the environment (and an optional .env file).
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every environment-driven setting.
type Config struct {
	Env          string
	Port         string
	DatabaseURL  string
	JWTSecret    string
	AssetVersion string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	// Client side.
	StorefrontURL    string
	LoginPath        string
	SurfaceForbidden bool
	ClientEmail      string
	ClientPassword   string

	ResetRatePerMin int

	// Bootstrap administrator, created on first start when missing.
	AdminEmail    string
	AdminPassword string
	AdminName     string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         getenv("PORT", "3000"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AssetVersion: getenv("ASSET_VERSION", "1"),

		SupabaseURL:    os.Getenv("SUPABASE_URL"),
		SupabaseKey:    os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket: getenv("SUPABASE_BUCKET", "banners"),

		StorefrontURL:    getenv("STOREFRONT_URL", "http://localhost:3000"),
		LoginPath:        getenv("LOGIN_PATH", "/login"),
		SurfaceForbidden: getbool("SURFACE_FORBIDDEN", false),
		ClientEmail:      os.Getenv("STOREFRONT_EMAIL"),
		ClientPassword:   os.Getenv("STOREFRONT_PASSWORD"),

		ResetRatePerMin: getint("RESET_RATE_PER_MIN", 5),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getenv("ADMIN_NAME", "Administrator"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
	}
}

// Dev reports whether the app runs in development mode.
func (c Config) Dev() bool { return c.Env == "dev" }

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
