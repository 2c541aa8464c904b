package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration.
type Config struct {
	Env                string
	HTTPPort           string
	DatabaseURL        string
	AutoMigrate        bool
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	PublicBaseURL      string
	UploadDir          string
	StorageBucket      string
	GoogleClientID     string
	FirebaseProjectID  string
	FirebaseCredFile   string
	UpdateMinVersion   string
	UpdateLatestVer    string
	UpdateIOSURL       string
	UpdateAndroidURL   string
	RateLimitPerMinute int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPPort:           getEnv("HTTP_PORT", "3000"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AutoMigrate:        getBool("AUTO_MIGRATE", true),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		StorageBucket:      os.Getenv("STORAGE_BUCKET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		FirebaseProjectID:  os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredFile:   os.Getenv("FIREBASE_CREDENTIALS"),
		UpdateMinVersion:   getEnv("UPDATE_MIN_VERSION", "1.0.0"),
		UpdateLatestVer:    getEnv("UPDATE_LATEST_VERSION", "1.0.0"),
		UpdateIOSURL:       os.Getenv("UPDATE_IOS_URL"),
		UpdateAndroidURL:   os.Getenv("UPDATE_ANDROID_URL"),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 200),
		ReadTimeout:        getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// IsProduction reports whether error details should be hidden from clients.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
