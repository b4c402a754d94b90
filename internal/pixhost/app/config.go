package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/pixhost/pkg/httpx"
	"github.com/aussiebroadwan/pixhost/pkg/jwtx"
)

// Blob drivers selectable with BLOB_DRIVER.
const (
	BlobDriverFile = "file"
	BlobDriverS3   = "s3"
)

type Config struct {
	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)
	BaseURL   string // Public origin, used for blob URLs and the session issuer (default: http://localhost:<port>)

	DatabaseFile string // Path to SQLite database file (default: ./pixhost.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)

	SessionSecret string        // Required: HMAC key for the login cookie, at least 32 bytes
	SessionTTL    time.Duration // Login cookie lifetime (default: 12h)

	AccessTokenTTL time.Duration // Access token lifetime (default: 1h)
	AuthCodeTTL    time.Duration // Authorization code lifetime (default: 5m)
	ResourceScope  string        // Scope required on the image API (default: profile)

	BlobDriver     string // file or s3 (default: file)
	BlobDir        string // Directory for the file driver (default: ./blobs)
	S3             S3Config
	MaxUploadBytes int64 // Upload body limit (default: 10MiB)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	TokenRetention       time.Duration // How long dead tokens are kept (default: 24h)

	StrictLimit    httpx.RateLimitConfig
	ModerateLimit  httpx.RateLimitConfig
	TrustedProxies []netip.Prefix // Proxies allowed to set X-Forwarded-For (default: none)
}

// S3Config configures the s3 blob driver.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string        // Optional: S3-compatible endpoint such as MinIO
	PathStyle       bool          // Optional: path-style addressing, usually with Endpoint
	PresignTTL      time.Duration // Lifetime of presigned download URLs (default: 15m)
	AccessKeyID     string        // Optional: static credentials, else the AWS default chain
	SecretAccessKey string
	CreateBucket    bool // Create the bucket at startup if missing
}

// LoadConfig reads the environment, after loading ENV_FILE (default .env)
// when it exists. Variables already set win over the file.
func LoadConfig() (Config, error) {
	envFile := getEnvOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := Config{
		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),
		BaseURL:   os.Getenv("BASE_URL"),

		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "pixhost.db"),
		PepperFile:   getEnvOrDefault("PEPPER_FILE", "pepper"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("SESSION_TTL", jwtx.DefaultSessionTTL),

		AccessTokenTTL: getEnvDurationOrDefault("ACCESS_TOKEN_TTL", time.Hour),
		AuthCodeTTL:    getEnvDurationOrDefault("AUTH_CODE_TTL", 5*time.Minute),
		ResourceScope:  getEnvOrDefault("RESOURCE_SCOPE", "profile"),

		BlobDriver: strings.ToLower(getEnvOrDefault("BLOB_DRIVER", BlobDriverFile)),
		BlobDir:    getEnvOrDefault("BLOB_DIR", "blobs"),
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          os.Getenv("S3_REGION"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			PathStyle:       getEnvBoolOrDefault("S3_PATH_STYLE", false),
			PresignTTL:      getEnvDurationOrDefault("S3_PRESIGN_TTL", 15*time.Minute),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			CreateBucket:    getEnvBoolOrDefault("S3_CREATE_BUCKET", false),
		},
		MaxUploadBytes: int64(getEnvIntOrDefault("MAX_UPLOAD_BYTES", 10<<20)),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		TokenRetention:       getEnvDurationOrDefault("TOKEN_RETENTION", 24*time.Hour),

		StrictLimit:   httpx.RateLimitFromEnv("STRICT", httpx.StrictLimit),
		ModerateLimit: httpx.RateLimitFromEnv("MODERATE", httpx.ModerateLimit),
	}

	proxies, err := httpx.ParseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot start with.
func (c Config) Validate() error {
	if len(c.SessionSecret) < jwtx.MinSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", jwtx.MinSecretLength)
	}

	switch c.BlobDriver {
	case BlobDriverFile:
	case BlobDriverS3:
		if c.S3.Bucket == "" {
			return errors.New("S3_BUCKET is required when BLOB_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.BlobDriver)
	}

	if c.ResourceScope == "" {
		return errors.New("RESOURCE_SCOPE must not be empty")
	}
	return nil
}

// SecureCookies reports whether the session cookie should be marked Secure.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
