package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/pixhost/pkg/httpx"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

// isolateEnv points ENV_FILE at a file that does not exist so a developer's
// .env cannot leak into the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SESSION_SECRET", testSessionSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.False(t, cfg.SecureCookies())
	require.Equal(t, time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 5*time.Minute, cfg.AuthCodeTTL)
	require.Equal(t, "profile", cfg.ResourceScope)
	require.Equal(t, BlobDriverFile, cfg.BlobDriver)
	require.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	require.Equal(t, httpx.StrictLimit, cfg.StrictLimit)
	require.Equal(t, httpx.ModerateLimit, cfg.ModerateLimit)
	require.Empty(t, cfg.TrustedProxies)
}

func TestLoadConfig_Overrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SESSION_SECRET", testSessionSecret)
	t.Setenv("BASE_URL", "https://img.example.com/")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("AUTH_CODE_TTL", "2")
	t.Setenv("BLOB_DRIVER", "S3")
	t.Setenv("S3_BUCKET", "pix")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "3")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "https://img.example.com", cfg.BaseURL)
	require.True(t, cfg.SecureCookies())
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 2*time.Minute, cfg.AuthCodeTTL)
	require.Equal(t, BlobDriverS3, cfg.BlobDriver)
	require.Equal(t, "pix", cfg.S3.Bucket)
	require.True(t, cfg.S3.PathStyle)
	require.Equal(t, 3, cfg.StrictLimit.Requests)
	require.Len(t, cfg.TrustedProxies, 2)
	require.Equal(t, "10.0.0.0/8", cfg.TrustedProxies[0].String())
}

func TestLoadConfig_BadTrustedProxies(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SESSION_SECRET", testSessionSecret)
	t.Setenv("TRUSTED_PROXIES", "not-an-ip")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "TRUSTED_PROXIES")
}

func TestLoadConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixhost.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"SESSION_SECRET="+testSessionSecret+"\nPORT=9090\nRESOURCE_SCOPE=images\n",
	), 0o600))
	t.Setenv("ENV_FILE", path)

	// Variables already in the environment win over the file.
	t.Setenv("PORT", "7070")

	// godotenv sets what it loads; make sure those do not outlive the test.
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("RESOURCE_SCOPE", "")
	require.NoError(t, os.Unsetenv("SESSION_SECRET"))
	require.NoError(t, os.Unsetenv("RESOURCE_SCOPE"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Port)
	require.Equal(t, "images", cfg.ResourceScope)
	require.Equal(t, testSessionSecret, cfg.SessionSecret)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := Config{
		SessionSecret: testSessionSecret,
		BlobDriver:    BlobDriverFile,
		ResourceScope: "profile",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short session secret", func(c *Config) { c.SessionSecret = "short" }, "SESSION_SECRET"},
		{"unknown driver", func(c *Config) { c.BlobDriver = "ftp" }, "BLOB_DRIVER"},
		{"s3 without bucket", func(c *Config) { c.BlobDriver = BlobDriverS3 }, "S3_BUCKET"},
		{"empty scope", func(c *Config) { c.ResourceScope = "" }, "RESOURCE_SCOPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}
