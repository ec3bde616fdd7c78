package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv registers cleanups for keys and then removes them so that Load
// only sees what the test provides.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

var allKeys = []string{
	"AZURE_KEY", "AZURE_ENDPOINT", "SERVER_HOST", "PORT", "GIN_MODE", "WRITE_TIMEOUT",
	"FONT_PATH", "MAX_UPLOAD_SIZE", "MAX_REQUEST_SIZE", "ALLOWED_EXTENSIONS", "POLL_ATTEMPTS",
	"POLL_INTERVAL", "ARTIFACT_TTL", "ENHANCE_IMAGES",
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("AZURE_KEY", "secret")
	t.Setenv("AZURE_ENDPOINT", "https://example.cognitiveservices.azure.com/vision/v3.2/read/analyze")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Azure.Key)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "DejaVuSans.ttf", cfg.App.FontPath)
	assert.Equal(t, int64(4*1024*1024), cfg.App.MaxUploadSize)
	assert.Equal(t, int64(64*1024*1024), cfg.App.MaxRequestSize)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".pdf"}, cfg.App.AllowedExtensions)
	assert.Equal(t, 20, cfg.App.PollAttempts)
	assert.Equal(t, 2*time.Second, cfg.App.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.App.ArtifactTTL)
	assert.False(t, cfg.App.EnhanceImages)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("AZURE_KEY", "secret")
	t.Setenv("AZURE_ENDPOINT", "http://localhost:5000/analyze")
	t.Setenv("PORT", "9090")
	t.Setenv("POLL_ATTEMPTS", "3")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("ALLOWED_EXTENSIONS", "PNG, .jpg")
	t.Setenv("ENHANCE_IMAGES", "true")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.App.PollAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.App.PollInterval)
	assert.Equal(t, []string{".png", ".jpg"}, cfg.App.AllowedExtensions)
	assert.True(t, cfg.App.EnhanceImages)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t, allKeys...)
	path := filepath.Join(t.TempDir(), ".env")
	content := "AZURE_KEY=from-file\nAZURE_ENDPOINT=https://vision.example.com/read/analyze\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Azure.Key)
	assert.Equal(t, "https://vision.example.com/read/analyze", cfg.Azure.Endpoint)
}

func TestLoadRequiresCredentials(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("AZURE_ENDPOINT", "https://vision.example.com/read/analyze")

	_, err := Load(missingEnvFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_KEY")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Azure: AzureConfig{Key: "k", Endpoint: "https://vision.example.com/read/analyze"},
			App: AppConfig{
				FontPath:          "font.ttf",
				MaxUploadSize:     1024,
				MaxRequestSize:    4096,
				AllowedExtensions: []string{".png"},
				PollAttempts:      1,
				PollInterval:      time.Second,
				ArtifactTTL:       time.Minute,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative endpoint", mutate: func(c *Config) { c.Azure.Endpoint = "/read/analyze" }, errMsg: "AZURE_ENDPOINT"},
		{name: "ftp endpoint", mutate: func(c *Config) { c.Azure.Endpoint = "ftp://host/x" }, errMsg: "AZURE_ENDPOINT"},
		{name: "unknown mode", mutate: func(c *Config) { c.Server.Mode = "prod" }, errMsg: "GIN_MODE"},
		{name: "no font", mutate: func(c *Config) { c.App.FontPath = "" }, errMsg: "FONT_PATH"},
		{name: "zero size", mutate: func(c *Config) { c.App.MaxUploadSize = 0 }, errMsg: "MAX_UPLOAD_SIZE"},
		{name: "request cap below file cap", mutate: func(c *Config) { c.App.MaxRequestSize = 512 }, errMsg: "MAX_REQUEST_SIZE"},
		{name: "no extensions", mutate: func(c *Config) { c.App.AllowedExtensions = nil }, errMsg: "ALLOWED_EXTENSIONS"},
		{name: "zero attempts", mutate: func(c *Config) { c.App.PollAttempts = 0 }, errMsg: "POLL_ATTEMPTS"},
		{name: "negative interval", mutate: func(c *Config) { c.App.PollInterval = -time.Second }, errMsg: "POLL_INTERVAL"},
		{name: "zero ttl", mutate: func(c *Config) { c.App.ArtifactTTL = 0 }, errMsg: "ARTIFACT_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
