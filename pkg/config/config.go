package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Azure  AzureConfig
	Server ServerConfig
	App    AppConfig
}

// AzureConfig holds the Computer Vision credentials. Endpoint is the full
// Read analyze URL, e.g. https://<name>.cognitiveservices.azure.com/vision/v3.2/read/analyze
type AzureConfig struct {
	Key      string
	Endpoint string
}

type ServerConfig struct {
	Host         string
	Port         string
	Mode         string
	WriteTimeout time.Duration
}

type AppConfig struct {
	FontPath          string
	MaxUploadSize     int64
	MaxRequestSize    int64
	AllowedExtensions []string
	PollAttempts      int
	PollInterval      time.Duration
	ArtifactTTL       time.Duration
	EnhanceImages     bool
}

// Load reads the optional .env files and then the process environment.
// Values already present in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("WRITE_TIMEOUT", 15*time.Minute)
	v.SetDefault("FONT_PATH", "DejaVuSans.ttf")
	v.SetDefault("MAX_UPLOAD_SIZE", 4*1024*1024) // 4MB
	v.SetDefault("MAX_REQUEST_SIZE", 64*1024*1024)
	v.SetDefault("ALLOWED_EXTENSIONS", ".jpg,.jpeg,.png,.pdf")
	v.SetDefault("POLL_ATTEMPTS", 20)
	v.SetDefault("POLL_INTERVAL", 2*time.Second)
	v.SetDefault("ARTIFACT_TTL", 30*time.Minute)
	v.SetDefault("ENHANCE_IMAGES", false)

	v.AutomaticEnv()

	cfg := &Config{
		Azure: AzureConfig{
			Key:      v.GetString("AZURE_KEY"),
			Endpoint: v.GetString("AZURE_ENDPOINT"),
		},
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetString("PORT"),
			Mode:         v.GetString("GIN_MODE"),
			WriteTimeout: v.GetDuration("WRITE_TIMEOUT"),
		},
		App: AppConfig{
			FontPath:          v.GetString("FONT_PATH"),
			MaxUploadSize:     v.GetInt64("MAX_UPLOAD_SIZE"),
			MaxRequestSize:    v.GetInt64("MAX_REQUEST_SIZE"),
			AllowedExtensions: splitList(v.GetString("ALLOWED_EXTENSIONS")),
			PollAttempts:      v.GetInt("POLL_ATTEMPTS"),
			PollInterval:      v.GetDuration("POLL_INTERVAL"),
			ArtifactTTL:       v.GetDuration("ARTIFACT_TTL"),
			EnhanceImages:     v.GetBool("ENHANCE_IMAGES"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Azure.Key == "" {
		return fmt.Errorf("AZURE_KEY is required")
	}

	if c.Azure.Endpoint == "" {
		return fmt.Errorf("AZURE_ENDPOINT is required")
	}

	u, err := url.Parse(c.Azure.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("AZURE_ENDPOINT must be an absolute http(s) URL, got %q", c.Azure.Endpoint)
	}

	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.Server.Mode)
	}

	if c.App.FontPath == "" {
		return fmt.Errorf("FONT_PATH is required")
	}

	if c.App.MaxUploadSize < 1 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.App.MaxUploadSize)
	}

	if c.App.MaxRequestSize < c.App.MaxUploadSize {
		return fmt.Errorf("MAX_REQUEST_SIZE must be at least MAX_UPLOAD_SIZE, got %d", c.App.MaxRequestSize)
	}

	if len(c.App.AllowedExtensions) == 0 {
		return fmt.Errorf("ALLOWED_EXTENSIONS must list at least one extension")
	}

	if c.App.PollAttempts < 1 {
		return fmt.Errorf("POLL_ATTEMPTS must be at least 1, got %d", c.App.PollAttempts)
	}

	if c.App.PollInterval < 0 {
		return fmt.Errorf("POLL_INTERVAL must not be negative, got %s", c.App.PollInterval)
	}

	if c.App.ArtifactTTL <= 0 {
		return fmt.Errorf("ARTIFACT_TTL must be positive, got %s", c.App.ArtifactTTL)
	}

	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}
