package medextract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the extractor and its HTTP surface.
type Config struct {
	// CatalogPath points at a YAML or JSON field catalogue. Empty uses the
	// built-in catalogue.
	CatalogPath string `json:"catalog_path" yaml:"catalog_path"`

	// HTTP server
	Addr              string   `json:"addr" yaml:"addr"`
	MaxUploadBytes    int64    `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	AllowedExtensions []string `json:"allowed_extensions" yaml:"allowed_extensions"` // lower-case, without the dot
	UploadDir         string   `json:"upload_dir" yaml:"upload_dir"`                 // temp files for uploads; empty uses os.TempDir()
	APIKey            string   `json:"api_key" yaml:"api_key"`                       // bearer token; empty disables auth
	CORSOrigins       string   `json:"cors_origins" yaml:"cors_origins"`

	// Logging: debug, info, warn, error
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// DefaultConfig returns a Config matching the original service: PDF uploads
// only, 16 MB request limit.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		MaxUploadBytes:    16 << 20,
		AllowedExtensions: []string{"pdf"},
		LogLevel:          "info",
	}
}

// LoadConfig reads a JSON or YAML config file on top of DefaultConfig. The
// format is chosen by extension; anything other than .yaml/.yml is JSON.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from MEDEXTRACT_* environment variables.
func (c *Config) ApplyEnv() {
	c.CatalogPath = getEnv("MEDEXTRACT_CATALOG", c.CatalogPath)
	c.Addr = getEnv("MEDEXTRACT_ADDR", c.Addr)
	c.UploadDir = getEnv("MEDEXTRACT_UPLOAD_DIR", c.UploadDir)
	c.APIKey = getEnv("MEDEXTRACT_API_KEY", c.APIKey)
	c.CORSOrigins = getEnv("MEDEXTRACT_CORS_ORIGINS", c.CORSOrigins)
	c.LogLevel = getEnv("MEDEXTRACT_LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("MEDEXTRACT_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("MEDEXTRACT_ALLOWED_EXTENSIONS"); v != "" {
		var exts []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
		c.AllowedExtensions = exts
	}
}

// Validate checks the configuration and lower-cases extensions in place.
func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("%w: allowed_extensions is empty", ErrInvalidConfig)
	}
	for i, e := range c.AllowedExtensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e == "" {
			return fmt.Errorf("%w: empty entry in allowed_extensions", ErrInvalidConfig)
		}
		c.AllowedExtensions[i] = e
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
}

// Allows reports whether uploads with the given extension are accepted.
func (c *Config) Allows(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range c.AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
