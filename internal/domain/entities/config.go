package entities

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Output      OutputConfig      `toml:"output"`
	Translation TranslationConfig `toml:"translation"`
	Watcher     WatcherConfig     `toml:"watcher"`
	Logging     LoggingConfig     `toml:"logging"`
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := c.Translation.Validate(); err != nil {
		return fmt.Errorf("translation config: %w", err)
	}

	if err := c.Watcher.Validate(); err != nil {
		return fmt.Errorf("watcher config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	Environment     string   `toml:"environment"`
	CORSOrigins     []string `toml:"cors_origins"`
}

// Validate validates server configuration
func (s ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	if strings.ContainsAny(s.Host, " !/") {
		return fmt.Errorf("invalid host: %s", s.Host)
	}

	if s.ReadTimeout < 0 {
		return errors.New("read timeout must be non-negative")
	}

	if s.WriteTimeout < 0 {
		return errors.New("write timeout must be non-negative")
	}

	if s.ShutdownTimeout < 0 {
		return errors.New("shutdown timeout must be non-negative")
	}

	for _, origin := range s.CORSOrigins {
		if origin == "" {
			return errors.New("CORS origin cannot be empty")
		}
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid CORS origin format: %s (must start with http:// or https://)", origin)
		}
	}

	return nil
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// GetReadTimeout returns the read timeout as a duration
func (s ServerConfig) GetReadTimeout() time.Duration {
	if s.ReadTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a duration
func (s ServerConfig) GetWriteTimeout() time.Duration {
	if s.WriteTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the shutdown timeout as a duration
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetCORSOrigins returns CORS origins with defaults if empty
func (s ServerConfig) GetCORSOrigins() []string {
	if len(s.CORSOrigins) == 0 {
		return []string{
			"http://localhost:5000",
			"http://127.0.0.1:5000",
		}
	}
	return s.CORSOrigins
}

// IsDevelopment returns true if the server is running in development mode
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development" || s.Environment == ""
}

// OutputConfig controls where artifacts go and how long they live
type OutputConfig struct {
	Directory              string `toml:"directory"`
	DeckName               string `toml:"deck_name"`
	MaxUploadMB            int    `toml:"max_upload_mb"`
	MaxAgeSeconds          int    `toml:"max_age_seconds"`
	CleanupIntervalSeconds int    `toml:"cleanup_interval_seconds"`

	// PDFFont is an optional TrueType font for documents whose text falls
	// outside cp1252
	PDFFont string `toml:"pdf_font"`
}

// Validate validates output configuration
func (o OutputConfig) Validate() error {
	if strings.TrimSpace(o.Directory) == "" {
		return errors.New("output directory cannot be empty")
	}

	if strings.ContainsAny(o.DeckName, `/\`) {
		return fmt.Errorf("deck name must not contain path separators: %s", o.DeckName)
	}

	if o.MaxUploadMB < 0 {
		return errors.New("max upload size must be non-negative")
	}

	if o.MaxAgeSeconds < 0 {
		return errors.New("max age must be non-negative")
	}

	if o.CleanupIntervalSeconds < 0 {
		return errors.New("cleanup interval must be non-negative")
	}

	if o.PDFFont != "" && !strings.EqualFold(filepath.Ext(o.PDFFont), ".ttf") {
		return fmt.Errorf("pdf font must be a .ttf file: %s", o.PDFFont)
	}

	return nil
}

// MediaDir returns the directory holding copied media files
func (o OutputConfig) MediaDir() string {
	return filepath.Join(o.Directory, "media")
}

// GetDeckName returns the artifact base name with default
func (o OutputConfig) GetDeckName() string {
	if o.DeckName == "" {
		return "LaTeX_Presentation"
	}
	return o.DeckName
}

// GetMaxUploadBytes returns the request size limit (16MB default)
func (o OutputConfig) GetMaxUploadBytes() int64 {
	if o.MaxUploadMB <= 0 {
		return 16 << 20
	}
	return int64(o.MaxUploadMB) << 20
}

// GetMaxAge returns the artifact retention (one hour default)
func (o OutputConfig) GetMaxAge() time.Duration {
	if o.MaxAgeSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(o.MaxAgeSeconds) * time.Second
}

// GetCleanupInterval returns the background purge period; zero disables it
func (o OutputConfig) GetCleanupInterval() time.Duration {
	return time.Duration(o.CleanupIntervalSeconds) * time.Second
}

// TranslationConfig points at an optional YAML glossary file
type TranslationConfig struct {
	File string `toml:"file"`
}

// Validate validates translation configuration
func (t TranslationConfig) Validate() error {
	if t.File != "" && filepath.Ext(t.File) != ".yaml" && filepath.Ext(t.File) != ".yml" {
		return fmt.Errorf("translation file must be YAML: %s", t.File)
	}
	return nil
}

// WatcherConfig contains file watcher configuration
type WatcherConfig struct {
	IntervalMs int `toml:"interval_ms"`
	DebounceMs int `toml:"debounce_ms"`
}

// Validate validates watcher configuration
func (w WatcherConfig) Validate() error {
	if w.IntervalMs != 0 && w.IntervalMs < 50 {
		return errors.New("watcher interval must be at least 50ms")
	}

	if w.DebounceMs < 0 {
		return errors.New("debounce time must be non-negative")
	}

	return nil
}

// GetInterval returns the watcher interval as a duration
func (w WatcherConfig) GetInterval() time.Duration {
	if w.IntervalMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(w.IntervalMs) * time.Millisecond
}

// GetDebounce returns the debounce time as a duration
func (w WatcherConfig) GetDebounce() time.Duration {
	if w.DebounceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// LogLevel represents logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level   string `toml:"level"`   // debug, info, warn, error
	Verbose bool   `toml:"verbose"` // Enable verbose logging
}

// Validate validates logging configuration
func (l LoggingConfig) Validate() error {
	switch LogLevel(l.Level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
		return nil
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l.Level)
	}
}

// GetLevel returns the log level with default
func (l LoggingConfig) GetLevel() LogLevel {
	if l.Level == "" {
		return LogLevelInfo
	}
	return LogLevel(l.Level)
}
