package config

import (
	"os"
	"strconv"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// ConfigMerger implements the ConfigMerger interface
type ConfigMerger struct{}

// NewConfigMerger creates a new configuration merger
func NewConfigMerger() *ConfigMerger {
	return &ConfigMerger{}
}

// Merge merges multiple configurations with later configs taking precedence
func (m *ConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	if len(configs) == 0 {
		return GetDefaultConfig()
	}

	result := deepCopy(configs[0])
	if result == nil {
		result = &entities.Config{}
	}

	for i := 1; i < len(configs); i++ {
		if configs[i] != nil {
			m.mergeInto(result, configs[i])
		}
	}

	return result
}

// ApplyFlags applies CLI flag overrides to a configuration
func (m *ConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	result := deepCopy(config)

	if port, ok := flags["port"].(int); ok && port > 0 {
		result.Server.Port = port
	}

	if host, ok := flags["host"].(string); ok && host != "" {
		result.Server.Host = host
	}

	if output, ok := flags["output"].(string); ok && output != "" {
		result.Output.Directory = output
	}

	if name, ok := flags["deck-name"].(string); ok && name != "" {
		result.Output.DeckName = name
	}

	if font, ok := flags["pdf-font"].(string); ok && font != "" {
		result.Output.PDFFont = font
	}

	if translations, ok := flags["translations"].(string); ok && translations != "" {
		result.Translation.File = translations
	}

	if verbose, ok := flags["verbose"].(bool); ok && verbose {
		result.Logging.Verbose = true
		result.Logging.Level = string(entities.LogLevelDebug)
	}

	return result
}

// ApplyEnvVars applies environment variable overrides to a configuration
func (m *ConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	result := deepCopy(config)

	if host := os.Getenv("TEXDECK_HOST"); host != "" {
		result.Server.Host = host
	}

	if portStr := os.Getenv("TEXDECK_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			result.Server.Port = port
		}
	}

	if dir := os.Getenv("TEXDECK_OUTPUT_DIR"); dir != "" {
		result.Output.Directory = dir
	}

	if sizeStr := os.Getenv("TEXDECK_MAX_UPLOAD_MB"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			result.Output.MaxUploadMB = size
		}
	}

	if name := os.Getenv("TEXDECK_DECK_NAME"); name != "" {
		result.Output.DeckName = name
	}

	if font := os.Getenv("TEXDECK_PDF_FONT"); font != "" {
		result.Output.PDFFont = font
	}

	if file := os.Getenv("TEXDECK_TRANSLATIONS"); file != "" {
		result.Translation.File = file
	}

	if level := os.Getenv("TEXDECK_LOG_LEVEL"); level != "" {
		result.Logging.Level = level
	}

	return result
}

// mergeInto merges source configuration into target configuration
func (m *ConfigMerger) mergeInto(target, source *entities.Config) {
	// Server config
	if source.Server.Port != 0 {
		target.Server.Port = source.Server.Port
	}
	if source.Server.Host != "" {
		target.Server.Host = source.Server.Host
	}
	if source.Server.ReadTimeout != 0 {
		target.Server.ReadTimeout = source.Server.ReadTimeout
	}
	if source.Server.WriteTimeout != 0 {
		target.Server.WriteTimeout = source.Server.WriteTimeout
	}
	if source.Server.ShutdownTimeout != 0 {
		target.Server.ShutdownTimeout = source.Server.ShutdownTimeout
	}
	if source.Server.Environment != "" {
		target.Server.Environment = source.Server.Environment
	}
	if len(source.Server.CORSOrigins) > 0 {
		target.Server.CORSOrigins = append([]string(nil), source.Server.CORSOrigins...)
	}

	// Output config
	if source.Output.Directory != "" {
		target.Output.Directory = source.Output.Directory
	}
	if source.Output.DeckName != "" {
		target.Output.DeckName = source.Output.DeckName
	}
	if source.Output.MaxUploadMB != 0 {
		target.Output.MaxUploadMB = source.Output.MaxUploadMB
	}
	if source.Output.MaxAgeSeconds != 0 {
		target.Output.MaxAgeSeconds = source.Output.MaxAgeSeconds
	}
	if source.Output.CleanupIntervalSeconds != 0 {
		target.Output.CleanupIntervalSeconds = source.Output.CleanupIntervalSeconds
	}
	if source.Output.PDFFont != "" {
		target.Output.PDFFont = source.Output.PDFFont
	}

	// Translation config
	if source.Translation.File != "" {
		target.Translation.File = source.Translation.File
	}

	// Watcher config
	if source.Watcher.IntervalMs != 0 {
		target.Watcher.IntervalMs = source.Watcher.IntervalMs
	}
	if source.Watcher.DebounceMs != 0 {
		target.Watcher.DebounceMs = source.Watcher.DebounceMs
	}

	// Logging config
	if source.Logging.Level != "" {
		target.Logging.Level = source.Logging.Level
	}
	// TOML cannot tell false from unset, so only an explicit true wins
	if source.Logging.Verbose {
		target.Logging.Verbose = true
	}
}

// deepCopy creates a deep copy of a configuration
func deepCopy(src *entities.Config) *entities.Config {
	if src == nil {
		return nil
	}

	dst := *src
	if src.Server.CORSOrigins != nil {
		dst.Server.CORSOrigins = make([]string, len(src.Server.CORSOrigins))
		copy(dst.Server.CORSOrigins, src.Server.CORSOrigins)
	}

	return &dst
}

// Ensure ConfigMerger implements ports.ConfigMerger
var _ ports.ConfigMerger = (*ConfigMerger)(nil)
