package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestTOMLLoader_LoadGlobal(t *testing.T) {
	t.Run("creates config on first run", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		loader := &TOMLLoader{globalPath: globalPath, localName: LocalConfigName}

		config, err := loader.LoadGlobal(context.Background())
		require.NoError(t, err)
		require.NotNil(t, config)

		_, err = os.Stat(globalPath)
		assert.NoError(t, err)

		assert.Equal(t, DefaultHost, config.Server.Host)
		assert.Equal(t, DefaultPort, config.Server.Port)
		assert.Equal(t, DefaultOutputDir, config.Output.Directory)
		assert.Equal(t, 3600, config.Output.MaxAgeSeconds)
		assert.Equal(t, 16, config.Output.MaxUploadMB)
		assert.Equal(t, 200, config.Watcher.IntervalMs)
	})

	t.Run("loads existing config", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		writeConfig(t, globalPath, `
[server]
host = "0.0.0.0"
port = 8080

[output]
directory = "/var/lib/texdeck"
deck_name = "Quarterly"
max_age_seconds = 600

[translation]
file = "glossary.yaml"
`)
		loader := &TOMLLoader{globalPath: globalPath, localName: LocalConfigName}

		config, err := loader.LoadGlobal(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", config.Server.Host)
		assert.Equal(t, 8080, config.Server.Port)
		assert.Equal(t, "/var/lib/texdeck", config.Output.Directory)
		assert.Equal(t, "Quarterly", config.Output.DeckName)
		assert.Equal(t, 600, config.Output.MaxAgeSeconds)
		assert.Equal(t, "glossary.yaml", config.Translation.File)
	})

	t.Run("fails with invalid TOML", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		writeConfig(t, globalPath, "[server\nhost = \"localhost\"\n")
		loader := &TOMLLoader{globalPath: globalPath, localName: LocalConfigName}

		_, err := loader.LoadGlobal(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parsing TOML")
	})

	t.Run("fails with invalid config values", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		writeConfig(t, globalPath, "[server]\nport = -1\n")
		loader := &TOMLLoader{globalPath: globalPath, localName: LocalConfigName}

		_, err := loader.LoadGlobal(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})

	t.Run("fails with unknown key", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		writeConfig(t, globalPath, "[theme]\nname = \"dark\"\n")
		loader := &TOMLLoader{globalPath: globalPath, localName: LocalConfigName}

		_, err := loader.LoadGlobal(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown config key")
	})
}

func TestTOMLLoader_LoadLocal(t *testing.T) {
	t.Run("loads partial local config", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, filepath.Join(dir, LocalConfigName), `
[output]
deck_name = "Lecture"
pdf_font = "fonts/DejaVuSans.ttf"

[watcher]
interval_ms = 150
`)
		loader := &TOMLLoader{globalPath: "unused", localName: LocalConfigName}

		config, err := loader.LoadLocal(context.Background(), dir)
		require.NoError(t, err)
		require.NotNil(t, config)

		assert.Equal(t, "Lecture", config.Output.DeckName)
		assert.Equal(t, "fonts/DejaVuSans.ttf", config.Output.PDFFont)
		assert.Empty(t, config.Output.Directory)
		assert.Equal(t, 150, config.Watcher.IntervalMs)
	})

	t.Run("returns nil for non-existent local config", func(t *testing.T) {
		loader := &TOMLLoader{globalPath: "unused", localName: LocalConfigName}

		config, err := loader.LoadLocal(context.Background(), t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, config)
	})

	t.Run("fails with invalid local config", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, filepath.Join(dir, LocalConfigName), "[logging]\nlevel = \"trace\"\n")
		loader := &TOMLLoader{globalPath: "unused", localName: LocalConfigName}

		_, err := loader.LoadLocal(context.Background(), dir)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logging config")
	})
}

func TestTOMLLoader_LoadFile(t *testing.T) {
	loader := NewTOMLLoader()

	t.Run("loads named file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.toml")
		writeConfig(t, path, "[server]\nport = 7000\n")

		config, err := loader.LoadFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, 7000, config.Server.Port)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := loader.LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})
}

func TestTOMLLoader_CreateDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")
	loader := NewTOMLLoader()

	require.NoError(t, loader.CreateDefaults(context.Background(), configPath))

	config, err := loader.loadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, DefaultHost, config.Server.Host)
	assert.Equal(t, DefaultPort, config.Server.Port)
	assert.Equal(t, "LaTeX_Presentation", config.Output.DeckName)
}

func TestTOMLLoader_GetPaths(t *testing.T) {
	loader := NewTOMLLoader()

	globalPath := loader.GetGlobalPath()
	assert.Contains(t, globalPath, ".config")
	assert.Contains(t, globalPath, "texdeck")
	assert.Equal(t, "config.toml", filepath.Base(globalPath))

	assert.Equal(t, filepath.Join("/some/project", "texdeck.toml"), loader.GetLocalPath("/some/project"))
}

func TestTOMLLoader_loadConfig(t *testing.T) {
	t.Run("fails with non-existent file", func(t *testing.T) {
		loader := NewTOMLLoader()
		_, err := loader.loadConfig("/non/existent/file.toml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "reading config")
	})
}
