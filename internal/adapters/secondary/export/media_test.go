package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitImage(t *testing.T) {
	dir := t.TempDir()

	t.Run("small image keeps its size", func(t *testing.T) {
		path := writePNG(t, dir, "small.png", 40, 20)

		fitted, err := FitImage(path, 100, 100)
		require.NoError(t, err)
		assert.Equal(t, 40, fitted.Width)
		assert.Equal(t, 20, fitted.Height)
		assert.InDelta(t, 2.0, fitted.Aspect(), 0.001)

		cfg, err := DecodeConfig(fitted.PNG)
		require.NoError(t, err)
		assert.Equal(t, 40, cfg.Width)
	})

	t.Run("large image scaled down keeping aspect", func(t *testing.T) {
		path := writePNG(t, dir, "large.png", 400, 100)

		fitted, err := FitImage(path, 200, 200)
		require.NoError(t, err)
		assert.Equal(t, 200, fitted.Width)
		assert.Equal(t, 50, fitted.Height)

		cfg, err := DecodeConfig(fitted.PNG)
		require.NoError(t, err)
		assert.Equal(t, 200, cfg.Width)
		assert.Equal(t, 50, cfg.Height)
	})

	t.Run("non image extension", func(t *testing.T) {
		_, err := FitImage(filepath.Join(dir, "clip.mp4"), 100, 100)
		assert.Error(t, err)
	})

	t.Run("corrupt image", func(t *testing.T) {
		path := filepath.Join(dir, "broken.png")
		require.NoError(t, os.WriteFile(path, []byte("not a png"), 0600))
		_, err := FitImage(path, 100, 100)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FitPicture(filepath.Join(dir, "missing.png"))
		assert.Error(t, err)
	})
}

func TestPlaceInBox(t *testing.T) {
	t.Run("wide image fills width", func(t *testing.T) {
		x, y, w, h := placeInBox(2, 0, 0, 100, 100)
		assert.Equal(t, 0.0, x)
		assert.Equal(t, 25.0, y)
		assert.Equal(t, 100.0, w)
		assert.Equal(t, 50.0, h)
	})

	t.Run("tall image fills height", func(t *testing.T) {
		x, y, w, h := placeInBox(0.5, 10, 10, 100, 100)
		assert.Equal(t, 35.0, x)
		assert.Equal(t, 10.0, y)
		assert.Equal(t, 50.0, w)
		assert.Equal(t, 100.0, h)
	})
}
