package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// RawLimit is the number of characters of raw body text kept on a slide
const RawLimit = 200

// imageExtensions lists the media that can be embedded; anything else
// (videos in particular) is skipped by both renderers
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// IsImage reports whether a media path has an embeddable image extension
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// TruncateRaw cuts raw body text to RawLimit characters plus "..."
func TruncateRaw(s string) string {
	runes := []rune(s)
	if len(runes) <= RawLimit {
		return s
	}
	return string(runes[:RawLimit]) + "..."
}

// RotatingMedia picks media for the slideshow. position is the 1-based
// position of the slide in the output deck, title surface included, so
// the list wraps around once it is exhausted.
func RotatingMedia(media []string, position int) (string, bool) {
	if len(media) == 0 || position < 1 {
		return "", false
	}
	return media[(position-1)%len(media)], true
}

// PositionalMedia picks media for the document. index is the 0-based
// content slide index; slides past the end of the list get nothing.
func PositionalMedia(media []string, index int) (string, bool) {
	if index < 0 || index >= len(media) {
		return "", false
	}
	return media[index], true
}

// bodyLines flattens slide content for renderers. A slide without items
// falls back to its truncated raw text.
func bodyLines(slide entities.Slide) []entities.ContentItem {
	if len(slide.Items) > 0 {
		return slide.Items
	}
	if raw := strings.TrimSpace(slide.Raw); raw != "" {
		return []entities.ContentItem{entities.Text(TruncateRaw(raw))}
	}
	return nil
}

// Registry maps formats to their renderers
type Registry struct {
	renderers map[entities.Format]ports.DeckRenderer
}

// NewRegistry creates a registry holding the given renderers
func NewRegistry(renderers ...ports.DeckRenderer) *Registry {
	r := &Registry{renderers: make(map[entities.Format]ports.DeckRenderer)}
	for _, renderer := range renderers {
		r.Register(renderer)
	}
	return r
}

// NewDefaultRegistry registers the slideshow and document renderers
func NewDefaultRegistry(pdfFont string) *Registry {
	return NewRegistry(NewPPTXRenderer(), NewPDFRenderer(pdfFont))
}

// Register adds or replaces the renderer for its format
func (r *Registry) Register(renderer ports.DeckRenderer) {
	r.renderers[renderer.Format()] = renderer
}

// Get returns the renderer for a format
func (r *Registry) Get(format entities.Format) (ports.DeckRenderer, error) {
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, fmt.Errorf("no renderer registered for format: %s", format)
	}
	return renderer, nil
}

// Formats returns the registered formats in a stable order
func (r *Registry) Formats() []entities.Format {
	formats := make([]entities.Format, 0, len(r.renderers))
	for f := range r.renderers {
		formats = append(formats, f)
	}
	entities.SortFormats(formats)
	return formats
}

// GetFileSize returns the size of a file in bytes
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ensureOutputDirectory creates the parent directory of outputPath
func ensureOutputDirectory(outputPath string) error {
	if err := validateFilePath(outputPath); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return nil
}

// validateFilePath validates a file path to prevent directory traversal attacks
func validateFilePath(path string) error {
	if path == "" {
		return errors.New("empty path")
	}

	// Check for directory traversal patterns before cleaning
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return errors.New("path contains directory traversal")
		}
	}

	return nil
}
