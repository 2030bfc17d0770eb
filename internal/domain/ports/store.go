package ports

import (
	"io"
	"os"
	"time"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// ArtifactStore owns the output directory shared by all conversions
type ArtifactStore interface {
	// ArtifactPath builds the destination path for a new artifact
	ArtifactPath(locale entities.Locale, format entities.Format) (filename, path string)

	// Open returns the artifact for a bare filename; os.ErrNotExist when absent
	Open(filename string) (*os.File, os.FileInfo, error)

	// SaveMedia copies an uploaded media stream into the media directory
	SaveMedia(name string, r io.Reader) (string, error)

	// ImportMedia copies a local media file into the media directory
	ImportMedia(src string) (string, error)

	// Remove deletes an artifact path, ignoring missing files
	Remove(path string) error

	// Purge deletes artifacts older than maxAge and returns the count
	Purge(maxAge time.Duration) (int, error)

	// Dir returns the output directory
	Dir() string
}
